package report

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"cofre/internal/core"
)

// Filter selects transactions by inclusive day-key range and, optionally,
// direction. Category filtering stays caller-side: category names are
// denormalized display strings, not foreign keys.
type Filter struct {
	Start     string
	End       string
	Direction core.Direction
}

// Store is the read side the report service depends on. The SQLite
// repository satisfies it.
type Store interface {
	TransactionsInRange(ctx context.Context, f Filter) ([]core.Transaction, error)
	KnownCategories(ctx context.Context, kind core.Direction) ([]string, error)
}

// Service fetches raw rows and feeds the pure aggregators. It keeps no
// state and no cache: every panel request re-fetches.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// CategoryReport is the expenses-by-category panel payload.
type CategoryReport struct {
	Buckets    []Bucket               `json:"buckets"`
	Legend     map[string]LegendEntry `json:"legend"`
	TotalCents int64                  `json:"total_cents"`
	Warnings   []Warning              `json:"warnings,omitempty"`
}

// CashflowReport is the per-day stacked series panel payload.
type CashflowReport struct {
	Days     []DayBucket `json:"days"`
	Warnings []Warning   `json:"warnings,omitempty"`
}

// Categories builds the expense category breakdown for a date range. The
// transaction rows and the known-category list load concurrently.
func (s *Service) Categories(ctx context.Context, start, end string) (CategoryReport, error) {
	var (
		transactions []core.Transaction
		known        []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		transactions, err = s.store.TransactionsInRange(gctx, Filter{
			Start:     start,
			End:       end,
			Direction: core.Outflow,
		})
		if err != nil {
			return fmt.Errorf("list outflow transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		known, err = s.store.KnownCategories(gctx, core.Outflow)
		if err != nil {
			return fmt.Errorf("list known categories: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return CategoryReport{}, err
	}

	buckets, warnings := ByCategory(transactions, known)

	var total int64
	for _, tx := range transactions {
		total += tx.Amount.Cents
	}

	return CategoryReport{
		Buckets:    buckets,
		Legend:     Legend(buckets),
		TotalCents: total,
		Warnings:   warnings,
	}, nil
}

// Cashflow builds the per-day payment-method series for a date range. It
// fetches both directions: goal withdrawals are inflows but still count as
// cash movement.
func (s *Service) Cashflow(ctx context.Context, start, end string) (CashflowReport, error) {
	transactions, err := s.store.TransactionsInRange(ctx, Filter{Start: start, End: end})
	if err != nil {
		return CashflowReport{}, fmt.Errorf("list transactions: %w", err)
	}

	days, warnings := ByDay(transactions)
	return CashflowReport{Days: days, Warnings: warnings}, nil
}
