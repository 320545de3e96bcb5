package goals

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"cofre/internal/core"
	"cofre/internal/report"
)

// Store is the persistence surface the service needs.
type Store interface {
	CreateGoal(ctx context.Context, g core.Goal) error
	GetGoal(ctx context.Context, id uuid.UUID) (core.Goal, error)
	ListGoals(ctx context.Context) ([]core.Goal, error)
	ApplyGoalMovement(ctx context.Context, goalID uuid.UUID, newCurrentCents int64, entry core.Transaction) error
	DeleteGoalCascade(ctx context.Context, g core.Goal) error
	EnqueueExport(ctx context.Context, recordType, recordID, operation string) error
}

// Publisher emits record-change events after a write commits.
type Publisher interface {
	PublishRecordChange(ctx context.Context, recordType, recordID, operation string) error
}

// View is a goal together with its computed status.
type View struct {
	Goal     core.Goal         `json:"goal"`
	Status   report.GoalStatus `json:"status"`
	Warnings []report.Warning  `json:"warnings,omitempty"`
}

// Service orchestrates goal operations across SQLite and AMQP.
type Service struct {
	store     Store
	publisher Publisher

	// now is replaceable in tests
	now func() time.Time
}

func NewService(store Store, publisher Publisher) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

// Create validates and stores a new goal. The deadline is kept verbatim;
// parsing happens at read time so an odd format never blocks creation.
func (s *Service) Create(ctx context.Context, name string, target core.Money, deadline string) (core.Goal, error) {
	g := core.Goal{
		ID:       uuid.New(),
		Name:     name,
		Target:   target,
		Deadline: deadline,
	}
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}

	if err := s.store.CreateGoal(ctx, g); err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}

	s.notify(ctx, g.ID, "append")
	return g, nil
}

// Get returns one goal with its computed status.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (View, error) {
	g, err := s.store.GetGoal(ctx, id)
	if err != nil {
		return View{}, err
	}
	return s.view(g), nil
}

// List returns all goals with their computed status.
func (s *Service) List(ctx context.Context) ([]View, error) {
	goals, err := s.store.ListGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}

	views := make([]View, 0, len(goals))
	for _, g := range goals {
		views = append(views, s.view(g))
	}
	return views, nil
}

// Contribute moves money into a goal. The applied amount is clamped so the
// goal never exceeds its target; a goal already at target is a no-op and
// writes no ledger entry.
func (s *Service) Contribute(ctx context.Context, id uuid.UUID, amount core.Money, occurredAt string) (core.Goal, error) {
	if amount.Cents <= 0 {
		return core.Goal{}, core.ErrInvalidAmount
	}

	g, err := s.store.GetGoal(ctx, id)
	if err != nil {
		return core.Goal{}, err
	}

	delta := amount.Cents
	if room := g.Target.Cents - g.Current.Cents; delta > room {
		delta = room
	}
	if delta <= 0 {
		slog.InfoContext(ctx, "Goal already at target, contribution skipped", "id", g.ID)
		return g, nil
	}

	entry := s.ledgerEntry(g, core.Outflow, core.CategoryGoalContribution,
		core.PaymentGoalContribution, delta, occurredAt)

	g.Current.Cents += delta
	if err := s.store.ApplyGoalMovement(ctx, g.ID, g.Current.Cents, entry); err != nil {
		return core.Goal{}, fmt.Errorf("apply contribution: %w", err)
	}

	s.notifyEntry(ctx, entry)
	return g, nil
}

// Withdraw moves money out of a goal. The applied amount is clamped at the
// saved balance; an empty goal is a no-op and writes no ledger entry.
func (s *Service) Withdraw(ctx context.Context, id uuid.UUID, amount core.Money, occurredAt string) (core.Goal, error) {
	if amount.Cents <= 0 {
		return core.Goal{}, core.ErrInvalidAmount
	}

	g, err := s.store.GetGoal(ctx, id)
	if err != nil {
		return core.Goal{}, err
	}

	delta := amount.Cents
	if delta > g.Current.Cents {
		delta = g.Current.Cents
	}
	if delta <= 0 {
		slog.InfoContext(ctx, "Goal has no saved balance, withdrawal skipped", "id", g.ID)
		return g, nil
	}

	entry := s.ledgerEntry(g, core.Inflow, core.CategoryGoalWithdrawal,
		core.PaymentGoalWithdrawal, delta, occurredAt)

	g.Current.Cents -= delta
	if err := s.store.ApplyGoalMovement(ctx, g.ID, g.Current.Cents, entry); err != nil {
		return core.Goal{}, fmt.Errorf("apply withdrawal: %w", err)
	}

	s.notifyEntry(ctx, entry)
	return g, nil
}

// Delete removes a goal and every ledger entry its movements created.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	g, err := s.store.GetGoal(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteGoalCascade(ctx, g); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}

	s.notify(ctx, g.ID, "delete")
	return nil
}

func (s *Service) view(g core.Goal) View {
	status, warnings := report.Status(g, s.now())
	return View{Goal: g, Status: status, Warnings: warnings}
}

func (s *Service) ledgerEntry(g core.Goal, dir core.Direction, category, method string, cents int64, occurredAt string) core.Transaction {
	if occurredAt == "" {
		occurredAt = s.now().UTC().Format(time.RFC3339)
	}
	return core.Transaction{
		ID:            uuid.New(),
		OccurredAt:    occurredAt,
		Amount:        core.Money{Cents: cents},
		Direction:     dir,
		Category:      category,
		PaymentMethod: method,
		Description:   core.GoalDescription(g.Name),
	}
}

// notifyEntry queues the ledger entry for export and publishes the change
// event. Both are best effort; the movement is already committed.
func (s *Service) notifyEntry(ctx context.Context, entry core.Transaction) {
	if err := s.store.EnqueueExport(ctx, "transaction", entry.ID.String(), "append"); err != nil {
		slog.ErrorContext(ctx, "Failed to enqueue ledger entry export",
			"id", entry.ID, "error", err)
	}
	s.publish(ctx, "transaction", entry.ID.String(), "append")
}

func (s *Service) notify(ctx context.Context, goalID uuid.UUID, operation string) {
	s.publish(ctx, "goal", goalID.String(), operation)
}

func (s *Service) publish(ctx context.Context, recordType, recordID, operation string) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping event publish")
		return
	}
	if err := s.publisher.PublishRecordChange(ctx, recordType, recordID, operation); err != nil {
		slog.ErrorContext(ctx, "Failed to publish record change",
			"record_type", recordType, "record_id", recordID, "error", err)
	}
}
