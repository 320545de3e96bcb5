package report

import (
	"context"
	"errors"
	"testing"

	"cofre/internal/core"
)

type fakeStore struct {
	transactions []core.Transaction
	categories   []string
	err          error

	gotFilters []Filter
}

func (f *fakeStore) TransactionsInRange(_ context.Context, filter Filter) ([]core.Transaction, error) {
	f.gotFilters = append(f.gotFilters, filter)
	if f.err != nil {
		return nil, f.err
	}
	return f.transactions, nil
}

func (f *fakeStore) KnownCategories(_ context.Context, _ core.Direction) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.categories, nil
}

func TestServiceCategories(t *testing.T) {
	store := &fakeStore{
		transactions: []core.Transaction{
			outflow("Food", 6000),
			outflow("Transport", 4000),
		},
		categories: []string{"Food", "Transport", "Health"},
	}
	svc := NewService(store)

	got, err := svc.Categories(context.Background(), "2025-09-01", "2025-09-30")
	if err != nil {
		t.Fatal(err)
	}

	if got.TotalCents != 10000 {
		t.Errorf("TotalCents = %d, want 10000", got.TotalCents)
	}
	if len(got.Buckets) != 3 {
		t.Fatalf("buckets = %+v", got.Buckets)
	}
	if got.Buckets[0].Label != "Food" || got.Buckets[0].Percentage != 60 {
		t.Errorf("top bucket = %+v", got.Buckets[0])
	}
	if len(got.Legend) != 3 {
		t.Errorf("legend = %+v", got.Legend)
	}
	if entry, ok := got.Legend["Food"]; !ok || entry.Color == "" {
		t.Errorf("legend missing Food entry: %+v", got.Legend)
	}

	// The report only charts expenses by category.
	if len(store.gotFilters) != 1 || store.gotFilters[0].Direction != core.Outflow {
		t.Errorf("filters = %+v", store.gotFilters)
	}
}

func TestServiceCategoriesStoreError(t *testing.T) {
	svc := NewService(&fakeStore{err: errors.New("backend down")})

	if _, err := svc.Categories(context.Background(), "2025-09-01", "2025-09-30"); err == nil {
		t.Fatal("expected error")
	}
}

func TestServiceCashflowFetchesBothDirections(t *testing.T) {
	store := &fakeStore{
		transactions: []core.Transaction{
			cashflowTx("2025-09-30T10:00:00Z", core.Outflow, core.PaymentCash, 100),
			cashflowTx("2025-09-30T11:00:00Z", core.Inflow, core.PaymentGoalWithdrawal, 50),
		},
	}
	svc := NewService(store)

	got, err := svc.Cashflow(context.Background(), "2025-09-01", "2025-09-30")
	if err != nil {
		t.Fatal(err)
	}

	if len(store.gotFilters) != 1 || store.gotFilters[0].Direction != "" {
		t.Errorf("cashflow must fetch all directions, filters = %+v", store.gotFilters)
	}
	if len(got.Days) != 1 || got.Days[0].Cash != 100 || got.Days[0].GoalWithdrawal != 50 {
		t.Errorf("days = %+v", got.Days)
	}
}
