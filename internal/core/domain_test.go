package core

import (
	"testing"

	"github.com/google/uuid"
)

func validTransaction() Transaction {
	return Transaction{
		ID:            uuid.New(),
		OccurredAt:    "2025-09-30T14:00:00Z",
		Amount:        Money{Cents: 1500},
		Direction:     Outflow,
		Category:      "Food",
		PaymentMethod: PaymentDebit,
		Description:   "lunch",
	}
}

func TestTransactionValidate(t *testing.T) {
	if err := validTransaction().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []func(*Transaction){
		func(tx *Transaction) { tx.OccurredAt = "not a date" },
		func(tx *Transaction) { tx.OccurredAt = "" },
		func(tx *Transaction) { tx.Amount = Money{Cents: 0} },
		func(tx *Transaction) { tx.Amount = Money{Cents: -100} },
		func(tx *Transaction) { tx.Direction = Direction("sideways") },
		func(tx *Transaction) { tx.Description = "  " },
	}
	for i, mutate := range bads {
		tx := validTransaction()
		mutate(&tx)
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestTransactionNormalize(t *testing.T) {
	tx := Transaction{Category: "  ", PaymentMethod: ""}
	got := tx.Normalize()
	if got.Category != CategoryOther {
		t.Errorf("Category = %q, want %q", got.Category, CategoryOther)
	}
	if got.PaymentMethod != PaymentNotInformed {
		t.Errorf("PaymentMethod = %q, want %q", got.PaymentMethod, PaymentNotInformed)
	}

	tx = Transaction{Category: "Food", PaymentMethod: PaymentCash}
	got = tx.Normalize()
	if got.Category != "Food" || got.PaymentMethod != PaymentCash {
		t.Errorf("Normalize changed populated fields: %+v", got)
	}
}

func TestGoalValidate(t *testing.T) {
	good := Goal{Name: "Emergency fund", Target: Money{Cents: 100000}}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Goal{
		{Name: "", Target: Money{Cents: 100}},
		{Name: "x", Target: Money{Cents: 0}},
		{Name: "x", Target: Money{Cents: -5}},
		{Name: "x", Target: Money{Cents: 100}, Current: Money{Cents: -1}},
	}
	for i, g := range bads {
		if err := g.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestGoalDescription(t *testing.T) {
	if got := GoalDescription("Trip"); got != "Goal: Trip" {
		t.Errorf("GoalDescription = %q", got)
	}
}
