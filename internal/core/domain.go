package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Direction tells whether money entered or left the account.
type Direction string

const (
	Inflow  Direction = "inflow"
	Outflow Direction = "outflow"
)

// Payment method tags recognized by the cash-flow report. Anything else is
// folded into the catch-all bucket.
const (
	PaymentCredit           = "credit"
	PaymentDebit            = "debit"
	PaymentTransfer         = "transfer"
	PaymentCash             = "cash"
	PaymentGoalContribution = "goal_contribution"
	PaymentGoalWithdrawal   = "goal_withdrawal"
	PaymentNotInformed      = "not_informed"
)

// Category labels used for synthesized goal ledger entries and for folding
// unrecognized categories.
const (
	CategoryOther            = "Other"
	CategoryGoalContribution = "Goal contribution"
	CategoryGoalWithdrawal   = "Goal withdrawal"
)

type (
	Money struct {
		Cents int64
	}

	// Transaction is a single income or expense record. OccurredAt is kept
	// as the canonical ISO timestamp string exactly as written; day
	// bucketing works on its literal date component, never on a
	// timezone-converted time value.
	Transaction struct {
		ID            uuid.UUID
		OccurredAt    string
		Amount        Money
		Direction     Direction
		Category      string
		PaymentMethod string
		Description   string
		CreatedAt     time.Time
	}

	// Goal is a savings goal. Current is mutated only through contribute
	// and withdraw operations, which clamp it to [0, Target].
	Goal struct {
		ID        uuid.UUID
		Name      string
		Target    Money
		Current   Money
		Deadline  string
		CreatedAt time.Time
		UpdatedAt time.Time
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDirection = errors.New("invalid direction")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidTarget    = errors.New("target must be positive")
	ErrNegativeCurrent  = errors.New("current amount cannot be negative")
)

// GoalDescription derives the ledger description key for a goal. Goal
// deletion finds associated ledger entries by exact match on this value.
func GoalDescription(name string) string {
	return "Goal: " + name
}

func (d Direction) Validate() error {
	switch d {
	case Inflow, Outflow:
		return nil
	}
	return ErrInvalidDirection
}

// Normalize returns the transaction with catch-all defaults applied to the
// optional display fields.
func (t Transaction) Normalize() Transaction {
	if strings.TrimSpace(t.Category) == "" {
		t.Category = CategoryOther
	}
	if strings.TrimSpace(t.PaymentMethod) == "" {
		t.PaymentMethod = PaymentNotInformed
	}
	return t
}

func (t Transaction) Validate() error {
	if _, err := DayKey(t.OccurredAt); err != nil {
		return ErrInvalidTimestamp
	}
	if t.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if err := t.Direction.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (g Goal) Validate() error {
	if len(strings.TrimSpace(g.Name)) == 0 {
		return ErrEmptyName
	}
	if len(g.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if g.Target.Cents <= 0 {
		return ErrInvalidTarget
	}
	if g.Current.Cents < 0 {
		return ErrNegativeCurrent
	}
	return nil
}
