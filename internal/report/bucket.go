// Package report implements the dashboard aggregation core: category
// breakdowns, per-day cash-flow series and goal derived state. Every
// aggregator is a pure function over its input slice; callers may invoke
// them concurrently from independent panels.
package report

import "time"

// Bucket is one aggregation result row: a category (or payment-method)
// label with its summed amount, share of the grand total and display color.
type Bucket struct {
	Label      string  `json:"label"`
	TotalCents int64   `json:"total_cents"`
	Percentage float64 `json:"percentage"`
	Color      string  `json:"color"`
}

// DayBucket carries one calendar day of cash flow, split by payment-method
// tag. Absent tags are zero, never missing, so consumers need no per-field
// nil checks. Date is the literal "YYYY-MM-DD" key; Day is the matching
// UTC-midnight instant, provided for ordering only.
type DayBucket struct {
	Date             string    `json:"date"`
	Day              time.Time `json:"-"`
	Credit           int64     `json:"credit"`
	Debit            int64     `json:"debit"`
	Transfer         int64     `json:"transfer"`
	Cash             int64     `json:"cash"`
	GoalContribution int64     `json:"goal_contribution"`
	GoalWithdrawal   int64     `json:"goal_withdrawal"`
	Other            int64     `json:"other"`
}

// Warning is a non-fatal data-quality diagnostic: the aggregators fold or
// skip anomalous rows instead of failing, and report what they did here.
type Warning struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// Warning kinds emitted by the aggregators.
const (
	WarnUnknownCategory = "unknown_category"
	WarnBadTimestamp    = "bad_timestamp"
	WarnBadDeadline     = "bad_deadline"
)
