package report

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cofre/internal/core"
)

// Deadline is the tagged result of parsing a goal's textual deadline.
// Known is false both for absent and for unparseable input; callers decide
// whether the latter deserves a warning (Raw non-empty but not Known).
type Deadline struct {
	Day   time.Time
	Known bool
	Raw   string
}

// deadlineLayouts are tried in fixed priority order: day/month/year first
// (the dominant encoding in stored data), then year-month-day, then full
// timestamps.
var deadlineLayouts = []string{
	"02/01/2006",
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// ParseDeadline normalizes a textual deadline to a UTC-midnight day. It
// never fails: unparseable input yields a Deadline that is not Known, which
// the overdue and days-remaining logic treats as "no deadline".
func ParseDeadline(s string) Deadline {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Deadline{}
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return Deadline{Day: core.Midnight(t), Known: true, Raw: raw}
		}
	}
	return Deadline{Raw: raw}
}

// Progress returns the goal completion percentage, capped at 100. A
// non-positive target yields 0.
func Progress(current, target core.Money) float64 {
	if target.Cents <= 0 {
		return 0
	}
	if current.Cents >= target.Cents {
		return 100
	}
	if current.Cents <= 0 {
		return 0
	}
	pct := decimal.NewFromInt(current.Cents).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(target.Cents), 1)
	return pct.InexactFloat64()
}

// IsCompleted reports whether the goal reached its target.
func IsCompleted(current, target core.Money) bool {
	return target.Cents > 0 && current.Cents >= target.Cents
}

// IsOverdue reports whether the deadline's calendar date is strictly before
// today's calendar date. Time of day is stripped from both sides.
func IsOverdue(d Deadline, today time.Time) bool {
	return d.Known && d.Day.Before(core.Midnight(today))
}

// DaysRemaining returns whole days until the deadline: negative when
// overdue, zero when due today. The second return is false when the goal
// has no (usable) deadline.
func DaysRemaining(d Deadline, today time.Time) (int, bool) {
	if !d.Known {
		return 0, false
	}
	diff := d.Day.Sub(core.Midnight(today))
	return int(math.Ceil(diff.Hours() / 24)), true
}

// GoalStatus is the derived display state for one goal.
type GoalStatus struct {
	Progress      float64 `json:"progress"`
	Completed     bool    `json:"completed"`
	Overdue       bool    `json:"overdue"`
	DaysRemaining *int    `json:"days_remaining,omitempty"`
}

// Status assembles the full derived state for a goal as of today. An
// unparseable deadline is surfaced as a warning rather than an error; the
// goal is then treated as having no deadline.
func Status(g core.Goal, today time.Time) (GoalStatus, []Warning) {
	status := GoalStatus{
		Progress:  Progress(g.Current, g.Target),
		Completed: IsCompleted(g.Current, g.Target),
	}

	var warnings []Warning
	deadline := ParseDeadline(g.Deadline)
	if deadline.Raw != "" && !deadline.Known {
		warnings = append(warnings, Warning{Kind: WarnBadDeadline, Detail: deadline.Raw})
	}
	if deadline.Known {
		status.Overdue = IsOverdue(deadline, today)
		if days, ok := DaysRemaining(deadline, today); ok {
			status.DaysRemaining = &days
		}
	}

	return status, warnings
}
