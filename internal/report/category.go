package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"cofre/internal/core"
)

// ByCategory groups transactions by category name. The input is expected to
// be pre-filtered to the desired date range and direction (the dashboard
// charts expenses only).
//
// Every known category yields a bucket even at zero total, so the chart
// legend always lists the full taxonomy. Transactions whose category is not
// in the known list fold into the "Other" bucket, which is appended only
// when it accumulated a nonzero total; each distinct folded label surfaces
// as a warning. Results sort descending by total, ties keeping the known
// list order.
func ByCategory(transactions []core.Transaction, knownCategories []string) ([]Bucket, []Warning) {
	if len(transactions) == 0 && len(knownCategories) == 0 {
		return []Bucket{}, nil
	}

	// Grand total comes from the raw transactions, before any folding, so a
	// synthesized "Other" bucket cannot skew percentages.
	var grand int64
	for _, tx := range transactions {
		grand += tx.Amount.Cents
	}

	known := make(map[string]bool, len(knownCategories))
	for _, name := range knownCategories {
		known[name] = true
	}

	totals := make(map[string]int64, len(knownCategories)+1)
	var warnings []Warning
	warned := make(map[string]bool)
	for _, tx := range transactions {
		label := tx.Normalize().Category
		if !known[label] {
			if label != core.CategoryOther && !warned[label] {
				warned[label] = true
				warnings = append(warnings, Warning{Kind: WarnUnknownCategory, Detail: label})
			}
			label = core.CategoryOther
		}
		totals[label] += tx.Amount.Cents
	}

	buckets := make([]Bucket, 0, len(knownCategories)+1)
	for _, name := range knownCategories {
		buckets = append(buckets, newBucket(name, totals[name], grand))
	}
	if !known[core.CategoryOther] && totals[core.CategoryOther] > 0 {
		buckets = append(buckets, newBucket(core.CategoryOther, totals[core.CategoryOther], grand))
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].TotalCents > buckets[j].TotalCents
	})

	return buckets, warnings
}

func newBucket(label string, total, grand int64) Bucket {
	return Bucket{
		Label:      label,
		TotalCents: total,
		Percentage: percentage(total, grand),
		Color:      ColorFor(label),
	}
}

// percentage returns total/grand*100 rounded to one decimal, or 0 when the
// grand total is zero.
func percentage(total, grand int64) float64 {
	if grand == 0 || total == 0 {
		return 0
	}
	pct := decimal.NewFromInt(total).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(grand), 1)
	return pct.InexactFloat64()
}
