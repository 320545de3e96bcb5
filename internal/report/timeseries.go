package report

import (
	"sort"

	"cofre/internal/core"
)

// ByDay groups cash-flow events by literal calendar day and payment-method
// tag, producing the series behind the stacked area chart.
//
// The chart answers "where did cash move", not "income vs. expense": it
// includes every outflow plus inflows tagged as goal withdrawals (money
// moved back out of a savings goal is a cash-flow event even though it is
// technically an inflow). Day keys come from the timestamp's literal date
// component, so records bucket identically regardless of host timezone.
// Rows with malformed timestamps are skipped and reported as warnings.
func ByDay(transactions []core.Transaction) ([]DayBucket, []Warning) {
	days := make(map[string]*DayBucket)
	var warnings []Warning

	for _, tx := range transactions {
		tx = tx.Normalize()
		if !includedInCashflow(tx) {
			continue
		}

		key, err := core.DayKey(tx.OccurredAt)
		if err != nil {
			warnings = append(warnings, Warning{Kind: WarnBadTimestamp, Detail: tx.OccurredAt})
			continue
		}

		bucket, ok := days[key]
		if !ok {
			bucket = &DayBucket{Date: key, Day: core.DayKeyTime(key)}
			days[key] = bucket
		}

		cents := tx.Amount.Cents
		switch tx.PaymentMethod {
		case core.PaymentCredit:
			bucket.Credit += cents
		case core.PaymentDebit:
			bucket.Debit += cents
		case core.PaymentTransfer:
			bucket.Transfer += cents
		case core.PaymentCash:
			bucket.Cash += cents
		case core.PaymentGoalContribution:
			bucket.GoalContribution += cents
		case core.PaymentGoalWithdrawal:
			bucket.GoalWithdrawal += cents
		default:
			bucket.Other += cents
		}
	}

	series := make([]DayBucket, 0, len(days))
	for _, bucket := range days {
		series = append(series, *bucket)
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Date < series[j].Date
	})

	return series, warnings
}

func includedInCashflow(tx core.Transaction) bool {
	if tx.Direction == core.Outflow {
		return true
	}
	return tx.Direction == core.Inflow && tx.PaymentMethod == core.PaymentGoalWithdrawal
}
