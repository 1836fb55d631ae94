// Package stats computes the financial rollups for a set of matched
// transaction pairs. All arithmetic is decimal; nothing here rounds, since
// display formatting belongs to the presentation layer.
package stats

import (
	"github.com/shopspring/decimal"

	"github.com/paydesk/reconcile/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Options control the optional counters.
type Options struct {
	// IncludeUnmatchedInTotals counts leftover records toward
	// TotalTransactions alongside the matched pairs.
	IncludeUnmatchedInTotals bool
}

// Summarize computes the statistics for one reconciliation scope. The
// per-order averages stay Null when nothing matched, and ProfitPercentage is
// exactly zero when there is no expense to divide by.
func Summarize(pairs []model.MatchedPair, unmatchedIdex, unmatchedExchange []model.TransactionRecord, opts Options) model.StatisticsSummary {
	income := decimal.Zero
	expense := decimal.Zero
	for _, p := range pairs {
		if leg, ok := legByDirection(p, model.DirectionIncome); ok {
			income = income.Add(leg.Amount)
		}
		if leg, ok := legByDirection(p, model.DirectionExpense); ok {
			expense = expense.Add(leg.Amount)
		}
	}

	profit := income.Sub(expense)

	pct := decimal.Zero
	if !expense.IsZero() {
		pct = profit.Div(expense).Mul(hundred)
	}

	s := model.StatisticsSummary{
		GrossIncome:      income,
		GrossExpense:     expense,
		GrossProfit:      profit,
		ProfitPercentage: pct,
		MatchedCount:     len(pairs),
	}

	s.TotalTransactions = len(pairs)
	if opts.IncludeUnmatchedInTotals {
		s.TotalTransactions += len(unmatchedIdex) + len(unmatchedExchange)
	}

	if n := len(pairs); n > 0 {
		count := decimal.NewFromInt(int64(n))
		s.ProfitPerOrder = decimal.NewNullDecimal(profit.Div(count))
		s.ExpensePerOrder = decimal.NewNullDecimal(expense.Div(count))
	}
	return s
}

// legByDirection returns the pair's leg carrying dir, preferring the idex
// side when both legs share a direction.
func legByDirection(p model.MatchedPair, dir model.Direction) (model.TransactionRecord, bool) {
	if p.Idex.Direction == dir {
		return p.Idex, true
	}
	if p.Exchange.Direction == dir {
		return p.Exchange, true
	}
	return model.TransactionRecord{}, false
}
