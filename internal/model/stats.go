package model

import "github.com/shopspring/decimal"

// StatisticsSummary holds the financial rollups for one reconciliation scope.
// The per-order averages are Null when nothing matched: "no data" is distinct
// from zero profit. Recomputed on every request, never persisted.
type StatisticsSummary struct {
	GrossIncome       decimal.Decimal
	GrossExpense      decimal.Decimal
	GrossProfit       decimal.Decimal
	ProfitPercentage  decimal.Decimal
	MatchedCount      int
	TotalTransactions int
	ProfitPerOrder    decimal.NullDecimal
	ExpensePerOrder   decimal.NullDecimal
}
