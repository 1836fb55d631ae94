package stats

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paydesk/reconcile/internal/model"
)

func pair(income, expense string) model.MatchedPair {
	at := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	return model.MatchedPair{
		Idex: model.TransactionRecord{
			ID:        "i",
			Timestamp: at,
			Amount:    decimal.RequireFromString(income),
			Direction: model.DirectionIncome,
			Asset:     "USDT",
		},
		Exchange: model.TransactionRecord{
			ID:        "e",
			Timestamp: at,
			Amount:    decimal.RequireFromString(expense),
			Direction: model.DirectionExpense,
			Asset:     "USDT",
		},
		Kind: model.MatchByOrderRef,
	}
}

func TestSummarize_Rollups(t *testing.T) {
	pairs := []model.MatchedPair{
		pair("105.50", "100.00"),
		pair("210.00", "200.00"),
	}

	s := Summarize(pairs, nil, nil, Options{})

	assert.True(t, s.GrossIncome.Equal(decimal.RequireFromString("315.50")), "income %s", s.GrossIncome)
	assert.True(t, s.GrossExpense.Equal(decimal.RequireFromString("300.00")))
	assert.True(t, s.GrossProfit.Equal(decimal.RequireFromString("15.50")))
	assert.Equal(t, 2, s.MatchedCount)

	require.True(t, s.ProfitPerOrder.Valid)
	assert.True(t, s.ProfitPerOrder.Decimal.Equal(decimal.RequireFromString("7.75")))
	require.True(t, s.ExpensePerOrder.Valid)
	assert.True(t, s.ExpensePerOrder.Decimal.Equal(decimal.RequireFromString("150")))
}

func TestSummarize_ProfitIdentityHoldsExactly(t *testing.T) {
	// Awkward fractional amounts that drift under float64 must not drift here.
	rng := rand.New(rand.NewSource(11))
	var pairs []model.MatchedPair
	for i := 0; i < 500; i++ {
		in := fmt.Sprintf("%d.%02d", rng.Intn(1000), rng.Intn(100))
		out := fmt.Sprintf("%d.%02d", rng.Intn(1000), rng.Intn(100))
		pairs = append(pairs, pair(in, out))
	}

	s := Summarize(pairs, nil, nil, Options{})
	assert.True(t, s.GrossProfit.Equal(s.GrossIncome.Sub(s.GrossExpense)))
}

func TestSummarize_ZeroExpenseMeansZeroPercentage(t *testing.T) {
	pairs := []model.MatchedPair{pair("500.00", "0")}

	s := Summarize(pairs, nil, nil, Options{})
	assert.True(t, s.ProfitPercentage.IsZero())
}

func TestSummarize_ProfitPercentage(t *testing.T) {
	pairs := []model.MatchedPair{pair("110.00", "100.00")}

	s := Summarize(pairs, nil, nil, Options{})
	assert.True(t, s.ProfitPercentage.Equal(decimal.NewFromInt(10)), "got %s", s.ProfitPercentage)
}

func TestSummarize_EmptyInput(t *testing.T) {
	s := Summarize(nil, nil, nil, Options{})

	assert.True(t, s.GrossIncome.IsZero())
	assert.True(t, s.GrossExpense.IsZero())
	assert.True(t, s.GrossProfit.IsZero())
	assert.True(t, s.ProfitPercentage.IsZero())
	assert.Equal(t, 0, s.MatchedCount)
	assert.Equal(t, 0, s.TotalTransactions)
	assert.False(t, s.ProfitPerOrder.Valid, "no data is not zero profit")
	assert.False(t, s.ExpensePerOrder.Valid)
}

func TestSummarize_UnmatchedTotalsPolicy(t *testing.T) {
	pairs := []model.MatchedPair{pair("100", "90")}
	leftA := []model.TransactionRecord{{ID: "a1"}, {ID: "a2"}}
	leftB := []model.TransactionRecord{{ID: "b1"}}

	excl := Summarize(pairs, leftA, leftB, Options{})
	assert.Equal(t, 1, excl.TotalTransactions)

	incl := Summarize(pairs, leftA, leftB, Options{IncludeUnmatchedInTotals: true})
	assert.Equal(t, 4, incl.TotalTransactions)
	assert.Equal(t, 1, incl.MatchedCount, "leftovers never count as matched")
}

func TestSummarize_SameDirectionPairPrefersIdexLeg(t *testing.T) {
	p := pair("100", "90")
	p.Exchange.Direction = model.DirectionIncome // both legs income

	s := Summarize([]model.MatchedPair{p}, nil, nil, Options{})
	assert.True(t, s.GrossIncome.Equal(decimal.NewFromInt(100)))
	assert.True(t, s.GrossExpense.IsZero())
}
