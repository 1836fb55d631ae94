// Package match correlates idex and exchange transaction records fetched for
// one reconciliation scope, producing matched pairs plus leftover records.
package match

import (
	"sort"
	"time"

	"github.com/paydesk/reconcile/internal/model"
)

// DefaultTolerance bounds timestamp proximity for the amount fallback rule.
const DefaultTolerance = 5 * time.Minute

// Options tune the correlation rules.
type Options struct {
	// ClockOffset is the fixed skew of exchange timestamps behind idex
	// timestamps. Proximity compares idex time against exchange time plus
	// this offset.
	ClockOffset time.Duration
	// Tolerance bounds the timestamp distance accepted by the amount
	// fallback. Zero or negative disables the fallback pass.
	Tolerance time.Duration
}

// Result is the outcome of one matching run. Unmatched records are not
// errors; they are reconciliation discrepancies reported for visibility.
type Result struct {
	Pairs             []model.MatchedPair
	UnmatchedIdex     []model.TransactionRecord
	UnmatchedExchange []model.TransactionRecord
}

// Match pairs idex records against exchange records. Order references
// correlate first; remaining records fall back to exact amount equality
// within the timestamp tolerance, closest candidate winning and ties broken
// by the lowest exchange record ID. Each record is consumed by at most one
// pair. Inputs are not mutated, and identical inputs always produce
// identically ordered output.
func Match(idex, exchange []model.TransactionRecord, opts Options) Result {
	a := sortedCopy(idex)
	b := sortedCopy(exchange)

	consumedA := make([]bool, len(a))
	consumedB := make([]bool, len(b))

	var pairs []model.MatchedPair

	// Pass 1: exact order reference, present on both sides.
	refIndex := make(map[string][]int, len(b))
	for j, rb := range b {
		if rb.OrderRef != "" {
			refIndex[rb.OrderRef] = append(refIndex[rb.OrderRef], j)
		}
	}
	for i, ra := range a {
		if ra.OrderRef == "" {
			continue
		}
		for _, j := range refIndex[ra.OrderRef] {
			if consumedB[j] {
				continue
			}
			pairs = append(pairs, model.MatchedPair{Idex: ra, Exchange: b[j], Kind: model.MatchByOrderRef})
			consumedA[i] = true
			consumedB[j] = true
			break
		}
	}

	// Pass 2: amount equality within the timestamp tolerance.
	if opts.Tolerance > 0 {
		for i, ra := range a {
			if consumedA[i] {
				continue
			}
			j := closestCandidate(ra, b, consumedB, opts)
			if j < 0 {
				continue
			}
			pairs = append(pairs, model.MatchedPair{Idex: ra, Exchange: b[j], Kind: model.MatchByProximity})
			consumedA[i] = true
			consumedB[j] = true
		}
	}

	res := Result{Pairs: pairs}
	for i, ra := range a {
		if !consumedA[i] {
			res.UnmatchedIdex = append(res.UnmatchedIdex, ra)
		}
	}
	for j, rb := range b {
		if !consumedB[j] {
			res.UnmatchedExchange = append(res.UnmatchedExchange, rb)
		}
	}
	return res
}

// closestCandidate returns the index of the unconsumed exchange record with
// the same amount (and asset, when both sides report one) whose skew-adjusted
// timestamp lies within the tolerance of ra, preferring the smallest distance
// and then the lowest record ID. Returns -1 when none qualifies.
func closestCandidate(ra model.TransactionRecord, b []model.TransactionRecord, consumed []bool, opts Options) int {
	best := -1
	var bestDist time.Duration

	for j, rb := range b {
		if consumed[j] {
			continue
		}
		if !rb.Amount.Equal(ra.Amount) {
			continue
		}
		if ra.Asset != "" && rb.Asset != "" && ra.Asset != rb.Asset {
			continue
		}

		d := ra.Timestamp.Sub(rb.Timestamp.Add(opts.ClockOffset))
		if d < 0 {
			d = -d
		}
		if d > opts.Tolerance {
			continue
		}

		switch {
		case best < 0 || d < bestDist:
			best, bestDist = j, d
		case d == bestDist && rb.ID < b[best].ID:
			best = j
		}
	}
	return best
}

// sortedCopy orders records by timestamp then ID so that every pass walks
// candidates in a reproducible order.
func sortedCopy(records []model.TransactionRecord) []model.TransactionRecord {
	out := make([]model.TransactionRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
