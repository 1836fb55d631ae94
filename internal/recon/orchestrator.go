// Package recon drives the full reconciliation pipeline: window building,
// per-cabinet record fetching, cross-platform matching, and statistics.
// A run is read-only and idempotent; identical inputs yield an identical
// report.
package recon

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/paydesk/reconcile/internal/match"
	"github.com/paydesk/reconcile/internal/model"
	"github.com/paydesk/reconcile/internal/stats"
	"github.com/paydesk/reconcile/internal/window"
)

const (
	// DefaultMaxWorkers bounds concurrent fetches against the record source.
	DefaultMaxWorkers = 4
	// DefaultFetchTimeout caps a single cabinet fetch; a slow cabinet becomes
	// a partial failure instead of stalling the run.
	DefaultFetchTimeout = 30 * time.Second
)

// Options configure an Orchestrator. Zero values fall back to the package
// defaults.
type Options struct {
	ClockOffset  time.Duration
	Tolerance    time.Duration
	MaxWorkers   int
	FetchTimeout time.Duration
	// FetchRate limits fetch calls per second against the external record
	// source; zero means unlimited.
	FetchRate float64
	// IncludeUnmatchedInTotals forwards the totals policy to the aggregator.
	IncludeUnmatchedInTotals bool
	// Strict makes invariant violations panic instead of only logging.
	Strict bool
	// Now supplies the query time used to close open sessions. Captured once
	// per run so re-runs over the same data stay comparable.
	Now    func() time.Time
	Logger zerolog.Logger
}

// Orchestrator composes the pipeline for one record source.
type Orchestrator struct {
	src     RecordSource
	builder *window.Builder
	limiter *rate.Limiter
	opts    Options
	log     zerolog.Logger
}

// New creates an Orchestrator over src.
func New(src RecordSource, opts Options) *Orchestrator {
	if opts.ClockOffset == 0 {
		opts.ClockOffset = window.DefaultClockOffset
	}
	if opts.Tolerance == 0 {
		opts.Tolerance = match.DefaultTolerance
	}
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = DefaultMaxWorkers
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	var limiter *rate.Limiter
	if opts.FetchRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.FetchRate), 1)
	}

	return &Orchestrator{
		src:     src,
		builder: window.NewBuilder(opts.ClockOffset, opts.Logger),
		limiter: limiter,
		opts:    opts,
		log:     opts.Logger,
	}
}

// Reconcile runs the pipeline over an explicit session list. Cabinets are
// fetched independently through a bounded worker pool; a failed or timed-out
// cabinet contributes nothing and is flagged on the report rather than
// aborting its siblings.
func (o *Orchestrator) Reconcile(ctx context.Context, operatorID string, sessions []model.WorkSession) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}

	now := o.opts.Now()
	sets := o.builder.Build(sessions, now)
	units := buildUnits(sets)

	results := make([]unitResult, len(units))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < o.opts.MaxWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = o.fetchUnit(ctx, units[idx])
			}
		}()
	}
	for i := range units {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	report := &Report{OperatorID: operatorID, RunAt: now}

	var idexRecords, exchangeRecords []model.TransactionRecord
	for i, unit := range units {
		res := results[i]
		cr := CabinetResult{
			CabinetID: unit.cabinetID,
			Platform:  unit.platform,
			Fetched:   len(res.records),
		}
		if res.err != nil {
			cr.Failed = true
			cr.Err = res.err.Error()
			report.Partial = true
			o.log.Error().
				Str("cabinet", unit.cabinetID).
				Str("platform", string(unit.platform)).
				Err(res.err).
				Msg("cabinet fetch failed, continuing without it")
		}
		report.Cabinets = append(report.Cabinets, cr)

		kept := o.keepInWindow(res.records, unit)
		if unit.platform == model.PlatformIdex {
			idexRecords = append(idexRecords, kept...)
		} else {
			exchangeRecords = append(exchangeRecords, kept...)
		}
	}

	matched := match.Match(idexRecords, exchangeRecords, match.Options{
		ClockOffset: o.opts.ClockOffset,
		Tolerance:   o.opts.Tolerance,
	})
	o.verifyConsumption(matched, len(idexRecords), len(exchangeRecords))

	report.Pairs = matched.Pairs
	report.UnmatchedIdex = matched.UnmatchedIdex
	report.UnmatchedExchange = matched.UnmatchedExchange
	report.Summary = stats.Summarize(matched.Pairs, matched.UnmatchedIdex, matched.UnmatchedExchange, stats.Options{
		IncludeUnmatchedInTotals: o.opts.IncludeUnmatchedInTotals,
	})
	return report, nil
}

// ReconcilePeriod resolves the operator's sessions for [from, to) through
// source and runs Reconcile over them.
func (o *Orchestrator) ReconcilePeriod(ctx context.Context, source SessionSource, operatorID string, from, to time.Time) (*Report, error) {
	sessions, err := source.Sessions(ctx, operatorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("loading sessions for %s: %w", operatorID, err)
	}
	return o.Reconcile(ctx, operatorID, sessions)
}

// fetchUnit is one cabinet+platform fetch with its own timeout and a pass
// through the shared rate limiter.
type fetchUnit struct {
	cabinetID string
	platform  model.Platform
	windows   []model.Window
}

type unitResult struct {
	records []model.TransactionRecord
	err     error
}

func (o *Orchestrator) fetchUnit(ctx context.Context, unit fetchUnit) unitResult {
	fctx, cancel := context.WithTimeout(ctx, o.opts.FetchTimeout)
	defer cancel()

	if o.limiter != nil {
		if err := o.limiter.Wait(fctx); err != nil {
			return unitResult{err: fmt.Errorf("rate limit wait: %w", err)}
		}
	}

	records, err := o.src.FetchRecords(fctx, unit.platform, unit.windows)
	if err != nil {
		return unitResult{err: fmt.Errorf("fetching %s records for cabinet %s: %w", unit.platform, unit.cabinetID, err)}
	}
	return unitResult{records: records}
}

// keepInWindow drops records the source returned outside the unit's scope.
// The boundary contract forbids them, so each drop is logged as a warning.
func (o *Orchestrator) keepInWindow(records []model.TransactionRecord, unit fetchUnit) []model.TransactionRecord {
	kept := records[:0:0]
	for _, r := range records {
		if r.CabinetID != unit.cabinetID || !anyContains(unit.windows, r.Timestamp) {
			o.log.Warn().
				Str("record", r.ID).
				Str("cabinet", unit.cabinetID).
				Str("platform", string(unit.platform)).
				Msg("record outside fetch windows dropped")
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// verifyConsumption asserts the at-most-one-match invariant over a finished
// matching run. A violation is a programming defect: logged always, fatal
// under Strict.
func (o *Orchestrator) verifyConsumption(res match.Result, idexTotal, exchangeTotal int) {
	seen := make(map[string]bool, len(res.Pairs)*2)
	violated := false
	for _, p := range res.Pairs {
		if seen["a:"+p.Idex.ID] || seen["b:"+p.Exchange.ID] {
			violated = true
		}
		seen["a:"+p.Idex.ID] = true
		seen["b:"+p.Exchange.ID] = true
	}
	if len(res.Pairs)+len(res.UnmatchedIdex) != idexTotal ||
		len(res.Pairs)+len(res.UnmatchedExchange) != exchangeTotal {
		violated = true
	}
	if !violated {
		return
	}
	o.log.Error().Msg("matcher consumption invariant violated")
	if o.opts.Strict {
		panic("recon: matcher consumption invariant violated")
	}
}

// buildUnits groups windows per cabinet and platform and orders them so the
// pool always dispatches, and the report always lists, cabinets identically.
func buildUnits(sets window.Sets) []fetchUnit {
	group := func(ws []model.Window, p model.Platform, out map[string]*fetchUnit, order *[]string) {
		for _, w := range ws {
			key := string(p) + "/" + w.CabinetID
			u, ok := out[key]
			if !ok {
				u = &fetchUnit{cabinetID: w.CabinetID, platform: p}
				out[key] = u
				*order = append(*order, key)
			}
			u.windows = append(u.windows, w)
		}
	}

	byKey := make(map[string]*fetchUnit)
	var keys []string
	group(sets.Idex, model.PlatformIdex, byKey, &keys)
	group(sets.Exchange, model.PlatformExchange, byKey, &keys)
	sort.Strings(keys)

	units := make([]fetchUnit, 0, len(keys))
	for _, k := range keys {
		units = append(units, *byKey[k])
	}
	return units
}

func anyContains(windows []model.Window, ts time.Time) bool {
	for _, w := range windows {
		if w.Contains(ts) {
			return true
		}
	}
	return false
}
