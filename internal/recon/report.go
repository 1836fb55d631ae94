package recon

import (
	"time"

	"github.com/paydesk/reconcile/internal/model"
)

// CabinetResult is the fetch outcome for one cabinet on one platform. Failed
// cabinets are flagged distinctly so consumers can tell "no transactions"
// from "fetch failed".
type CabinetResult struct {
	CabinetID string
	Platform  model.Platform
	Fetched   int
	Failed    bool
	Err       string
}

// Report is the unified result of one reconciliation run.
type Report struct {
	OperatorID        string
	RunAt             time.Time
	Pairs             []model.MatchedPair
	UnmatchedIdex     []model.TransactionRecord
	UnmatchedExchange []model.TransactionRecord
	Summary           model.StatisticsSummary
	Cabinets          []CabinetResult
	Partial           bool
}
