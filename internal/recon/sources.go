package recon

import (
	"context"
	"time"

	"github.com/paydesk/reconcile/internal/model"
)

// RecordSource fetches raw transaction records for one platform. The window
// list is disjunctive: a record qualifies when its (cabinet, timestamp) falls
// inside any of the windows. Implementations must be safe for concurrent use.
type RecordSource interface {
	FetchRecords(ctx context.Context, platform model.Platform, windows []model.Window) ([]model.TransactionRecord, error)
}

// SessionSource supplies an operator's work sessions for a reporting period.
// Sessions still open at query time come back with a nil end time.
type SessionSource interface {
	Sessions(ctx context.Context, operatorID string, from, to time.Time) ([]model.WorkSession, error)
}
