package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	// Postgres driver for sqlx.Open("postgres", ...).
	_ "github.com/lib/pq"

	"github.com/shopspring/decimal"

	"github.com/paydesk/reconcile/internal/model"
)

// PostgresSource fetches records from the ingestion store, where the upload
// pipeline lands parsed platform rows.
type PostgresSource struct {
	db *sqlx.DB
}

// NewPostgresSource creates a source over an open handle.
func NewPostgresSource(db *sqlx.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

// OpenPostgres connects to dsn and returns a source over it.
func OpenPostgres(dsn string) (*PostgresSource, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	return NewPostgresSource(db), nil
}

// Close releases the underlying handle.
func (s *PostgresSource) Close() error { return s.db.Close() }

type recordRow struct {
	ID           string          `db:"id"`
	CabinetID    string          `db:"cabinet_id"`
	Timestamp    time.Time       `db:"ts"`
	OrderRef     sql.NullString  `db:"order_ref"`
	Amount       decimal.Decimal `db:"amount"`
	Direction    string          `db:"direction"`
	Asset        string          `db:"asset"`
	Counterparty sql.NullString  `db:"counterparty_ref"`
	RawStatus    string          `db:"raw_status"`
}

// FetchRecords queries the store with one disjunctive range predicate per
// window. Ordered by (ts, id) so fetch output is reproducible.
func (s *PostgresSource) FetchRecords(ctx context.Context, platform model.Platform, windows []model.Window) ([]model.TransactionRecord, error) {
	if len(windows) == 0 {
		return nil, nil
	}

	var sb strings.Builder
	sb.WriteString(`SELECT id, cabinet_id, ts, order_ref, amount, direction, asset, counterparty_ref, raw_status FROM platform_records WHERE platform = $1 AND (`)
	args := []interface{}{string(platform)}
	for i, w := range windows {
		if i > 0 {
			sb.WriteString(" OR ")
		}
		fmt.Fprintf(&sb, "(cabinet_id = $%d AND ts >= $%d AND ts < $%d)", len(args)+1, len(args)+2, len(args)+3)
		args = append(args, w.CabinetID, w.Start, w.End)
	}
	sb.WriteString(") ORDER BY ts, id")

	var rows []recordRow
	if err := s.db.SelectContext(ctx, &rows, sb.String(), args...); err != nil {
		return nil, fmt.Errorf("querying %s records: %w", platform, err)
	}

	out := make([]model.TransactionRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.TransactionRecord{
			ID:              r.ID,
			CabinetID:       r.CabinetID,
			Timestamp:       r.Timestamp,
			OrderRef:        r.OrderRef.String,
			Amount:          r.Amount,
			Direction:       model.Direction(r.Direction),
			Asset:           r.Asset,
			CounterpartyRef: r.Counterparty.String,
			RawStatus:       r.RawStatus,
		})
	}
	return out, nil
}
