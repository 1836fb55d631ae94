package source

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paydesk/reconcile/internal/model"
)

func newMockSource(t *testing.T) (*PostgresSource, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresSource(sqlx.NewDb(db, "sqlmock")), mock
}

func TestPostgresSource_FetchRecordsORofRanges(t *testing.T) {
	src, mock := newMockSource(t)

	w1 := model.Window{
		CabinetID: "cab-1",
		Start:     time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
		End:       time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC),
	}
	w2 := model.Window{
		CabinetID: "cab-1",
		Start:     time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC),
		End:       time.Date(2025, 3, 10, 22, 0, 0, 0, time.UTC),
	}

	wantSQL := `SELECT id, cabinet_id, ts, order_ref, amount, direction, asset, counterparty_ref, raw_status FROM platform_records WHERE platform = $1 AND ((cabinet_id = $2 AND ts >= $3 AND ts < $4) OR (cabinet_id = $5 AND ts >= $6 AND ts < $7)) ORDER BY ts, id`

	rows := sqlmock.NewRows([]string{
		"id", "cabinet_id", "ts", "order_ref", "amount", "direction", "asset", "counterparty_ref", "raw_status",
	}).AddRow("idx-1", "cab-1", w1.Start.Add(time.Hour), "ORD-1", "105.00", "income", "USDT", nil, "approved")

	mock.ExpectQuery(wantSQL).
		WithArgs("idex", w1.CabinetID, w1.Start, w1.End, w2.CabinetID, w2.Start, w2.End).
		WillReturnRows(rows)

	got, err := src.FetchRecords(context.Background(), model.PlatformIdex, []model.Window{w1, w2})
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "idx-1", got[0].ID)
	assert.Equal(t, "ORD-1", got[0].OrderRef)
	assert.Equal(t, model.DirectionIncome, got[0].Direction)
	assert.True(t, got[0].Amount.Equal(decimal.NewFromInt(105)))
	assert.Empty(t, got[0].CounterpartyRef)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_EmptyWindowsSkipsQuery(t *testing.T) {
	src, mock := newMockSource(t)

	got, err := src.FetchRecords(context.Background(), model.PlatformIdex, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_QueryErrorWrapped(t *testing.T) {
	src, mock := newMockSource(t)

	mock.ExpectQuery(`SELECT id, cabinet_id, ts, order_ref, amount, direction, asset, counterparty_ref, raw_status FROM platform_records WHERE platform = $1 AND ((cabinet_id = $2 AND ts >= $3 AND ts < $4)) ORDER BY ts, id`).
		WillReturnError(assert.AnError)

	_, err := src.FetchRecords(context.Background(), model.PlatformExchange, []model.Window{{
		CabinetID: "cab-2",
		Start:     time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC),
		End:       time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC),
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "querying exchange records")
}
