package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/paydesk/reconcile/internal/model"
)

// ExchangeParser parses exchange platform CSV exports, keyed by the
// transaction timestamp in the exchange's native (skewed) clock domain.
// Timestamps are stored as exported; the skew correction happens in the
// window builder and matcher, never here.
type ExchangeParser struct{}

const (
	exchNumFields = 9
	exchColID     = 0
	exchColCab    = 1
	exchColTime   = 2
	exchColOrder  = 3
	exchColAmount = 4
	exchColSide   = 5
	exchColAsset  = 6
	exchColCparty = 7
	exchColStatus = 8
)

const exchTimeFormat = "2006-01-02 15:04:05"

// Platform returns the platform this parser feeds.
func (p *ExchangeParser) Platform() model.Platform { return model.PlatformExchange }

// Parse reads an exchange export and returns its records.
func (p *ExchangeParser) Parse(r io.Reader) ([]model.TransactionRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = exchNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading exchange CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var out []model.TransactionRecord
	for i, rec := range records[1:] {
		txn, err := parseExchangeRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, txn)
	}
	return out, nil
}

func parseExchangeRow(rec []string) (model.TransactionRecord, error) {
	txTime, err := time.Parse(exchTimeFormat, rec[exchColTime])
	if err != nil {
		return model.TransactionRecord{}, fmt.Errorf("parsing tx_time %q: %w", rec[exchColTime], err)
	}

	amount, err := decimal.NewFromString(rec[exchColAmount])
	if err != nil {
		return model.TransactionRecord{}, fmt.Errorf("parsing amount %q: %w", rec[exchColAmount], err)
	}

	dir, err := parseDirection(rec[exchColSide])
	if err != nil {
		return model.TransactionRecord{}, err
	}

	txn := model.TransactionRecord{
		ID:              rec[exchColID],
		CabinetID:       rec[exchColCab],
		Timestamp:       txTime.UTC(),
		OrderRef:        rec[exchColOrder],
		Amount:          amount,
		Direction:       dir,
		Asset:           rec[exchColAsset],
		CounterpartyRef: rec[exchColCparty],
		RawStatus:       rec[exchColStatus],
	}
	if txn.ID == "" {
		txn.ID = syntheticID(txn)
	}
	return txn, nil
}
