package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/paydesk/reconcile/internal/model"
)

// IdexParser parses idex platform CSV exports, keyed by the approval
// timestamp.
type IdexParser struct{}

const (
	idexNumFields = 9
	idexColID     = 0
	idexColCab    = 1
	idexColTime   = 2
	idexColRef    = 3
	idexColAmount = 4
	idexColDir    = 5
	idexColAsset  = 6
	idexColCparty = 7
	idexColStatus = 8
)

// Platform returns the platform this parser feeds.
func (p *IdexParser) Platform() model.Platform { return model.PlatformIdex }

// Parse reads an idex export and returns its records.
func (p *IdexParser) Parse(r io.Reader) ([]model.TransactionRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = idexNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading idex CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var out []model.TransactionRecord
	for i, rec := range records[1:] {
		txn, err := parseIdexRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, txn)
	}
	return out, nil
}

func parseIdexRow(rec []string) (model.TransactionRecord, error) {
	approvedAt, err := time.Parse(time.RFC3339, rec[idexColTime])
	if err != nil {
		return model.TransactionRecord{}, fmt.Errorf("parsing approved_at %q: %w", rec[idexColTime], err)
	}

	amount, err := decimal.NewFromString(rec[idexColAmount])
	if err != nil {
		return model.TransactionRecord{}, fmt.Errorf("parsing amount %q: %w", rec[idexColAmount], err)
	}

	dir, err := parseDirection(rec[idexColDir])
	if err != nil {
		return model.TransactionRecord{}, err
	}

	txn := model.TransactionRecord{
		ID:              rec[idexColID],
		CabinetID:       rec[idexColCab],
		Timestamp:       approvedAt,
		OrderRef:        rec[idexColRef],
		Amount:          amount,
		Direction:       dir,
		Asset:           rec[idexColAsset],
		CounterpartyRef: rec[idexColCparty],
		RawStatus:       rec[idexColStatus],
	}
	if txn.ID == "" {
		txn.ID = syntheticID(txn)
	}
	return txn, nil
}

func parseDirection(s string) (model.Direction, error) {
	switch s {
	case "income", "sell":
		return model.DirectionIncome, nil
	case "expense", "buy":
		return model.DirectionExpense, nil
	default:
		return "", fmt.Errorf("unknown direction %q", s)
	}
}
