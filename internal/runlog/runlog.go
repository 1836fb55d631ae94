// Package runlog keeps an append-only CSV audit trail of reconciliation
// runs, one row per run.
package runlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/paydesk/reconcile/internal/id"
)

// Entry is one row in the run log.
type Entry struct {
	RunID          string
	Timestamp      time.Time
	Operator       string
	Cabinets       int
	Matched        int
	Unmatched      int
	FailedCabinets int
	GrossProfit    decimal.Decimal
	Partial        bool
}

// Header is the CSV header for runs.csv.
const Header = "run_id,timestamp,operator,cabinets,matched,unmatched,failed_cabinets,gross_profit,partial"

const (
	numFields   = 9
	logDir      = "logs"
	logFile     = "logs/runs.csv"
	colRunID    = 0
	colTime     = 1
	colOperator = 2
	colCabinets = 3
	colMatched  = 4
	colUnmatch  = 5
	colFailed   = 6
	colProfit   = 7
	colPartial  = 8
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colRunID] = e.RunID
	row[colTime] = e.Timestamp.Format(time.RFC3339)
	row[colOperator] = e.Operator
	row[colCabinets] = strconv.Itoa(e.Cabinets)
	row[colMatched] = strconv.Itoa(e.Matched)
	row[colUnmatch] = strconv.Itoa(e.Unmatched)
	row[colFailed] = strconv.Itoa(e.FailedCabinets)
	row[colProfit] = e.GrossProfit.String()
	row[colPartial] = strconv.FormatBool(e.Partial)
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTime])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTime], err)
	}

	ints := make([]int, 4)
	for i, col := range []int{colCabinets, colMatched, colUnmatch, colFailed} {
		n, err := strconv.Atoi(record[col])
		if err != nil {
			return Entry{}, fmt.Errorf("parsing field %d %q: %w", col, record[col], err)
		}
		ints[i] = n
	}

	profit, err := decimal.NewFromString(record[colProfit])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing gross_profit %q: %w", record[colProfit], err)
	}

	partial, err := strconv.ParseBool(record[colPartial])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing partial %q: %w", record[colPartial], err)
	}

	return Entry{
		RunID:          record[colRunID],
		Timestamp:      ts,
		Operator:       record[colOperator],
		Cabinets:       ints[0],
		Matched:        ints[1],
		Unmatched:      ints[2],
		FailedCabinets: ints[3],
		GrossProfit:    profit,
		Partial:        partial,
	}, nil
}

// Append writes entries to <root>/logs/runs.csv, creating the file and
// header if needed.
func Append(root string, entries []Entry) error {
	dir := filepath.Join(root, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(root, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	return cw.Error()
}

// Read returns all entries from <root>/logs/runs.csv. Returns an empty
// slice if the file does not exist.
func Read(root string) ([]Entry, error) {
	path := filepath.Join(root, logFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

// NextRunID returns the next unused run ID for day, based on the sequence
// numbers already present in the log.
func NextRunID(root string, day time.Time) (string, error) {
	entries, err := Read(root)
	if err != nil {
		return "", err
	}

	maxSeq := 0
	for _, e := range entries {
		d, seq, err := id.ParseRunID(e.RunID)
		if err != nil {
			continue
		}
		if d.Format("20060102") == day.Format("20060102") && seq > maxSeq {
			maxSeq = seq
		}
	}
	return id.FormatRunID(day, maxSeq+1), nil
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading run log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
