package runlog

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(runID string, partial bool) Entry {
	return Entry{
		RunID:          runID,
		Timestamp:      time.Date(2025, 3, 10, 23, 5, 0, 0, time.UTC),
		Operator:       "op-1",
		Cabinets:       3,
		Matched:        17,
		Unmatched:      2,
		FailedCabinets: 1,
		GrossProfit:    decimal.RequireFromString("42.50"),
		Partial:        partial,
	}
}

func TestAppendAndRead(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, Append(dir, []Entry{entry("RUN-20250310-001", false)}))
	require.NoError(t, Append(dir, []Entry{entry("RUN-20250310-002", true)}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "RUN-20250310-001", entries[0].RunID)
	assert.True(t, entries[0].GrossProfit.Equal(decimal.RequireFromString("42.50")))
	assert.False(t, entries[0].Partial)
	assert.True(t, entries[1].Partial)
	assert.Equal(t, 17, entries[1].Matched)
}

func TestRead_NoFile(t *testing.T) {
	entries, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNextRunID(t *testing.T) {
	dir := t.TempDir()
	day := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	first, err := NextRunID(dir, day)
	require.NoError(t, err)
	assert.Equal(t, "RUN-20250310-001", first)

	require.NoError(t, Append(dir, []Entry{entry(first, false)}))

	second, err := NextRunID(dir, day)
	require.NoError(t, err)
	assert.Equal(t, "RUN-20250310-002", second)

	// A new day restarts the sequence.
	next, err := NextRunID(dir, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, "RUN-20250311-001", next)
}

func TestUnmarshalEntry_BadRow(t *testing.T) {
	_, err := UnmarshalEntry([]string{"only", "three", "fields"})
	require.Error(t, err)

	row := MarshalEntry(entry("RUN-20250310-001", false))
	row[colTime] = "not-a-time"
	_, err = UnmarshalEntry(row)
	require.Error(t, err)
}
