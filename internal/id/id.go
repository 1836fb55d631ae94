// Package id formats and parses reconciliation run identifiers.
package id

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const runDateFormat = "20060102"

// FormatRunID returns a run ID like "RUN-20250310-001".
func FormatRunID(day time.Time, seq int) string {
	return fmt.Sprintf("RUN-%s-%03d", day.Format(runDateFormat), seq)
}

// ParseRunID parses "RUN-20250310-001" into its day and sequence number.
func ParseRunID(id string) (day time.Time, seq int, err error) {
	parts := strings.SplitN(id, "-", 3)
	if len(parts) != 3 || parts[0] != "RUN" {
		return time.Time{}, 0, fmt.Errorf("invalid run ID format: %q", id)
	}

	day, err = time.Parse(runDateFormat, parts[1])
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid date in run ID %q: %w", id, err)
	}

	seq, err = strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid sequence in run ID %q: %w", id, err)
	}

	return day, seq, nil
}
