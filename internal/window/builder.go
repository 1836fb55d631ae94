// Package window derives per-platform record query windows from operator
// work sessions, applying the exchange clock-skew correction.
package window

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/paydesk/reconcile/internal/model"
)

// DefaultClockOffset is the observed skew between exchange transaction
// timestamps and idex approval timestamps: the exchange clock runs behind
// by three hours, so exchange windows are shifted backward by this amount.
const DefaultClockOffset = 3 * time.Hour

// Builder turns work sessions into per-platform query windows.
type Builder struct {
	offset time.Duration
	log    zerolog.Logger
}

// NewBuilder creates a Builder with the given clock offset for the exchange
// platform. A zero offset disables skew correction.
func NewBuilder(offset time.Duration, log zerolog.Logger) *Builder {
	return &Builder{offset: offset, log: log}
}

// Sets holds the two disjoint window lists produced by one build. Windows
// for the same cabinet are kept as separate entries; overlapping or adjacent
// windows are never merged, so fetchers must treat each list as an OR of
// ranges.
type Sets struct {
	Idex     []model.Window
	Exchange []model.Window
}

// Empty reports whether no windows were produced for either platform.
func (s Sets) Empty() bool { return len(s.Idex) == 0 && len(s.Exchange) == 0 }

// Build produces query windows from sessions. Open sessions (nil end time)
// close at now. Idex cabinets emit verbatim windows; every other cabinet
// type buckets to the exchange platform with both bounds shifted backward
// by the clock offset. A session whose bounds come out inverted is a defect
// in the input: it is logged at error level and dropped, never emitted.
func (b *Builder) Build(sessions []model.WorkSession, now time.Time) Sets {
	var sets Sets
	for _, s := range sessions {
		end := now
		if s.EndTime != nil {
			end = *s.EndTime
		}

		w := model.Window{CabinetID: s.CabinetID, Start: s.StartTime, End: end}
		if !w.Valid() {
			b.log.Error().
				Str("cabinet", s.CabinetID).
				Time("start", w.Start).
				Time("end", w.End).
				Msg("inverted session window dropped")
			continue
		}

		if s.CabinetType == model.CabinetTypeIdex {
			sets.Idex = append(sets.Idex, w)
		} else {
			sets.Exchange = append(sets.Exchange, w.Shift(-b.offset))
		}
	}
	return sets
}
