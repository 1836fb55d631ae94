package model

import "time"

// Window is a half-open interval [Start, End) scoping a record query to one
// cabinet on one platform. Windows are derived from work sessions per request
// and never persisted.
type Window struct {
	CabinetID string
	Start     time.Time
	End       time.Time
}

// Contains reports whether ts falls inside the window.
func (w Window) Contains(ts time.Time) bool {
	return !ts.Before(w.Start) && ts.Before(w.End)
}

// Shift returns the window with both bounds moved by d.
func (w Window) Shift(d time.Duration) Window {
	return Window{CabinetID: w.CabinetID, Start: w.Start.Add(d), End: w.End.Add(d)}
}

// Valid reports whether the bounds are ordered (Start <= End).
func (w Window) Valid() bool { return !w.Start.After(w.End) }
