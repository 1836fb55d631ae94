package model

import (
	"strings"
	"time"
)

// CabinetType discriminates which platform a cabinet belongs to.
type CabinetType string

const (
	CabinetTypeIdex     CabinetType = "idex"
	CabinetTypeExchange CabinetType = "exchange"
)

// ParseCabinetType maps a raw configuration value onto a known variant.
// Unknown values bucket to the exchange platform; known reports whether the
// value was recognized so the caller can log a diagnostic.
func ParseCabinetType(raw string) (ct CabinetType, known bool) {
	switch CabinetType(strings.ToLower(strings.TrimSpace(raw))) {
	case CabinetTypeIdex:
		return CabinetTypeIdex, true
	case CabinetTypeExchange:
		return CabinetTypeExchange, true
	default:
		return CabinetTypeExchange, false
	}
}

// Platform returns the platform records for this cabinet type are fetched from.
func (ct CabinetType) Platform() Platform {
	if ct == CabinetTypeIdex {
		return PlatformIdex
	}
	return PlatformExchange
}

// WorkSession is an operator's shift on a single cabinet. EndTime is nil
// while the shift is still open; the window builder closes it at query time.
type WorkSession struct {
	CabinetID   string
	CabinetType CabinetType
	StartTime   time.Time
	EndTime     *time.Time
	OperatorID  string
}

// Closed reports whether the shift has an explicit end time.
func (s WorkSession) Closed() bool { return s.EndTime != nil }
