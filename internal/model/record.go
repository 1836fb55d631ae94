package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Platform identifies which side of the reconciliation a record came from.
type Platform string

const (
	// PlatformIdex records carry approval timestamps and are compared directly.
	PlatformIdex Platform = "idex"
	// PlatformExchange records carry transaction timestamps offset by a fixed
	// clock skew; windows and comparisons must correct for it.
	PlatformExchange Platform = "exchange"
)

// Direction classifies the money flow of a record.
type Direction string

const (
	DirectionIncome  Direction = "income"
	DirectionExpense Direction = "expense"
)

// TransactionRecord is the platform-agnostic shape consumed by the matcher.
type TransactionRecord struct {
	ID              string
	CabinetID       string
	Timestamp       time.Time // native clock domain of the source platform
	OrderRef        string    // empty when the platform did not report one
	Amount          decimal.Decimal
	Direction       Direction
	Asset           string // currency or asset code
	CounterpartyRef string
	RawStatus       string
}
