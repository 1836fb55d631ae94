package model

// MatchKind records which correlation rule produced a pair.
type MatchKind string

const (
	MatchByOrderRef  MatchKind = "order-ref"
	MatchByProximity MatchKind = "amount-proximity"
)

// MatchedPair joins one record from each platform judged to represent the
// same underlying transfer. A record appears in at most one pair per run.
type MatchedPair struct {
	Idex     TransactionRecord
	Exchange TransactionRecord
	Kind     MatchKind
}
