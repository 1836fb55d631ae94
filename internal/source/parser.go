// Package source provides record fetcher implementations behind the
// recon.RecordSource boundary: parsed platform export files and a Postgres
// ingestion store.
package source

import (
	"io"

	"github.com/paydesk/reconcile/internal/model"
)

// Parser converts one platform's export file into transaction records.
type Parser interface {
	Parse(r io.Reader) ([]model.TransactionRecord, error)
	Platform() model.Platform
}

// Registry holds one parser per platform.
type Registry struct {
	parsers map[model.Platform]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[model.Platform]Parser)}
}

// Register adds a parser. Panics on a duplicate platform.
func (r *Registry) Register(p Parser) {
	if _, ok := r.parsers[p.Platform()]; ok {
		panic("duplicate parser for platform: " + string(p.Platform()))
	}
	r.parsers[p.Platform()] = p
}

// Get returns the parser for platform, or nil.
func (r *Registry) Get(platform model.Platform) Parser {
	return r.parsers[platform]
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&IdexParser{})
	r.Register(&ExchangeParser{})
	return r
}
