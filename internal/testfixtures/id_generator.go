package testfixtures

import (
	"strconv"
	"sync/atomic"
)

// IDGenerator replaces the engine's UUID source with predictable record IDs
// of the form "<prefix>-<n>", so tests can name a record before creating it.
type IDGenerator struct {
	prefix string
	issued atomic.Uint64
}

// NewIDGenerator returns a generator for prefix, defaulting to "id".
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

// Next issues the next ID.
func (g *IDGenerator) Next() string {
	return g.format(g.issued.Add(1))
}

// NextFunc adapts the generator to an idGenerator parameter.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// Upcoming returns the ID the next call to Next will issue.
func (g *IDGenerator) Upcoming() string {
	return g.format(g.issued.Load() + 1)
}

// Issued reports how many IDs have been handed out.
func (g *IDGenerator) Issued() int {
	return int(g.issued.Load())
}

func (g *IDGenerator) format(n uint64) string {
	return g.prefix + "-" + strconv.FormatUint(n, 10)
}
