package testfixtures

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// fixtureNamespace seeds the deterministic UUIDs handed out by IDGenerator.UUIDs.
var fixtureNamespace = uuid.MustParse("6f1d9c3e-2f4b-4b8e-9a57-0c3e8f7f2a11")

// IDGenerator produces predictable identifiers. Next yields "<prefix>-N"; UUIDs yields
// name-based UUIDs with the same shape as production IDs.
type IDGenerator struct {
	mu      sync.Mutex
	prefix  string
	counter uint64
}

// NewIDGenerator returns a generator for prefix, defaulting to "id".
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

func (g *IDGenerator) next() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return g.counter
}

// Next returns the next prefixed identifier.
func (g *IDGenerator) Next() string {
	return fmt.Sprintf("%s-%d", g.prefix, g.next())
}

// NextFunc exposes Next for injection into services.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// UUIDs returns a generator of deterministic UUID strings sharing this counter.
func (g *IDGenerator) UUIDs() func() string {
	return func() string {
		n := g.next()
		return uuid.NewSHA1(fixtureNamespace, []byte(g.prefix+"/"+strconv.FormatUint(n, 10))).String()
	}
}
