package testutil

// FixedIDGenerator generates the same request ID every time.
//
// This enables deterministic assertions on the X-Request-ID header and on
// log output that carries the ID.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a new fixed request ID generator.
//
// If id is empty, Generate() returns "test-request-default".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-request-default"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed request ID.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
