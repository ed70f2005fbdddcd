// Package testutil provides deterministic collaborators for tests.
package testutil

// FixedTokenGenerator generates the same journey token every time.
//
// This enables deterministic test execution and golden snapshot
// comparison: the same scenario with the same token produces
// byte-identical journals.
//
// Unlike engine.FixedGenerator, which returns tokens in sequence, this
// generator always returns the same token.
//
// Thread-safety: FixedTokenGenerator is stateless and safe for
// concurrent use.
type FixedTokenGenerator struct {
	token string
}

// NewFixedTokenGenerator creates a new fixed journey token generator.
//
// The token is typically set in the scenario YAML:
//
//	journey_token: "test-journey-00000000-0000-0000-0000-000000000001"
//
// If token is empty, Generate() returns "test-journey-default".
func NewFixedTokenGenerator(token string) *FixedTokenGenerator {
	if token == "" {
		token = "test-journey-default"
	}
	return &FixedTokenGenerator{token: token}
}

// Generate returns the fixed journey token.
//
// Implements engine.JourneyTokenGenerator.
func (g *FixedTokenGenerator) Generate() string {
	return g.token
}
