// ABOUTME: Authorization gate deciding whether a tool call may proceed
// ABOUTME: Opens a pending authorization and returns a challenge when no valid token exists

package auth

import (
	"fmt"
	"time"
)

// TokenChecker reports whether a subject currently holds a usable token.
type TokenChecker interface {
	Valid(subjectID string) bool
}

// ChallengeCreator opens new pending authorizations.
type ChallengeCreator interface {
	Create(subjectID string) (code string, expiresAt time.Time, err error)
	TTL() time.Duration
}

// Challenge carries the out-of-band verification instructions returned
// when a subject holds no valid token.
type Challenge struct {
	VerificationURI string
	UserCode        string
	ExpiresIn       int // seconds until the user code expires
}

// Decision is the outcome of an authorization check: either the call
// proceeds, or the caller must complete the challenge first.
type Decision struct {
	Proceed   bool
	Challenge *Challenge
}

// Gate consults the token store to decide whether a subject's tool call
// may proceed. When it may not, the gate opens exactly one new pending
// authorization and returns the verification instructions.
type Gate struct {
	tokens          TokenChecker
	pending         ChallengeCreator
	verificationURI string
}

// NewGate creates a Gate. verificationURI is the absolute or relative
// URI of the activation form the challenge points the user at.
func NewGate(tokens TokenChecker, pending ChallengeCreator, verificationURI string) *Gate {
	return &Gate{
		tokens:          tokens,
		pending:         pending,
		verificationURI: verificationURI,
	}
}

// Authorize decides whether subjectID may proceed. Proceed decisions
// have no side effects. Challenge decisions create one pending
// authorization each; repeated calls before verification completes
// yield independent codes, all valid until they expire.
func (g *Gate) Authorize(subjectID string) (Decision, error) {
	if g.tokens.Valid(subjectID) {
		return Decision{Proceed: true}, nil
	}

	code, _, err := g.pending.Create(subjectID)
	if err != nil {
		return Decision{}, fmt.Errorf("creating pending authorization: %w", err)
	}

	return Decision{
		Challenge: &Challenge{
			VerificationURI: g.verificationURI,
			UserCode:        code,
			ExpiresIn:       int(g.pending.TTL().Seconds()),
		},
	}, nil
}
