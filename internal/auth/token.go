// ABOUTME: JWT issuance, storage, and verification for subject access tokens
// ABOUTME: HS256 tokens with per-subject overwrite and an expiry safety margin

package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// TokenScope is the fixed scope asserted in every issued token.
const TokenScope = "basic"

// expiryMargin is subtracted from the remaining lifetime when checking
// validity, so a token cannot expire between the check and its use.
const expiryMargin = 30 * time.Second

// issuedToken is the latest token minted for a subject.
type issuedToken struct {
	token     string
	expiresAt time.Time
}

// TokenIssuer mints HS256-signed access tokens and retains the latest
// token per subject. The issuer exclusively owns the subject-to-token
// mapping; issuing a new token overwrites the prior one.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration

	mu        sync.Mutex
	bySubject map[string]issuedToken
}

// NewTokenIssuer creates an issuer signing with the given secret.
// Tokens live for ttl from issuance.
func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:    secret,
		ttl:       ttl,
		bySubject: make(map[string]issuedToken),
	}
}

// Issue mints a token for the subject and records it, replacing any
// previously issued token for that subject.
func (i *TokenIssuer) Issue(subjectID string) (string, error) {
	now := time.Now()
	expiresAt := now.Add(i.ttl)

	claims := jwt.MapClaims{
		"sub":   subjectID,
		"scope": TokenScope,
		"iat":   now.Unix(),
		"exp":   expiresAt.Unix(),
		"jti":   uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	i.mu.Lock()
	i.bySubject[subjectID] = issuedToken{token: signed, expiresAt: expiresAt}
	i.mu.Unlock()

	return signed, nil
}

// Valid reports whether the subject holds a token whose remaining
// lifetime exceeds the safety margin.
func (i *TokenIssuer) Valid(subjectID string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	rec, ok := i.bySubject[subjectID]
	if !ok {
		return false
	}

	return time.Until(rec.expiresAt) > expiryMargin
}

// Token returns the stored token for a subject, if any. The raw expiry
// is not re-checked here; callers gate on Valid first.
func (i *TokenIssuer) Token(subjectID string) (string, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	rec, ok := i.bySubject[subjectID]
	return rec.token, ok
}

// Decode validates a token string and returns its claims for
// introspection by downstream consumers.
func (i *TokenIssuer) Decode(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method is HS256
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
