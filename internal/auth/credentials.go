// ABOUTME: Credential store for out-of-band verification accounts
// ABOUTME: Verifies username/password pairs against bcrypt hashes with constant timing

package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when the username is unknown so that
// lookup failures take the same time as a real password check. This
// prevents timing attacks that could enumerate valid usernames.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Credential is a verification account seeded into the store.
// PasswordHash (bcrypt) wins when both fields are set; Password is a
// development convenience hashed at load time.
type Credential struct {
	Username     string
	Password     string
	PasswordHash string
}

// CredentialStore holds the principal accounts used to verify the
// out-of-band handshake. The mapping is built once at startup and is
// immutable afterwards, so reads need no locking.
type CredentialStore struct {
	hashes map[string]string // username -> bcrypt hash
}

// NewCredentialStore builds a store from seed credentials. Plaintext
// passwords are hashed with bcrypt at load time; stored hashes are used
// as-is.
func NewCredentialStore(seeds []Credential) (*CredentialStore, error) {
	hashes := make(map[string]string, len(seeds))

	for _, c := range seeds {
		if c.Username == "" {
			return nil, fmt.Errorf("credential with empty username")
		}
		if _, exists := hashes[c.Username]; exists {
			return nil, fmt.Errorf("duplicate credential for %q", c.Username)
		}

		switch {
		case c.PasswordHash != "":
			hashes[c.Username] = c.PasswordHash
		case c.Password != "":
			hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), bcrypt.DefaultCost)
			if err != nil {
				return nil, fmt.Errorf("hashing password for %q: %w", c.Username, err)
			}
			hashes[c.Username] = string(hash)
		default:
			return nil, fmt.Errorf("credential for %q has no password or hash", c.Username)
		}
	}

	return &CredentialStore{hashes: hashes}, nil
}

// Verify reports whether the presented username/password pair matches a
// seeded account. Unknown usernames and wrong passwords are
// indistinguishable to the caller, and the stored hash is never exposed.
func (s *CredentialStore) Verify(username, password string) bool {
	hash, ok := s.hashes[username]
	if !ok {
		// Dummy comparison to keep timing constant for unknown users
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
