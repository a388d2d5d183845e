// ABOUTME: Pending-authorization registry for the out-of-band handshake
// ABOUTME: One-time user codes bound to a subject with lazy TTL expiry

package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Registry errors
var (
	// ErrCodeNotFound means no pending authorization exists for the code
	ErrCodeNotFound = errors.New("user code not found")

	// ErrCodeExpired means the pending authorization outlived its window
	ErrCodeExpired = errors.New("user code expired")
)

// User codes are 8 characters from an uppercase alphanumeric alphabet,
// short enough to type from a phone but drawn from crypto/rand so they
// cannot be guessed within their validity window.
const (
	userCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	userCodeLength   = 8
)

// pendingAuth is a single outstanding authorization handshake.
type pendingAuth struct {
	subjectID string
	expiresAt time.Time
	verified  bool
}

// PendingRegistry holds outstanding one-time authorization codes keyed
// by code. Expiry is checked lazily on every read; a background sweep
// bounds memory growth from abandoned handshakes but is not required
// for correctness.
type PendingRegistry struct {
	mu    sync.Mutex
	codes map[string]*pendingAuth
	ttl   time.Duration

	done   chan struct{}
	closed bool
}

// NewPendingRegistry creates a registry whose codes are valid for ttl
// after creation. A background goroutine periodically removes expired
// entries.
func NewPendingRegistry(ttl time.Duration) *PendingRegistry {
	r := &PendingRegistry{
		codes: make(map[string]*pendingAuth),
		ttl:   ttl,
		done:  make(chan struct{}),
	}
	go r.sweep()
	return r
}

// TTL returns the configured validity window for new codes.
func (r *PendingRegistry) TTL() time.Duration {
	return r.ttl
}

// Create opens a new pending authorization for a subject and returns
// the generated user code and its absolute expiry. Repeated calls for
// the same subject create independent codes; each is valid on its own.
func (r *PendingRegistry) Create(subjectID string) (string, time.Time, error) {
	code, err := newUserCode()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generating user code: %w", err)
	}

	expiresAt := time.Now().Add(r.ttl)

	r.mu.Lock()
	r.codes[code] = &pendingAuth{
		subjectID: subjectID,
		expiresAt: expiresAt,
	}
	r.mu.Unlock()

	return code, expiresAt, nil
}

// Resolve checks that a code is known and still inside its window
// without mutating it. Expired records are purged on sight.
func (r *PendingRegistry) Resolve(code string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.codes[code]
	if !ok {
		return "", ErrCodeNotFound
	}

	if time.Now().After(rec.expiresAt) {
		delete(r.codes, code)
		return "", ErrCodeExpired
	}

	return rec.subjectID, nil
}

// MarkVerified flips a pending authorization to verified and consumes
// it, returning the bound subject. A consumed code cannot be replayed:
// subsequent calls fail with ErrCodeNotFound.
func (r *PendingRegistry) MarkVerified(code string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.codes[code]
	if !ok {
		return "", ErrCodeNotFound
	}

	if time.Now().After(rec.expiresAt) {
		delete(r.codes, code)
		return "", ErrCodeExpired
	}

	rec.verified = true
	delete(r.codes, code)

	return rec.subjectID, nil
}

// Close stops the background sweep goroutine. Safe to call multiple times.
func (r *PendingRegistry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.closed {
		close(r.done)
		r.closed = true
	}
}

// sweep runs in a background goroutine, periodically removing expired
// entries. Lazy checks on Resolve/MarkVerified remain the source of
// truth; this only bounds memory.
func (r *PendingRegistry) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.removeExpired()
		case <-r.done:
			return
		}
	}
}

// removeExpired deletes all entries past their expiry.
func (r *PendingRegistry) removeExpired() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for code, rec := range r.codes {
		if now.After(rec.expiresAt) {
			delete(r.codes, code)
		}
	}
}

// newUserCode generates an 8-character uppercase alphanumeric code from
// crypto/rand. Collisions are astronomically unlikely within a 10-minute
// window and are not handled specially.
func newUserCode() (string, error) {
	buf := make([]byte, userCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	for i, b := range buf {
		buf[i] = userCodeAlphabet[int(b)%len(userCodeAlphabet)]
	}

	return string(buf), nil
}
