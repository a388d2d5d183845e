// Package auth implements the out-of-band authorization handshake and
// token lifecycle for toolgate.
//
// # Handshake
//
// A tool call carrying a subject identity enters the Gate. If the
// subject holds no valid token, the Gate opens a PendingRegistry entry
// and returns a Challenge: a verification URI plus a short one-time
// user code. Out of band, a human submits the code and their
// credentials to the activation endpoint; on success the pending entry
// is consumed and the TokenIssuer mints a fresh token for the subject.
// The next tool call for that subject finds a valid token and proceeds.
//
// # Identities
//
// Two identity spaces are involved:
//
//   - Subject: the tool-calling identity (a free-form user_id string)
//     that tokens are bound to.
//   - Principal: the human account (username + bcrypt hash) that
//     verifies a handshake via the CredentialStore.
//
// The two are deliberately unrelated; any principal may approve any
// subject's handshake.
//
// # Tokens
//
// Tokens are HS256 JWTs with sub, scope, iat, exp, and jti claims. The
// issuer keeps at most one live token per subject: issuing overwrites.
// Valid() applies a 30 second safety margin so a token cannot expire
// between the check and its use.
//
// # Expiry
//
// Pending codes expire lazily on read; a background sweep in the
// registry bounds memory from abandoned handshakes but is purely
// housekeeping.
package auth
