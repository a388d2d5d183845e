// Package gateway exposes the authorization handshake over HTTP.
//
// # Endpoints
//
//   - POST /local-auth/start: reports whether a subject is authorized;
//     opens a handshake and returns the challenge payload when not.
//   - GET /local-auth/activate: HTML form collecting the user code plus
//     credentials.
//   - POST /local-auth/activate: processes a verification attempt with
//     plain-text responses.
//   - POST /tool/dice: the gated sample tool. Unauthorized calls get a
//     401 carrying the same challenge shape as /local-auth/start.
//   - GET /health: liveness.
//
// # Wiring
//
// New() builds the credential store, pending registry, token issuer,
// and gate from configuration and injects them into the handlers.
// Run() owns the http.Server lifecycle and shuts down gracefully when
// its context is cancelled.
package gateway
