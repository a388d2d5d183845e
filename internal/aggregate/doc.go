// Package aggregate implements the read-only SQL query service.
//
// It is unrelated to the authorization handshake: a separate facility
// guarded by static API keys loaded from the environment as
// comma-separated user:key pairs.
//
// POST /aggregate accepts {sql, params}, rejects any statement not
// beginning with SELECT, executes it via the parameterized query layer
// in internal/store, and returns {rows} or a 500 with the execution
// error message.
package aggregate
