// Package session holds the single source of truth for "who is using
// the app right now": the bearer token and the verified user record.
//
// A [Store] owns all mutation of the pair. Login applies both or
// neither, logout clears both idempotently, and startup restoration
// re-verifies a persisted token against the backend before the session
// is considered authenticated. A bare token is never decoded into a
// trusted identity client-side.
//
// Persistence is pluggable through [Storage]: in-memory for tests,
// a file for single-machine CLI use, or Redis when several processes
// share one session cache.
//
// # What this package must NOT do
//
//   - Perform network I/O. Verification is injected by the caller.
//   - Decode token claims. The backend's login/profile responses are
//     the only source of user identity.
//   - Be mutated from outside the Store's own methods.
package session
