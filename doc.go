// Package wfaclient is the Go client SDK for the WFA youth
// football-academy platform's REST backend. It packages the two
// stateful components every front end of the platform needs, the
// session store and the catalog query engine, together with thin,
// typed calls for the rest of the API surface (academies, programs,
// profile, support).
//
// A [Client] is built once through [Builder.Build] and is safe for
// concurrent use. Construction is allocation-only; no I/O happens
// until a method is called.
//
// # Architecture boundaries
//
// wfaclient is the public surface. Session state lives in
// [github.com/wfa-platform/wfaclient/session], role-derived UI gating
// in [github.com/wfa-platform/wfaclient/capability], and the
// filtered/paginated listing state machine in
// [github.com/wfa-platform/wfaclient/catalog]. Query assembly and the
// duplicate-submit latch live under internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Decode bearer tokens. The backend's responses are the only
//     source of identity.
//   - Enforce authorization. Capability checks here hide controls;
//     the backend decides.
//   - Retry writes. Login, signup, and CRUD submits run to completion
//     or failure exactly once, guarded by a submit latch.
package wfaclient
