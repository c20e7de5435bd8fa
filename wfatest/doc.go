// Package wfatest runs an in-process fake of the academy backend for
// tests. It speaks the same routes, JSON shapes, and error envelopes
// as the real API: HS256 bearer tokens, server-side filtering and
// pagination, registration decoration, and admin gating.
//
// The fake is deliberately strict where the client must be honest: it
// rejects expired or malformed tokens with 401, refuses admin routes
// to non-admin tokens with 403, and decorates isRegistered only when a
// valid client token rides on the request.
package wfatest
