// Package capability derives UI affordances from the authenticated role.
//
// A [Mask] is a 64-bit capability bitmask resolved once per role through
// [ForRole]. The [Actions] table computes the visible action set for a
// catalog item from (role, isRegistered) and nothing else.
//
// # What this package must NOT do
//
//   - Enforce authorization. Capability gating hides controls; the
//     backend independently rejects unauthorized writes.
//   - Read session state. Callers pass the current role explicitly.
package capability
