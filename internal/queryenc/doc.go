// Package queryenc is the single place where catalog query strings are
// assembled. The backend treats an omitted key as "no constraint", so
// filters with empty values are never serialized, not even as empty
// strings.
//
// # What this package must NOT do
//
//   - Know filter schemas or catalogs. Callers pass validated keys.
//   - Be imported outside the wfaclient module.
package queryenc
