// Package latch prevents duplicate submission of non-cancellable
// operations (login, signup, CRUD writes). While a key is held, further
// attempts for the same key are refused immediately. A latch, not a
// queue.
//
// # What this package must NOT do
//
//   - Queue or retry refused attempts.
//   - Be imported outside the wfaclient module.
package latch
