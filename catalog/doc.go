// Package catalog drives filtered, paginated listings over a remote
// collection. An [Engine] owns the current query (filter values, page,
// sort), runs at most one fetch at a time, and guarantees that a
// superseded response can never overwrite a newer one: each trigger
// bumps a generation counter and cancels the previous request, and a
// response is published only if its generation is still current.
//
// The engine never interprets item payloads beyond the id and
// isRegistered fields. Items are carried verbatim as raw JSON so that
// backend fields unknown to this library survive a round trip.
//
// # What this package must NOT do
//
//   - Cache pages. Every trigger refetches; a page revisit is a fetch.
//   - Retry. A failed fetch surfaces the error and waits for the next
//     trigger.
//   - Mutate items locally. ApplyItemUpdate only accepts records the
//     backend has already confirmed.
package catalog
