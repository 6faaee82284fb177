// Package healthcache memoizes backend health probes for a fixed TTL.
//
// Get returns the cached status while it is fresh and otherwise probes the
// backend synchronously. Concurrent Gets for the same stale or absent backend
// share a single probe. Entries are kept in insertion order and the oldest
// entry is evicted once the cache grows past its capacity.
//
// Staleness is checked lazily on Get; Run optionally sweeps stale entries in
// the background to bound memory.
package healthcache
