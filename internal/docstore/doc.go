// Package docstore is the opaque document store under the feature registry.
//
// Documents are JSON bodies keyed by (collection, id). The store pushes full
// collection snapshots to watchers after every write instead of diffs, so a
// consumer's view is always a complete replacement of the previous one. Two
// backends exist: an in-memory store for tests and stateless runs, and a
// SQLite file for durable local state.
package docstore
