// Package registry is the feature registry: per-widget records layered over
// the document store.
//
// A record controls whether a widget renders (enabled), where it sorts
// (order, group) and what custom code replaces its template (code). Records
// tolerate three historical document shapes (a bare boolean, a full object,
// or nothing at all) and an enabled field stored as the strings
// "true"/"false". Concurrent writers follow last-write-wins at whole-document
// granularity; there is no merging and no conflict error.
package registry
