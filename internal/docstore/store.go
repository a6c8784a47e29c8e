package docstore

import (
	"context"
	"encoding/json"
)

// Snapshot is the full contents of a collection at a point in time, keyed by
// document id.
type Snapshot map[string]json.RawMessage

// Clone returns an independent copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for id, doc := range s {
		cp := make(json.RawMessage, len(doc))
		copy(cp, doc)
		out[id] = cp
	}
	return out
}

// Store is an opaque key-value document store with named collections and
// JSON bodies. Keyed collections support Get/Put/Delete/List; append-only
// collections support Append/ListAppended. Watch is a push feed that
// delivers the full current snapshot of a keyed collection after every
// change, plus one initial snapshot on subscribe.
type Store interface {
	Get(ctx context.Context, collection, id string) (json.RawMessage, bool, error)
	Put(ctx context.Context, collection, id string, doc json.RawMessage) error
	Delete(ctx context.Context, collection, id string) error
	List(ctx context.Context, collection string) (Snapshot, error)

	Append(ctx context.Context, collection string, doc json.RawMessage) error
	ListAppended(ctx context.Context, collection string) ([]json.RawMessage, error)

	// Watch returns a snapshot feed and a cancel function. The feed never
	// blocks a writer: a slow consumer may miss intermediate snapshots but
	// always observes the newest one.
	Watch(ctx context.Context, collection string) (<-chan Snapshot, func(), error)

	Close() error
}
