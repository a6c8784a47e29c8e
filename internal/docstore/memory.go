package docstore

import (
	"context"
	"encoding/json"
	"sync"
)

// Memory is an ephemeral, thread-safe store. Suitable for tests and for
// running the console without durable state.
type Memory struct {
	mu      sync.RWMutex
	docs    map[string]map[string]json.RawMessage
	appends map[string][]json.RawMessage
	hub     *hub
	closed  bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		docs:    make(map[string]map[string]json.RawMessage),
		appends: make(map[string][]json.RawMessage),
		hub:     newHub(),
	}
}

// Get returns the document body, if present.
func (m *Memory) Get(ctx context.Context, collection, id string) (json.RawMessage, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[collection][id]
	if !ok {
		return nil, false, nil
	}
	cp := make(json.RawMessage, len(doc))
	copy(cp, doc)
	return cp, true, nil
}

// Put stores the document and broadcasts the collection's new snapshot.
func (m *Memory) Put(ctx context.Context, collection, id string, doc json.RawMessage) error {
	cp := make(json.RawMessage, len(doc))
	copy(cp, doc)

	m.mu.Lock()
	if m.docs[collection] == nil {
		m.docs[collection] = make(map[string]json.RawMessage)
	}
	m.docs[collection][id] = cp
	snap := m.snapshotLocked(collection)
	m.mu.Unlock()

	m.hub.broadcast(collection, snap)
	return nil
}

// Delete removes the document entirely and broadcasts the new snapshot.
// Deleting an absent document is a no-op.
func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	delete(m.docs[collection], id)
	snap := m.snapshotLocked(collection)
	m.mu.Unlock()

	m.hub.broadcast(collection, snap)
	return nil
}

// List returns the full current snapshot of a keyed collection.
func (m *Memory) List(ctx context.Context, collection string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked(collection), nil
}

// Append adds a document to an append-only collection.
func (m *Memory) Append(ctx context.Context, collection string, doc json.RawMessage) error {
	cp := make(json.RawMessage, len(doc))
	copy(cp, doc)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appends[collection] = append(m.appends[collection], cp)
	return nil
}

// ListAppended returns an append-only collection in insertion order.
func (m *Memory) ListAppended(ctx context.Context, collection string) ([]json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]json.RawMessage, len(m.appends[collection]))
	for i, doc := range m.appends[collection] {
		cp := make(json.RawMessage, len(doc))
		copy(cp, doc)
		out[i] = cp
	}
	return out, nil
}

// Watch subscribes to a keyed collection's snapshot feed. The current
// snapshot is delivered immediately.
func (m *Memory) Watch(ctx context.Context, collection string) (<-chan Snapshot, func(), error) {
	ch, push, remove := m.hub.add(collection)

	m.mu.RLock()
	snap := m.snapshotLocked(collection)
	m.mu.RUnlock()
	push(snap)

	go func() {
		<-ctx.Done()
		remove()
	}()
	return ch, remove, nil
}

// Close releases nothing for the memory backend.
func (m *Memory) Close() error { return nil }

// snapshotLocked copies the collection. Callers hold at least a read lock.
func (m *Memory) snapshotLocked(collection string) Snapshot {
	return Snapshot(m.docs[collection]).Clone()
}
