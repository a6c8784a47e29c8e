package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sagelabs/widgetlab/internal/ctxlog"
	"github.com/sagelabs/widgetlab/internal/docstore"
)

const widgetsCollection = "widgets"

// Item is one widget record together with its id, for ordered listings.
type Item struct {
	ID string
	Record
}

// Registry caches the widgets collection and applies store snapshots as full
// replacements. Writes go through the store and update the cache immediately,
// so a successful save is readable without waiting for the snapshot feed.
type Registry struct {
	store docstore.Store

	mu      sync.RWMutex
	records map[string]Record
	seen    []string // first-seen id order, stable across snapshots

	subMu  sync.Mutex
	nextID int
	subs   map[int]chan []Item
}

// New primes the registry from the store and starts applying its snapshot
// feed. The feed stops when ctx is cancelled.
func New(ctx context.Context, store docstore.Store) (*Registry, error) {
	r := &Registry{
		store:   store,
		records: make(map[string]Record),
		subs:    make(map[int]chan []Item),
	}

	feed, stop, err := store.Watch(ctx, widgetsCollection)
	if err != nil {
		return nil, fmt.Errorf("watch widgets collection: %w", err)
	}

	// The initial snapshot primes the cache synchronously.
	select {
	case snap := <-feed:
		r.apply(ctx, snap)
	case <-ctx.Done():
		stop()
		return nil, ctx.Err()
	}

	go func() {
		defer stop()
		for {
			select {
			case snap, ok := <-feed:
				if !ok {
					return
				}
				r.apply(ctx, snap)
			case <-ctx.Done():
				return
			}
		}
	}()
	return r, nil
}

// apply replaces the cached view with a full snapshot.
func (r *Registry) apply(ctx context.Context, snap docstore.Snapshot) {
	log := ctxlog.FromContext(ctx)

	decoded := make(map[string]Record, len(snap))
	for id, doc := range snap {
		rec, err := decodeRecord(doc)
		if err != nil {
			log.Warn("Skipping malformed widget record", "widget_id", id, "error", err)
			continue
		}
		decoded[id] = rec
	}

	r.mu.Lock()
	r.records = decoded
	r.refreshSeenLocked()
	items := r.itemsLocked()
	r.mu.Unlock()

	log.Debug("Applied widget registry snapshot", "widgets", len(decoded))
	r.notify(items)
}

// refreshSeenLocked keeps ids in first-seen order, dropping deleted ones and
// appending newcomers lexicographically within the batch.
func (r *Registry) refreshSeenLocked() {
	kept := r.seen[:0]
	present := make(map[string]bool, len(r.seen))
	for _, id := range r.seen {
		if _, ok := r.records[id]; ok {
			kept = append(kept, id)
			present[id] = true
		}
	}
	var fresh []string
	for id := range r.records {
		if !present[id] {
			fresh = append(fresh, id)
		}
	}
	sort.Strings(fresh)
	r.seen = append(kept, fresh...)
}

func (r *Registry) itemsLocked() []Item {
	items := make([]Item, 0, len(r.seen))
	for _, id := range r.seen {
		items = append(items, Item{ID: id, Record: r.records[id]})
	}
	return items
}

// Record returns the cached record for a widget id.
func (r *Registry) Record(id string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	return rec, ok
}

// IsEnabled reports the effective enabled flag. Unknown widgets are enabled.
func (r *Registry) IsEnabled(id string) bool {
	rec, ok := r.Record(id)
	if !ok {
		return true
	}
	return rec.EnabledValue()
}

// Items returns all records in first-seen order.
func (r *Registry) Items() []Item {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.itemsLocked()
}

// Subscribe returns a feed of full listings pushed after every change, plus
// the current listing immediately. The feed closes when ctx is cancelled. A
// slow consumer misses intermediate listings, never the newest.
func (r *Registry) Subscribe(ctx context.Context) <-chan []Item {
	ch := make(chan []Item, 1)

	r.subMu.Lock()
	id := r.nextID
	r.nextID++
	r.subs[id] = ch
	r.subMu.Unlock()

	ch <- r.Items()

	go func() {
		<-ctx.Done()
		r.subMu.Lock()
		delete(r.subs, id)
		r.subMu.Unlock()
		close(ch)
	}()
	return ch
}

func (r *Registry) notify(items []Item) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	for _, ch := range r.subs {
		select {
		case ch <- items:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- items:
			default:
			}
		}
	}
}

// Toggle sets the enabled flag, preserving all other fields.
func (r *Registry) Toggle(ctx context.Context, id string, enabled bool) error {
	return r.update(ctx, id, func(rec Record) Record {
		rec.Enabled = &enabled
		return rec
	})
}

// Flip inverts the effective enabled flag, preserving all other fields.
// An unknown widget counts as enabled, so its first flip disables it.
func (r *Registry) Flip(ctx context.Context, id string) error {
	return r.update(ctx, id, func(rec Record) Record {
		next := !rec.EnabledValue()
		rec.Enabled = &next
		return rec
	})
}

// SetOrder sets the sort order, preserving all other fields.
func (r *Registry) SetOrder(ctx context.Context, id string, order int) error {
	return r.update(ctx, id, func(rec Record) Record {
		rec.Order = &order
		return rec
	})
}

// Delete removes the widget document entirely. The next resolution of this
// id falls back to template or native defaults.
func (r *Registry) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, widgetsCollection, id); err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.records, id)
	r.refreshSeenLocked()
	items := r.itemsLocked()
	r.mu.Unlock()

	ctxlog.FromContext(ctx).Info("Deleted widget record", "widget_id", id)
	r.notify(items)
	return nil
}

// update applies fn to the current record (zero Record when absent), writes
// the result through, and refreshes the cache.
func (r *Registry) update(ctx context.Context, id string, fn func(Record) Record) error {
	r.mu.RLock()
	rec := r.records[id]
	r.mu.RUnlock()

	next := fn(rec)
	doc, err := encodeRecord(next)
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, widgetsCollection, id, doc); err != nil {
		return fmt.Errorf("write widget record %q: %w", id, err)
	}

	r.mu.Lock()
	r.records[id] = next
	r.refreshSeenLocked()
	items := r.itemsLocked()
	r.mu.Unlock()

	r.notify(items)
	return nil
}
