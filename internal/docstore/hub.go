package docstore

import "sync"

// hub fans collection snapshots out to watchers. Both store backends share
// it; notifications are process-local in either case.
type hub struct {
	mu       sync.Mutex
	nextID   int
	watchers map[string]map[int]*watcher
}

type watcher struct {
	ch chan Snapshot
}

// push offers a snapshot to the watcher. The buffer holds only the newest
// snapshot: if the consumer lags, the stale pending snapshot is replaced
// rather than blocking the writer.
func (w *watcher) push(snap Snapshot) {
	select {
	case w.ch <- snap:
	default:
		select {
		case <-w.ch:
		default:
		}
		select {
		case w.ch <- snap:
		default:
		}
	}
}

func newHub() *hub {
	return &hub{watchers: make(map[string]map[int]*watcher)}
}

// add registers a watcher for a collection. It returns the feed channel, a
// push function for seeding the watcher directly, and an idempotent remove
// function.
func (h *hub) add(collection string) (<-chan Snapshot, func(Snapshot), func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	w := &watcher{ch: make(chan Snapshot, 1)}
	id := h.nextID
	h.nextID++
	if h.watchers[collection] == nil {
		h.watchers[collection] = make(map[int]*watcher)
	}
	h.watchers[collection][id] = w

	var once sync.Once
	remove := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.watchers[collection], id)
			h.mu.Unlock()
			close(w.ch)
		})
	}
	return w.ch, w.push, remove
}

// broadcast pushes a snapshot to every watcher of the collection.
func (h *hub) broadcast(collection string, snap Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, w := range h.watchers[collection] {
		w.push(snap)
	}
}
