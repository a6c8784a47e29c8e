package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sagelabs/widgetlab/internal/ctxlog"
)

const historyCollection = "widget_history"

// Draft is the editable surface of a widget that Save accepts. Layout fields
// (group, order, enabled) are owned by the registry and preserved across
// saves.
type Draft struct {
	Code        string
	Name        string
	Description string
	SavedBy     string
}

// HistoryEntry is one superseded version of a widget's code.
type HistoryEntry struct {
	ID       uuid.UUID `json:"id"`
	WidgetID string    `json:"widget_id"`
	Code     string    `json:"code"`
	Name     string    `json:"name,omitempty"`
	SavedBy  string    `json:"saved_by,omitempty"`
	SavedAt  time.Time `json:"saved_at"`
}

// Save writes a widget draft. An existing record keeps its enabled flag,
// order and group; a new record gets the defaults. When the prior record
// holds non-empty code it is archived first, even if the draft carries the
// same code, best effort: a history failure never blocks the save.
func (r *Registry) Save(ctx context.Context, id string, draft Draft) error {
	r.mu.RLock()
	prev, exists := r.records[id]
	r.mu.RUnlock()

	if exists && prev.Code != "" {
		r.archive(ctx, id, prev, draft.SavedBy)
	}

	next := Record{
		Name:        draft.Name,
		Description: draft.Description,
		Code:        draft.Code,
	}
	if exists {
		next.Enabled = prev.Enabled
		next.Order = prev.Order
		next.Group = prev.Group
	} else {
		enabled := true
		order := DefaultOrder
		next.Enabled = &enabled
		next.Order = &order
		next.Group = DefaultGroup
	}

	return r.update(ctx, id, func(Record) Record { return next })
}

// archive appends the superseded code to the history collection.
func (r *Registry) archive(ctx context.Context, id string, prev Record, savedBy string) {
	log := ctxlog.FromContext(ctx)
	entry := HistoryEntry{
		ID:       uuid.New(),
		WidgetID: id,
		Code:     prev.Code,
		Name:     prev.Name,
		SavedBy:  savedBy,
		SavedAt:  time.Now().UTC(),
	}
	doc, err := json.Marshal(entry)
	if err != nil {
		log.Warn("Could not encode widget history entry", "widget_id", id, "error", err)
		return
	}
	if err := r.store.Append(ctx, historyCollection, doc); err != nil {
		log.Warn("Could not archive widget history entry", "widget_id", id, "error", err)
	}
}

// History returns all archived versions of a widget, oldest first.
func (r *Registry) History(ctx context.Context, widgetID string) ([]HistoryEntry, error) {
	docs, err := r.store.ListAppended(ctx, historyCollection)
	if err != nil {
		return nil, fmt.Errorf("list widget history: %w", err)
	}
	var out []HistoryEntry
	for _, doc := range docs {
		var entry HistoryEntry
		if err := json.Unmarshal(doc, &entry); err != nil {
			ctxlog.FromContext(ctx).Warn("Skipping malformed history entry", "error", err)
			continue
		}
		if entry.WidgetID == widgetID {
			out = append(out, entry)
		}
	}
	return out, nil
}
