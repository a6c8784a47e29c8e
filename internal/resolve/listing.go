package resolve

import (
	"sort"

	"github.com/sagelabs/widgetlab/internal/registry"
)

// Entry is one row of the console's widget listing.
type Entry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Group       string `json:"group"`
	Order       int    `json:"order"`
	Enabled     bool   `json:"enabled"`
	HasCode     bool   `json:"has_code"`
	HasTemplate bool   `json:"has_template"`
	Deprecated  bool   `json:"deprecated,omitempty"`
}

// Group is a named slice of the listing, widgets already in display order.
type Group struct {
	Name    string  `json:"name"`
	Widgets []Entry `json:"widgets"`
}

// listingRank breaks order ties: catalog ids by canonical enumeration
// position, config-only ids after them in registry first-seen order.
type listingRank struct {
	catalogIndex int
	seenIndex    int
}

// Listing merges the catalog and the registry into grouped, ordered rows.
// Within a group, rows sort by order, then catalog enumeration position,
// then registry first-seen position; groups sort by name.
func (r *Resolver) Listing() []Group {
	cat := r.cat.Load()
	items := r.registry.Items()

	byID := make(map[string]registry.Record, len(items))
	ranks := make(map[string]listingRank)
	var ids []string

	for _, w := range cat.Widgets() {
		ranks[w.ID] = listingRank{catalogIndex: w.Index}
		ids = append(ids, w.ID)
	}
	for seen, item := range items {
		byID[item.ID] = item.Record
		if _, known := ranks[item.ID]; !known {
			ranks[item.ID] = listingRank{catalogIndex: len(ids) + len(items), seenIndex: seen}
			ids = append(ids, item.ID)
		}
	}

	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		rec := byID[id]
		entry := Entry{
			ID:      id,
			Name:    id,
			Group:   rec.GroupValue(),
			Order:   rec.OrderValue(),
			Enabled: rec.EnabledValue(),
			HasCode: rec.Code != "",
		}
		if w, ok := cat.Widget(id); ok {
			if w.Name != "" {
				entry.Name = w.Name
			}
			entry.Description = w.Description
			entry.Deprecated = w.Deprecated
			if rec.Group == "" && w.Category != "" {
				entry.Group = w.Category
			}
		}
		if rec.Name != "" {
			entry.Name = rec.Name
		}
		if rec.Description != "" {
			entry.Description = rec.Description
		}
		if _, ok := cat.Template(id); ok {
			entry.HasTemplate = true
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Group != b.Group {
			return a.Group < b.Group
		}
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		ra, rb := ranks[a.ID], ranks[b.ID]
		if ra.catalogIndex != rb.catalogIndex {
			return ra.catalogIndex < rb.catalogIndex
		}
		return ra.seenIndex < rb.seenIndex
	})

	var groups []Group
	for _, entry := range entries {
		if len(groups) == 0 || groups[len(groups)-1].Name != entry.Group {
			groups = append(groups, Group{Name: entry.Group})
		}
		last := &groups[len(groups)-1]
		last.Widgets = append(last.Widgets, entry)
	}
	return groups
}
