package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Defaults applied when a field is absent from the stored record.
const (
	DefaultOrder = 999
	DefaultGroup = "dashboard"
)

// Record is the registry's view of one widget document. Pointer fields
// distinguish "absent" from a stored zero value.
type Record struct {
	Enabled     *bool  `json:"enabled,omitempty"`
	Order       *int   `json:"order,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Group       string `json:"group,omitempty"`
	Code        string `json:"code,omitempty"`
}

// EnabledValue resolves the enabled flag; absent means enabled.
func (r Record) EnabledValue() bool {
	if r.Enabled == nil {
		return true
	}
	return *r.Enabled
}

// OrderValue resolves the sort order, falling back to DefaultOrder.
func (r Record) OrderValue() int {
	if r.Order == nil {
		return DefaultOrder
	}
	return *r.Order
}

// GroupValue resolves the group, falling back to DefaultGroup.
func (r Record) GroupValue() string {
	if r.Group == "" {
		return DefaultGroup
	}
	return r.Group
}

// rawRecord matches the object document shape, with enabled left raw so the
// legacy string encodings survive decoding.
type rawRecord struct {
	Enabled     json.RawMessage `json:"enabled"`
	Order       *int            `json:"order"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Group       string          `json:"group"`
	Code        string          `json:"code"`
}

// decodeRecord accepts every shape the store has historically held: a bare
// boolean (enabled flag only), or an object whose enabled field may be a
// boolean or the strings "true"/"false".
func decodeRecord(doc json.RawMessage) (Record, error) {
	trimmed := bytes.TrimSpace(doc)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Record{}, nil
	}

	var flag bool
	if err := json.Unmarshal(trimmed, &flag); err == nil {
		return Record{Enabled: &flag}, nil
	}

	var raw rawRecord
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return Record{}, fmt.Errorf("decode widget record: %w", err)
	}

	rec := Record{
		Order:       raw.Order,
		Name:        raw.Name,
		Description: raw.Description,
		Group:       raw.Group,
		Code:        raw.Code,
	}
	enabled, known, err := decodeEnabled(raw.Enabled)
	if err != nil {
		return Record{}, err
	}
	if known {
		rec.Enabled = &enabled
	}
	return rec, nil
}

func decodeEnabled(raw json.RawMessage) (value, known bool, err error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return false, false, nil
	}
	var b bool
	if err := json.Unmarshal(trimmed, &b); err == nil {
		return b, true, nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		// The one disabling string is "false"; anything else is truthy.
		return s != "false", true, nil
	}
	return false, false, fmt.Errorf("decode widget record: enabled is neither bool nor string: %s", trimmed)
}

// encodeRecord always writes the full object form, migrating bare-boolean
// documents on their next write.
func encodeRecord(rec Record) (json.RawMessage, error) {
	doc, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode widget record: %w", err)
	}
	return doc, nil
}
