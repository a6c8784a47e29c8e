package scope

import (
	"encoding/json"
	"fmt"
)

// FromJSON decodes a JSON payload into a tagged value. It exists for the
// console boundary, where clients submit call arguments as JSON. An object of
// the form {"$event": {"name": ..., "target": ...}} decodes to the Event
// variant; plain objects and arrays decode structurally.
func FromJSON(raw json.RawMessage) (Value, error) {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return NullVal(), fmt.Errorf("decode argument: %w", err)
	}
	return fromAny(decoded)
}

func fromAny(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return NullVal(), nil
	case bool:
		return BoolVal(t), nil
	case float64:
		return NumberVal(t), nil
	case string:
		return StringVal(t), nil
	case []any:
		elems := make([]Value, len(t))
		for i, e := range t {
			ev, err := fromAny(e)
			if err != nil {
				return NullVal(), err
			}
			elems[i] = ev
		}
		return ListVal(elems), nil
	case map[string]any:
		if raw, ok := t["$event"]; ok {
			fields, ok := raw.(map[string]any)
			if !ok {
				return NullVal(), fmt.Errorf("$event payload must be an object")
			}
			ev := &Event{}
			if name, ok := fields["name"].(string); ok {
				ev.Name = name
			}
			if target, ok := fields["target"].(string); ok {
				ev.Target = target
			}
			return EventVal(ev), nil
		}
		fields := make(map[string]Value, len(t))
		for name, f := range t {
			fv, err := fromAny(f)
			if err != nil {
				return NullVal(), err
			}
			fields[name] = fv
		}
		return ObjectVal(fields), nil
	default:
		return NullVal(), fmt.Errorf("unsupported argument type %T", v)
	}
}
