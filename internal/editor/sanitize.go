package editor

import (
	"strconv"

	"github.com/sagelabs/widgetlab/internal/scope"
)

// Placeholders substituted for values that must not be dumped into the log.
const (
	PlaceholderEvent          = "[ui event]"
	PlaceholderElement        = "[ui element]"
	PlaceholderComponent      = "[ui component]"
	PlaceholderDeferred       = "[pending result]"
	PlaceholderUnserializable = "[unserializable value]"
)

// sanitizeDepth bounds recursion so cyclic or absurdly deep structures
// degrade to a placeholder instead of hanging the log.
const sanitizeDepth = 8

// SanitizeArgs prepares call arguments for logging. Sanitization never
// fails: anything that cannot be represented becomes a placeholder.
func SanitizeArgs(args []scope.Value) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = Sanitize(a)
	}
	return out
}

// Sanitize converts one value into a JSON-safe representation. UI events,
// render trees and components collapse to fixed placeholder strings; plain
// data passes through structurally.
func Sanitize(v scope.Value) any {
	return sanitize(v, 0)
}

func sanitize(v scope.Value, depth int) any {
	if depth > sanitizeDepth {
		return PlaceholderUnserializable
	}
	switch v.Kind() {
	case scope.KindNull:
		return nil
	case scope.KindBool:
		return v.Bool()
	case scope.KindNumber:
		return v.Number()
	case scope.KindString:
		return v.Str()
	case scope.KindList:
		out := make([]any, len(v.Elements()))
		for i, e := range v.Elements() {
			out[i] = sanitize(e, depth+1)
		}
		return out
	case scope.KindObject:
		out := make(map[string]any, len(v.Fields()))
		for name, f := range v.Fields() {
			out[name] = sanitize(f, depth+1)
		}
		return out
	case scope.KindFunc:
		return "fn:" + v.Func().Name()
	case scope.KindComponent:
		return PlaceholderComponent
	case scope.KindTree:
		return PlaceholderElement
	case scope.KindEvent:
		return PlaceholderEvent
	case scope.KindDeferred:
		return PlaceholderDeferred
	default:
		return PlaceholderUnserializable
	}
}

// formatNumber renders a number the way the log and viewer display it.
func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
