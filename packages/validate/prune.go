package validate

import "strings"

// Prune removes every dotted ignore path from a copy of a decoded body.
// Descent follows object fields segment by segment; when a segment lands on
// an array, the remaining path applies to every element. Pruning an absent
// path is a no-op, which makes the operation idempotent.
func Prune(body any, paths []string) any {
	out := deepCopy(body)
	for _, path := range paths {
		segments := strings.Split(path, ".")
		if len(segments) > 0 {
			out = pruneValue(out, segments)
		}
	}
	return out
}

func pruneValue(v any, segments []string) any {
	switch node := v.(type) {
	case map[string]any:
		key := segments[0]
		if len(segments) == 1 {
			delete(node, key)
			return node
		}
		if inner, ok := node[key]; ok {
			node[key] = pruneValue(inner, segments[1:])
		}
		return node
	case []any:
		// Array fan-out: the same path applies to each element.
		for i := range node {
			node[i] = pruneValue(node[i], segments)
		}
		return node
	default:
		return v
	}
}

func deepCopy(v any) any {
	switch node := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(node))
		for k, inner := range node {
			out[k] = deepCopy(inner)
		}
		return out
	case []any:
		out := make([]any, len(node))
		for i, inner := range node {
			out[i] = deepCopy(inner)
		}
		return out
	default:
		return v
	}
}
