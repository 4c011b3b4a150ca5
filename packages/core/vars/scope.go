package vars

import (
	"regexp"
	"sort"
)

// Scope is one layer of named values. Lookup walks child to parent, so a
// child layer shadows its parent. Layers are created per test/iteration and
// per stage; extraction writes into the layer it is handed, never upward.
type Scope struct {
	parent *Scope
	values map[string]string
}

// NewScope returns an empty root scope.
func NewScope() *Scope {
	return &Scope{values: make(map[string]string)}
}

// Child returns a fresh layer shadowing s.
func (s *Scope) Child() *Scope {
	return &Scope{parent: s, values: make(map[string]string)}
}

// Set binds name in this layer, shadowing any parent binding.
func (s *Scope) Set(name, value string) {
	s.values[name] = value
}

// Lookup resolves name through the layer chain.
func (s *Scope) Lookup(name string) (string, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.values[name]; ok {
			return v, true
		}
	}
	return "", false
}

// Names returns every visible name, sorted. Used by diagnostics output.
func (s *Scope) Names() []string {
	seen := make(map[string]struct{})
	for cur := s; cur != nil; cur = cur.parent {
		for name := range cur.values {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var referencePattern = regexp.MustCompile(`\$\{([A-Za-z0-9_-]+)\}`)

// Expand replaces every ${name} token in s. An unknown name yields
// UnresolvedVariableError; text without tokens passes through untouched.
func (sc *Scope) Expand(s string) (string, error) {
	var missing string
	out := referencePattern.ReplaceAllStringFunc(s, func(token string) string {
		name := token[2 : len(token)-1]
		v, ok := sc.Lookup(name)
		if !ok {
			if missing == "" {
				missing = name
			}
			return token
		}
		return v
	})
	if missing != "" {
		return "", &UnresolvedVariableError{Name: missing}
	}
	return out, nil
}

// ExpandTree expands ${name} tokens in every string of a decoded YAML/JSON
// tree, returning a copy. Non-string scalars pass through unchanged.
func (sc *Scope) ExpandTree(v any) (any, error) {
	switch val := v.(type) {
	case string:
		return sc.Expand(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			expanded, err := sc.ExpandTree(inner)
			if err != nil {
				return nil, err
			}
			out[k] = expanded
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			expanded, err := sc.ExpandTree(inner)
			if err != nil {
				return nil, err
			}
			out[i] = expanded
		}
		return out, nil
	default:
		return v, nil
	}
}
