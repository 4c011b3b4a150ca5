package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// DecodeBody parses response bytes into a comparison tree. Numbers decode
// as json.Number so 1 and 1.0 stay distinguishable for strict mode.
func DecodeBody(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// Diff compares two decoded bodies and returns one line per difference,
// located by dotted path. Strict mode requires exact numeric type equality
// (1 != 1.0); non-strict compares numbers by value.
func Diff(expected, actual any, strict bool) []string {
	var lines []string
	diffValue("", expected, actual, strict, &lines)
	return lines
}

// Equal reports whether two decoded bodies match under the given mode.
func Equal(expected, actual any, strict bool) bool {
	return len(Diff(expected, actual, strict)) == 0
}

func diffValue(path string, expected, actual any, strict bool, lines *[]string) {
	en, eIsNum := asNumber(expected)
	an, aIsNum := asNumber(actual)
	if eIsNum && aIsNum {
		if !numbersEqual(en, an, strict) {
			record(lines, path, "expected %s, got %s", en.literal, an.literal)
		}
		return
	}

	switch exp := expected.(type) {
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok {
			record(lines, path, "expected an object, got %s", describe(actual))
			return
		}
		for _, key := range sortedKeys(exp) {
			sub := joinPath(path, key)
			inner, present := act[key]
			if !present {
				record(lines, sub, "missing field")
				continue
			}
			diffValue(sub, exp[key], inner, strict, lines)
		}
		for _, key := range sortedKeys(act) {
			if _, present := exp[key]; !present {
				record(lines, joinPath(path, key), "unexpected field")
			}
		}
	case []any:
		act, ok := actual.([]any)
		if !ok {
			record(lines, path, "expected an array, got %s", describe(actual))
			return
		}
		if len(exp) != len(act) {
			record(lines, path, "expected %d elements, got %d", len(exp), len(act))
			return
		}
		for i := range exp {
			diffValue(fmt.Sprintf("%s[%d]", path, i), exp[i], act[i], strict, lines)
		}
	default:
		if expected != actual {
			record(lines, path, "expected %v, got %v", expected, actual)
		}
	}
}

type number struct {
	literal string
	isInt   bool
	i       int64
	f       float64
}

// asNumber normalizes the numeric representations the two decode paths
// produce: json.Number from response bytes, int/float64 from YAML
// expectations.
func asNumber(v any) (number, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil && !strings.ContainsAny(n.String(), ".eE") {
			return number{literal: n.String(), isInt: true, i: i, f: float64(i)}, true
		}
		f, err := n.Float64()
		if err != nil {
			return number{}, false
		}
		return number{literal: n.String(), f: f}, true
	case int:
		return number{literal: strconv.Itoa(n), isInt: true, i: int64(n), f: float64(n)}, true
	case int64:
		return number{literal: strconv.FormatInt(n, 10), isInt: true, i: n, f: float64(n)}, true
	case uint64:
		return number{literal: strconv.FormatUint(n, 10), isInt: true, i: int64(n), f: float64(n)}, true
	case float64:
		if n == float64(int64(n)) && n < 1e15 && n > -1e15 {
			// YAML "1.0" arrives as float64; keep it a float for strict mode.
			return number{literal: strconv.FormatFloat(n, 'f', 1, 64), f: n}, true
		}
		return number{literal: strconv.FormatFloat(n, 'f', -1, 64), f: n}, true
	default:
		return number{}, false
	}
}

func numbersEqual(a, b number, strict bool) bool {
	if strict {
		if a.isInt != b.isInt {
			return false
		}
		if a.isInt {
			return a.i == b.i
		}
		return a.f == b.f
	}
	return a.f == b.f
}

func record(lines *[]string, path, format string, args ...any) {
	loc := path
	if loc == "" {
		loc = "$"
	}
	*lines = append(*lines, loc+": "+fmt.Sprintf(format, args...))
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func describe(v any) string {
	switch v.(type) {
	case map[string]any:
		return "an object"
	case []any:
		return "an array"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T value %v", v, v)
	}
}
