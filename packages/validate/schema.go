package validate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/flowspec/packages/core/model"
	"github.com/abdul-hamid-achik/flowspec/packages/core/vars"
)

const defaultDateFormat = "%Y-%m-%d"

// CheckSchema walks a decoded body against a schema node, accumulating
// every violation instead of stopping at the first.
func CheckSchema(node *model.SchemaNode, body any) []Violation {
	var out []Violation
	checkSchemaNode("", node, body, &out)
	return out
}

func checkSchemaNode(path string, node *model.SchemaNode, value any, out *[]Violation) {
	switch node.Kind {
	case model.SchemaLiteral:
		if !Equal(node.Literal, value, false) {
			*out = append(*out, Violation{Path: path, Reason: fmt.Sprintf("expected %v, got %v", node.Literal, value)})
		}

	case model.SchemaObject:
		obj, ok := value.(map[string]any)
		if !ok {
			*out = append(*out, Violation{Path: path, Reason: "expected an object, got " + describe(value)})
			return
		}
		for _, field := range node.Order {
			sub := joinPath(path, field)
			inner, present := obj[field]
			if !present {
				*out = append(*out, Violation{Path: sub, Reason: "missing required field"})
				continue
			}
			checkSchemaNode(sub, node.Fields[field], inner, out)
		}

	case model.SchemaArray:
		arr, ok := value.([]any)
		if !ok {
			*out = append(*out, Violation{Path: path, Reason: "expected an array, got " + describe(value)})
			return
		}
		for i, item := range arr {
			checkSchemaNode(fmt.Sprintf("%s[%d]", path, i), node.Items, item, out)
		}

	case model.SchemaString:
		if _, ok := value.(string); !ok {
			*out = append(*out, Violation{Path: path, Reason: "expected a string, got " + describe(value)})
		}

	case model.SchemaInt:
		if !isIntegral(value) {
			*out = append(*out, Violation{Path: path, Reason: "expected an integer, got " + describe(value)})
		}

	case model.SchemaDate:
		s, ok := value.(string)
		if !ok {
			*out = append(*out, Violation{Path: path, Reason: "expected a date string, got " + describe(value)})
			return
		}
		format := node.Format
		if format == "" {
			format = defaultDateFormat
		}
		if _, err := vars.ParseTime(s, format); err != nil {
			*out = append(*out, Violation{Path: path, Reason: fmt.Sprintf("value %q does not parse under format %q", s, format)})
		}
	}
}

func isIntegral(v any) bool {
	switch n := v.(type) {
	case json.Number:
		if strings.ContainsAny(n.String(), ".eE") {
			return false
		}
		_, err := n.Int64()
		return err == nil
	case int, int64, uint64:
		return true
	case float64:
		return n == float64(int64(n))
	default:
		return false
	}
}
