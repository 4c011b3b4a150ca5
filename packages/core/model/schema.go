package model

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// SchemaKind discriminates the closed set of schema node variants. Body
// schemas are a deliberately restricted subset: typed leaves, literal
// equality leaves, homogeneous arrays and fixed-field objects. They are not
// a general schema standard.
type SchemaKind int

const (
	SchemaLiteral SchemaKind = iota
	SchemaObject
	SchemaArray
	SchemaString
	SchemaInt
	SchemaDate
)

func (k SchemaKind) String() string {
	switch k {
	case SchemaLiteral:
		return "Literal"
	case SchemaObject:
		return "Object"
	case SchemaArray:
		return "Array"
	case SchemaString:
		return "String"
	case SchemaInt:
		return "Int"
	case SchemaDate:
		return "Date"
	}
	return "Unknown"
}

// SchemaNode is one node of a body schema. Exactly one variant is active,
// selected by Kind.
type SchemaNode struct {
	Kind SchemaKind

	Literal any                    // SchemaLiteral: expected value, compared by equality
	Fields  map[string]*SchemaNode // SchemaObject: required sub-fields
	Order   []string               // SchemaObject: declaration order, for stable messages
	Items   *SchemaNode            // SchemaArray: element schema applied to every item
	Format  string                 // SchemaDate: strftime pattern the value must parse under
}

// Schema must hold yaml.Node values, not pointers: yaml.v3 cannot
// unmarshal a scalar into a *yaml.Node map value. Only the non-emptiness
// check reads it; fromRaw walks value.Content for the fields themselves.
type rawSchemaNode struct {
	Type   string               `yaml:"type"`
	Schema map[string]yaml.Node `yaml:"schema"`
	Items  *SchemaNode          `yaml:"items"`
	Format string               `yaml:"format"`
}

// UnmarshalYAML decodes a schema node from either a scalar (a literal
// equality leaf) or a mapping with a "type" discriminator. Structure errors
// surface at document load, before any request is dispatched.
func (n *SchemaNode) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var v any
		if err := value.Decode(&v); err != nil {
			return err
		}
		n.Kind = SchemaLiteral
		n.Literal = v
		return nil

	case yaml.MappingNode:
		var raw rawSchemaNode
		if err := value.Decode(&raw); err != nil {
			return err
		}
		return n.fromRaw(value, &raw)

	default:
		return fmt.Errorf("schema node must be a scalar or a mapping")
	}
}

func (n *SchemaNode) fromRaw(value *yaml.Node, raw *rawSchemaNode) error {
	switch strings.ToLower(raw.Type) {
	case "object":
		if len(raw.Schema) == 0 {
			return fmt.Errorf("schema node of type Object requires a nonempty schema block")
		}
		n.Kind = SchemaObject
		n.Fields = make(map[string]*SchemaNode, len(raw.Schema))
		// Walk the mapping node directly so field order survives the decode.
		for i := 0; i+1 < len(value.Content); i += 2 {
			if value.Content[i].Value != "schema" {
				continue
			}
			inner := value.Content[i+1]
			for j := 0; j+1 < len(inner.Content); j += 2 {
				name := inner.Content[j].Value
				child := &SchemaNode{}
				if err := child.UnmarshalYAML(inner.Content[j+1]); err != nil {
					return fmt.Errorf("schema field %q: %w", name, err)
				}
				n.Fields[name] = child
				n.Order = append(n.Order, name)
			}
		}
		return nil

	case "array", "list":
		if raw.Items == nil {
			return fmt.Errorf("schema node of type Array requires an items element schema")
		}
		n.Kind = SchemaArray
		n.Items = raw.Items
		return nil

	case "string":
		n.Kind = SchemaString
		return nil

	case "int", "integer":
		n.Kind = SchemaInt
		return nil

	case "date", "datetime":
		n.Kind = SchemaDate
		n.Format = raw.Format
		return nil

	case "":
		return fmt.Errorf("schema node mapping is missing the type discriminator")
	default:
		return fmt.Errorf("schema node has unknown type %q", raw.Type)
	}
}
