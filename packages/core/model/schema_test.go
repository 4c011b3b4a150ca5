package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func decodeSchema(t *testing.T, doc string) (*SchemaNode, error) {
	t.Helper()
	var n SchemaNode
	err := yaml.Unmarshal([]byte(doc), &n)
	return &n, err
}

func TestSchemaScalarIsLiteral(t *testing.T) {
	n, err := decodeSchema(t, `Active`)
	require.NoError(t, err)

	assert.Equal(t, SchemaLiteral, n.Kind)
	assert.Equal(t, "Active", n.Literal)
}

func TestSchemaTypedLeaves(t *testing.T) {
	tests := []struct {
		doc  string
		kind SchemaKind
	}{
		{"type: String", SchemaString},
		{"type: Int", SchemaInt},
		{"type: integer", SchemaInt},
		{"type: Date", SchemaDate},
	}

	for _, tt := range tests {
		n, err := decodeSchema(t, tt.doc)
		require.NoError(t, err, tt.doc)
		assert.Equal(t, tt.kind, n.Kind, tt.doc)
	}
}

func TestSchemaDateCarriesFormat(t *testing.T) {
	n, err := decodeSchema(t, "type: Date\nformat: \"%Y-%m-%d %H:%M:%S%.f %Z\"")
	require.NoError(t, err)

	assert.Equal(t, SchemaDate, n.Kind)
	assert.Equal(t, "%Y-%m-%d %H:%M:%S%.f %Z", n.Format)
}

func TestSchemaObjectKeepsFieldOrder(t *testing.T) {
	doc := `
type: Object
schema:
  id:
    type: Int
  username:
    type: String
  status: Active
`
	n, err := decodeSchema(t, doc)
	require.NoError(t, err)

	assert.Equal(t, SchemaObject, n.Kind)
	assert.Equal(t, []string{"id", "username", "status"}, n.Order)
	assert.Equal(t, SchemaInt, n.Fields["id"].Kind)
	assert.Equal(t, SchemaString, n.Fields["username"].Kind)
	assert.Equal(t, SchemaLiteral, n.Fields["status"].Kind)
}

func TestSchemaNestedArray(t *testing.T) {
	doc := `
type: Object
schema:
  roles:
    type: Array
    items:
      type: String
`
	n, err := decodeSchema(t, doc)
	require.NoError(t, err)

	roles := n.Fields["roles"]
	require.NotNil(t, roles)
	assert.Equal(t, SchemaArray, roles.Kind)
	require.NotNil(t, roles.Items)
	assert.Equal(t, SchemaString, roles.Items.Kind)
}

func TestSchemaLiteralLeafInsideDocument(t *testing.T) {
	doc := `
name: status check
request:
  url: http://example.test/user
response:
  bodySchema:
    type: Object
    schema:
      status: Active
      user:
        type: Object
        schema:
          username: testuser
          lastActivity:
            type: Date
            format: "%Y-%m-%d %H:%M:%S%.f %Z"
`
	td, err := ParseDocument([]byte(doc), "t.yaml", 0)
	require.NoError(t, err)

	schema := td.Stages[0].Response.BodySchema
	require.NotNil(t, schema)
	assert.Equal(t, SchemaObject, schema.Kind)
	assert.Equal(t, SchemaLiteral, schema.Fields["status"].Kind)
	assert.Equal(t, "Active", schema.Fields["status"].Literal)
	assert.Equal(t, SchemaLiteral, schema.Fields["user"].Fields["username"].Kind)
	assert.Equal(t, SchemaDate, schema.Fields["user"].Fields["lastActivity"].Kind)
}

func TestSchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"missing type", "format: x", "missing the type discriminator"},
		{"unknown type", "type: Float", `unknown type "Float"`},
		{"object without fields", "type: Object", "requires a nonempty schema block"},
		{"array without items", "type: Array", "requires an items element schema"},
		{"sequence node", "- a\n- b", "must be a scalar or a mapping"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeSchema(t, tt.doc)
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
