package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/abdul-hamid-achik/flowspec/packages/core/model"
)

func decode(t *testing.T, body string) any {
	t.Helper()
	v, err := DecodeBody([]byte(body))
	require.NoError(t, err)
	return v
}

func TestPruneRemovesDottedPaths(t *testing.T) {
	body := decode(t, `{"id":1,"meta":{"updatedAt":"now","version":2},"name":"a"}`)
	out := Prune(body, []string{"meta.updatedAt", "id"}).(map[string]any)

	_, present := out["id"]
	assert.False(t, present)
	assert.Equal(t, "a", out["name"])

	meta := out["meta"].(map[string]any)
	_, present = meta["updatedAt"]
	assert.False(t, present)
	_, present = meta["version"]
	assert.True(t, present)
}

func TestPruneFansOutOverArrays(t *testing.T) {
	body := decode(t, `{"items":[{"id":1,"name":"a"},{"id":2,"name":"b"}]}`)
	out := Prune(body, []string{"items.id"})

	items := out.(map[string]any)["items"].([]any)
	for _, item := range items {
		_, present := item.(map[string]any)["id"]
		assert.False(t, present)
		_, present = item.(map[string]any)["name"]
		assert.True(t, present)
	}
}

func TestPruneIsIdempotent(t *testing.T) {
	body := decode(t, `{"a":{"b":[{"c":1,"d":2}]},"e":3}`)
	paths := []string{"a.b.c", "e", "missing.path"}

	once := Prune(body, paths)
	twice := Prune(once, paths)
	assert.Equal(t, once, twice)
}

func TestPruneDoesNotMutateInput(t *testing.T) {
	body := decode(t, `{"keep":1,"drop":2}`)
	Prune(body, []string{"drop"})
	_, present := body.(map[string]any)["drop"]
	assert.True(t, present)
}

func TestCheckStatusMismatch(t *testing.T) {
	failures := Check(Expectation{Status: 200}, 404, nil)
	require.Len(t, failures, 1)
	assert.Equal(t, StatusMismatch, failures[0].Kind)
	assert.Contains(t, failures[0].Detail, "404")
}

func TestCheckBodyEqualityAfterPruning(t *testing.T) {
	exp := Expectation{
		Body:   map[string]any{"name": "alice", "createdAt": "whenever"},
		Ignore: []string{"createdAt"},
	}
	failures := Check(exp, 200, []byte(`{"name":"alice","createdAt":"2024-06-01"}`))
	assert.Empty(t, failures)

	failures = Check(exp, 200, []byte(`{"name":"bob","createdAt":"2024-06-01"}`))
	require.Len(t, failures, 1)
	assert.Equal(t, BodyMismatch, failures[0].Kind)
	assert.Contains(t, failures[0].Detail, "name")
}

func TestCheckNumericStrictness(t *testing.T) {
	exp := Expectation{Body: map[string]any{"count": 1}}

	assert.Empty(t, Check(exp, 0, []byte(`{"count":1.0}`)))

	exp.Strict = true
	failures := Check(exp, 0, []byte(`{"count":1.0}`))
	require.Len(t, failures, 1)
	assert.Equal(t, BodyMismatch, failures[0].Kind)
}

func TestCheckInvalidJSONOnlyWhenBodyChecked(t *testing.T) {
	garbage := []byte(`<html>not json</html>`)

	assert.Empty(t, Check(Expectation{Status: 200}, 200, garbage))

	failures := Check(Expectation{Body: map[string]any{"a": 1}}, 200, garbage)
	require.Len(t, failures, 1)
	assert.Equal(t, InvalidJSONBody, failures[0].Kind)
}

func TestCheckCompare(t *testing.T) {
	primary := []byte(`{"name":"a","requestId":"111"}`)
	same := []byte(`{"name":"a","requestId":"222"}`)
	different := []byte(`{"name":"b","requestId":"333"}`)

	assert.Empty(t, CheckCompare(200, primary, 200, same, []string{"requestId"}, false))

	failures := CheckCompare(200, primary, 200, different, []string{"requestId"}, false)
	require.Len(t, failures, 1)
	assert.Equal(t, BodyMismatch, failures[0].Kind)

	failures = CheckCompare(200, primary, 500, same, []string{"requestId"}, false)
	require.NotEmpty(t, failures)
	assert.Equal(t, StatusMismatch, failures[0].Kind)
}

func parseSchema(t *testing.T, doc string) *model.SchemaNode {
	t.Helper()
	var node model.SchemaNode
	require.NoError(t, yaml.Unmarshal([]byte(doc), &node))
	return &node
}

const userSchema = `
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

func TestSchemaNestedObjectPasses(t *testing.T) {
	body := decode(t, `{"status":"Active","user":{"username":"testuser","lastActivity":"2024-01-01 00:00:00.0 UTC"}}`)
	assert.Empty(t, CheckSchema(parseSchema(t, userSchema), body))
}

func TestSchemaMissingFieldNamesPath(t *testing.T) {
	body := decode(t, `{"status":"Active","user":{"lastActivity":"2024-01-01 00:00:00.0 UTC"}}`)
	violations := CheckSchema(parseSchema(t, userSchema), body)
	require.Len(t, violations, 1)
	assert.Equal(t, "user.username", violations[0].Path)
	assert.Contains(t, violations[0].Reason, "missing")
}

func TestSchemaAccumulatesViolations(t *testing.T) {
	schema := parseSchema(t, `
type: Object
schema:
  id:
    type: Int
  name:
    type: String
  tags:
    type: Array
    items:
      type: String
`)
	body := decode(t, `{"id":"not-int","name":7,"tags":["ok",3]}`)
	violations := CheckSchema(schema, body)
	require.Len(t, violations, 3)

	paths := []string{violations[0].Path, violations[1].Path, violations[2].Path}
	assert.Equal(t, []string{"id", "name", "tags[1]"}, paths)
}

func TestSchemaDateFormatFailure(t *testing.T) {
	schema := parseSchema(t, `
type: Date
format: "%Y-%m-%d"
`)
	assert.Empty(t, CheckSchema(schema, "2024-06-15"))

	violations := CheckSchema(schema, "15/06/2024")
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0].Reason, "does not parse")
}
