package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocumentFull(t *testing.T) {
	doc := `
name: Create user
id: Create-User
tags: Smoke USERS
requires: Login
iterate: 3
env: staging
variables:
  - name: username
    type: String
    value: carol
setup:
  request:
    method: post
    url: ${host}/session
stages:
  - name: create
    request:
      method: POST
      url: ${host}/users
      headers:
        - header: Content-Type
          value: application/json
      body:
        name: ${username}
    response:
      status: 201
      extract:
        - name: userId
          field: id
cleanup:
  always:
    method: DELETE
    url: ${host}/users/${userId}
`

	td, err := ParseDocument([]byte(doc), "users.yaml", 0)
	require.NoError(t, err)

	assert.Equal(t, "Create user", td.Name)
	assert.Equal(t, "create-user", td.ID)
	assert.Equal(t, []string{"smoke", "users"}, td.Tags)
	assert.Equal(t, "login", td.Requires)
	assert.Equal(t, 3, td.Iterate)
	assert.Equal(t, "staging", td.Environment)

	require.NotNil(t, td.Setup)
	assert.Equal(t, "POST", td.Setup.Request.Method)

	require.Len(t, td.Stages, 1)
	st := td.Stages[0]
	assert.Equal(t, "create", st.Name)
	assert.Equal(t, "POST", st.Request.Method)
	require.NotNil(t, st.Response)
	assert.Equal(t, 201, st.Response.Status)

	require.NotNil(t, td.Cleanup.Always)
	assert.Equal(t, "DELETE", td.Cleanup.Always.Method)

	assert.Equal(t, []string{"userId"}, td.ExtractedNames())
}

func TestParseDocumentTopLevelShorthand(t *testing.T) {
	doc := `
name: Ping
request:
  url: http://api.example.com/health
response:
  status: 200
`
	td, err := ParseDocument([]byte(doc), "ping.yaml", 0)
	require.NoError(t, err)

	require.Len(t, td.Stages, 1)
	assert.Equal(t, "GET", td.Stages[0].Request.Method)
	require.NotNil(t, td.Stages[0].Response)
	assert.Equal(t, 200, td.Stages[0].Response.Status)
	assert.Equal(t, 1, td.Iterate)
}

func TestParseDocumentContentID(t *testing.T) {
	doc := []byte("name: No id\nrequest:\n  url: http://x/\n")

	a, err := ParseDocument(doc, "a.yaml", 0)
	require.NoError(t, err)
	b, err := ParseDocument(doc, "a.yaml", 0)
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, a.ID, b.ID, "an id-less document should keep a stable identity")
}

func TestParseDocumentErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "empty document",
			doc:  "",
			want: "document is empty",
		},
		{
			name: "unknown top-level field",
			doc:  "name: x\nrequests:\n  url: http://x/\n",
			want: "field requests not found",
		},
		{
			name: "no stages",
			doc:  "name: x\n",
			want: "at least one stage",
		},
		{
			name: "response without request",
			doc:  "name: x\nresponse:\n  status: 200\n",
			want: "without a top-level request",
		},
		{
			name: "missing url",
			doc:  "name: x\nrequest:\n  method: GET\n",
			want: "url is required",
		},
		{
			name: "negative iterate",
			doc:  "name: x\niterate: -2\nrequest:\n  url: http://x/\n",
			want: "iterate must be positive",
		},
		{
			name: "negative delay",
			doc:  "name: x\nstages:\n  - request:\n      url: http://x/\n    delay: -5\n",
			want: "delay must be non-negative",
		},
		{
			name: "compare without url",
			doc:  "name: x\nstages:\n  - request:\n      url: http://x/\n    compare:\n      method: GET\n",
			want: "compare url is required",
		},
		{
			name: "compare params alongside addParams",
			doc: "name: x\nstages:\n  - request:\n      url: http://x/\n    compare:\n      url: http://y/\n" +
				"      params:\n        - param: a\n          value: \"1\"\n      addParams:\n        - param: b\n          value: \"2\"\n",
			want: "params replaces the inherited set",
		},
		{
			name: "bad extract name",
			doc: "name: x\nrequest:\n  url: http://x/\nresponse:\n  extract:\n" +
				"    - name: \"user id\"\n      field: id\n",
			want: "must be alphanumeric",
		},
		{
			name: "extract without field",
			doc: "name: x\nrequest:\n  url: http://x/\nresponse:\n  extract:\n" +
				"    - name: userId\n",
			want: "missing a field path",
		},
		{
			name: "duplicate variable",
			doc: "name: x\nrequest:\n  url: http://x/\nvariables:\n" +
				"  - name: a\n    value: \"1\"\n  - name: a\n    value: \"2\"\n",
			want: "duplicate variable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument([]byte(tt.doc), "t.yaml", 0)
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.want)

			var derr *DefinitionError
			assert.ErrorAs(t, err, &derr)
		})
	}
}

func TestParseDocumentsSkipsMalformed(t *testing.T) {
	docs := [][]byte{
		[]byte("name: good\nrequest:\n  url: http://x/\n"),
		[]byte("name: bad\n"),
		[]byte("name: also good\nrequest:\n  url: http://y/\n"),
	}

	defs, errs := ParseDocuments(docs, []string{"good.yaml", "bad.yaml", "also.yaml"})

	require.Len(t, defs, 2)
	assert.Equal(t, "good", defs[0].Name)
	assert.Equal(t, "also good", defs[1].Name)
	assert.Equal(t, 2, defs[1].SourceOrder, "source order follows input position, not output position")

	require.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "bad")
}

func TestVariableValidation(t *testing.T) {
	tests := []struct {
		name string
		v    Variable
		want string
	}{
		{
			name: "bad name",
			v:    Variable{Name: "user id"},
			want: "must be alphanumeric",
		},
		{
			name: "unknown type",
			v:    Variable{Name: "a", Type: "Float"},
			want: "unknown type",
		},
		{
			name: "empty valueSet",
			v:    Variable{Name: "a", ValueSet: []any{}},
			want: "empty valueSet",
		},
		{
			name: "value and valueSet",
			v:    Variable{Name: "a", Value: "x", ValueSet: []any{"y"}},
			want: "both value and valueSet",
		},
		{
			name: "inverted range",
			v:    Variable{Name: "a", Type: TypeInt, Range: &Range{Min: 10, Max: 1}},
			want: "exceeds max",
		},
		{
			name: "bad pattern",
			v:    Variable{Name: "a", Pattern: "["},
			want: "pattern",
		},
		{
			name: "inverted length bounds",
			v:    Variable{Name: "a", MinLength: 9, MaxLength: 3},
			want: "length bounds",
		},
		{
			name: "modifier on string",
			v: Variable{Name: "a", Type: TypeString,
				Modifier: &Modifier{Operation: "add", Value: 1, Unit: "days"}},
			want: "requires a Date or Datetime",
		},
		{
			name: "modifier bad unit",
			v: Variable{Name: "a", Type: TypeDate,
				Modifier: &Modifier{Operation: "add", Value: 1, Unit: "hours"}},
			want: "not days/weeks/months",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.v.validate("t")
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestVariableDefaultsToString(t *testing.T) {
	v := Variable{Name: "a", Value: "x"}
	require.NoError(t, v.validate("t"))
	assert.Equal(t, TypeString, v.Type)
}

func TestConstraintFingerprintDistinguishesConstraints(t *testing.T) {
	a := Variable{Name: "n", Type: TypeInt, Range: &Range{Min: 1, Max: 9}}
	b := Variable{Name: "n", Type: TypeInt, Range: &Range{Min: 1, Max: 10}}
	c := Variable{Name: "n", Type: TypeInt, Range: &Range{Min: 1, Max: 9}}

	assert.NotEqual(t, a.ConstraintFingerprint(), b.ConstraintFingerprint())
	assert.Equal(t, a.ConstraintFingerprint(), c.ConstraintFingerprint())
}

func TestHasTagAndLabel(t *testing.T) {
	td := &TestDefinition{ID: "abc", Tags: []string{"smoke", "users"}}

	assert.True(t, td.HasTag("SMOKE"))
	assert.False(t, td.HasTag("slow"))
	assert.Equal(t, "abc", td.Label())

	td.Name = "Named"
	assert.Equal(t, "Named", td.Label())
}
