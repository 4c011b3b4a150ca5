package model

import (
	"strings"
	"time"
)

// Header is one HTTP header line of a request template. The value may embed
// ${name} variable references.
type Header struct {
	Name  string `yaml:"header" json:"header"`
	Value string `yaml:"value" json:"value"`
}

// Param is one query parameter of a request template.
type Param struct {
	Name  string `yaml:"param" json:"param"`
	Value string `yaml:"value" json:"value"`
}

// Request describes a templated HTTP call. Body is the decoded YAML/JSON
// document; string values anywhere inside it may embed ${name} references.
type Request struct {
	Method  string   `yaml:"method" json:"method"`
	URL     string   `yaml:"url" json:"url"`
	Headers []Header `yaml:"headers" json:"headers"`
	Params  []Param  `yaml:"params" json:"params"`
	Body    any      `yaml:"body" json:"body"`
}

// Compare is a secondary request validated against the primary's response.
// Explicit Params/Headers replace the primary's, Add* extend them and
// Ignore* subtract from the inherited set; absent fields inherit.
type Compare struct {
	Method        string   `yaml:"method" json:"method"`
	URL           string   `yaml:"url" json:"url"`
	Params        []Param  `yaml:"params" json:"params"`
	AddParams     []Param  `yaml:"addParams" json:"addParams"`
	IgnoreParams  []string `yaml:"ignoreParams" json:"ignoreParams"`
	Headers       []Header `yaml:"headers" json:"headers"`
	AddHeaders    []Header `yaml:"addHeaders" json:"addHeaders"`
	IgnoreHeaders []string `yaml:"ignoreHeaders" json:"ignoreHeaders"`
	Body          any      `yaml:"body" json:"body"`
}

// ExtractRule captures one response body field into a named variable.
type ExtractRule struct {
	Name  string `yaml:"name" json:"name"`
	Field string `yaml:"field" json:"field"`
}

// Response is the expected shape of a stage response. Every check is
// optional and independently enabled by its field being set.
type Response struct {
	Status     int           `yaml:"status" json:"status"`
	Body       any           `yaml:"body" json:"body"`
	Ignore     []string      `yaml:"ignore" json:"ignore"`
	Extract    []ExtractRule `yaml:"extract" json:"extract"`
	BodySchema *SchemaNode   `yaml:"bodySchema" json:"bodySchema"`
	Strict     bool          `yaml:"strict" json:"strict"`
}

// RequestResponse pairs a request with its optional expected response; the
// shape of a setup block.
type RequestResponse struct {
	Request  Request   `yaml:"request" json:"request"`
	Response *Response `yaml:"response" json:"response"`
}

// Stage is one request/compare/response unit of a test.
type Stage struct {
	Name      string     `yaml:"name" json:"name"`
	DelayMS   int        `yaml:"delay" json:"delay"`
	Request   Request    `yaml:"request" json:"request"`
	Compare   *Compare   `yaml:"compare" json:"compare"`
	Response  *Response  `yaml:"response" json:"response"`
	Variables []Variable `yaml:"variables" json:"variables"`
}

// Delay returns the declared pre-dispatch wait.
func (s *Stage) Delay() time.Duration {
	return time.Duration(s.DelayMS) * time.Millisecond
}

// Cleanup holds the three cleanup request kinds. OnSuccess runs only when
// every stage passed, OnFailure only when one failed, Always runs last in
// either case.
type Cleanup struct {
	Always    *Request `yaml:"always" json:"always"`
	OnSuccess *Request `yaml:"onSuccess" json:"onSuccess"`
	OnFailure *Request `yaml:"onFailure" json:"onFailure"`
}

// TestDefinition is a fully validated test document. Definitions are
// immutable after load; per-iteration state lives in the variable scope,
// never here.
type TestDefinition struct {
	Name        string
	ID          string
	Tags        []string
	Requires    string
	Iterate     int
	Environment string
	Disabled    bool
	Setup       *RequestResponse
	Stages      []Stage
	Cleanup     Cleanup
	Variables   []Variable

	// SourceOrder is the position of the document in the input list; the
	// resolver uses it as a tie-break among unrelated tests.
	SourceOrder int
}

// Label returns the display name, falling back to the id.
func (t *TestDefinition) Label() string {
	if t.Name != "" {
		return t.Name
	}
	return t.ID
}

// HasTag reports whether the test carries the (lowercased) tag.
func (t *TestDefinition) HasTag(tag string) bool {
	tag = strings.ToLower(tag)
	for _, have := range t.Tags {
		if have == tag {
			return true
		}
	}
	return false
}

// ExtractedNames lists every variable name this test extracts from a
// response, setup included. The resolver uses it to reject cross-branch
// collisions at definition time.
func (t *TestDefinition) ExtractedNames() []string {
	var names []string
	add := func(resp *Response) {
		if resp == nil {
			return
		}
		for _, ex := range resp.Extract {
			names = append(names, ex.Name)
		}
	}
	if t.Setup != nil {
		add(t.Setup.Response)
	}
	for i := range t.Stages {
		add(t.Stages[i].Response)
	}
	return names
}

func (r *Request) normalize() {
	if r.Method == "" {
		r.Method = "GET"
	} else {
		r.Method = strings.ToUpper(r.Method)
	}
}

func (r *Request) validate(test, field string) error {
	if strings.TrimSpace(r.URL) == "" {
		return definitionErr(test, field, "request url is required")
	}
	return nil
}

// validateVariables enforces name uniqueness within one scope and runs the
// per-variable definition checks.
func validateVariables(test string, vars []Variable) error {
	seen := make(map[string]struct{}, len(vars))
	for i := range vars {
		if err := vars[i].validate(test); err != nil {
			return err
		}
		if _, dup := seen[vars[i].Name]; dup {
			return definitionErr(test, "variables", "duplicate variable %q in one scope", vars[i].Name)
		}
		seen[vars[i].Name] = struct{}{}
	}
	return nil
}
