package model

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// document is the raw test-document surface. YAML and JSON both decode
// through yaml.v3; KnownFields rejects unknown top-level fields so a typo
// skips the offending test instead of silently dropping a check.
type document struct {
	Name     string `yaml:"name"`
	ID       string `yaml:"id"`
	Env      string `yaml:"env"`
	Tags     string `yaml:"tags"`
	Requires string `yaml:"requires"`
	Iterate  int    `yaml:"iterate"`
	Disabled bool   `yaml:"disabled"`

	Variables []Variable       `yaml:"variables"`
	Setup     *RequestResponse `yaml:"setup"`
	Request   *Request         `yaml:"request"`
	Compare   *Compare         `yaml:"compare"`
	Response  *Response        `yaml:"response"`
	Stages    []Stage          `yaml:"stages"`
	Cleanup   *Cleanup         `yaml:"cleanup"`
}

// ParseDocument decodes and validates a single test document. label is a
// best-effort source name used in error messages and as the Name fallback.
func ParseDocument(data []byte, label string, sourceOrder int) (*TestDefinition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, definitionErr(label, "", "document is empty")
		}
		return nil, definitionErr(label, "", "%v", err)
	}

	name := doc.Name
	if name == "" {
		name = label
	}

	td := &TestDefinition{
		Name:        doc.Name,
		ID:          strings.ToLower(doc.ID),
		Requires:    strings.ToLower(doc.Requires),
		Iterate:     doc.Iterate,
		Environment: doc.Env,
		Disabled:    doc.Disabled,
		Setup:       doc.Setup,
		Cleanup:     cleanupOrZero(doc.Cleanup),
		Variables:   doc.Variables,
		SourceOrder: sourceOrder,
	}

	if td.ID == "" {
		td.ID = contentID(data)
	}

	if doc.Tags != "" {
		td.Tags = strings.Fields(strings.ToLower(doc.Tags))
	}

	if td.Iterate == 0 {
		td.Iterate = 1
	}
	if td.Iterate < 1 {
		return nil, definitionErr(name, "iterate", "iterate must be positive, got %d", doc.Iterate)
	}

	// A top-level request/compare/response triple is shorthand for a first
	// stage.
	if doc.Request != nil {
		td.Stages = append(td.Stages, Stage{
			Request:  *doc.Request,
			Compare:  doc.Compare,
			Response: doc.Response,
		})
	} else if doc.Compare != nil || doc.Response != nil {
		return nil, definitionErr(name, "request", "compare/response without a top-level request")
	}
	td.Stages = append(td.Stages, doc.Stages...)

	if err := td.validate(name); err != nil {
		return nil, err
	}
	return td, nil
}

// ParseDocuments decodes a batch of documents. Malformed documents are
// skipped and reported as DefinitionErrors; the remainder loads normally.
func ParseDocuments(docs [][]byte, labels []string) ([]*TestDefinition, []error) {
	var (
		defs []*TestDefinition
		errs []error
	)
	for i, data := range docs {
		label := fmt.Sprintf("document %d", i+1)
		if i < len(labels) && labels[i] != "" {
			label = labels[i]
		}
		td, err := ParseDocument(data, label, i)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		defs = append(defs, td)
	}
	return defs, errs
}

func (t *TestDefinition) validate(name string) error {
	if len(t.Stages) == 0 {
		return definitionErr(name, "stages", "a test requires at least one stage")
	}

	if err := validateVariables(name, t.Variables); err != nil {
		return err
	}

	if t.Setup != nil {
		t.Setup.Request.normalize()
		if err := t.Setup.Request.validate(name, "setup"); err != nil {
			return err
		}
	}

	for i := range t.Stages {
		st := &t.Stages[i]
		st.Request.normalize()
		if err := st.Request.validate(name, fmt.Sprintf("stages[%d]", i)); err != nil {
			return err
		}
		if st.DelayMS < 0 {
			return definitionErr(name, fmt.Sprintf("stages[%d]", i), "delay must be non-negative")
		}
		if c := st.Compare; c != nil {
			if strings.TrimSpace(c.URL) == "" {
				return definitionErr(name, fmt.Sprintf("stages[%d].compare", i), "compare url is required")
			}
			if len(c.Params) > 0 && (len(c.AddParams) > 0 || len(c.IgnoreParams) > 0) {
				return definitionErr(name, fmt.Sprintf("stages[%d].compare", i), "params replaces the inherited set; addParams/ignoreParams have no effect alongside it")
			}
			if len(c.Headers) > 0 && (len(c.AddHeaders) > 0 || len(c.IgnoreHeaders) > 0) {
				return definitionErr(name, fmt.Sprintf("stages[%d].compare", i), "headers replaces the inherited set; addHeaders/ignoreHeaders have no effect alongside it")
			}
		}
		if err := validateVariables(name, st.Variables); err != nil {
			return err
		}
		if resp := st.Response; resp != nil {
			for _, ex := range resp.Extract {
				if !variableNamePattern.MatchString(ex.Name) {
					return definitionErr(name, fmt.Sprintf("stages[%d].response.extract", i), "extract target %q must be alphanumeric, hyphen or underscore", ex.Name)
				}
				if strings.TrimSpace(ex.Field) == "" {
					return definitionErr(name, fmt.Sprintf("stages[%d].response.extract", i), "extract rule %q is missing a field path", ex.Name)
				}
			}
		}
	}

	for _, req := range []*Request{t.Cleanup.Always, t.Cleanup.OnSuccess, t.Cleanup.OnFailure} {
		if req == nil {
			continue
		}
		req.normalize()
		if err := req.validate(name, "cleanup"); err != nil {
			return err
		}
	}

	return nil
}

func cleanupOrZero(c *Cleanup) Cleanup {
	if c == nil {
		return Cleanup{}
	}
	return *c
}

// contentID derives a stable identity from the document bytes so repeated
// runs treat an unmodified, id-less test as the same dependency node.
func contentID(data []byte) string {
	h := fnv.New64a()
	h.Write(data)
	return fmt.Sprintf("%016x", h.Sum64())
}
