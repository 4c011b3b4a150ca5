package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/flowspec/packages/core/model"
	"github.com/abdul-hamid-achik/flowspec/packages/core/vars"
	"github.com/abdul-hamid-achik/flowspec/packages/http"
)

// dispatch expands a request template against the scope and sends it,
// honoring the optional rate limit.
func (e *Engine) dispatch(ctx context.Context, scope *vars.Scope, tmpl *model.Request) (*http.Response, error) {
	req, err := buildRequest(scope, tmpl)
	if err != nil {
		return nil, err
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return e.transport.Do(ctx, req)
}

// buildRequest substitutes every templated field. Bodies declared as YAML
// trees marshal to JSON after expansion; string bodies pass through as-is.
func buildRequest(scope *vars.Scope, tmpl *model.Request) (*http.Request, error) {
	url, err := scope.Expand(tmpl.URL)
	if err != nil {
		return nil, err
	}

	req := http.NewRequest(tmpl.Method, url)

	for _, h := range tmpl.Headers {
		value, err := scope.Expand(h.Value)
		if err != nil {
			return nil, err
		}
		req.SetHeader(h.Name, value)
	}

	for _, p := range tmpl.Params {
		value, err := scope.Expand(p.Value)
		if err != nil {
			return nil, err
		}
		req.SetQueryParam(p.Name, value)
	}

	if tmpl.Body != nil {
		if err := setBody(req, scope, tmpl.Body); err != nil {
			return nil, err
		}
	}

	return req, nil
}

func setBody(req *http.Request, scope *vars.Scope, body any) error {
	if s, ok := body.(string); ok {
		expanded, err := scope.Expand(s)
		if err != nil {
			return err
		}
		req.SetBody(expanded)
		return nil
	}

	tree, err := scope.ExpandTree(body)
	if err != nil {
		return err
	}
	data, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}
	req.SetBody(string(data))
	if req.Headers["Content-Type"] == "" {
		req.SetHeader("Content-Type", "application/json")
	}
	return nil
}

// MergeCompare builds the secondary request of a compare stage by folding
// the override rules onto the primary template. Explicit params/headers
// replace the inherited set entirely; add/ignore apply only when no
// replacement is declared; absent fields inherit from the primary.
func MergeCompare(primary *model.Request, cmp *model.Compare) *model.Request {
	out := &model.Request{
		Method: primary.Method,
		URL:    cmp.URL,
		Body:   primary.Body,
	}

	if cmp.Method != "" {
		out.Method = strings.ToUpper(cmp.Method)
	}
	if cmp.Body != nil {
		out.Body = cmp.Body
	}

	if len(cmp.Params) > 0 {
		out.Params = cmp.Params
	} else {
		out.Params = mergeParams(primary.Params, cmp.AddParams, cmp.IgnoreParams)
	}

	if len(cmp.Headers) > 0 {
		out.Headers = cmp.Headers
	} else {
		out.Headers = mergeHeaders(primary.Headers, cmp.AddHeaders, cmp.IgnoreHeaders)
	}

	return out
}

func mergeParams(inherited, add []model.Param, ignore []string) []model.Param {
	ignored := make(map[string]struct{}, len(ignore))
	for _, name := range ignore {
		ignored[name] = struct{}{}
	}

	var out []model.Param
	for _, p := range inherited {
		if _, skip := ignored[p.Name]; skip {
			continue
		}
		out = append(out, p)
	}
	return append(out, add...)
}

func mergeHeaders(inherited, add []model.Header, ignore []string) []model.Header {
	ignored := make(map[string]struct{}, len(ignore))
	for _, name := range ignore {
		ignored[name] = struct{}{}
	}

	var out []model.Header
	for _, h := range inherited {
		if _, skip := ignored[h.Name]; skip {
			continue
		}
		out = append(out, h)
	}
	return append(out, add...)
}
