package capture

import (
	"github.com/tidwall/gjson"

	"github.com/abdul-hamid-achik/flowspec/packages/core/model"
)

// Extract applies the rules against the response body and returns the
// captured values plus the names whose field paths matched nothing. A miss
// is not an error here; the caller decides whether to record it.
func Extract(body []byte, rules []model.ExtractRule) (map[string]string, []string) {
	values := make(map[string]string, len(rules))
	var missed []string

	for _, rule := range rules {
		res := gjson.GetBytes(body, rule.Field)
		if !res.Exists() {
			missed = append(missed, rule.Name)
			continue
		}
		values[rule.Name] = valueOf(res)
	}
	return values, missed
}

// valueOf renders a match as the string a template substitution expects:
// bare text for string scalars, raw JSON otherwise.
func valueOf(res gjson.Result) string {
	if res.Type == gjson.String {
		return res.Str
	}
	return res.Raw
}
