package report

import "strings"

const mask = "*****"

// Redactor replaces configured secret values in output lines. It works on
// rendered text, so a secret leaking through a failure detail or an echoed
// request body never reaches the console or a report file.
type Redactor struct {
	replacer *strings.Replacer
}

func NewRedactor(values []string) *Redactor {
	var pairs []string
	for _, v := range values {
		if v == "" {
			continue
		}
		pairs = append(pairs, v, mask)
	}
	if len(pairs) == 0 {
		return &Redactor{}
	}
	return &Redactor{replacer: strings.NewReplacer(pairs...)}
}

func (r *Redactor) Line(s string) string {
	if r.replacer == nil {
		return s
	}
	return r.replacer.Replace(s)
}
