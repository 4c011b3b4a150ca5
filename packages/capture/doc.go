// Package capture extracts response body fields into named variables,
// addressed by gjson dotted paths. Extracted values feed later stages and
// dependent tests through the variable scope.
package capture
