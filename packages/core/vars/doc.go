// Package vars implements the variable engine: layered scopes, ${name}
// substitution, deterministic value generation and Date/Datetime math with
// strftime-style formatting.
package vars
