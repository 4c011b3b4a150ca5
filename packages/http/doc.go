// Package http provides the HTTP transport for test execution.
//
// It wraps the standard library's http package with:
//   - Configurable timeouts
//   - Redirect handling
//   - Connection pooling defaults
//   - Response handling and body reading
package http
