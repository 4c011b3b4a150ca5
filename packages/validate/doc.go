// Package validate checks HTTP responses against their declared
// expectations: status equality, body equality with ignore-path pruning,
// two-endpoint comparison and restricted body-schema matching.
package validate
