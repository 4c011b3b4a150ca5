// Package model holds the canonical in-memory representation of a parsed
// test document: requests, compare overrides, expected responses, cleanup
// blocks, variable declarations and body schemas. Documents are decoded
// once, validated, and immutable afterwards.
package model
