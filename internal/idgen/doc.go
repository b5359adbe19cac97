// Package idgen produces request identifiers and correlation keys.
// Callers must treat the values as opaque strings; tests override NewFunc
// to get deterministic ids.
package idgen
