// Package kin provides the in-memory person store underlying all chart
// computation.
//
// A [Store] holds normalized [Person] records indexed by ID while
// preserving insertion order, which keeps every downstream stage
// (generation assignment, unit building, layout) deterministic for a
// given input. Relationship lookups resolve through the store and
// silently skip IDs that do not resolve: partial genealogies with
// dangling references are expected data, not errors.
//
// The store is rebuilt from scratch for every dataset load. It is not
// safe for concurrent mutation; the pipeline constructs one store per
// run and never shares it across runs.
package kin
