// Package transform computes derived generation numbers for a person
// store.
//
// Generations are produced in two stages that must run in order:
//
//  1. [AssignGenerations] walks breadth-first from the root ancestors
//     and numbers each reachable person by depth.
//  2. [PropagateSpouseGenerations] iterates to a fixed point so that
//     every spousal pair shares the same generation, pulling people who
//     married into a lineage down to their partner's band.
//
// Both stages leave the store untouched and return a generations map
// keyed by person ID, so a store can be re-processed any number of
// times with identical results.
package transform
