// Package dependency records peer relationships between deployed
// components.
//
// Whenever the orchestrator makes component A a peer of component B it adds
// the edge A -> B. Before B is unloaded, Dependents(B) lists every component
// that still holds B, so that each of them can drop its reference, and
// Dependencies(B) lists the peers B itself holds.
//
// The graph may contain cycles: two components are commonly peers of each
// other.
package dependency
