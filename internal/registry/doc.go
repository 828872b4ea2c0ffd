// Package registry keeps the component records of a deployment and the
// sequencer that numbers load groups.
//
// Records are kept in insertion order so that teardown can walk a group
// backwards. The Sequencer replaces a global group counter: every top-level
// load takes a new group from Next, and unloading the most recent group
// hands its id back with Rewind.
package registry
