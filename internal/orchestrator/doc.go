// Package orchestrator deploys components described in deployment
// documents and drives them through their lifecycle.
//
// # Load Groups
//
// Every document loaded with LoadComponents opens a new load group. Groups
// are configured and started in the order they were loaded and torn down in
// reverse order, and inside a group components are handled in document
// order on the way up and in reverse document order on the way down. This
// is what lets a later document build on components of an earlier one:
//
//	group, err := orch.LoadComponents(ctx, "base.yaml")
//	...
//	err = orch.ConfigureGroup(ctx, group)
//	...
//	err = orch.StartGroup(ctx, group)
//
// KickStart runs the three phases for one document and KickOutAll tears
// everything down again.
//
// # Phases
//
//   - load: parse the document, resolve or instantiate components, record
//     ports, connection policies, activities and plugins. Best effort:
//     every problem is collected in a config.ConfigurationErrorCollection.
//   - configure: wire peers, resolve the connection table, apply
//     properties, attach activities, run scripts and configure AutoConf
//     components.
//   - start: start AutoStart components. Refused with
//     ErrInvalidConfiguration when load or configure of the group failed.
//   - stop, cleanup, unload: tear down in reverse order. Cleanup writes the
//     properties of AutoSave components back to the file they came from.
//
// A failing component never stops a phase; the remaining components are
// still handled and the failures are returned in a *PhaseError.
//
// # Concurrency
//
// The orchestrator does not lock. It is driven from one goroutine, with
// the exception of WaitForInterrupt and ResetWaitForInterrupt.
package orchestrator
