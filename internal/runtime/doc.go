// Package runtime is an in-process implementation of component.Runtime.
//
// Component types come from a catalog, normally the componentTypes section
// of the settings file. Each instance is a Task with ports, properties,
// operations and peers. Output ports deliver every written sample to each
// connection; input ports buffer according to the connection policy.
//
// The runtime is what the deployer uses to check and run documents without
// an external component engine, and what the orchestrator tests run
// against.
package runtime
