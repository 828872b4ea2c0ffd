// Package component defines the boundary between the deployer and the
// component runtime it drives.
//
// Components, their ports and the loader that instantiates them are external
// collaborators. The deployer only discovers, wires and sequences them, so
// this package holds interfaces and plain values:
//
//   - Component: named operations, ports, peers, properties and a Status
//   - Port: a directional endpoint; Output ports are writers, Input ports readers
//   - Runtime: instantiates and destroys components, imports packages,
//     loads libraries and services
//   - ConnPolicy: how a connection between two ports is built
//
// ComposePolicy is the structural test used by the document loader: a
// top-level entry whose keys all belong to the policy schema is a connection
// policy, anything else is a component descriptor.
package component
