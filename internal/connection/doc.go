// Package connection holds the connection table built while loading
// deployment documents and the resolver that turns it into port
// connections.
//
// Every label maps to the (port, owner) pairs declared under it and a
// connection policy. Resolve handles each label on its own:
//
//   - one port: the port gets a stream to an external sink or source;
//   - several ports and no writer: the label fails with ErrNoWriter;
//   - otherwise every reader is connected to every writer, or, with
//     FanOutSingleWriter, labels with several writers fail.
//
// Pairs that were connected by an earlier pass are not connected again.
package connection
