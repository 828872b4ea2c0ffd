// Package document parses deployment documents.
//
// A document is a YAML mapping rendered first through the template package.
// Its top-level entries are, in document order:
//
//   - directives: Import, LoadLibrary, Path and Include, each taking a name
//     or a list of names;
//   - connection policies: mappings whose keys all belong to the connection
//     policy schema (type, init, lock_policy, pull, size, transport,
//     data_size, name_id);
//   - component descriptors: any other mapping, keyed by component name.
//
// Example:
//
//	Import: [ocl]
//	sensors:
//	  type: buffer
//	  size: 16
//	camera:
//	  Type: Camera
//	  AutoStart: true
//	  Ports:
//	    image: sensors
//	  Activity:
//	    Type: PeriodicActivity
//	    Period: 0.01
//	    Priority: 20
//
// Parsing is best-effort: every unknown field, mistyped value and invalid
// activity is reported in one config.ConfigurationErrorCollection while the
// rest of the document is still decoded.
package document
