// Package properties loads and saves component property values.
//
// A property file is a flat mapping from property name to value, written in
// YAML or JSON:
//
//	rate: 10
//	gains: [1.0, 2.5]
//	frame: base_link
//
// Load applies a file in one of three modes. Strict checks every name
// against the component first and applies nothing if one is unknown. Update
// adds unknown names as new properties. Lenient skips them.
package properties
