// Package scripting runs the scripts declared by components.
//
// The built-in runner understands op-scripts, YAML lists of steps that
// either invoke a component operation or set properties.
package scripting
