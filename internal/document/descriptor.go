package document

import (
	"deployer/internal/activity"
	"deployer/internal/component"
)

// EntryKind classifies a top-level document entry.
type EntryKind int

const (
	EntryComponent EntryKind = iota
	EntryDirective
	EntryPolicy
)

func (k EntryKind) String() string {
	switch k {
	case EntryDirective:
		return "directive"
	case EntryPolicy:
		return "policy"
	default:
		return "component"
	}
}

// Directive names.
const (
	DirectiveImport      = "Import"
	DirectiveLoadLibrary = "LoadLibrary"
	DirectivePath        = "Path"
	DirectiveInclude     = "Include"
)

// IsDirective reports whether name is one of the top-level directives.
func IsDirective(name string) bool {
	switch name {
	case DirectiveImport, DirectiveLoadLibrary, DirectivePath, DirectiveInclude:
		return true
	}
	return false
}

// Entry is one top-level entry of a document, in document order. Exactly one
// of Directive, Policy and Component is set, according to Kind.
type Entry struct {
	Kind EntryKind
	Name string
	Line int

	Directive *Directive
	Policy    *component.ConnPolicy
	Component *ComponentDescriptor
}

// Directive is an Import, LoadLibrary, Path or Include entry.
type Directive struct {
	Name   string
	Values []string
}

// PropertyFileMode tells how a component's property file is applied.
type PropertyFileMode string

const (
	// PropertyFileStrict requires every property in the file to exist.
	PropertyFileStrict PropertyFileMode = "PropertyFile"
	// PropertyFileUpdate updates existing properties and adds missing ones.
	PropertyFileUpdate PropertyFileMode = "UpdateProperties"
	// PropertyFileLenient updates existing properties and ignores the rest.
	PropertyFileLenient PropertyFileMode = "LoadProperties"
)

// ScriptKind tells the scripting collaborator how to run a script.
type ScriptKind string

const (
	ScriptRun          ScriptKind = "RunScript"
	ScriptProgram      ScriptKind = "ProgramScript"
	ScriptStateMachine ScriptKind = "StateMachineScript"
)

// Script is a script declared by a component, in document order.
type Script struct {
	Kind ScriptKind
	Path string
}

// Property is an inline property value.
type Property struct {
	Name  string
	Value any
}

// PortBinding assigns a component port to a connection label.
type PortBinding struct {
	Port  string
	Label string
}

// ComponentDescriptor is the parsed configuration sub-tree of one component.
type ComponentDescriptor struct {
	Name string
	Type string
	Line int
	// Source is the document the descriptor was read from.
	Source string

	AutoConnect      bool
	AutoStart        bool
	AutoSave         bool
	AutoConf         bool
	Server           bool
	UseNamingService bool

	Plugins []string

	PropertyFile     string
	PropertyFileMode PropertyFileMode
	Properties       []Property

	Scripts []Script
	Ports   []PortBinding
	Peers   []string

	// Activity is nil when no Activity was declared or when it was invalid.
	Activity *activity.Descriptor
}
