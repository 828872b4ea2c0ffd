package registry

import (
	"deployer/internal/activity"
	"deployer/internal/component"
)

// Flags are the per-component deployment switches read from the document.
type Flags struct {
	AutoStart     bool
	AutoConfigure bool
	AutoConnect   bool
	AutoSave      bool
	Server        bool
	UseNaming     bool
}

// Record is the registry entry of one component.
type Record struct {
	Name      string
	Component component.Component
	Group     int

	// Loaded is set for components the orchestrator instantiated and may
	// destroy. Components that were only referenced are never destroyed.
	Loaded bool
	// Proxy marks components that are driven elsewhere; lifecycle phases
	// leave them alone.
	Proxy bool

	Flags Flags

	// PropertyFile is the file properties were loaded from, if any. AutoSave
	// only ever writes back to this file.
	PropertyFile     string
	PropertiesLoaded bool
	PendingActivity  activity.Activity
	Plugins          []string
}

// Managed reports whether lifecycle phases act on the record.
func (r *Record) Managed() bool {
	return r.Loaded && !r.Proxy
}

// Status is the component status, or Init while the instance is missing.
func (r *Record) Status() component.Status {
	if r.Component == nil {
		return component.StatusInit
	}
	return r.Component.Status()
}
