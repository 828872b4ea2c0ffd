package orchestrator

import (
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"time"

	"deployer/internal/activity"
	"deployer/internal/component"
	"deployer/internal/connection"
	"deployer/internal/dependency"
	"deployer/internal/document"
	"deployer/internal/properties"
	"deployer/internal/registry"
	"deployer/internal/scripting"
	"deployer/pkg/logging"
)

const defaultPollInterval = 100 * time.Millisecond

// Hooks lets an embedding application take part in loading and unloading.
type Hooks interface {
	// OnLoaded runs after a component was instantiated. An error undoes the
	// instantiation.
	OnLoaded(rec *registry.Record) error
	// OnUnloaded runs before a component is destroyed.
	OnUnloaded(rec *registry.Record)
}

// NoHooks is the default Hooks implementation.
type NoHooks struct{}

func (NoHooks) OnLoaded(*registry.Record) error { return nil }
func (NoHooks) OnUnloaded(*registry.Record)     {}

// Observer receives phase results, e.g. to export metrics.
type Observer interface {
	PhaseCompleted(phase string, group int, duration time.Duration, failures int, err error)
	ComponentStates(counts map[component.Status]int)
}

type noObserver struct{}

func (noObserver) PhaseCompleted(string, int, time.Duration, int, error) {}
func (noObserver) ComponentStates(map[component.Status]int)            {}

// Config holds the collaborators of an Orchestrator. Runtime is required;
// every other field has a default.
type Config struct {
	Runtime     component.Runtime
	Hooks       Hooks
	Persistence properties.Persister
	Scripts     scripting.Runner
	Activities  activity.Factory
	Observer    Observer

	FanOut                  connection.FanOut
	ScopeConnectionsToGroup bool

	// Variables are available to document templates.
	Variables    map[string]any
	PollInterval time.Duration
}

// Orchestrator deploys components from documents in load groups. Each
// document loaded opens a new group; groups are torn down newest first.
//
// An Orchestrator is driven by a single goroutine. Only WaitForInterrupt
// and ResetWaitForInterrupt may be called concurrently with other methods.
type Orchestrator struct {
	runtime     component.Runtime
	hooks       Hooks
	persistence properties.Persister
	scripts     scripting.Runner
	activities  activity.Factory
	observer    Observer

	fanOut       connection.FanOut
	scopeToGroup bool
	pollInterval time.Duration

	parser    *document.Parser
	registry  *registry.Registry
	sequencer *registry.Sequencer
	table     *connection.Table
	root      *document.RootConfig
	peers     *dependency.Graph

	// validConfig is false for groups whose load or configure failed.
	validConfig map[int]bool

	waitReset atomic.Bool
}

// New creates an orchestrator.
func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		runtime:      cfg.Runtime,
		hooks:        cfg.Hooks,
		persistence:  cfg.Persistence,
		scripts:      cfg.Scripts,
		activities:   cfg.Activities,
		observer:     cfg.Observer,
		fanOut:       cfg.FanOut,
		scopeToGroup: cfg.ScopeConnectionsToGroup,
		pollInterval: cfg.PollInterval,
		parser:       document.NewParser(cfg.Variables),
		registry:     registry.New(),
		sequencer:    registry.NewSequencer(),
		table:        connection.NewTable(),
		root:         document.NewRootConfig(),
		peers:        dependency.New(),
		validConfig:  make(map[int]bool),
	}
	if o.hooks == nil {
		o.hooks = NoHooks{}
	}
	if o.persistence == nil {
		o.persistence = properties.NewFileStore()
	}
	if o.scripts == nil {
		o.scripts = scripting.NewOpScript()
	}
	if o.activities == nil {
		o.activities = activity.New
	}
	if o.observer == nil {
		o.observer = noObserver{}
	}
	if o.pollInterval <= 0 {
		o.pollInterval = defaultPollInterval
	}
	return o
}

func (o *Orchestrator) valid(group int) bool {
	v, ok := o.validConfig[group]
	return !ok || v
}

func (o *Orchestrator) invalidate(group int) {
	o.validConfig[group] = false
}

// lastGroup is the highest group that may hold records. Components loaded
// one by one are placed in the group the next document would open.
func (o *Orchestrator) lastGroup() int {
	return o.sequencer.Peek()
}

// populated returns the groups holding at least one component.
func (o *Orchestrator) populated(newestFirst bool) []int {
	var groups []int
	for g := 0; g <= o.lastGroup(); g++ {
		if len(o.registry.InGroup(g)) > 0 {
			groups = append(groups, g)
		}
	}
	if newestFirst {
		slices.Reverse(groups)
	}
	return groups
}

func (o *Orchestrator) finish(r *phaseResult, started time.Time) error {
	err := r.err()
	for _, f := range r.failures {
		if f.Component != "" {
			logging.Error("Orchestrator", f.Err, "%s failed for %s (group %d)", r.phase, f.Component, r.group)
		} else {
			logging.Error("Orchestrator", f.Err, "%s failed (group %d)", r.phase, r.group)
		}
	}
	if err == nil {
		logging.Debug("Orchestrator", "%s of group %d done", r.phase, r.group)
	} else {
		logging.Warn("Orchestrator", "%s of group %d finished with %d failure(s)", r.phase, r.group, len(r.failures))
	}
	o.observer.PhaseCompleted(r.phase, r.group, time.Since(started), len(r.failures), err)
	o.observer.ComponentStates(o.stateCounts())
	return err
}

func (o *Orchestrator) stateCounts() map[component.Status]int {
	counts := make(map[component.Status]int)
	for _, rec := range o.registry.All() {
		counts[rec.Status()]++
	}
	return counts
}

func (o *Orchestrator) record(name string) (*registry.Record, error) {
	rec, ok := o.registry.Get(name)
	if !ok {
		return nil, &componentError{name: name, err: ErrUnknownComponent}
	}
	return rec, nil
}

type componentError struct {
	name string
	err  error
}

func (e *componentError) Error() string { return e.name + ": " + e.err.Error() }
func (e *componentError) Unwrap() error { return e.err }

// resolvePath makes path relative to the directory of the document source.
func resolvePath(source, path string) string {
	if path == "" || filepath.IsAbs(path) || source == "" {
		return path
	}
	return filepath.Join(filepath.Dir(source), path)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ComponentInfo describes a registered component.
type ComponentInfo struct {
	Name         string
	Type         string
	Group        int
	Status       component.Status
	Loaded       bool
	Proxy        bool
	Flags        registry.Flags
	Activity     string
	Pending      bool
	PropertyFile string
	Peers        []string
	Plugins      []string
}

// Status returns every registered component in load order.
func (o *Orchestrator) Status() []ComponentInfo {
	recs := o.registry.All()
	out := make([]ComponentInfo, 0, len(recs))
	for _, rec := range recs {
		info := ComponentInfo{
			Name:         rec.Name,
			Group:        rec.Group,
			Status:       rec.Status(),
			Loaded:       rec.Loaded,
			Proxy:        rec.Proxy,
			Flags:        rec.Flags,
			PropertyFile: rec.PropertyFile,
			Plugins:      append([]string(nil), rec.Plugins...),
		}
		if typed, ok := rec.Component.(interface{ Type() string }); ok {
			info.Type = typed.Type()
		}
		if rec.PendingActivity != nil {
			info.Activity = rec.PendingActivity.Descriptor().String()
			info.Pending = true
		} else if rec.Component != nil {
			if act := rec.Component.Activity(); act != nil {
				info.Activity = act.Descriptor().String()
			}
		}
		if rec.Component != nil {
			info.Peers = rec.Component.Peers()
		}
		out = append(out, info)
	}
	return out
}

// ConnectionInfo describes one connection label.
type ConnectionInfo struct {
	Label     string
	Policy    component.ConnPolicy
	Ports     []string
	Connected int
	Streamed  bool
}

// Connections returns the connection table in declaration order.
func (o *Orchestrator) Connections() []ConnectionInfo {
	entries := o.table.Entries()
	out := make([]ConnectionInfo, 0, len(entries))
	for _, e := range entries {
		info := ConnectionInfo{
			Label:     e.Label,
			Policy:    e.Policy,
			Connected: e.Connected(),
			Streamed:  e.Streamed(),
		}
		for _, ref := range e.Ports {
			info.Ports = append(info.Ports, ref.Owner+"."+ref.Port.Name()+" ("+ref.Port.Direction().String()+")")
		}
		out = append(out, info)
	}
	return out
}

// Groups returns the open load groups.
func (o *Orchestrator) Groups() []registry.GroupInfo {
	return o.sequencer.Groups()
}

// NextGroup returns the id the next load will use.
func (o *Orchestrator) NextGroup() int {
	return o.sequencer.Peek()
}

// Valid reports whether group loaded and configured without errors.
func (o *Orchestrator) Valid(group int) bool {
	return o.valid(group)
}

// Descriptor returns the merged descriptor of a component.
func (o *Orchestrator) Descriptor(name string) (*document.ComponentDescriptor, bool) {
	return o.root.Get(name)
}

// RootConfig returns the merged descriptors of every loaded document.
func (o *Orchestrator) RootConfig() *document.RootConfig {
	return o.root
}

// Components returns the names in the merged configuration, in load order.
func (o *Orchestrator) Components() []string {
	return o.root.Names()
}

// Component returns a registered component.
func (o *Orchestrator) Component(name string) (component.Component, bool) {
	rec, ok := o.registry.Get(name)
	if !ok {
		return nil, false
	}
	return rec.Component, true
}
