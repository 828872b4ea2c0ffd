package runtime

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"deployer/internal/component"
	"deployer/internal/config"
	"deployer/pkg/logging"
)

// PortSpec declares a port of a component type.
type PortSpec struct {
	Name      string
	Direction component.Direction
}

// TypeSpec describes an instantiable component type.
type TypeSpec struct {
	Name string
	// Package must be imported before the type can be instantiated. Empty
	// means always available.
	Package        string
	Ports          []PortSpec
	Properties     map[string]any
	Operations     []string
	NeedsConfigure bool
}

// SpecsFromConfig converts the componentTypes settings.
func SpecsFromConfig(types []config.ComponentTypeConfig) []TypeSpec {
	specs := make([]TypeSpec, 0, len(types))
	for _, ct := range types {
		spec := TypeSpec{
			Name:           ct.Name,
			Package:        ct.Package,
			Properties:     ct.Properties,
			Operations:     ct.Operations,
			NeedsConfigure: ct.NeedsConfigure,
		}
		for _, p := range ct.Ports {
			dir := component.Input
			if p.Direction == config.PortDirectionOutput {
				dir = component.Output
			}
			spec.Ports = append(spec.Ports, PortSpec{Name: p.Name, Direction: dir})
		}
		specs = append(specs, spec)
	}
	return specs
}

// Runtime is an in-process component.Runtime backed by a type catalog.
type Runtime struct {
	mu        sync.Mutex
	types     map[string]TypeSpec
	packages  map[string]bool
	imported  map[string]bool
	services  map[string]bool
	paths     []string
	libraries []string
	instances map[string]*Task
}

// Options lists what a Runtime can load besides its types.
type Options struct {
	Packages []string
	Services []string
}

// New creates a runtime for the given types. Packages named by a type are
// importable even when not listed in opts.
func New(types []TypeSpec, opts Options) *Runtime {
	r := &Runtime{
		types:     make(map[string]TypeSpec),
		packages:  make(map[string]bool),
		imported:  make(map[string]bool),
		services:  make(map[string]bool),
		instances: make(map[string]*Task),
	}
	for _, p := range opts.Packages {
		r.packages[p] = true
	}
	for _, s := range opts.Services {
		r.services[s] = true
	}
	for _, spec := range types {
		r.Register(spec)
	}
	return r
}

// Register adds or replaces a component type.
func (r *Runtime) Register(spec TypeSpec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[spec.Name] = spec
	if spec.Package != "" {
		r.packages[spec.Package] = true
	}
}

// Types returns the registered type names.
func (r *Runtime) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.types))
	for n := range r.types {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (r *Runtime) Instantiate(ctx context.Context, name, componentType string) (component.Component, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	spec, ok := r.types[componentType]
	if !ok {
		return nil, fmt.Errorf("unknown component type '%s'", componentType)
	}
	if spec.Package != "" && !r.imported[spec.Package] {
		return nil, fmt.Errorf("component type '%s' needs package '%s' to be imported", componentType, spec.Package)
	}
	if _, exists := r.instances[name]; exists {
		return nil, fmt.Errorf("a component named '%s' already exists", name)
	}

	t := newTask(name, spec)
	r.instances[name] = t
	logging.Debug("Runtime", "Created %s of type %s", name, componentType)
	return t, nil
}

// Destroy releases a task created by Instantiate. Running tasks are refused.
func (r *Runtime) Destroy(c component.Component) error {
	t, ok := c.(*Task)
	if !ok {
		return fmt.Errorf("%s was not created by this runtime", c.Name())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.instances[t.name] != t {
		return fmt.Errorf("%s was not created by this runtime", t.name)
	}
	if t.Status().IsRunning() {
		return fmt.Errorf("cannot destroy running component %s", t.name)
	}
	if act := t.Activity(); act != nil {
		_ = act.Stop()
	}
	t.disconnectAll()
	delete(r.instances, t.name)
	logging.Debug("Runtime", "Destroyed %s", t.name)
	return nil
}

// Instance returns a live task by name.
func (r *Runtime) Instance(name string) (*Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.instances[name]
	return t, ok
}

func (r *Runtime) Import(pkg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.packages[pkg] {
		return fmt.Errorf("unknown package '%s'", pkg)
	}
	r.imported[pkg] = true
	logging.Info("Runtime", "Imported package %s", pkg)
	return nil
}

// Imported reports whether pkg was imported.
func (r *Runtime) Imported(pkg string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.imported[pkg]
}

// LoadLibrary records a library after checking it exists, either as given
// or relative to one of the search paths.
func (r *Runtime) LoadLibrary(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	candidates := []string{path}
	if !filepath.IsAbs(path) {
		for _, dir := range r.paths {
			candidates = append(candidates, filepath.Join(dir, path))
		}
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			r.libraries = append(r.libraries, candidate)
			logging.Info("Runtime", "Loaded library %s", candidate)
			return nil
		}
	}
	return fmt.Errorf("library '%s' not found", path)
}

// Libraries returns the loaded library paths.
func (r *Runtime) Libraries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.libraries...)
}

func (r *Runtime) AddPath(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.paths {
		if p == path {
			return
		}
	}
	r.paths = append(r.paths, path)
}

// Paths returns the library search paths.
func (r *Runtime) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func (r *Runtime) LoadService(c component.Component, service string) error {
	t, ok := c.(*Task)
	if !ok {
		return fmt.Errorf("%s was not created by this runtime", c.Name())
	}
	r.mu.Lock()
	known := r.services[service]
	r.mu.Unlock()
	if !known {
		return fmt.Errorf("unknown service '%s'", service)
	}
	if t.addService(service) {
		logging.Debug("Runtime", "Loaded service %s into %s", service, t.name)
	}
	return nil
}
