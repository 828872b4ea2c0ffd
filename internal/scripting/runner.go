package scripting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"deployer/internal/component"
	"deployer/pkg/logging"
)

// Runner is the scripting collaborator used while configuring components.
type Runner interface {
	// RunScript executes the script at path against c right away.
	RunScript(ctx context.Context, c component.Component, path string) error
	// LoadProgram makes the program at path available to c.
	LoadProgram(ctx context.Context, c component.Component, path string) error
	// LoadStateMachine makes the state machine at path available to c.
	LoadStateMachine(ctx context.Context, c component.Component, path string) error
}

// Step is one instruction of an op-script. Exactly one of Invoke and Set is
// given.
type Step struct {
	Invoke string         `yaml:"invoke,omitempty"`
	Args   []any          `yaml:"args,omitempty"`
	Set    map[string]any `yaml:"set,omitempty"`
}

// Script is a parsed op-script.
type Script struct {
	Name  string
	Steps []Step
}

// ParseFile reads an op-script: a YAML list of steps.
//
//	- set: {rate: 20}
//	- invoke: calibrate
//	  args: [3, fast]
func ParseFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script %s: %w", path, err)
	}
	var steps []Step
	if err := yaml.Unmarshal(data, &steps); err != nil {
		return nil, fmt.Errorf("failed to parse script %s: %w", path, err)
	}
	for i, s := range steps {
		hasInvoke, hasSet := s.Invoke != "", len(s.Set) > 0
		if hasInvoke == hasSet {
			return nil, fmt.Errorf("script %s step %d: exactly one of 'invoke' and 'set' is required", path, i+1)
		}
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &Script{Name: name, Steps: steps}, nil
}

// Run executes the steps of s against c in order and stops at the first
// failure.
func (s *Script) Run(ctx context.Context, c component.Component) error {
	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if step.Invoke != "" {
			if _, err := c.Invoke(ctx, step.Invoke, step.Args...); err != nil {
				return fmt.Errorf("step %d: invoke %s: %w", i+1, step.Invoke, err)
			}
			continue
		}
		names := make([]string, 0, len(step.Set))
		for name := range step.Set {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := c.SetProperty(name, step.Set[name]); err != nil {
				return fmt.Errorf("step %d: set %s: %w", i+1, name, err)
			}
		}
	}
	return nil
}

// OpScript is a Runner for op-scripts. Programs and state machines are
// op-scripts too; they are kept per component and run on request.
type OpScript struct {
	mu            sync.Mutex
	programs      map[string]map[string]*Script
	stateMachines map[string]map[string]*Script
}

func NewOpScript() *OpScript {
	return &OpScript{
		programs:      make(map[string]map[string]*Script),
		stateMachines: make(map[string]map[string]*Script),
	}
}

func (r *OpScript) RunScript(ctx context.Context, c component.Component, path string) error {
	script, err := ParseFile(path)
	if err != nil {
		return err
	}
	if err := script.Run(ctx, c); err != nil {
		return fmt.Errorf("script %s on %s: %w", path, c.Name(), err)
	}
	logging.Info("Scripting", "Ran %s on %s (%d steps)", path, c.Name(), len(script.Steps))
	return nil
}

func (r *OpScript) LoadProgram(_ context.Context, c component.Component, path string) error {
	return r.store(r.programs, c, path)
}

func (r *OpScript) LoadStateMachine(_ context.Context, c component.Component, path string) error {
	return r.store(r.stateMachines, c, path)
}

func (r *OpScript) store(into map[string]map[string]*Script, c component.Component, path string) error {
	script, err := ParseFile(path)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if into[c.Name()] == nil {
		into[c.Name()] = make(map[string]*Script)
	}
	into[c.Name()][script.Name] = script
	logging.Debug("Scripting", "Loaded %s for %s", script.Name, c.Name())
	return nil
}

// RunProgram runs a program previously loaded for c.
func (r *OpScript) RunProgram(ctx context.Context, c component.Component, name string) error {
	r.mu.Lock()
	script, ok := r.programs[c.Name()][name]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("no program %s loaded for %s", name, c.Name())
	}
	return script.Run(ctx, c)
}

// Programs returns the names of the programs loaded for owner.
func (r *OpScript) Programs(owner string) []string {
	return r.names(r.programs, owner)
}

// StateMachines returns the names of the state machines loaded for owner.
func (r *OpScript) StateMachines(owner string) []string {
	return r.names(r.stateMachines, owner)
}

func (r *OpScript) names(from map[string]map[string]*Script, owner string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for name := range from[owner] {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Forget drops everything loaded for owner.
func (r *OpScript) Forget(owner string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.programs, owner)
	delete(r.stateMachines, owner)
}
