package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"deployer/internal/connection"
	"deployer/internal/document"
	"deployer/internal/properties"
	"deployer/internal/registry"
	"deployer/pkg/logging"
)

var propertyModes = map[document.PropertyFileMode]properties.Mode{
	document.PropertyFileStrict:  properties.Strict,
	document.PropertyFileUpdate:  properties.Update,
	document.PropertyFileLenient: properties.Lenient,
}

// ConfigureComponents configures every group, oldest first.
func (o *Orchestrator) ConfigureComponents(ctx context.Context) error {
	var errs []error
	for _, g := range o.populated(false) {
		errs = append(errs, o.ConfigureGroup(ctx, g))
	}
	return errors.Join(errs...)
}

// ConfigureGroup wires peers, resolves connections and configures the
// components of group. Running components are left untouched, so
// configuring a group twice is harmless. Any failure marks the group
// invalid.
func (o *Orchestrator) ConfigureGroup(ctx context.Context, group int) error {
	started := time.Now()
	r := &phaseResult{phase: PhaseConfigure, group: group}
	recs := o.registry.InGroup(group)

	for _, rec := range recs {
		cd, ok := o.root.Get(rec.Name)
		if !ok {
			continue
		}
		for _, peer := range cd.Peers {
			if err := o.AddPeer(rec.Name, peer); err != nil {
				r.fail(rec.Name, err)
			}
		}
	}

	opts := connection.Options{FanOut: o.fanOut, ScopeToGroup: o.scopeToGroup, Group: group}
	if err := connection.Resolve(o.table, opts); err != nil {
		for _, e := range unjoin(err) {
			r.fail("", e)
		}
	}

	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			r.fail(rec.Name, err)
			continue
		}
		if rec.Component == nil || rec.Proxy {
			continue
		}
		if rec.Status().IsRunning() {
			logging.Warn("Orchestrator", "%s is running, not configuring it again", rec.Name)
			continue
		}
		cd, _ := o.root.Get(rec.Name)
		if err := o.configureComponent(ctx, rec, cd); err != nil {
			r.fail(rec.Name, err)
		}
	}

	for _, rec := range recs {
		if !rec.Flags.AutoConfigure || rec.Proxy || r.failed(rec.Name) {
			continue
		}
		if status := rec.Status(); !status.IsConfigured() {
			r.fail(rec.Name, fmt.Errorf("not configured after configure phase (status %s)", status))
		}
	}

	if len(r.failures) > 0 {
		o.invalidate(group)
	} else if _, seen := o.validConfig[group]; !seen {
		o.validConfig[group] = true
	}
	return o.finish(r, started)
}

// configureComponent applies the configuration of one component. cd is nil
// for components that were not loaded from a document.
func (o *Orchestrator) configureComponent(ctx context.Context, rec *registry.Record, cd *document.ComponentDescriptor) error {
	var errs []error
	c := rec.Component

	if cd != nil {
		for _, p := range cd.Properties {
			if err := c.AddProperty(p.Name, p.Value); err != nil {
				errs = append(errs, fmt.Errorf("property %s: %w", p.Name, err))
			}
		}

		if cd.PropertyFile != "" {
			path := resolvePath(cd.Source, cd.PropertyFile)
			mode, ok := propertyModes[cd.PropertyFileMode]
			if !ok {
				mode = properties.Strict
			}
			if err := o.persistence.Load(c, path, mode); err != nil {
				errs = append(errs, fmt.Errorf("%s %s: %w", cd.PropertyFileMode, path, err))
			} else {
				rec.PropertyFile = path
				rec.PropertiesLoaded = true
				logging.Debug("Orchestrator", "Loaded properties of %s from %s (%s)", rec.Name, path, mode)
			}
		}
	}

	if err := o.attachActivity(rec); err != nil {
		errs = append(errs, err)
	}

	if rec.Flags.AutoConnect {
		for _, peer := range c.Peers() {
			if _, known := o.registry.Get(peer); !known {
				continue
			}
			if err := o.ConnectPorts(rec.Name, peer); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if cd != nil {
		for _, s := range cd.Scripts {
			if err := o.runScript(ctx, rec, s, resolvePath(cd.Source, s.Path)); err != nil {
				errs = append(errs, fmt.Errorf("%s %s: %w", s.Kind, s.Path, err))
			}
		}
	}

	if rec.Flags.AutoConfigure && len(errs) == 0 {
		if err := c.Configure(); err != nil {
			errs = append(errs, fmt.Errorf("configure: %w", err))
		} else {
			logging.Info("Orchestrator", "Configured %s", rec.Name)
		}
	}
	return errors.Join(errs...)
}

func (o *Orchestrator) runScript(ctx context.Context, rec *registry.Record, s document.Script, path string) error {
	switch s.Kind {
	case document.ScriptProgram:
		return o.scripts.LoadProgram(ctx, rec.Component, path)
	case document.ScriptStateMachine:
		return o.scripts.LoadStateMachine(ctx, rec.Component, path)
	default:
		return o.scripts.RunScript(ctx, rec.Component, path)
	}
}

func unjoin(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
