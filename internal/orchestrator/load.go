package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"deployer/internal/component"
	"deployer/internal/config"
	"deployer/internal/connection"
	"deployer/internal/dependency"
	"deployer/internal/document"
	"deployer/internal/registry"
	"deployer/pkg/logging"
)

// LoadComponents loads the document at path into a new group and returns
// the group id. Loading is best effort: every entry that can be applied is,
// and the returned error is a *config.ConfigurationErrorCollection listing
// everything that could not. A group that loaded with errors cannot be
// started.
func (o *Orchestrator) LoadComponents(ctx context.Context, path string) (int, error) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	info := o.sequencer.Next(path)
	started := time.Now()
	logging.Info("Orchestrator", "Loading %s into group %d (load %s)", path, info.ID, info.LoadID)

	errs := config.NewConfigurationErrorCollection()
	o.loadFile(ctx, path, info.ID, errs, make(map[string]bool))
	return info.ID, o.finishLoad(info.ID, errs, started)
}

// LoadComponentsInGroup loads the document at path into the existing
// group, as an Include directive would.
func (o *Orchestrator) LoadComponentsInGroup(ctx context.Context, path string, group int) error {
	if _, ok := o.sequencer.Info(group); !ok {
		return fmt.Errorf("group %d has not been opened", group)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	started := time.Now()
	logging.Info("Orchestrator", "Loading %s into existing group %d", path, group)

	errs := config.NewConfigurationErrorCollection()
	o.loadFile(ctx, path, group, errs, make(map[string]bool))
	return o.finishLoad(group, errs, started)
}

// LoadDocument is LoadComponents for a document held in memory. source is
// used in error reports and to resolve relative paths.
func (o *Orchestrator) LoadDocument(ctx context.Context, source string, data []byte) (int, error) {
	info := o.sequencer.Next(source)
	started := time.Now()
	logging.Info("Orchestrator", "Loading %s into group %d (load %s)", source, info.ID, info.LoadID)

	errs := config.NewConfigurationErrorCollection()
	doc, perrs := o.parser.Parse(source, data)
	errs.Merge(perrs)
	if doc != nil {
		visiting := map[string]bool{source: true}
		o.loadEntries(ctx, doc, info.ID, errs, visiting)
	}
	return info.ID, o.finishLoad(info.ID, errs, started)
}

func (o *Orchestrator) finishLoad(group int, errs *config.ConfigurationErrorCollection, started time.Time) error {
	err := errs.ErrOrNil()
	if err != nil {
		o.invalidate(group)
		logging.Warn("Orchestrator", "Group %d loaded with %d error(s):\n%s", group, errs.Count(), errs.GetSummary())
	} else {
		logging.Info("Orchestrator", "Group %d loaded", group)
	}
	o.observer.PhaseCompleted(PhaseLoad, group, time.Since(started), errs.Count(), err)
	o.observer.ComponentStates(o.stateCounts())
	return err
}

func (o *Orchestrator) loadFile(ctx context.Context, path string, group int, errs *config.ConfigurationErrorCollection, visiting map[string]bool) {
	if visiting[path] {
		errs.Add(config.NewConfigurationError(path, filepath.Base(path), document.DirectiveInclude, "include",
			config.ErrorTypeResolution, "include cycle: document includes itself"))
		return
	}
	visiting[path] = true
	defer delete(visiting, path)

	doc, perrs := o.parser.ParseFile(path)
	errs.Merge(perrs)
	if doc == nil {
		return
	}
	o.loadEntries(ctx, doc, group, errs, visiting)
}

func (o *Orchestrator) loadEntries(ctx context.Context, doc *document.Document, group int, errs *config.ConfigurationErrorCollection, visiting map[string]bool) {
	for _, e := range doc.Entries {
		if err := ctx.Err(); err != nil {
			errs.Add(config.NewConfigurationError(doc.Source, filepath.Base(doc.Source), e.Name, "document",
				config.ErrorTypeResolution, fmt.Sprintf("load interrupted: %v", err)))
			return
		}

		switch e.Kind {
		case document.EntryDirective:
			o.applyDirective(ctx, doc.Source, e, group, errs, visiting)
		case document.EntryPolicy:
			o.table.SetPolicy(e.Name, *e.Policy)
			logging.Debug("Orchestrator", "Connection policy for '%s': %s", e.Name, e.Policy)
		case document.EntryComponent:
			o.loadDescriptor(ctx, e.Component, group, errs)
		}
	}
}

func (o *Orchestrator) applyDirective(ctx context.Context, source string, e document.Entry, group int, errs *config.ConfigurationErrorCollection, visiting map[string]bool) {
	fail := func(err error) {
		ce := config.NewConfigurationError(source, filepath.Base(source), e.Name, "directive",
			config.ErrorTypeResolution, err.Error())
		ce.LineNumber = e.Line
		errs.Add(ce)
	}

	for _, value := range e.Directive.Values {
		switch e.Directive.Name {
		case document.DirectiveImport:
			if err := o.runtime.Import(value); err != nil {
				fail(err)
			}
		case document.DirectiveLoadLibrary:
			lib := value
			if rel := resolvePath(source, value); fileExists(rel) {
				lib = rel
			}
			if err := o.runtime.LoadLibrary(lib); err != nil {
				fail(err)
			}
		case document.DirectivePath:
			o.runtime.AddPath(resolvePath(source, value))
		case document.DirectiveInclude:
			o.loadFile(ctx, resolvePath(source, value), group, errs, visiting)
		}
	}
}

// loadDescriptor resolves or instantiates the component described by cd,
// then records its flags, ports, activity and plugins. A component that
// cannot be resolved is not merged into the configuration.
func (o *Orchestrator) loadDescriptor(ctx context.Context, cd *document.ComponentDescriptor, group int, errs *config.ConfigurationErrorCollection) {
	fail := func(category string, err error) {
		ce := config.NewConfigurationError(cd.Source, filepath.Base(cd.Source), cd.Name, category,
			config.ErrorTypeResolution, err.Error())
		ce.LineNumber = cd.Line
		errs.Add(ce)
	}

	rec, ok := o.registry.Get(cd.Name)
	if !ok {
		var err error
		rec, err = o.instantiate(ctx, cd.Name, cd.Type, group)
		if err != nil {
			fail("component", err)
			return
		}
	} else if rec.Group != group {
		logging.Debug("Orchestrator", "Moving %s from group %d to group %d", cd.Name, rec.Group, group)
		rec.Group = group
	}

	rec.Flags = registry.Flags{
		AutoStart:     cd.AutoStart,
		AutoConfigure: cd.AutoConf,
		AutoConnect:   cd.AutoConnect,
		AutoSave:      cd.AutoSave,
		Server:        cd.Server,
		UseNaming:     cd.UseNamingService,
	}

	for _, b := range cd.Ports {
		port, ok := rec.Component.Port(b.Port)
		if !ok {
			fail("ports", fmt.Errorf("component has no port '%s'", b.Port))
			continue
		}
		o.table.Add(b.Label, connection.PortRef{Port: port, Owner: cd.Name, Group: group})
	}

	if cd.Activity != nil {
		if err := o.createActivity(rec, *cd.Activity); err != nil {
			fail("activity", err)
		}
	}

	for _, svc := range cd.Plugins {
		if err := o.loadService(rec, svc); err != nil {
			fail("plugin", err)
		}
	}

	o.root.Merge(cd)
}

func (o *Orchestrator) instantiate(ctx context.Context, name, componentType string, group int) (*registry.Record, error) {
	if componentType == "" {
		return nil, fmt.Errorf("component '%s' is not loaded and has no Type", name)
	}
	c, err := o.runtime.Instantiate(ctx, name, componentType)
	if err != nil {
		return nil, err
	}
	rec := &registry.Record{Name: name, Component: c, Group: group, Loaded: true}
	if err := o.register(rec); err != nil {
		if derr := o.runtime.Destroy(c); derr != nil {
			logging.Error("Orchestrator", derr, "Failed to destroy %s after a rejected load", name)
		}
		return nil, err
	}
	return rec, nil
}

func (o *Orchestrator) register(rec *registry.Record) error {
	if err := o.registry.Add(rec); err != nil {
		return err
	}
	if err := o.hooks.OnLoaded(rec); err != nil {
		o.registry.Remove(rec.Name)
		return fmt.Errorf("load hook rejected %s: %w", rec.Name, err)
	}
	o.peers.AddNode(dependency.NodeID(rec.Name))
	logging.Info("Orchestrator", "Registered %s in group %d", rec.Name, rec.Group)
	return nil
}

// LoadComponent instantiates one component outside of any document. It is
// placed in the group the next document would open.
func (o *Orchestrator) LoadComponent(ctx context.Context, name, componentType string) error {
	if _, ok := o.registry.Get(name); ok {
		return fmt.Errorf("component '%s' is already loaded", name)
	}
	_, err := o.instantiate(ctx, name, componentType, o.lastGroup())
	return err
}

// Adopt registers a component created elsewhere. Adopted components are
// never destroyed; proxies are also left alone by the lifecycle phases.
func (o *Orchestrator) Adopt(c component.Component, proxy bool) error {
	if c == nil {
		return fmt.Errorf("cannot adopt a nil component")
	}
	return o.register(&registry.Record{Name: c.Name(), Component: c, Group: o.lastGroup(), Proxy: proxy})
}

func (o *Orchestrator) loadService(rec *registry.Record, service string) error {
	if err := o.runtime.LoadService(rec.Component, service); err != nil {
		return err
	}
	for _, p := range rec.Plugins {
		if p == service {
			return nil
		}
	}
	rec.Plugins = append(rec.Plugins, service)
	return nil
}

// LoadService loads a service or plugin into a registered component.
func (o *Orchestrator) LoadService(name, service string) error {
	rec, err := o.record(name)
	if err != nil {
		return err
	}
	return o.loadService(rec, service)
}
