package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"deployer/pkg/logging"
)

// KickStart loads, configures and starts the document at path as one new
// group. It stops at the first phase that fails.
func (o *Orchestrator) KickStart(ctx context.Context, path string) (int, error) {
	group, err := o.LoadComponents(ctx, path)
	if err != nil {
		logging.Error("Orchestrator", err, "kickStart of %s: loading failed", path)
		return group, err
	}
	if err := o.ConfigureGroup(ctx, group); err != nil {
		logging.Error("Orchestrator", err, "kickStart of %s: loaded, configuring failed", path)
		return group, err
	}
	if err := o.StartGroup(ctx, group); err != nil {
		logging.Error("Orchestrator", err, "kickStart of %s: configured, starting failed", path)
		return group, err
	}
	logging.Info("Orchestrator", "kickStart of %s: group %d loaded, configured and started", path, group)
	return group, nil
}

// KickOutAll stops, cleans up and unloads every group, newest first, then
// resets the group counter. Components that could not be unloaded are kept
// in group 0; the connection table and merged configuration are only
// cleared once no component is left.
func (o *Orchestrator) KickOutAll(ctx context.Context) error {
	var errs []error
	for _, g := range o.populated(true) {
		errs = append(errs,
			o.StopGroup(ctx, g),
			o.CleanupGroup(ctx, g),
			o.UnloadGroup(ctx, g),
		)
	}

	o.sequencer.Reset()
	clear(o.validConfig)

	left := o.registry.All()
	if len(left) == 0 {
		o.table.Clear()
		o.root.Clear()
		logging.Info("Orchestrator", "All components kicked out")
		return errors.Join(errs...)
	}

	for _, rec := range left {
		rec.Group = 0
	}
	logging.Warn("Orchestrator", "kickOutAll left %d component(s) behind in group 0: %v", len(left), o.registry.Names())
	return errors.Join(errs...)
}

// KickOut stops, cleans up and unloads the components named in the document
// at path, in reverse document order. The document is only parsed, never
// loaded.
func (o *Orchestrator) KickOut(path string) error {
	doc, perrs := o.parser.ParseFile(path)
	if doc == nil {
		return perrs.ErrOrNil()
	}

	names := doc.ComponentNames()
	var errs []error
	for i := len(names) - 1; i >= 0; i-- {
		if _, ok := o.registry.Get(names[i]); !ok {
			logging.Warn("Orchestrator", "kickOut of %s: %s is not loaded", path, names[i])
			errs = append(errs, fmt.Errorf("%s: %w", names[i], ErrUnknownComponent))
			continue
		}
		errs = append(errs, o.KickOutComponent(names[i]))
	}
	return errors.Join(errs...)
}

// KickOutComponent stops, cleans up and unloads one component.
func (o *Orchestrator) KickOutComponent(name string) error {
	if _, err := o.record(name); err != nil {
		return err
	}
	if err := o.StopComponent(name); err != nil {
		return err
	}
	if err := o.CleanupComponent(name); err != nil {
		return err
	}
	return o.UnloadComponent(name)
}
