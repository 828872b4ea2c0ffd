package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"deployer/internal/component"
	"deployer/internal/dependency"
	"deployer/internal/registry"
	"deployer/pkg/logging"
)

// StartComponents starts every group, oldest first.
func (o *Orchestrator) StartComponents(ctx context.Context) error {
	var errs []error
	for _, g := range o.populated(false) {
		errs = append(errs, o.StartGroup(ctx, g))
	}
	return errors.Join(errs...)
}

// StartGroup starts the AutoStart components of group in load order. A
// group that failed to load or configure is refused as a whole.
func (o *Orchestrator) StartGroup(ctx context.Context, group int) error {
	if !o.valid(group) {
		logging.Warn("Orchestrator", "Not starting group %d: its configuration is not valid", group)
		return fmt.Errorf("start of group %d: %w", group, ErrInvalidConfiguration)
	}

	started := time.Now()
	r := &phaseResult{phase: PhaseStart, group: group}
	for _, rec := range o.registry.InGroup(group) {
		if !rec.Flags.AutoStart || rec.Proxy || rec.Component == nil {
			continue
		}
		if rec.Status().IsRunning() {
			continue
		}
		if err := ctx.Err(); err != nil {
			r.fail(rec.Name, err)
			continue
		}
		if err := rec.Component.Start(); err != nil {
			r.fail(rec.Name, err)
			continue
		}
		logging.Info("Orchestrator", "Started %s", rec.Name)
	}
	return o.finish(r, started)
}

// StopComponents stops every group, newest first.
func (o *Orchestrator) StopComponents(ctx context.Context) error {
	var errs []error
	for _, g := range o.populated(true) {
		errs = append(errs, o.StopGroup(ctx, g))
	}
	return errors.Join(errs...)
}

// StopGroup stops the running components of group in reverse load order.
func (o *Orchestrator) StopGroup(_ context.Context, group int) error {
	started := time.Now()
	r := &phaseResult{phase: PhaseStop, group: group}
	for _, rec := range o.registry.InGroupReverse(group) {
		if err := o.stop(rec); err != nil {
			r.fail(rec.Name, err)
		}
	}
	return o.finish(r, started)
}

func (o *Orchestrator) stop(rec *registry.Record) error {
	if !rec.Managed() || !rec.Status().IsRunning() {
		return nil
	}
	if err := rec.Component.Stop(); err != nil {
		return err
	}
	logging.Info("Orchestrator", "Stopped %s", rec.Name)
	return nil
}

// StopComponent stops one component.
func (o *Orchestrator) StopComponent(name string) error {
	rec, err := o.record(name)
	if err != nil {
		return err
	}
	return o.stop(rec)
}

// CleanupComponents cleans up every group, newest first.
func (o *Orchestrator) CleanupComponents(ctx context.Context) error {
	var errs []error
	for _, g := range o.populated(true) {
		errs = append(errs, o.CleanupGroup(ctx, g))
	}
	return errors.Join(errs...)
}

// CleanupGroup saves and cleans up the stopped components of group in
// reverse load order. Running components are a failure.
func (o *Orchestrator) CleanupGroup(_ context.Context, group int) error {
	started := time.Now()
	r := &phaseResult{phase: PhaseCleanup, group: group}
	for _, rec := range o.registry.InGroupReverse(group) {
		if err := o.cleanup(rec); err != nil {
			r.fail(rec.Name, err)
		}
	}
	return o.finish(r, started)
}

func (o *Orchestrator) cleanup(rec *registry.Record) error {
	if !rec.Managed() {
		return nil
	}
	switch status := rec.Status(); {
	case status.IsRunning():
		return fmt.Errorf("cannot clean up: %w", ErrComponentRunning)
	case status == component.StatusInit || status == component.StatusPreOperational:
		return nil
	case status != component.StatusStopped:
		return fmt.Errorf("cannot clean up in state %s", status)
	}

	if rec.Flags.AutoSave {
		if rec.PropertiesLoaded {
			if err := o.persistence.Save(rec.Component, rec.PropertyFile); err != nil {
				return fmt.Errorf("saving properties to %s: %w", rec.PropertyFile, err)
			}
			logging.Info("Orchestrator", "Saved properties of %s to %s", rec.Name, rec.PropertyFile)
		} else {
			logging.Warn("Orchestrator", "%s has AutoSave but no property file was loaded, not saving", rec.Name)
		}
	}
	if err := rec.Component.Cleanup(); err != nil {
		return err
	}
	logging.Info("Orchestrator", "Cleaned up %s", rec.Name)
	return nil
}

// CleanupComponent saves and cleans up one component.
func (o *Orchestrator) CleanupComponent(name string) error {
	rec, err := o.record(name)
	if err != nil {
		return err
	}
	return o.cleanup(rec)
}

// UnloadComponents unloads every group, newest first.
func (o *Orchestrator) UnloadComponents(ctx context.Context) error {
	var errs []error
	for _, g := range o.populated(true) {
		errs = append(errs, o.UnloadGroup(ctx, g))
	}
	return errors.Join(errs...)
}

// UnloadGroup removes the components of group in reverse load order.
// Running components are kept and reported. When the most recent groups
// become empty the group counter is wound back.
func (o *Orchestrator) UnloadGroup(_ context.Context, group int) error {
	started := time.Now()
	r := &phaseResult{phase: PhaseUnload, group: group}

	queue := o.registry.InGroupReverse(group)
	for len(queue) > 0 {
		rec := queue[0]
		queue = queue[1:]
		if err := o.unload(rec); err != nil {
			r.fail(rec.Name, err)
		}
	}

	if len(o.registry.InGroup(group)) == 0 {
		delete(o.validConfig, group)
		o.rewind()
	}
	return o.finish(r, started)
}

// UnloadComponent removes one component.
func (o *Orchestrator) UnloadComponent(name string) error {
	rec, err := o.record(name)
	if err != nil {
		return err
	}
	if err := o.unload(rec); err != nil {
		return err
	}
	o.rewind()
	return nil
}

// rewind gives back trailing groups that hold no component.
func (o *Orchestrator) rewind() {
	for o.sequencer.Peek() > 0 &&
		len(o.registry.InGroup(o.sequencer.Peek())) == 0 &&
		len(o.registry.InGroup(o.sequencer.Peek()-1)) == 0 {
		o.sequencer.Rewind()
		delete(o.validConfig, o.sequencer.Peek())
	}
}

// unload severs every relationship of rec and destroys its component. The
// record is only erased once the component is gone. Adopted components are
// only forgotten: they keep running and keep their ports.
func (o *Orchestrator) unload(rec *registry.Record) error {
	managed := rec.Managed() && rec.Component != nil
	if managed && rec.Status().IsRunning() {
		return fmt.Errorf("cannot unload: %w", ErrComponentRunning)
	}

	o.hooks.OnUnloaded(rec)

	id := dependency.NodeID(rec.Name)
	for _, holder := range o.peers.Dependents(id) {
		if h, ok := o.registry.Get(string(holder)); ok && h.Managed() {
			h.Component.RemovePeer(rec.Name)
		}
	}
	if managed {
		for _, held := range o.peers.Dependencies(id) {
			rec.Component.RemovePeer(string(held))
		}
		for _, name := range rec.Component.Ports() {
			if p, ok := rec.Component.Port(name); ok {
				p.Disconnect()
			}
		}
	}
	o.peers.RemoveNode(id)
	o.table.PurgeOwner(rec.Name)
	o.root.Remove(rec.Name)

	if rec.PendingActivity != nil {
		_ = rec.PendingActivity.Stop()
		rec.PendingActivity = nil
	}
	if forgetter, ok := o.scripts.(interface{ Forget(owner string) }); ok {
		forgetter.Forget(rec.Name)
	}

	if managed {
		if err := o.runtime.Destroy(rec.Component); err != nil {
			return fmt.Errorf("destroying: %w", err)
		}
		logging.Info("Orchestrator", "Unloaded %s", rec.Name)
	} else {
		logging.Info("Orchestrator", "Released %s, it stays alive outside the deployment", rec.Name)
	}
	o.registry.Remove(rec.Name)
	return nil
}
