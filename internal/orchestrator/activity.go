package orchestrator

import (
	"fmt"

	"deployer/internal/activity"
	"deployer/internal/dependency"
	"deployer/internal/registry"
	"deployer/pkg/logging"
)

// CreateActivity builds an activity for a component and keeps it pending
// until the component is configured. The component must not be running.
func (o *Orchestrator) CreateActivity(name string, desc activity.Descriptor) error {
	rec, err := o.record(name)
	if err != nil {
		return err
	}
	return o.createActivity(rec, desc)
}

// SetActivity builds an activity and hands it to the component right away.
func (o *Orchestrator) SetActivity(name string, desc activity.Descriptor) error {
	rec, err := o.record(name)
	if err != nil {
		return err
	}
	if err := o.createActivity(rec, desc); err != nil {
		return err
	}
	return o.attachActivity(rec)
}

func (o *Orchestrator) createActivity(rec *registry.Record, desc activity.Descriptor) error {
	if rec.Status().IsRunning() {
		return fmt.Errorf("%s: cannot create an activity: %w", rec.Name, ErrComponentRunning)
	}

	var (
		master    activity.Activity
		masterRec *registry.Record
	)
	if desc.Kind == activity.KindSlave && desc.Master != "" {
		mrec, ok := o.registry.Get(desc.Master)
		if !ok {
			return fmt.Errorf("%w: '%s' is not a known component", activity.ErrMasterNotFound, desc.Master)
		}
		master = mrec.PendingActivity
		if master == nil && mrec.Component != nil {
			master = mrec.Component.Activity()
		}
		if master == nil {
			return fmt.Errorf("%w: '%s' has no activity", activity.ErrMasterNotFound, desc.Master)
		}
		masterRec = mrec
	}

	act, err := o.activities(desc, master)
	if err != nil {
		return err
	}

	if masterRec != nil && masterRec.Component != nil && masterRec.Name != rec.Name {
		if err := masterRec.Component.AddPeer(rec.Component); err != nil {
			logging.Warn("Orchestrator", "Could not add %s as a peer of its master %s: %v", rec.Name, masterRec.Name, err)
		} else {
			o.peers.AddEdge(dependency.NodeID(masterRec.Name), dependency.NodeID(rec.Name))
		}
	}

	if rec.PendingActivity != nil {
		_ = rec.PendingActivity.Stop()
	}
	rec.PendingActivity = act
	logging.Debug("Orchestrator", "Created %s for %s", desc, rec.Name)
	return nil
}

// attachActivity hands the pending activity to its component.
func (o *Orchestrator) attachActivity(rec *registry.Record) error {
	if rec.PendingActivity == nil {
		return nil
	}
	if rec.Status().IsRunning() {
		return fmt.Errorf("%s: cannot attach the activity: %w", rec.Name, ErrComponentRunning)
	}
	if err := rec.Component.SetActivity(rec.PendingActivity); err != nil {
		return err
	}
	rec.PendingActivity = nil
	return nil
}
