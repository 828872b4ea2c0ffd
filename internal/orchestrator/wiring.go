package orchestrator

import (
	"errors"
	"fmt"
	"strings"

	"deployer/internal/component"
	"deployer/internal/dependency"
	"deployer/internal/properties"
	"deployer/pkg/logging"
)

// AddPeer makes to a peer of from. Peering is one-way.
func (o *Orchestrator) AddPeer(from, to string) error {
	a, err := o.record(from)
	if err != nil {
		return err
	}
	b, err := o.record(to)
	if err != nil {
		return err
	}
	if _, ok := a.Component.Peer(to); ok {
		o.peers.AddEdge(dependency.NodeID(from), dependency.NodeID(to))
		return nil
	}
	if err := a.Component.AddPeer(b.Component); err != nil {
		return fmt.Errorf("%s: adding peer %s: %w", from, to, err)
	}
	o.peers.AddEdge(dependency.NodeID(from), dependency.NodeID(to))
	logging.Debug("Orchestrator", "%s now has peer %s", from, to)
	return nil
}

// ConnectPeers makes a and b peers of each other.
func (o *Orchestrator) ConnectPeers(a, b string) error {
	return errors.Join(o.AddPeer(a, b), o.AddPeer(b, a))
}

// port resolves a "component.port" path.
func (o *Orchestrator) port(path string) (component.Port, error) {
	i := strings.LastIndex(path, ".")
	if i <= 0 || i == len(path)-1 {
		return nil, fmt.Errorf("invalid port path '%s', expected component.port", path)
	}
	rec, err := o.record(path[:i])
	if err != nil {
		return nil, err
	}
	p, ok := rec.Component.Port(path[i+1:])
	if !ok {
		return nil, fmt.Errorf("%s has no port '%s'", rec.Name, path[i+1:])
	}
	return p, nil
}

// Connect connects two ports given as "component.port" paths, in either
// order.
func (o *Orchestrator) Connect(from, to string, policy component.ConnPolicy) error {
	a, err := o.port(from)
	if err != nil {
		return err
	}
	b, err := o.port(to)
	if err != nil {
		return err
	}
	if a.Direction() == component.Input && b.Direction() == component.Output {
		a, b = b, a
	}
	if err := a.ConnectTo(b, policy); err != nil {
		return fmt.Errorf("connecting %s and %s: %w", from, to, err)
	}
	logging.Debug("Orchestrator", "Connected %s and %s (%s)", from, to, policy)
	return nil
}

// Stream connects one port to an external sink or source.
func (o *Orchestrator) Stream(path string, policy component.ConnPolicy) error {
	p, err := o.port(path)
	if err != nil {
		return err
	}
	return p.CreateStream(policy)
}

// ConnectPorts connects every pair of same-named ports of a and b that have
// opposite directions.
func (o *Orchestrator) ConnectPorts(a, b string) error {
	ra, err := o.record(a)
	if err != nil {
		return err
	}
	rb, err := o.record(b)
	if err != nil {
		return err
	}

	var errs []error
	for _, name := range ra.Component.Ports() {
		pa, _ := ra.Component.Port(name)
		pb, ok := rb.Component.Port(name)
		if !ok || pa.Direction() == pb.Direction() {
			continue
		}
		writer, reader := pa, pb
		if writer.Direction() == component.Input {
			writer, reader = pb, pa
		}
		if err := writer.ConnectTo(reader, component.DefaultPolicy()); err != nil {
			errs = append(errs, fmt.Errorf("port %s of %s and %s: %w", name, a, b, err))
		}
	}
	return errors.Join(errs...)
}

// ConfigureFromFile applies a property file to a component, adding missing
// properties. The file becomes the AutoSave target of the component.
func (o *Orchestrator) ConfigureFromFile(name, path string) error {
	rec, err := o.record(name)
	if err != nil {
		return err
	}
	if err := o.persistence.Load(rec.Component, path, properties.Update); err != nil {
		return err
	}
	rec.PropertyFile = path
	rec.PropertiesLoaded = true
	return nil
}
