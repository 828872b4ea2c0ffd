package component

import (
	"context"
	"errors"

	"deployer/internal/activity"
)

// Status is the lifecycle state reported by a component. The orchestrator
// only observes it; transitions are driven by the component itself.
type Status int

const (
	StatusInit Status = iota
	StatusPreOperational
	StatusFatalError
	StatusException
	StatusStopped
	StatusRunning
	StatusRunTimeError
)

func (s Status) String() string {
	switch s {
	case StatusInit:
		return "Init"
	case StatusPreOperational:
		return "PreOperational"
	case StatusFatalError:
		return "FatalError"
	case StatusException:
		return "Exception"
	case StatusStopped:
		return "Stopped"
	case StatusRunning:
		return "Running"
	case StatusRunTimeError:
		return "RunTimeError"
	default:
		return "Unknown"
	}
}

// IsRunning reports whether the component is executing, including the
// recoverable run-time error state.
func (s Status) IsRunning() bool {
	return s == StatusRunning || s == StatusRunTimeError
}

// IsConfigured reports whether the component left the unconfigured states.
func (s Status) IsConfigured() bool {
	return s == StatusStopped || s.IsRunning()
}

// Direction tells whether a port writes (source) or reads (sink) data.
type Direction int

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

var (
	// ErrNotConnectable is returned when two ports cannot be connected, e.g.
	// because both have the same direction.
	ErrNotConnectable = errors.New("ports are not connectable")

	// ErrUnknownProperty is returned when setting a property the component
	// does not have.
	ErrUnknownProperty = errors.New("unknown property")
)

// Port is a named, typed data endpoint owned by a component.
type Port interface {
	Name() string
	Direction() Direction

	// ConnectTo establishes one connection between this port and other.
	ConnectTo(other Port, policy ConnPolicy) error

	// CreateStream connects the port to an external sink or source.
	CreateStream(policy ConnPolicy) error

	// Disconnect removes every connection of this port.
	Disconnect()
	Connected() bool
}

// Component is the unit the orchestrator deploys. It is provided by an
// external runtime; the orchestrator only calls it through this interface.
type Component interface {
	Name() string
	Status() Status

	Configure() error
	Start() error
	Stop() error
	Cleanup() error

	Port(name string) (Port, bool)
	Ports() []string

	Peer(name string) (Component, bool)
	Peers() []string
	AddPeer(peer Component) error
	RemovePeer(name string)

	Property(name string) (any, bool)
	PropertyNames() []string
	// SetProperty updates an existing property and fails with
	// ErrUnknownProperty otherwise.
	SetProperty(name string, value any) error
	// AddProperty creates the property if missing, then sets it.
	AddProperty(name string, value any) error

	Invoke(ctx context.Context, operation string, args ...any) (any, error)

	// SetActivity hands ownership of act to the component. It must fail
	// while the component is running.
	SetActivity(act activity.Activity) error
	Activity() activity.Activity
}

// Runtime is the external loader that creates and destroys components.
type Runtime interface {
	Instantiate(ctx context.Context, name, componentType string) (Component, error)
	Destroy(c Component) error

	Import(pkg string) error
	LoadLibrary(path string) error
	AddPath(path string)

	// LoadService loads a named service or plugin into c.
	LoadService(c Component, service string) error
}
