package orchestrator

import (
	"errors"
	"fmt"
	"strings"
)

// Phase names used in errors, logs and metrics.
const (
	PhaseLoad      = "load"
	PhaseConfigure = "configure"
	PhaseStart     = "start"
	PhaseStop      = "stop"
	PhaseCleanup   = "cleanup"
	PhaseUnload    = "unload"
)

var (
	// ErrInvalidConfiguration is returned when starting a group whose load
	// or configure phase failed.
	ErrInvalidConfiguration = errors.New("group configuration is not valid")

	// ErrComponentRunning is returned by operations that require a stopped
	// component.
	ErrComponentRunning = errors.New("component is running")

	// ErrUnknownComponent is returned for names missing from the registry.
	ErrUnknownComponent = errors.New("unknown component")
)

// ComponentFailure is the failure of one component within a phase. For
// connection failures Component is empty and Err is a
// *connection.LabelError.
type ComponentFailure struct {
	Component string
	Err       error
}

func (f ComponentFailure) Error() string {
	if f.Component == "" {
		return f.Err.Error()
	}
	return fmt.Sprintf("%s: %v", f.Component, f.Err)
}

func (f ComponentFailure) Unwrap() error { return f.Err }

// PhaseError reports the components of a group a phase failed for. The
// phase still ran for every other component of the group.
type PhaseError struct {
	Phase    string
	Group    int
	Failures []ComponentFailure
}

func (e *PhaseError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Error())
	}
	return fmt.Sprintf("%s of group %d failed (%d): %s", e.Phase, e.Group, len(e.Failures), strings.Join(msgs, "; "))
}

func (e *PhaseError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}

// Failed returns the names of the failed components.
func (e *PhaseError) Failed() []string {
	var names []string
	for _, f := range e.Failures {
		if f.Component != "" {
			names = append(names, f.Component)
		}
	}
	return names
}

// phaseResult collects the failures of one phase run.
type phaseResult struct {
	phase    string
	group    int
	failures []ComponentFailure
}

func (r *phaseResult) fail(component string, err error) {
	r.failures = append(r.failures, ComponentFailure{Component: component, Err: err})
}

func (r *phaseResult) failed(component string) bool {
	for _, f := range r.failures {
		if f.Component == component {
			return true
		}
	}
	return false
}

func (r *phaseResult) err() error {
	if len(r.failures) == 0 {
		return nil
	}
	return &PhaseError{Phase: r.phase, Group: r.group, Failures: r.failures}
}
