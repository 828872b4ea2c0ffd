package connection

import (
	"errors"
	"fmt"

	"deployer/internal/component"
	"deployer/pkg/logging"
)

// FanOut selects how a label with several writers is resolved.
type FanOut int

const (
	// FanOutAll connects every reader to every writer. A reader of a label
	// with N writers receives the data of all N.
	FanOutAll FanOut = iota
	// FanOutSingleWriter refuses labels with more than one writer.
	FanOutSingleWriter
)

func (f FanOut) String() string {
	if f == FanOutSingleWriter {
		return "single-writer"
	}
	return "all"
}

// ParseFanOut maps the settings value to a FanOut.
func ParseFanOut(s string) (FanOut, error) {
	switch s {
	case "", "all":
		return FanOutAll, nil
	case "single-writer":
		return FanOutSingleWriter, nil
	}
	return FanOutAll, fmt.Errorf("unknown fan-out policy '%s'", s)
}

var (
	// ErrNoWriter is returned for a label shared by several ports of which
	// none writes.
	ErrNoWriter = errors.New("no writer port")

	// ErrMultipleWriters is returned under FanOutSingleWriter.
	ErrMultipleWriters = errors.New("more than one writer port")
)

// Options controls a Resolve pass.
type Options struct {
	FanOut FanOut

	// ScopeToGroup restricts resolution to entries with at least one port
	// declared by a component of Group. By default the whole table is
	// resolved, so configuring one group can complete wiring declared by
	// another.
	ScopeToGroup bool
	Group        int
}

// LabelError is a resolution failure of one label.
type LabelError struct {
	Label string
	Err   error
}

func (e *LabelError) Error() string {
	return fmt.Sprintf("connection '%s': %v", e.Label, e.Err)
}

func (e *LabelError) Unwrap() error { return e.Err }

// Resolve connects the ports of every entry in t. Every entry and every
// pair is attempted; the returned error joins one LabelError per failing
// label. Stream failures of single-port entries are logged only.
func Resolve(t *Table, opts Options) error {
	var errs []error
	for _, e := range t.Entries() {
		if opts.ScopeToGroup && !e.declaredBy(opts.Group) {
			continue
		}
		if err := resolveEntry(e, opts.FanOut); err != nil {
			logging.Error("Resolver", err, "Failed to resolve connection '%s'", e.Label)
			errs = append(errs, &LabelError{Label: e.Label, Err: err})
		}
	}
	return errors.Join(errs...)
}

func (e *Entry) declaredBy(group int) bool {
	for _, ref := range e.Ports {
		if ref.Group == group {
			return true
		}
	}
	return false
}

func resolveEntry(e *Entry, fanOut FanOut) error {
	switch len(e.Ports) {
	case 0:
		logging.Debug("Resolver", "Connection '%s' has a policy but no ports", e.Label)
		return nil
	case 1:
		if e.streamed {
			return nil
		}
		ref := e.Ports[0]
		if err := ref.Port.CreateStream(e.Policy); err != nil {
			logging.Warn("Resolver", "Could not create stream for %s.%s on '%s': %v", ref.Owner, ref.Port.Name(), e.Label, err)
			return nil
		}
		e.streamed = true
		logging.Info("Resolver", "Created stream for %s.%s on '%s'", ref.Owner, ref.Port.Name(), e.Label)
		return nil
	}

	var writers, readers []PortRef
	for _, ref := range e.Ports {
		if ref.Port.Direction() == component.Output {
			writers = append(writers, ref)
		} else {
			readers = append(readers, ref)
		}
	}
	if len(writers) == 0 {
		return fmt.Errorf("%w among %d ports", ErrNoWriter, len(e.Ports))
	}
	if fanOut == FanOutSingleWriter && len(writers) > 1 {
		return fmt.Errorf("%w (%d)", ErrMultipleWriters, len(writers))
	}

	var errs []error
	for _, r := range readers {
		for _, w := range writers {
			p := pair{writer: keyOf(w), reader: keyOf(r)}
			if e.connected[p] {
				continue
			}
			if err := w.Port.ConnectTo(r.Port, e.Policy); err != nil {
				logging.Error("Resolver", err, "Failed to connect %s.%s to %s.%s", w.Owner, w.Port.Name(), r.Owner, r.Port.Name())
				errs = append(errs, fmt.Errorf("%s.%s -> %s.%s: %w", w.Owner, w.Port.Name(), r.Owner, r.Port.Name(), err))
				continue
			}
			e.connected[p] = true
			logging.Debug("Resolver", "Connected %s.%s to %s.%s (%s)", w.Owner, w.Port.Name(), r.Owner, r.Port.Name(), e.Policy)
		}
	}
	return errors.Join(errs...)
}
