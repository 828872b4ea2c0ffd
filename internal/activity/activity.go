package activity

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"deployer/pkg/logging"
)

// ErrMasterNotFound is returned when a slave names a master that has no
// activity.
var ErrMasterNotFound = errors.New("master activity not found")

// Runnable is the update hook an activity drives.
type Runnable interface {
	Step()
}

// Activity drives a Runnable periodically or on demand.
type Activity interface {
	Descriptor() Descriptor

	// Attach sets the runnable to drive. Components call it when they take
	// ownership of the activity.
	Attach(r Runnable)

	Start() error
	Stop() error
	IsRunning() bool

	// Trigger requests one execution. It returns false when the activity is
	// not running or cannot be triggered.
	Trigger() bool

	// Execute runs one step in the calling goroutine. Only slave and
	// sequential activities support it.
	Execute() bool
}

// Factory builds an activity from a descriptor. master is the activity of
// the component named by desc.Master, or nil.
type Factory func(desc Descriptor, master Activity) (Activity, error)

// New is the default Factory.
func New(desc Descriptor, master Activity) (Activity, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	d := &driver{desc: desc}
	if desc.Kind == KindSlave && desc.Master != "" {
		m, ok := master.(*driver)
		if !ok || m == nil {
			return nil, fmt.Errorf("%w: %s", ErrMasterNotFound, desc.Master)
		}
		m.addSlave(d)
		d.master = m
	}
	return d, nil
}

type driver struct {
	desc Descriptor

	mu       sync.Mutex
	runnable Runnable
	running  bool
	stopCh   chan struct{}
	done     chan struct{}
	trigger  chan struct{}

	execMu sync.Mutex
	slaves []*driver
	master *driver
}

func (d *driver) Descriptor() Descriptor { return d.desc }

func (d *driver) Attach(r Runnable) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.runnable = r
}

func (d *driver) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

func (d *driver) addSlave(s *driver) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !slices.Contains(d.slaves, s) {
		d.slaves = append(d.slaves, s)
	}
}

func (d *driver) removeSlave(s *driver) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.slaves = slices.DeleteFunc(d.slaves, func(x *driver) bool { return x == s })
}

func (d *driver) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return fmt.Errorf("activity already running")
	}
	if d.runnable == nil {
		return fmt.Errorf("activity has no runnable attached")
	}

	d.stopCh = make(chan struct{})
	d.done = make(chan struct{})
	d.trigger = make(chan struct{}, 1)

	switch d.desc.Kind {
	case KindPeriodic:
		go d.periodicLoop(d.stopCh, d.done)
	case KindNonPeriodic:
		go d.triggerLoop(d.stopCh, d.done, d.trigger, nil, nil)
	case KindFileTriggered:
		events, closeWatch, err := watchFile(d.desc.File)
		if err != nil {
			return err
		}
		go d.triggerLoop(d.stopCh, d.done, d.trigger, events, closeWatch)
	default:
		close(d.done)
	}

	d.running = true
	if d.master != nil {
		d.master.addSlave(d)
	}
	logging.Debug("Activity", "Started %s", d.desc)
	return nil
}

func (d *driver) Stop() error {
	// A stopped slave is dropped by its master until it is started again.
	if d.master != nil {
		defer d.master.removeSlave(d)
	}

	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	close(d.stopCh)
	done := d.done
	d.mu.Unlock()

	<-done
	logging.Debug("Activity", "Stopped %s", d.desc)
	return nil
}

func (d *driver) Trigger() bool {
	d.mu.Lock()
	running := d.running
	kind := d.desc.Kind
	trigger := d.trigger
	d.mu.Unlock()

	if !running {
		return false
	}
	switch kind {
	case KindNonPeriodic, KindFileTriggered:
		select {
		case trigger <- struct{}{}:
		default:
		}
		return true
	case KindSequential, KindSlave:
		return d.Execute()
	default:
		return false
	}
}

func (d *driver) Execute() bool {
	if d.desc.Kind != KindSlave && d.desc.Kind != KindSequential {
		return false
	}
	if !d.IsRunning() {
		return false
	}
	d.step()
	return true
}

func (d *driver) step() {
	d.mu.Lock()
	r := d.runnable
	slaves := make([]*driver, len(d.slaves))
	copy(slaves, d.slaves)
	d.mu.Unlock()

	if r != nil {
		d.execMu.Lock()
		r.Step()
		d.execMu.Unlock()
	}
	for _, s := range slaves {
		if s.IsRunning() {
			s.step()
		}
	}
}

func (d *driver) periodicLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(d.desc.Period)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			d.step()
		}
	}
}

func (d *driver) triggerLoop(stop <-chan struct{}, done chan<- struct{}, trigger <-chan struct{}, events <-chan struct{}, closeWatch func()) {
	defer close(done)
	if closeWatch != nil {
		defer closeWatch()
	}

	var timeout <-chan time.Time
	if d.desc.Timeout > 0 {
		ticker := time.NewTicker(d.desc.Timeout)
		defer ticker.Stop()
		timeout = ticker.C
	}

	for {
		select {
		case <-stop:
			return
		case <-trigger:
			d.step()
		case <-events:
			d.step()
		case <-timeout:
			d.step()
		}
	}
}
