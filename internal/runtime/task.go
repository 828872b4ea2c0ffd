package runtime

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"deployer/internal/activity"
	"deployer/internal/component"
	"deployer/pkg/logging"
)

// ErrUnknownOperation is returned by Invoke for operations the task does
// not provide.
var ErrUnknownOperation = errors.New("unknown operation")

// Operation is the implementation of a named task operation.
type Operation func(ctx context.Context, args ...any) (any, error)

// Task is the in-process Component. Its lifecycle is
//
//	PreOperational --Configure--> Stopped --Start--> Running
//	Running --Stop--> Stopped --Cleanup--> PreOperational
//
// A type that does not need configuration starts out Stopped.
type Task struct {
	name string
	spec TypeSpec

	mu         sync.Mutex
	status     component.Status
	ports      map[string]*Port
	portNames  []string
	peers      map[string]component.Component
	peerNames  []string
	props      map[string]any
	propNames  []string
	ops        map[string]Operation
	invoked    []string
	act        activity.Activity
	services   []string
	steps      int
	configured int
}

func newTask(name string, spec TypeSpec) *Task {
	t := &Task{
		name:   name,
		spec:   spec,
		status: component.StatusStopped,
		ports:  make(map[string]*Port),
		peers:  make(map[string]component.Component),
		props:  make(map[string]any),
		ops:    make(map[string]Operation),
	}
	if spec.NeedsConfigure {
		t.status = component.StatusPreOperational
	}
	for _, p := range spec.Ports {
		t.ports[p.Name] = newPort(name, p.Name, p.Direction)
		t.portNames = append(t.portNames, p.Name)
	}
	names := make([]string, 0, len(spec.Properties))
	for n := range spec.Properties {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		t.props[n] = spec.Properties[n]
		t.propNames = append(t.propNames, n)
	}
	for _, op := range spec.Operations {
		t.ops[op] = func(context.Context, ...any) (any, error) {
			logging.Debug("Runtime", "%s.%s invoked", name, op)
			return nil, nil
		}
	}
	return t
}

func (t *Task) Name() string { return t.name }

// Type returns the component type the task was created from.
func (t *Task) Type() string { return t.spec.Name }

func (t *Task) Status() component.Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *Task) Configure() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.IsRunning() {
		return fmt.Errorf("%s: cannot configure while running", t.name)
	}
	t.status = component.StatusStopped
	t.configured++
	return nil
}

// ConfigureCount returns how often Configure succeeded.
func (t *Task) ConfigureCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.configured
}

func (t *Task) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != component.StatusStopped {
		return fmt.Errorf("%s: cannot start from %s", t.name, t.status)
	}
	if t.act != nil {
		if err := t.act.Start(); err != nil {
			return fmt.Errorf("%s: failed to start activity: %w", t.name, err)
		}
	}
	t.status = component.StatusRunning
	return nil
}

func (t *Task) Stop() error {
	t.mu.Lock()
	if !t.status.IsRunning() {
		status := t.status
		t.mu.Unlock()
		return fmt.Errorf("%s: cannot stop from %s", t.name, status)
	}
	act := t.act
	t.mu.Unlock()

	// The activity may be inside Step, which takes t.mu.
	if act != nil {
		if err := act.Stop(); err != nil {
			return fmt.Errorf("%s: failed to stop activity: %w", t.name, err)
		}
	}

	t.mu.Lock()
	t.status = component.StatusStopped
	t.mu.Unlock()
	return nil
}

func (t *Task) Cleanup() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != component.StatusStopped {
		return fmt.Errorf("%s: cannot clean up from %s", t.name, t.status)
	}
	t.status = component.StatusPreOperational
	return nil
}

// Step runs one update cycle. It is called by the task's activity.
func (t *Task) Step() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.steps++
}

// Steps returns the number of update cycles run so far.
func (t *Task) Steps() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.steps
}

func (t *Task) Port(name string) (component.Port, bool) {
	p, ok := t.DataPort(name)
	if !ok {
		return nil, false
	}
	return p, true
}

// DataPort returns the concrete port for reading and writing samples.
func (t *Task) DataPort(name string) (*Port, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.ports[name]
	return p, ok
}

func (t *Task) Ports() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.portNames...)
}

func (t *Task) Peer(name string) (component.Component, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.peers[name]
	return p, ok
}

func (t *Task) Peers() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.peerNames...)
}

func (t *Task) AddPeer(peer component.Component) error {
	if peer == nil {
		return fmt.Errorf("%s: nil peer", t.name)
	}
	name := peer.Name()
	if name == t.name {
		return fmt.Errorf("%s: a component cannot be its own peer", t.name)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.peers[name]; ok {
		if existing == peer {
			return nil
		}
		return fmt.Errorf("%s: another peer named %s exists", t.name, name)
	}
	t.peers[name] = peer
	t.peerNames = append(t.peerNames, name)
	return nil
}

func (t *Task) RemovePeer(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.peers[name]; !ok {
		return
	}
	delete(t.peers, name)
	for i, n := range t.peerNames {
		if n == name {
			t.peerNames = append(t.peerNames[:i], t.peerNames[i+1:]...)
			break
		}
	}
}

func (t *Task) Property(name string) (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.props[name]
	return v, ok
}

func (t *Task) PropertyNames() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.propNames...)
}

// SetProperty updates an existing property. Numbers are converted to the
// kind of the current value; any other change of type is refused.
func (t *Task) SetProperty(name string, value any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	current, ok := t.props[name]
	if !ok {
		return fmt.Errorf("%w: %s.%s", component.ErrUnknownProperty, t.name, name)
	}
	converted, err := convert(current, value)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", t.name, name, err)
	}
	t.props[name] = converted
	return nil
}

func (t *Task) AddProperty(name string, value any) error {
	t.mu.Lock()
	_, exists := t.props[name]
	if !exists {
		t.props[name] = value
		t.propNames = append(t.propNames, name)
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()
	return t.SetProperty(name, value)
}

func convert(current, value any) (any, error) {
	if current == nil || value == nil {
		return value, nil
	}
	switch current.(type) {
	case int:
		switch v := value.(type) {
		case int:
			return v, nil
		case float64:
			if v == float64(int(v)) {
				return int(v), nil
			}
		}
	case float64:
		switch v := value.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		}
	case string:
		if v, ok := value.(string); ok {
			return v, nil
		}
	case bool:
		if v, ok := value.(bool); ok {
			return v, nil
		}
	default:
		return value, nil
	}
	return nil, fmt.Errorf("cannot assign %T to a %T property", value, current)
}

// RegisterOperation adds or replaces an operation.
func (t *Task) RegisterOperation(name string, op Operation) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ops[name] = op
}

// Invoke runs an operation. configure, start, stop and cleanup map to the
// lifecycle methods.
func (t *Task) Invoke(ctx context.Context, operation string, args ...any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch operation {
	case "configure":
		return nil, t.Configure()
	case "start":
		return nil, t.Start()
	case "stop":
		return nil, t.Stop()
	case "cleanup":
		return nil, t.Cleanup()
	}

	t.mu.Lock()
	op, ok := t.ops[operation]
	if ok {
		t.invoked = append(t.invoked, operation)
	}
	t.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownOperation, t.name, operation)
	}
	return op(ctx, args...)
}

// Invoked returns the names of the operations run so far, in order.
func (t *Task) Invoked() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.invoked...)
}

// SetActivity hands act to the task, replacing and stopping a previous one.
func (t *Task) SetActivity(act activity.Activity) error {
	t.mu.Lock()
	if t.status.IsRunning() {
		t.mu.Unlock()
		return fmt.Errorf("%s: cannot change the activity while running", t.name)
	}
	old := t.act
	t.act = act
	t.mu.Unlock()

	if old != nil && old != act {
		_ = old.Stop()
	}
	if act != nil {
		act.Attach(t)
	}
	return nil
}

func (t *Task) Activity() activity.Activity {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.act
}

// Services returns the services loaded into the task.
func (t *Task) Services() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.services...)
}

func (t *Task) addService(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.services {
		if s == name {
			return false
		}
	}
	t.services = append(t.services, name)
	return true
}

func (t *Task) disconnectAll() {
	t.mu.Lock()
	ports := make([]*Port, 0, len(t.ports))
	for _, p := range t.ports {
		ports = append(ports, p)
	}
	t.mu.Unlock()
	for _, p := range ports {
		p.Disconnect()
	}
}
