package connection

import (
	"deployer/internal/component"
)

// PortRef is one (port, owner) pair declared under a connection label.
type PortRef struct {
	Port  component.Port
	Owner string
	// Group is the load group of the declaring component.
	Group int
}

// Entry groups the ports sharing a connection label.
type Entry struct {
	Label  string
	Policy component.ConnPolicy
	Ports  []PortRef

	// connected records resolved writer/reader pairs and streamed is set
	// once a single-port entry has its stream, so that configuring again
	// does not connect twice.
	connected map[pair]bool
	streamed  bool
}

type pair struct {
	writer, reader portKey
}

type portKey struct {
	owner string
	port  string
}

func keyOf(r PortRef) portKey {
	return portKey{owner: r.Owner, port: r.Port.Name()}
}

// Connected returns the number of resolved pairs of the entry.
func (e *Entry) Connected() int {
	return len(e.connected)
}

// Streamed reports whether a single-port entry has its stream.
func (e *Entry) Streamed() bool {
	return e.streamed
}

// Table maps connection labels to entries, in declaration order. Labels
// declared only through a policy entry have no ports until a component
// refers to them.
type Table struct {
	order   []string
	entries map[string]*Entry
}

func NewTable() *Table {
	return &Table{entries: make(map[string]*Entry)}
}

func (t *Table) entry(label string) *Entry {
	e, ok := t.entries[label]
	if !ok {
		e = &Entry{Label: label, Policy: component.DefaultPolicy(), connected: make(map[pair]bool)}
		t.entries[label] = e
		t.order = append(t.order, label)
	}
	return e
}

// Add appends ref to the entry for label. Re-declaring an existing
// (port, owner) pair is a no-op and returns false.
func (t *Table) Add(label string, ref PortRef) bool {
	e := t.entry(label)
	k := keyOf(ref)
	for _, existing := range e.Ports {
		if keyOf(existing) == k {
			return false
		}
	}
	e.Ports = append(e.Ports, ref)
	return true
}

// SetPolicy sets the policy used when resolving label.
func (t *Table) SetPolicy(label string, policy component.ConnPolicy) {
	t.entry(label).Policy = policy
}

func (t *Table) Get(label string) (*Entry, bool) {
	e, ok := t.entries[label]
	return e, ok
}

// PurgeOwner removes every pair owned by owner. Entries left without ports
// are dropped. It returns the labels that were touched.
func (t *Table) PurgeOwner(owner string) []string {
	var touched []string
	kept := t.order[:0]
	for _, label := range t.order {
		e := t.entries[label]
		before := len(e.Ports)
		ports := e.Ports[:0]
		for _, ref := range e.Ports {
			if ref.Owner != owner {
				ports = append(ports, ref)
			}
		}
		e.Ports = ports
		if len(ports) != before {
			touched = append(touched, label)
			for p := range e.connected {
				if p.writer.owner == owner || p.reader.owner == owner {
					delete(e.connected, p)
				}
			}
			if len(ports) == 0 {
				delete(t.entries, label)
				continue
			}
			if len(ports) == 1 {
				e.streamed = false
			}
		}
		kept = append(kept, label)
	}
	t.order = kept
	return touched
}

// Entries returns the entries in declaration order.
func (t *Table) Entries() []*Entry {
	out := make([]*Entry, 0, len(t.order))
	for _, label := range t.order {
		out = append(out, t.entries[label])
	}
	return out
}

func (t *Table) Len() int { return len(t.order) }

func (t *Table) Clear() {
	t.order = nil
	t.entries = make(map[string]*Entry)
}
