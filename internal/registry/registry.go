package registry

import (
	"fmt"
	"sync"
)

// Registry holds the component records in insertion order.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	records map[string]*Record
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{records: make(map[string]*Record)}
}

// Add registers rec. Names are unique.
func (r *Registry) Add(rec *Record) error {
	if rec == nil || rec.Name == "" {
		return fmt.Errorf("cannot register a record without name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[rec.Name]; exists {
		return fmt.Errorf("component %s already registered", rec.Name)
	}
	r.records[rec.Name] = rec
	r.order = append(r.order, rec.Name)
	return nil
}

// Get returns a record by name
func (r *Registry) Get(name string) (*Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, exists := r.records[name]
	return rec, exists
}

// Remove erases the record for name and reports whether it existed.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[name]; !exists {
		return false
	}
	delete(r.records, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// All returns every record in insertion order.
func (r *Registry) All() []*Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Record, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.records[name])
	}
	return out
}

// InGroup returns the records of group in insertion order.
func (r *Registry) InGroup(group int) []*Record {
	var out []*Record
	for _, rec := range r.All() {
		if rec.Group == group {
			out = append(out, rec)
		}
	}
	return out
}

// InGroupReverse returns the records of group, most recently added first.
// Teardown phases use it.
func (r *Registry) InGroupReverse(group int) []*Record {
	recs := r.InGroup(group)
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}
	return recs
}

// Names returns the registered names in insertion order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
