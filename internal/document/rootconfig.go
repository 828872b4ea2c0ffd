package document

// RootConfig is the ordered mapping from component name to the descriptor
// it was last loaded with. Descriptors from several documents are merged
// into one RootConfig; a later descriptor replaces an earlier one of the
// same name but keeps its position.
type RootConfig struct {
	order   []string
	entries map[string]*ComponentDescriptor
}

// NewRootConfig creates an empty RootConfig.
func NewRootConfig() *RootConfig {
	return &RootConfig{entries: make(map[string]*ComponentDescriptor)}
}

// Merge stores cd under its name, replacing a prior entry.
func (rc *RootConfig) Merge(cd *ComponentDescriptor) {
	if _, exists := rc.entries[cd.Name]; !exists {
		rc.order = append(rc.order, cd.Name)
	}
	rc.entries[cd.Name] = cd
}

// Remove deletes the entry for name and reports whether it existed.
func (rc *RootConfig) Remove(name string) bool {
	if _, exists := rc.entries[name]; !exists {
		return false
	}
	delete(rc.entries, name)
	for i, n := range rc.order {
		if n == name {
			rc.order = append(rc.order[:i], rc.order[i+1:]...)
			break
		}
	}
	return true
}

func (rc *RootConfig) Get(name string) (*ComponentDescriptor, bool) {
	cd, ok := rc.entries[name]
	return cd, ok
}

// Names returns the component names in insertion order.
func (rc *RootConfig) Names() []string {
	out := make([]string, len(rc.order))
	copy(out, rc.order)
	return out
}

func (rc *RootConfig) Len() int { return len(rc.order) }

func (rc *RootConfig) Clear() {
	rc.order = nil
	rc.entries = make(map[string]*ComponentDescriptor)
}
