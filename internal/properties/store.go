package properties

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sigs.k8s.io/yaml"

	"deployer/internal/component"
	"deployer/pkg/logging"
)

// Mode selects how a property file is applied to a component.
type Mode int

const (
	// Strict requires every property in the file to exist on the component.
	// Nothing is applied when one is missing.
	Strict Mode = iota
	// Update sets existing properties and adds the missing ones.
	Update
	// Lenient sets existing properties and ignores the rest.
	Lenient
)

func (m Mode) String() string {
	switch m {
	case Strict:
		return "strict"
	case Update:
		return "update"
	default:
		return "lenient"
	}
}

// Persister loads and saves component properties.
type Persister interface {
	Load(c component.Component, path string, mode Mode) error
	Save(c component.Component, path string) error
}

// FileStore keeps properties in YAML or JSON files. The format is chosen by
// the file extension when saving; either format is accepted when loading.
type FileStore struct{}

// NewFileStore creates a FileStore.
func NewFileStore() *FileStore {
	return &FileStore{}
}

// Read returns the values stored in path. Integers are returned as int and
// other numbers as float64.
func Read(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read property file %s: %w", path, err)
	}

	values := make(map[string]any)
	useNumber := func(d *json.Decoder) *json.Decoder {
		d.UseNumber()
		return d
	}
	if err := yaml.Unmarshal(data, &values, useNumber); err != nil {
		return nil, fmt.Errorf("failed to parse property file %s: %w", path, err)
	}
	for k, v := range values {
		values[k] = normalize(v)
	}
	return values, nil
}

func normalize(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return int(i)
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any:
		for k, item := range val {
			val[k] = normalize(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = normalize(item)
		}
		return val
	default:
		return v
	}
}

// Load applies the values in path to c according to mode.
func (s *FileStore) Load(c component.Component, path string, mode Mode) error {
	values, err := Read(path)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	known := make(map[string]bool)
	for _, name := range c.PropertyNames() {
		known[name] = true
	}

	if mode == Strict {
		var missing []string
		for _, name := range names {
			if !known[name] {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: %s has no %s (from %s)", component.ErrUnknownProperty,
				c.Name(), strings.Join(missing, ", "), path)
		}
	}

	var errs []error
	for _, name := range names {
		switch {
		case known[name]:
			err = c.SetProperty(name, values[name])
		case mode == Update:
			err = c.AddProperty(name, values[name])
		default:
			logging.Debug("Properties", "Ignoring unknown property %s.%s from %s", c.Name(), name, path)
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("property %s: %w", name, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	logging.Info("Properties", "Loaded %d properties of %s from %s (%s)", len(names), c.Name(), path, mode)
	return nil
}

// Save writes every property of c to path.
func (s *FileStore) Save(c component.Component, path string) error {
	values := make(map[string]any)
	for _, name := range c.PropertyNames() {
		if v, ok := c.Property(name); ok {
			values[name] = v
		}
	}

	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(values, "", "  ")
	} else {
		data, err = yaml.Marshal(values)
	}
	if err != nil {
		return fmt.Errorf("failed to encode properties of %s: %w", c.Name(), err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	logging.Info("Properties", "Saved %d properties of %s to %s", len(values), c.Name(), path)
	return nil
}
