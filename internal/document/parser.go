package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"deployer/internal/activity"
	"deployer/internal/component"
	"deployer/internal/config"
	"deployer/internal/template"
	"deployer/pkg/logging"
)

// Document is a parsed deployment document.
type Document struct {
	Source  string
	Entries []Entry
}

// Components returns the component descriptors in document order.
func (d *Document) Components() []*ComponentDescriptor {
	var out []*ComponentDescriptor
	for _, e := range d.Entries {
		if e.Kind == EntryComponent && e.Component != nil {
			out = append(out, e.Component)
		}
	}
	return out
}

// ComponentNames returns the names of the component entries only, skipping
// directives and connection policies.
func (d *Document) ComponentNames() []string {
	var names []string
	for _, e := range d.Entries {
		if e.Kind == EntryComponent {
			names = append(names, e.Name)
		}
	}
	return names
}

// Parser turns deployment documents into Documents.
type Parser struct {
	engine *template.Engine
	vars   map[string]any
}

// NewParser creates a parser. vars are added to the template context of every
// document.
func NewParser(vars map[string]any) *Parser {
	return &Parser{engine: template.New(false), vars: vars}
}

// ParseFile reads and parses the document at path.
func (p *Parser) ParseFile(path string) (*Document, *config.ConfigurationErrorCollection) {
	data, err := os.ReadFile(path)
	if err != nil {
		errs := config.NewConfigurationErrorCollection()
		errs.Add(config.NewConfigurationErrorWithDetails(path, filepath.Base(path), "", "document",
			config.ErrorTypeIO, "failed to read document", err.Error(), nil))
		return nil, errs
	}
	return p.Parse(path, data)
}

// Parse parses data read from source. Every problem found is reported in the
// returned collection, which is never nil. The document is nil only when the
// input could not be parsed at all; otherwise it holds every entry that
// could be decoded, including partially valid components.
func (p *Parser) Parse(source string, data []byte) (doc *Document, errs *config.ConfigurationErrorCollection) {
	errs = config.NewConfigurationErrorCollection()
	d := &decoder{source: source, errs: errs}

	defer func() {
		if r := recover(); r != nil {
			doc = nil
			d.fail("", "document", config.ErrorTypeParse, 0, "unexpected failure while parsing: %v", r)
		}
	}()

	rendered, err := p.engine.Render(source, data, template.MergeContexts(template.DocumentContext(source), p.vars))
	if err != nil {
		d.fail("", "document", config.ErrorTypeParse, 0, "%v", err)
		return nil, errs
	}

	var root yaml.Node
	if err := yaml.Unmarshal(rendered, &root); err != nil {
		d.fail("", "document", config.ErrorTypeParse, 0, "%v", err)
		return nil, errs
	}

	doc = &Document{Source: source}
	if root.Kind == 0 || len(root.Content) == 0 {
		return doc, errs
	}
	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		d.fail("", "document", config.ErrorTypeParse, top.Line, "document must be a mapping of named entries")
		return nil, errs
	}

	seen := make(map[string]int)
	for i := 0; i+1 < len(top.Content); i += 2 {
		key, value := top.Content[i], top.Content[i+1]
		name := key.Value
		if prev, dup := seen[name]; dup && !IsDirective(name) {
			d.fail(name, "document", config.ErrorTypeValidation, key.Line,
				"duplicate entry '%s' (first declared on line %d), the later one wins", name, prev)
		}
		seen[name] = key.Line

		entry, ok := d.decodeEntry(name, key.Line, value)
		if ok {
			doc.Entries = append(doc.Entries, entry)
		}
	}
	return doc, errs
}

type decoder struct {
	source string
	errs   *config.ConfigurationErrorCollection
}

func (d *decoder) fail(entry, category, errorType string, line int, format string, args ...any) {
	ce := config.NewConfigurationError(d.source, filepath.Base(d.source), entry, category, errorType, fmt.Sprintf(format, args...))
	ce.LineNumber = line
	d.errs.Add(ce)
}

func (d *decoder) decodeEntry(name string, line int, value *yaml.Node) (Entry, bool) {
	if IsDirective(name) {
		values, err := stringList(value)
		if err != nil {
			d.fail(name, "directive", config.ErrorTypeValidation, value.Line, "%v", err)
			return Entry{}, false
		}
		return Entry{
			Kind:      EntryDirective,
			Name:      name,
			Line:      line,
			Directive: &Directive{Name: name, Values: values},
		}, true
	}

	if value.Kind != yaml.MappingNode {
		d.fail(name, "document", config.ErrorTypeValidation, value.Line, "entry '%s' must be a mapping", name)
		return Entry{}, false
	}

	if isPolicy(value) {
		var fields map[string]any
		if err := value.Decode(&fields); err != nil {
			d.fail(name, "policy", config.ErrorTypeParse, value.Line, "%v", err)
			return Entry{}, false
		}
		policy, err := component.ComposePolicy(fields)
		if err != nil {
			d.fail(name, "policy", config.ErrorTypeValidation, value.Line, "%v", err)
			return Entry{}, false
		}
		return Entry{Kind: EntryPolicy, Name: name, Line: line, Policy: &policy}, true
	}

	if err := config.ValidateEntityName(name, "component"); err != nil {
		d.fail(name, "component", config.ErrorTypeValidation, line, "%v", err)
	}
	cd := d.decodeComponent(name, line, value)
	return Entry{Kind: EntryComponent, Name: name, Line: line, Component: cd}, true
}

var policyKeys = func() map[string]bool {
	keys := make(map[string]bool)
	for _, k := range component.PolicyFieldNames() {
		keys[k] = true
	}
	return keys
}()

// isPolicy recognises a connection policy by its shape: a non-empty mapping
// whose keys all belong to the policy schema.
func isPolicy(n *yaml.Node) bool {
	if n.Kind != yaml.MappingNode || len(n.Content) == 0 {
		return false
	}
	for i := 0; i < len(n.Content); i += 2 {
		if !policyKeys[n.Content[i].Value] {
			return false
		}
	}
	return true
}

type fieldDecoder func(d *decoder, cd *ComponentDescriptor, key string, value *yaml.Node) error

func boolField(target func(*ComponentDescriptor) *bool) fieldDecoder {
	return func(_ *decoder, cd *ComponentDescriptor, _ string, value *yaml.Node) error {
		var b bool
		if value.Kind != yaml.ScalarNode || value.Decode(&b) != nil {
			return fmt.Errorf("expected a boolean, got '%s'", value.Value)
		}
		*target(cd) = b
		return nil
	}
}

func pluginField(_ *decoder, cd *ComponentDescriptor, _ string, value *yaml.Node) error {
	names, err := stringList(value)
	if err != nil {
		return err
	}
	cd.Plugins = append(cd.Plugins, names...)
	return nil
}

func propertyFileField(_ *decoder, cd *ComponentDescriptor, key string, value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode || value.Value == "" {
		return fmt.Errorf("expected a file path")
	}
	if cd.PropertyFile != "" {
		return fmt.Errorf("only one of PropertyFile, UpdateProperties and LoadProperties may be given, '%s' already set", cd.PropertyFileMode)
	}
	cd.PropertyFile = value.Value
	cd.PropertyFileMode = PropertyFileMode(key)
	return nil
}

func scriptField(d *decoder, cd *ComponentDescriptor, key string, value *yaml.Node) error {
	paths, err := stringList(value)
	if err != nil {
		return err
	}
	if key != string(ScriptRun) {
		logging.Warn("Loader", "%s: %s is deprecated, use RunScript", cd.Name, key)
	}
	for _, path := range paths {
		cd.Scripts = append(cd.Scripts, Script{Kind: ScriptKind(key), Path: path})
	}
	return nil
}

var componentFields = map[string]fieldDecoder{
	"Type": func(_ *decoder, cd *ComponentDescriptor, _ string, value *yaml.Node) error {
		if value.Kind != yaml.ScalarNode || value.Value == "" {
			return fmt.Errorf("expected a component type name")
		}
		cd.Type = value.Value
		return nil
	},
	"AutoConnect":      boolField(func(cd *ComponentDescriptor) *bool { return &cd.AutoConnect }),
	"AutoStart":        boolField(func(cd *ComponentDescriptor) *bool { return &cd.AutoStart }),
	"AutoSave":         boolField(func(cd *ComponentDescriptor) *bool { return &cd.AutoSave }),
	"AutoConf":         boolField(func(cd *ComponentDescriptor) *bool { return &cd.AutoConf }),
	"Server":           boolField(func(cd *ComponentDescriptor) *bool { return &cd.Server }),
	"UseNamingService": boolField(func(cd *ComponentDescriptor) *bool { return &cd.UseNamingService }),

	"Service":  pluginField,
	"Plugin":   pluginField,
	"Provides": pluginField,

	"PropertyFile":     propertyFileField,
	"UpdateProperties": propertyFileField,
	"LoadProperties":   propertyFileField,

	"Properties": func(_ *decoder, cd *ComponentDescriptor, _ string, value *yaml.Node) error {
		if value.Kind != yaml.MappingNode {
			return fmt.Errorf("expected a mapping of property values")
		}
		for i := 0; i+1 < len(value.Content); i += 2 {
			var v any
			if err := value.Content[i+1].Decode(&v); err != nil {
				return fmt.Errorf("property '%s': %w", value.Content[i].Value, err)
			}
			cd.Properties = append(cd.Properties, Property{Name: value.Content[i].Value, Value: v})
		}
		return nil
	},

	"RunScript":          scriptField,
	"ProgramScript":      scriptField,
	"StateMachineScript": scriptField,

	"Ports": func(_ *decoder, cd *ComponentDescriptor, _ string, value *yaml.Node) error {
		if value.Kind != yaml.MappingNode {
			return fmt.Errorf("expected a mapping of port name to connection label")
		}
		var errs []error
		for i := 0; i+1 < len(value.Content); i += 2 {
			port, label := value.Content[i], value.Content[i+1]
			if label.Kind != yaml.ScalarNode || label.Value == "" {
				errs = append(errs, fmt.Errorf("port '%s' needs a connection label", port.Value))
				continue
			}
			cd.Ports = append(cd.Ports, PortBinding{Port: port.Value, Label: label.Value})
		}
		return errors.Join(errs...)
	},

	"Peers": func(_ *decoder, cd *ComponentDescriptor, _ string, value *yaml.Node) error {
		peers, err := stringList(value)
		if err != nil {
			return err
		}
		cd.Peers = append(cd.Peers, peers...)
		return nil
	},

	"Activity": func(_ *decoder, cd *ComponentDescriptor, _ string, value *yaml.Node) error {
		if value.Kind != yaml.MappingNode {
			return fmt.Errorf("expected an activity mapping")
		}
		var fields map[string]any
		if err := value.Decode(&fields); err != nil {
			return err
		}
		desc, err := activity.FromFields(fields)
		if err != nil {
			return err
		}
		cd.Activity = &desc
		return nil
	},
}

// ComponentFieldNames returns the accepted component descriptor fields.
func ComponentFieldNames() []string {
	names := make([]string, 0, len(componentFields))
	for name := range componentFields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// decodeComponent decodes every field it can and records a validation error
// for each one it cannot.
func (d *decoder) decodeComponent(name string, line int, value *yaml.Node) *ComponentDescriptor {
	cd := &ComponentDescriptor{Name: name, Line: line, Source: d.source}

	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		decode, ok := componentFields[key.Value]
		if !ok {
			ce := config.NewConfigurationErrorWithDetails(d.source, filepath.Base(d.source), name, "component",
				config.ErrorTypeValidation, fmt.Sprintf("unknown field '%s'", key.Value), "",
				suggestField(key.Value))
			ce.LineNumber = key.Line
			d.errs.Add(ce)
			continue
		}
		if err := decode(d, cd, key.Value, val); err != nil {
			category := strings.ToLower(key.Value)
			for _, e := range splitErrors(err) {
				d.fail(name, category, config.ErrorTypeValidation, val.Line, "%s: %v", key.Value, e)
			}
		}
	}
	return cd
}

func suggestField(field string) []string {
	for _, name := range ComponentFieldNames() {
		if strings.EqualFold(name, field) {
			return []string{fmt.Sprintf("did you mean '%s'?", name)}
		}
	}
	return []string{"valid fields are: " + strings.Join(ComponentFieldNames(), ", ")}
}

func splitErrors(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

// stringList accepts a scalar or a sequence of scalars.
func stringList(n *yaml.Node) ([]string, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Value == "" {
			return nil, fmt.Errorf("expected a non-empty value")
		}
		return []string{n.Value}, nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode || item.Value == "" {
				return nil, fmt.Errorf("expected a list of names")
			}
			out = append(out, item.Value)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a name or a list of names")
	}
}
