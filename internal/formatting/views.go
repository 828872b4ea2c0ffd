package formatting

import (
	"fmt"

	"deployer/internal/config"
	"deployer/internal/orchestrator"
)

type componentView struct {
	Name         string   `json:"name" yaml:"name"`
	Type         string   `json:"type,omitempty" yaml:"type,omitempty"`
	Group        int      `json:"group" yaml:"group"`
	Status       string   `json:"status" yaml:"status"`
	Activity     string   `json:"activity,omitempty" yaml:"activity,omitempty"`
	Flags        []string `json:"flags,omitempty" yaml:"flags,omitempty"`
	PropertyFile string   `json:"propertyFile,omitempty" yaml:"propertyFile,omitempty"`
	Peers        []string `json:"peers,omitempty" yaml:"peers,omitempty"`
	Plugins      []string `json:"plugins,omitempty" yaml:"plugins,omitempty"`
}

type connectionView struct {
	Label     string   `json:"label" yaml:"label"`
	Policy    string   `json:"policy" yaml:"policy"`
	Ports     []string `json:"ports" yaml:"ports"`
	Connected int      `json:"connected" yaml:"connected"`
	Streamed  bool     `json:"streamed,omitempty" yaml:"streamed,omitempty"`
}

type errorView struct {
	Entry       string   `json:"entry,omitempty" yaml:"entry,omitempty"`
	Category    string   `json:"category" yaml:"category"`
	Type        string   `json:"type" yaml:"type"`
	Location    string   `json:"location" yaml:"location"`
	Message     string   `json:"message" yaml:"message"`
	Suggestions []string `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`
}

func componentViews(components []orchestrator.ComponentInfo) []componentView {
	out := make([]componentView, 0, len(components))
	for _, c := range components {
		activity := c.Activity
		if c.Pending {
			activity += " (pending)"
		}
		out = append(out, componentView{
			Name:         c.Name,
			Type:         c.Type,
			Group:        c.Group,
			Status:       c.Status.String(),
			Activity:     activity,
			Flags:        flagNames(c),
			PropertyFile: c.PropertyFile,
			Peers:        c.Peers,
			Plugins:      c.Plugins,
		})
	}
	return out
}

func flagNames(c orchestrator.ComponentInfo) []string {
	var flags []string
	add := func(set bool, name string) {
		if set {
			flags = append(flags, name)
		}
	}
	add(c.Flags.AutoConfigure, "conf")
	add(c.Flags.AutoStart, "start")
	add(c.Flags.AutoConnect, "connect")
	add(c.Flags.AutoSave, "save")
	add(c.Flags.Server, "server")
	add(c.Flags.UseNaming, "naming")
	add(c.Proxy, "proxy")
	add(!c.Loaded, "adopted")
	return flags
}

func connectionViews(connections []orchestrator.ConnectionInfo) []connectionView {
	out := make([]connectionView, 0, len(connections))
	for _, c := range connections {
		ports := c.Ports
		if ports == nil {
			ports = []string{}
		}
		out = append(out, connectionView{
			Label:     c.Label,
			Policy:    c.Policy.String(),
			Ports:     ports,
			Connected: c.Connected,
			Streamed:  c.Streamed,
		})
	}
	return out
}

func errorViews(errs *config.ConfigurationErrorCollection) []errorView {
	if errs == nil {
		return []errorView{}
	}
	out := make([]errorView, 0, errs.Count())
	for _, e := range errs.Errors {
		out = append(out, errorView{
			Entry:       e.Entry,
			Category:    e.Category,
			Type:        e.ErrorType,
			Location:    location(e),
			Message:     e.Message,
			Suggestions: e.Suggestions,
		})
	}
	return out
}

func location(e config.ConfigurationError) string {
	if e.LineNumber > 0 {
		return fmt.Sprintf("%s:%d", e.FileName, e.LineNumber)
	}
	return e.FileName
}
