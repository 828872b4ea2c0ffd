package formatting

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"deployer/internal/config"
	"deployer/internal/orchestrator"
	pkgstrings "deployer/pkg/strings"
)

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(options Options) *TableFormatter {
	return &TableFormatter{
		options: options,
	}
}

// FormatStatus renders one row per component.
func (f *TableFormatter) FormatStatus(components []orchestrator.ComponentInfo) string {
	if len(components) == 0 {
		return f.formatEmptyMessage("No components loaded")
	}

	t := f.createTable()
	t.AppendHeader(f.header("GROUP", "NAME", "TYPE", "STATUS", "ACTIVITY", "FLAGS", "PEERS"))
	for _, c := range componentViews(components) {
		t.AppendRow(table.Row{
			c.Group,
			c.Name,
			c.Type,
			f.colorStatus(c.Status),
			c.Activity,
			strings.Join(c.Flags, ","),
			strings.Join(c.Peers, ","),
		})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d component(s)", len(components))})
	return t.Render()
}

// FormatConnections renders one row per connection label.
func (f *TableFormatter) FormatConnections(connections []orchestrator.ConnectionInfo) string {
	if len(connections) == 0 {
		return f.formatEmptyMessage("No connections declared")
	}

	t := f.createTable()
	t.AppendHeader(f.header("LABEL", "POLICY", "PORTS", "CONNECTED"))
	for _, c := range connectionViews(connections) {
		connected := fmt.Sprintf("%d", c.Connected)
		if c.Streamed {
			connected = "stream"
		}
		t.AppendRow(table.Row{c.Label, c.Policy, strings.Join(c.Ports, "\n"), connected})
	}
	return t.Render()
}

// FormatErrors renders the problems found while loading a document.
func (f *TableFormatter) FormatErrors(errs *config.ConfigurationErrorCollection) string {
	if errs == nil || !errs.HasErrors() {
		return f.formatEmptyMessage("No configuration errors")
	}

	t := f.createTable()
	t.AppendHeader(f.header("LOCATION", "ENTRY", "CATEGORY", "MESSAGE"))
	for _, e := range errorViews(errs) {
		msg := pkgstrings.Truncate(e.Message, pkgstrings.MessageMaxLen)
		for _, s := range e.Suggestions {
			msg += "\n  " + s
		}
		t.AppendRow(table.Row{e.Location, e.Entry, e.Category, msg})
	}
	t.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d error(s)", errs.Count())})
	return t.Render()
}

// SetOptions updates the formatter options
func (f *TableFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *TableFormatter) GetOptions() Options {
	return f.options
}

// createTable creates a new table with standard styling
func (f *TableFormatter) createTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	return t
}

func (f *TableFormatter) header(names ...string) table.Row {
	row := make(table.Row, 0, len(names))
	for _, n := range names {
		row = append(row, f.paint(text.FgHiCyan, n))
	}
	return row
}

func (f *TableFormatter) colorStatus(status string) string {
	switch status {
	case "Running":
		return f.paint(text.FgGreen, status)
	case "Stopped", "PreOperational", "Init":
		return f.paint(text.FgYellow, status)
	default:
		return f.paint(text.FgRed, status)
	}
}

func (f *TableFormatter) paint(c text.Color, s string) string {
	if !f.options.Color {
		return s
	}
	return c.Sprint(s)
}

// formatEmptyMessage formats empty result messages
func (f *TableFormatter) formatEmptyMessage(message string) string {
	return f.paint(text.FgYellow, message) + "\n"
}
