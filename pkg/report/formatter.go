// Package report renders classified change records as text, trees, tables,
// JSON and CSV.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/CliForge/clidiff/pkg/changes"
)

// Output format names.
const (
	FormatText  = "text"
	FormatTree  = "tree"
	FormatDict  = "dict"
	FormatJSON  = "json"
	FormatCSV   = "csv"
	FormatTable = "table"
)

// Formatter renders a record list.
type Formatter interface {
	// Name returns the format name, e.g. "text" or "csv".
	Name() string
	// Format writes the rendered records to w.
	Format(w io.Writer, records []changes.ChangeRecord) error
}

// Manager looks formatters up by name.
type Manager struct {
	formatters    map[string]Formatter
	defaultFormat string
}

// NewManager returns a manager with every built-in formatter registered.
// Dict output is the JSON encoding of the record list.
func NewManager() *Manager {
	m := &Manager{
		formatters:    make(map[string]Formatter),
		defaultFormat: FormatText,
	}
	m.Register(&TextFormatter{})
	m.Register(&TreeFormatter{})
	m.Register(&JSONFormatter{name: FormatJSON})
	m.Register(&JSONFormatter{name: FormatDict})
	m.Register(&CSVFormatter{})
	m.Register(&TableFormatter{})
	return m
}

// Register adds or replaces a formatter.
func (m *Manager) Register(f Formatter) {
	m.formatters[f.Name()] = f
}

// SetDefaultFormat sets the format used when none is given.
func (m *Manager) SetDefaultFormat(format string) {
	m.defaultFormat = format
}

// Get returns the formatter registered under name.
func (m *Manager) Get(name string) (Formatter, error) {
	f, ok := m.formatters[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q (supported: %s)", name, strings.Join(m.Formats(), ", "))
	}
	return f, nil
}

// Formats lists the registered format names, sorted.
func (m *Manager) Formats() []string {
	out := make([]string, 0, len(m.formatters))
	for name := range m.formatters {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Format renders records to w in the given format.
func (m *Manager) Format(w io.Writer, records []changes.ChangeRecord, format string) error {
	if format == "" {
		format = m.defaultFormat
	}
	f, err := m.Get(format)
	if err != nil {
		return err
	}
	return f.Format(w, records)
}

// Render returns the records rendered in the given format.
func (m *Manager) Render(records []changes.ChangeRecord, format string) (string, error) {
	var sb strings.Builder
	if err := m.Format(&sb, records, format); err != nil {
		return "", err
	}
	return sb.String(), nil
}

var defaultManager = NewManager()

// Export returns the records in the requested shape: dict yields the record
// list itself, tree yields the group hierarchy, every other format yields
// the rendered string.
func Export(records []changes.ChangeRecord, format string) (any, error) {
	switch strings.ToLower(format) {
	case FormatDict:
		out := make([]changes.ChangeRecord, len(records))
		copy(out, records)
		return out, nil
	case FormatTree:
		return BuildTree(records), nil
	}
	return defaultManager.Render(records, format)
}
