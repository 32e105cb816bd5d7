package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/CliForge/clidiff/pkg/changes"
)

// Indent is the indentation of every JSON report.
const Indent = "    "

// JSONFormatter writes the record list as indented JSON.
type JSONFormatter struct {
	name string
}

func (f *JSONFormatter) Name() string {
	if f.name == "" {
		return FormatJSON
	}
	return f.name
}

func (f *JSONFormatter) Format(w io.Writer, records []changes.ChangeRecord) error {
	if records == nil {
		records = []changes.ChangeRecord{}
	}
	data, err := marshal(records)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", Indent)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return buf.Bytes(), nil
}

// CSVHeader is the header row of CSV reports.
var CSVHeader = []string{"module", "cmd", "change_type", "property", "detail", "rule"}

// CSVFormatter writes one row per record.
type CSVFormatter struct{}

func (f *CSVFormatter) Name() string { return FormatCSV }

func (f *CSVFormatter) Format(w io.Writer, records []changes.ChangeRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{r.Module, r.Command, string(r.ChangeType), r.Property, summaryOf(r), r.Rule}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSONFile writes v with 4-space indentation, creating parent
// directories.
func WriteJSONFile(path string, v any) error {
	data, err := marshal(v)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// WriteFile renders records in format and writes them to path.
func WriteFile(path string, records []changes.ChangeRecord, format string) error {
	var buf bytes.Buffer
	if err := defaultManager.Format(&buf, records, format); err != nil {
		return err
	}
	return writeFile(path, buf.Bytes())
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
