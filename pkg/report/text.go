package report

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"

	"github.com/CliForge/clidiff/pkg/changes"
)

// TextFormatter writes one line per record.
type TextFormatter struct{}

func (f *TextFormatter) Name() string { return FormatText }

func (f *TextFormatter) Format(w io.Writer, records []changes.ChangeRecord) error {
	for _, r := range records {
		if _, err := fmt.Fprintln(w, Line(r)); err != nil {
			return err
		}
	}
	return nil
}

// Line renders a record as `<command>: <TYPE> <kind>: <summary>`, followed by
// the matched rule for breaking records.
func Line(r changes.ChangeRecord) string {
	s := fmt.Sprintf("%s: %s %s: %s", r.Command, r.ChangeType, r.Kind, summaryOf(r))
	if r.Detail.Parameter != "" {
		s = fmt.Sprintf("%s: %s %s [%s]: %s", r.Command, r.ChangeType, r.Kind, r.Detail.Parameter, summaryOf(r))
	}
	if r.IsBreaking() {
		s += " (breaking: " + r.Rule + ")"
	}
	return s
}

func summaryOf(r changes.ChangeRecord) string {
	if r.Detail.Summary != "" {
		return r.Detail.Summary
	}
	if r.Property != "" {
		return r.Property
	}
	return string(r.Kind)
}

// TableFormatter renders records as a pterm table.
type TableFormatter struct{}

func (f *TableFormatter) Name() string { return FormatTable }

func (f *TableFormatter) Format(w io.Writer, records []changes.ChangeRecord) error {
	data := pterm.TableData{{"Module", "Command", "Change", "Kind", "Detail", "Rule"}}
	for _, r := range records {
		data = append(data, []string{r.Module, r.Command, string(r.ChangeType), string(r.Kind), summaryOf(r), r.Rule})
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	_, err = fmt.Fprintln(w, out)
	return err
}
