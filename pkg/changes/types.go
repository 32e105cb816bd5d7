// Package changes classifies the structural difference between two command
// metadata snapshots into command, group and parameter level change records,
// and flags the ones that break existing invocations.
package changes

import "fmt"

// ChangeType is the coarse direction of a change.
type ChangeType string

const (
	// ChangeDefault marks a record whose direction could not be determined.
	ChangeDefault ChangeType = "DEFAULT"
	// ChangeAdd marks something that exists only in the newer snapshot.
	ChangeAdd ChangeType = "ADD"
	// ChangeChange marks something present on both sides with a new value.
	ChangeChange ChangeType = "CHANGE"
	// ChangeRemove marks something that exists only in the older snapshot.
	ChangeRemove ChangeType = "REMOVE"
)

// Kind identifies what changed.
type Kind string

// Command and group level kinds come first, then parameter level kinds.
const (
	KindCommandAdd         Kind = "command_add"
	KindCommandRemove      Kind = "command_remove"
	KindCommandProperty    Kind = "command_property"
	KindCommandDeprecation Kind = "command_deprecation"
	KindGroupDeprecation   Kind = "group_deprecation"
	KindParameterAdd       Kind = "parameter_add"
	KindParameterRemove    Kind = "parameter_remove"
	KindOptionAdd          Kind = "option_add"
	KindOptionRemove       Kind = "option_remove"
	KindOptionRename       Kind = "option_rename"
	KindTypeChange         Kind = "type_change"
	KindDefaultChange      Kind = "default_change"
	KindRequiredChange     Kind = "required_change"
	KindChoicesChange      Kind = "choices_change"
	KindDeprecationChange  Kind = "deprecation_change"
	KindParameterProperty  Kind = "parameter_property"
)

// Severity grades the impact of a change on existing callers.
type Severity string

const (
	// SeverityBreaking means a previously valid invocation may fail.
	SeverityBreaking Severity = "breaking"
	// SeverityDangerous covers visible deprecations that do not break yet.
	SeverityDangerous Severity = "dangerous"
	// SeveritySafe covers everything else.
	SeveritySafe Severity = "safe"
)

func (s Severity) rank() int {
	switch s {
	case SeverityBreaking:
		return 2
	case SeverityDangerous:
		return 1
	}
	return 0
}

// ParseSeverity accepts the lowercase severity names.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityBreaking, SeverityDangerous, SeveritySafe:
		return Severity(s), nil
	}
	return "", fmt.Errorf("unknown severity %q", s)
}

// Breaking-change rule identifiers.
const (
	RuleCmdRemove               = "cmd_remove"
	RuleCmdPreviewSet           = "cmd_preview_set"
	RuleCmdDeprecateHide        = "cmd_deprecate_hide"
	RuleGroupDeprecateHide      = "group_deprecate_hide"
	RuleParaRemove              = "para_remove"
	RuleParaRequiredAdd         = "para_required_add"
	RuleParaOptionRemove        = "para_option_remove"
	RuleParaOptionRename        = "para_option_rename"
	RuleParaTypeChange          = "para_type_change"
	RuleParaDefaultRemove       = "para_default_remove"
	RuleParaDefaultChange       = "para_default_change"
	RuleParaRequiredSet         = "para_required_set"
	RuleParaChoicesShrink       = "para_choices_shrink"
	RuleParaDeprecateHide       = "para_deprecate_hide"
	RuleParaOptionDeprecateHide = "para_option_deprecate_hide"
)

// Detail is the structured payload of a record.
type Detail struct {
	Parameter    string   `json:"parameter,omitempty"`
	Old          any      `json:"old,omitempty"`
	New          any      `json:"new,omitempty"`
	Added        []string `json:"added,omitempty"`
	Removed      []string `json:"removed,omitempty"`
	ParamCount   *int     `json:"param_count,omitempty"`
	ExampleCount *int     `json:"example_count,omitempty"`
	Summary      string   `json:"summary"`
}

// ChangeRecord is one classified change.
type ChangeRecord struct {
	Module     string     `json:"module,omitempty"`
	Command    string     `json:"command"`
	ChangeType ChangeType `json:"change_type"`
	Kind       Kind       `json:"kind"`
	Property   string     `json:"property,omitempty"`
	Detail     Detail     `json:"detail"`
	Severity   Severity   `json:"severity"`
	Rule       string     `json:"rule,omitempty"`
}

// IsBreaking reports whether a breaking rule matched.
func (r ChangeRecord) IsBreaking() bool {
	return r.Rule != ""
}

// WarningKind tags a recoverable anomaly.
type WarningKind string

const (
	WarningParse     WarningKind = "parse"
	WarningLookup    WarningKind = "lookup"
	WarningDuplicate WarningKind = "duplicate"
)

// Warning is a recoverable problem hit during classification. Warnings are
// kept apart from the record stream.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Command string      `json:"command,omitempty"`
	Path    string      `json:"path,omitempty"`
	Message string      `json:"message"`
}

// LookupError reports a diff path whose command cannot be resolved in both
// snapshots.
type LookupError struct {
	Command string
	Path    string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("command %q from %s cannot be resolved in both snapshots", e.Command, e.Path)
}

// Result is the outcome of one classification run.
type Result struct {
	Records  []ChangeRecord
	Warnings []Warning
}

func intPtr(i int) *int {
	return &i
}
