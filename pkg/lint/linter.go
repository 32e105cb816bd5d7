// Package lint checks a command metadata snapshot against help and naming
// rules.
package lint

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/CliForge/clidiff/pkg/changes"
	"github.com/CliForge/clidiff/pkg/meta"
)

// Severity grades a rule.
type Severity string

// Severities, from failing the run to informational.
const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Rule names.
const (
	RuleMissingCommandHelp      = "missing_command_help"
	RuleNoIDsForListCommands    = "no_ids_for_list_commands"
	RuleExpiredCommand          = "expired_command"
	RuleGroupDeleteConfirm      = "group_delete_commands_should_confirm"
	RuleDisallowedHTMLTag       = "disallowed_html_tag_from_command"
	RuleBrokenSiteLink          = "broken_site_link_from_command"
	RuleExpiredParameter        = "expired_parameter"
	RuleExpiredOption           = "expired_option"
	RuleOptionLengthTooLong     = "option_length_too_long"
	RuleMissingExamplesForAdded = "missing_examples_from_added_command"
)

// MaxOptionLength is the longest option a parameter may have without a
// shorter alias.
const MaxOptionLength = 22

// Violation is one rule failure.
type Violation struct {
	Rule      string   `json:"rule"`
	Severity  Severity `json:"severity"`
	Command   string   `json:"command,omitempty"`
	Parameter string   `json:"parameter,omitempty"`
	Message   string   `json:"message"`
}

func (v Violation) String() string {
	target := v.Command
	if v.Parameter != "" {
		target += " " + v.Parameter
	}
	return fmt.Sprintf("[%s] %s: %s: %s", v.Severity, v.Rule, target, v.Message)
}

type commandRule struct {
	name     string
	severity Severity
	check    func(ctx context.Context, l *Linter, name string, cmd *meta.CommandNode) string
}

type parameterRule struct {
	name     string
	severity Severity
	check    func(l *Linter, cmd *meta.CommandNode, p *meta.ParameterNode) string
}

var commandRules = []commandRule{
	{RuleMissingCommandHelp, SeverityHigh, missingCommandHelp},
	{RuleNoIDsForListCommands, SeverityHigh, noIDsForListCommands},
	{RuleExpiredCommand, SeverityHigh, expiredCommand},
	{RuleGroupDeleteConfirm, SeverityLow, groupDeleteShouldConfirm},
	{RuleDisallowedHTMLTag, SeverityHigh, disallowedHTMLTag},
	{RuleBrokenSiteLink, SeverityHigh, brokenSiteLink},
}

var parameterRules = []parameterRule{
	{RuleExpiredParameter, SeverityHigh, expiredParameter},
	{RuleExpiredOption, SeverityHigh, expiredOption},
	{RuleOptionLengthTooLong, SeverityHigh, optionLengthTooLong},
}

// Rules returns every rule name in evaluation order.
func Rules() []string {
	var out []string
	for _, r := range commandRules {
		out = append(out, r.name)
	}
	for _, r := range parameterRules {
		out = append(out, r.name)
	}
	return append(out, RuleMissingExamplesForAdded)
}

// Linter evaluates rules over a snapshot.
type Linter struct {
	Exclusions Exclusions
	// Only restricts evaluation to the named rules when non-empty.
	Only []string
	// CurrentVersion is the release deprecation expirations compare to.
	// Expiry rules are skipped when it is empty.
	CurrentVersion string
	// Links enables broken_site_link_from_command.
	Links  *LinkChecker
	Logger *slog.Logger
}

func (l *Linter) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l.Logger
}

func (l *Linter) enabled(rule string) bool {
	return len(l.Only) == 0 || contains(l.Only, rule)
}

// Lint runs the command and parameter rules over every command of s.
func (l *Linter) Lint(ctx context.Context, s meta.Snapshot) ([]Violation, error) {
	var out []Violation
	seen := make(map[string]bool)
	var err error

	meta.WalkSnapshot(s, func(name string, cmd *meta.CommandNode) {
		if err != nil || seen[name] {
			return
		}
		seen[name] = true
		if err = ctx.Err(); err != nil {
			return
		}
		out = append(out, l.lintCommand(ctx, name, cmd)...)
	})
	if err != nil {
		return nil, err
	}
	l.logger().Debug("lint finished", "commands", len(seen), "violations", len(out))
	return out, nil
}

func (l *Linter) lintCommand(ctx context.Context, name string, cmd *meta.CommandNode) []Violation {
	var out []Violation
	for _, r := range commandRules {
		if !l.enabled(r.name) || l.Exclusions.Excludes(name, "", r.name) {
			continue
		}
		if msg := r.check(ctx, l, name, cmd); msg != "" {
			out = append(out, Violation{Rule: r.name, Severity: r.severity, Command: name, Message: msg})
		}
	}
	for _, p := range cmd.Parameters {
		if p == nil {
			continue
		}
		for _, r := range parameterRules {
			if !l.enabled(r.name) || l.Exclusions.Excludes(name, p.Name, r.name) {
				continue
			}
			if msg := r.check(l, cmd, p); msg != "" {
				out = append(out, Violation{Rule: r.name, Severity: r.severity, Command: name, Parameter: p.Name, Message: msg})
			}
		}
	}
	return out
}

// LintAdded reports commands added between before and after that carry
// fewer than minExamples examples.
func (l *Linter) LintAdded(before, after meta.Snapshot, minExamples int) []Violation {
	if !l.enabled(RuleMissingExamplesForAdded) {
		return nil
	}
	var out []Violation
	for _, c := range changes.MissingExamples(changes.CommandExampleDiff(before, after), minExamples) {
		if l.Exclusions.Excludes(c.Command, "", RuleMissingExamplesForAdded) {
			continue
		}
		out = append(out, Violation{
			Rule:     RuleMissingExamplesForAdded,
			Severity: SeverityHigh,
			Command:  c.Command,
			Message:  fmt.Sprintf("cmd: %s should have at least %d examples, while %d detected", c.Command, minExamples, c.ExampleCount),
		})
	}
	return out
}

// Expired reports whether d names an expiration at or before version.
func Expired(d *meta.DeprecationInfo, version string) bool {
	if d == nil || d.Expiration == "" || version == "" {
		return false
	}
	exp, cur := canonical(d.Expiration), canonical(version)
	if !semver.IsValid(exp) || !semver.IsValid(cur) {
		return false
	}
	return semver.Compare(exp, cur) <= 0
}

func canonical(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

func hasParameter(cmd *meta.CommandNode, name string) bool {
	return cmd.Parameter(name) != nil
}

func missingCommandHelp(_ context.Context, l *Linter, _ string, cmd *meta.CommandNode) string {
	if strings.TrimSpace(cmd.Desc) == "" && !Expired(cmd.DeprecateInfo, l.CurrentVersion) {
		return "Missing help"
	}
	return ""
}

func noIDsForListCommands(_ context.Context, _ *Linter, _ string, cmd *meta.CommandNode) string {
	if cmd.Leaf() == "list" && hasParameter(cmd, "ids") {
		return "List commands should not expose --ids argument"
	}
	return ""
}

func expiredCommand(_ context.Context, l *Linter, _ string, cmd *meta.CommandNode) string {
	if Expired(cmd.DeprecateInfo, l.CurrentVersion) {
		return "Deprecated command is expired and should be removed."
	}
	return ""
}

func groupDeleteShouldConfirm(_ context.Context, _ *Linter, _ string, cmd *meta.CommandNode) string {
	if strings.EqualFold(cmd.Leaf(), "delete") && !hasParameter(cmd, "yes") {
		return "If this command deletes a collection, or group of resources. Please make sure to ask for confirmation."
	}
	return ""
}

func disallowedHTMLTag(_ context.Context, _ *Linter, name string, cmd *meta.CommandNode) string {
	if tags := IllegalHTMLTags(cmd.Desc); len(tags) > 0 {
		return fmt.Sprintf("Command '%s' has disallowed html tags %s in summary. If tag is a placeholder, please wrap it with backtick.",
			name, strings.Join(tags, ", "))
	}
	return ""
}

func brokenSiteLink(ctx context.Context, l *Linter, name string, cmd *meta.CommandNode) string {
	if l.Links == nil || cmd.Desc == "" {
		return ""
	}
	if broken := l.Links.BrokenLinks(ctx, cmd.Desc); len(broken) > 0 {
		return fmt.Sprintf("Command '%s' has broken links %s in summary. If link is an example, please wrap it with backtick.",
			name, strings.Join(broken, ", "))
	}
	return ""
}

func expiredParameter(l *Linter, _ *meta.CommandNode, p *meta.ParameterNode) string {
	if Expired(p.DeprecateInfo, l.CurrentVersion) {
		return "Deprecated parameter is expired and should be removed."
	}
	return ""
}

func expiredOption(l *Linter, _ *meta.CommandNode, p *meta.ParameterNode) string {
	var expired []string
	for i := range p.OptionsDeprecateInfo {
		d := &p.OptionsDeprecateInfo[i]
		if Expired(d, l.CurrentVersion) {
			expired = append(expired, d.Target)
		}
	}
	if len(expired) == 0 {
		return ""
	}
	sort.Strings(expired)
	return fmt.Sprintf("Deprecated options %s are expired and should be removed.", strings.Join(expired, ", "))
}

func optionLengthTooLong(l *Linter, cmd *meta.CommandNode, p *meta.ParameterNode) string {
	if Expired(cmd.DeprecateInfo, l.CurrentVersion) || len(p.Options) == 0 {
		return ""
	}
	for _, o := range p.Options {
		if len(o) <= MaxOptionLength {
			return ""
		}
	}
	return fmt.Sprintf("The lengths of all options %s are longer than threshold %d. Argument %s must have a short abbreviation.",
		strings.Join(p.Options, ", "), MaxOptionLength, p.Name)
}
