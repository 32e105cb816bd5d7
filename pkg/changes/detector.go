package changes

import (
	"log/slog"
	"sort"

	"github.com/CliForge/clidiff/internal/structdiff"
	"github.com/CliForge/clidiff/pkg/diffpath"
	"github.com/CliForge/clidiff/pkg/meta"
)

// Detector classifies snapshot differences.
type Detector struct {
	logger *slog.Logger
}

// NewDetector returns a Detector reporting through logger. A nil logger
// discards everything.
func NewDetector(logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Detector{logger: logger}
}

// Compare diffs two decoded snapshot files and classifies the result.
func (d *Detector) Compare(before, after *meta.Document) *Result {
	diff := structdiff.Compare(before.Raw, after.Raw)
	return d.Detect(diff, before.Snapshot, after.Snapshot)
}

// CompareSnapshots diffs two in-memory snapshots and classifies the result.
func (d *Detector) CompareSnapshots(before, after meta.Snapshot) (*Result, error) {
	rawBefore, err := meta.Generic(before)
	if err != nil {
		return nil, err
	}
	rawAfter, err := meta.Generic(after)
	if err != nil {
		return nil, err
	}
	return d.Detect(structdiff.Compare(rawBefore, rawAfter), before, after), nil
}

// Detect classifies diff, using both snapshots for context. Commands present
// on one side only are reported once as ADD or REMOVE and none of their
// inner paths are classified. Output order is stable for equal inputs.
func (d *Detector) Detect(diff diffpath.Diff, before, after meta.Snapshot) *Result {
	r := &run{
		logger:  d.logger,
		before:  before,
		after:   after,
		result:  &Result{},
		settled: make(map[string]bool),
		touched: make(map[string]*touch),
		groups:  make(map[string]bool),
	}
	r.removalPass()
	r.additionPass()
	r.pathPass(diff)
	r.movedPass()
	r.classifyCommands()
	r.classifyGroups()
	return r.result
}

// entry is one raw diff path that landed on a command property.
type entry struct {
	op     ChangeType
	path   diffpath.Path
	change *diffpath.ValueChange
}

type paramTouch struct {
	// fields maps a parameter field name to its raw entries. The empty key
	// marks a path that addressed the whole parameter.
	fields map[string][]entry
}

func (p *paramTouch) whole() bool {
	_, ok := p.fields[""]
	return ok
}

type touch struct {
	props map[string][]entry
	// params is keyed by parameter index.
	params map[int]*paramTouch
	// allParams is set when a path addressed the parameter list itself.
	allParams bool
}

type run struct {
	logger        *slog.Logger
	before, after meta.Snapshot
	result        *Result

	settled map[string]bool
	touched map[string]*touch
	groups  map[string]bool
	// moved lists commands whose module differs between the snapshots.
	moved []string
}

func (r *run) warn(w Warning) {
	r.logger.Warn(w.Message, "kind", string(w.Kind), "command", w.Command, "path", w.Path)
	r.result.Warnings = append(r.result.Warnings, w)
}

func (r *run) removalPass() {
	visited := make(map[string]bool)
	for _, module := range r.before.Modules() {
		meta.Walk(r.before[module], func(key string, cmd *meta.CommandNode) {
			if visited[key] {
				r.warn(Warning{Kind: WarningDuplicate, Command: key, Message: "repeated command in base snapshot"})
				return
			}
			visited[key] = true
			if meta.Lookup(r.after, key) != nil {
				if moduleOf(r.after, key) != module {
					r.moved = append(r.moved, key)
				}
				return
			}
			r.settled[key] = true
			r.result.Records = append(r.result.Records, ChangeRecord{
				Module:     module,
				Command:    key,
				ChangeType: ChangeRemove,
				Kind:       KindCommandRemove,
				Severity:   SeverityBreaking,
				Rule:       RuleCmdRemove,
				Detail: Detail{
					ParamCount:   intPtr(len(cmd.Parameters)),
					ExampleCount: intPtr(len(cmd.Examples)),
					Summary:      "command removed",
				},
			})
		})
	}
}

func (r *run) additionPass() {
	seen := make(map[string]bool)
	for _, module := range r.after.Modules() {
		meta.Walk(r.after[module], func(key string, cmd *meta.CommandNode) {
			if seen[key] {
				r.warn(Warning{Kind: WarningDuplicate, Command: key, Message: "repeated command in diff snapshot"})
				return
			}
			seen[key] = true
			if meta.Lookup(r.before, key) != nil {
				return
			}
			r.settled[key] = true
			r.result.Records = append(r.result.Records, ChangeRecord{
				Module:     module,
				Command:    key,
				ChangeType: ChangeAdd,
				Kind:       KindCommandAdd,
				Severity:   SeveritySafe,
				Detail: Detail{
					ParamCount:   intPtr(len(cmd.Parameters)),
					ExampleCount: intPtr(len(cmd.Examples)),
					Summary:      "command added",
				},
			})
		})
	}
}

func (r *run) pathPass(diff diffpath.Diff) {
	for _, raw := range diff.Removed {
		r.collect(raw, ChangeRemove, nil)
	}
	for _, raw := range diff.Added {
		r.collect(raw, ChangeAdd, nil)
	}
	for _, raw := range diff.ChangedPaths() {
		vc := diff.Changed[raw]
		r.collect(raw, ChangeChange, &vc)
	}
}

func (r *run) collect(raw string, op ChangeType, vc *diffpath.ValueChange) {
	p, err := diffpath.Parse(raw)
	if err != nil {
		r.warn(Warning{Kind: WarningParse, Path: raw, Message: err.Error()})
		return
	}

	name, _, ok := p.CommandName()
	if !ok {
		if prop, ok := p.GroupProperty(); ok && prop == "deprecate_info" {
			group, _, _ := p.GroupName()
			r.groups[group] = true
			return
		}
		r.logger.Debug("skipping group level path", "path", raw)
		return
	}
	if r.settled[name] {
		return
	}
	prop, ok := p.CommandProperty()
	if !ok {
		r.logger.Debug("skipping command level path", "path", raw)
		return
	}
	if meta.Lookup(r.before, name) == nil || meta.Lookup(r.after, name) == nil {
		lerr := &LookupError{Command: name, Path: raw}
		r.warn(Warning{Kind: WarningLookup, Command: name, Path: raw, Message: lerr.Error()})
		return
	}

	t := r.touch(name)
	e := entry{op: op, path: p, change: vc}
	t.props[prop] = append(t.props[prop], e)

	if prop != diffpath.KeyParameters {
		return
	}
	loc := p.ParameterLocator()
	if len(loc) == 0 || !loc[0].IsIndex {
		t.allParams = true
		return
	}
	pt, ok := t.params[loc[0].Index]
	if !ok {
		pt = &paramTouch{fields: make(map[string][]entry)}
		t.params[loc[0].Index] = pt
	}
	field := ""
	if len(loc) > 1 && !loc[1].IsIndex {
		field = loc[1].Key
	}
	pt.fields[field] = append(pt.fields[field], e)
}

func (r *run) touch(name string) *touch {
	t, ok := r.touched[name]
	if !ok {
		t = &touch{props: make(map[string][]entry), params: make(map[int]*paramTouch)}
		r.touched[name] = t
	}
	return t
}

// commandProperties are the command fields compared when a command changed
// module. The structural diff only sees the module roots in that case.
var commandProperties = []string{
	diffpath.KeyParameters,
	"is_preview",
	"confirmation",
	"supports_no_wait",
	"is_aaz",
	"deprecate_info",
	"examples",
	"desc",
}

// movedPass compares moved commands node to node.
func (r *run) movedPass() {
	for _, name := range r.moved {
		t := r.touch(name)
		t.allParams = true
		for _, prop := range commandProperties {
			if _, ok := t.props[prop]; !ok {
				t.props[prop] = nil
			}
		}
	}
}

func (r *run) classifyCommands() {
	names := make([]string, 0, len(r.touched))
	for name := range r.touched {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		c := &commandDiff{
			name:   name,
			module: moduleOf(r.after, name),
			before: meta.Lookup(r.before, name),
			after:  meta.Lookup(r.after, name),
		}
		c.classify(r.touched[name])
		r.result.Records = append(r.result.Records, c.records...)
	}
}

func (r *run) classifyGroups() {
	names := make([]string, 0, len(r.groups))
	for name := range r.groups {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		bg := meta.LookupGroup(r.before, name)
		ag := meta.LookupGroup(r.after, name)
		if bg == nil || ag == nil {
			// whole group added or removed; its commands are already reported
			continue
		}
		dc, ok := compareDeprecation(bg.DeprecateInfo, ag.DeprecateInfo)
		if !ok {
			continue
		}
		rec := ChangeRecord{
			Module:     groupModule(r.after, name),
			Command:    name,
			ChangeType: dc.changeType,
			Kind:       KindGroupDeprecation,
			Property:   "deprecate_info",
			Severity:   dc.severity,
			Detail:     Detail{Old: dc.old, New: dc.new, Summary: "group " + dc.summary},
		}
		if dc.hidden {
			rec.Rule = RuleGroupDeprecateHide
		}
		r.result.Records = append(r.result.Records, rec)
	}
}

func moduleOf(s meta.Snapshot, command string) string {
	for _, module := range s.Modules() {
		if meta.LookupIn(s[module], command) != nil {
			return module
		}
	}
	return ""
}

func groupModule(s meta.Snapshot, group string) string {
	for _, module := range s.Modules() {
		if meta.LookupGroup(meta.Snapshot{module: s[module]}, group) != nil {
			return module
		}
	}
	return ""
}
