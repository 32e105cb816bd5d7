package meta

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// DefaultRootName is the name stored on every module root group.
const DefaultRootName = "az"

// OptionAlias is one flag spelling of an argument. Deprecated is set when the
// alias itself is deprecated.
type OptionAlias struct {
	Name       string
	Deprecated *DeprecationInfo
}

// AAZArgument carries the schema-level typing of an argument generated from
// an API schema.
type AAZArgument struct {
	// Class is the schema class name, e.g. "AAZStrArg".
	Class string
	// TypeInHelp is the type shown in help output; "undefined" is ignored.
	TypeInHelp string
	Default    any
	// Choices holds enum items when the class is an enum.
	Choices any
}

// ArgumentSettings is the normalized description of one argument as handed
// over by a command loader.
type ArgumentSettings struct {
	Dest         string
	Options      []OptionAlias
	Type         string
	Required     bool
	Choices      []string
	IDPart       string
	Nargs        any
	Default      any
	HasCompleter bool
	Help         string
	// Ignored marks internal arguments that never reach a snapshot.
	Ignored   bool
	Deprecate *DeprecationInfo
	AAZ       *AAZArgument
}

// CommandInfo is one command as handed over by a command loader.
type CommandInfo struct {
	Name           string
	Module         string
	IsAAZ          bool
	Confirmation   bool
	SupportsNoWait bool
	IsPreview      bool
	Deprecate      *DeprecationInfo
	Summary        string
	Examples       []Example
	Arguments      []ArgumentSettings
}

// GroupInfo is the loader's description of a command group.
type GroupInfo struct {
	Summary   string
	Deprecate *DeprecationInfo
}

// Builder assembles a Snapshot from loader output.
type Builder struct {
	// WithHelp stores summaries and argument help.
	WithHelp bool
	// WithExample stores command examples.
	WithExample bool
	// RootName is stored as the name of each module root. Defaults to "az".
	RootName string
	// Groups describes groups by full name.
	Groups map[string]GroupInfo
	Logger *slog.Logger
}

// Build groups commands by module and nests them under groups derived from
// their names. A command that appears twice is reported and the first
// definition is kept.
func (b *Builder) Build(commands []CommandInfo) Snapshot {
	logger := b.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	rootName := b.RootName
	if rootName == "" {
		rootName = DefaultRootName
	}

	snap := make(Snapshot)
	for _, info := range commands {
		root, ok := snap[info.Module]
		if !ok {
			root = NewGroup(rootName)
			root.ModuleName = info.Module
			snap[info.Module] = root
		}

		tokens := strings.Fields(info.Name)
		if len(tokens) == 0 {
			logger.Warn("skipping command without a name", "module", info.Module)
			continue
		}

		group := root
		for i := 1; i < len(tokens); i++ {
			name := strings.Join(tokens[:i], " ")
			sub, ok := group.SubGroups[name]
			if !ok {
				sub = b.newGroup(name)
				group.SubGroups[name] = sub
			}
			group = sub
		}

		if _, dup := group.Commands[info.Name]; dup {
			logger.Warn("repeated command", "command", info.Name, "module", info.Module)
			continue
		}
		group.Commands[info.Name] = b.command(info)
	}
	return snap
}

func (b *Builder) newGroup(name string) *GroupNode {
	g := NewGroup(name)
	if info, ok := b.Groups[name]; ok {
		g.DeprecateInfo = cleanDeprecation(info.Deprecate)
		if b.WithHelp {
			g.Desc = info.Summary
		}
	}
	return g
}

func (b *Builder) command(info CommandInfo) *CommandNode {
	cmd := &CommandNode{
		Name:           info.Name,
		IsAAZ:          info.IsAAZ,
		Confirmation:   info.Confirmation,
		SupportsNoWait: info.SupportsNoWait,
		IsPreview:      info.IsPreview,
		DeprecateInfo:  cleanDeprecation(info.Deprecate),
		Parameters:     []*ParameterNode{},
	}
	if b.WithExample && len(info.Examples) > 0 {
		cmd.Examples = append([]Example(nil), info.Examples...)
	}
	if b.WithHelp {
		cmd.Desc = info.Summary
	}
	for _, arg := range info.Arguments {
		if arg.Ignored {
			continue
		}
		cmd.Parameters = append(cmd.Parameters, b.parameter(arg, info.IsAAZ))
	}
	return cmd
}

func (b *Builder) parameter(arg ArgumentSettings, isAAZ bool) *ParameterNode {
	p := &ParameterNode{
		Name:          arg.Dest,
		Options:       visibleOptions(arg.Options),
		Type:          rawArgType(arg.Type),
		Required:      arg.Required,
		IDPart:        arg.IDPart,
		Nargs:         arg.Nargs,
		HasCompleter:  arg.HasCompleter,
		DeprecateInfo: cleanDeprecation(arg.Deprecate),
	}
	for _, opt := range arg.Options {
		if opt.Deprecated != nil {
			p.OptionsDeprecateInfo = append(p.OptionsDeprecateInfo, *opt.Deprecated)
		}
	}
	if len(arg.Choices) > 0 {
		p.Choices = sortedCopy(arg.Choices)
	}
	if !isZero(arg.Default) {
		p.Default = storedDefault(arg.Default)
	}
	if b.WithHelp {
		p.Desc = arg.Help
	}
	if isAAZ && arg.AAZ != nil {
		p.AAZType = arg.AAZ.Class
		if t := arg.AAZ.TypeInHelp; t != "" && !strings.EqualFold(t, "undefined") {
			p.Type = t
		}
		if arg.AAZ.Default != nil {
			p.AAZDefault = arg.AAZ.Default
		}
		if p.AAZType == "AAZArgEnum" && !isZero(arg.AAZ.Choices) {
			p.AAZChoices = arg.AAZ.Choices
		}
	}
	normalizeParameter(p)
	return p
}

// visibleOptions drops hidden deprecated aliases and replaces other
// deprecated aliases by their target spelling.
func visibleOptions(opts []OptionAlias) []string {
	set := make(map[string]struct{}, len(opts))
	for _, o := range opts {
		name := o.Name
		if o.Deprecated != nil {
			if o.Deprecated.Hide {
				continue
			}
			if o.Deprecated.Target != "" {
				name = o.Deprecated.Target
			}
		}
		if name != "" {
			set[name] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func cleanDeprecation(d *DeprecationInfo) *DeprecationInfo {
	if d.IsZero() {
		return nil
	}
	c := *d
	return &c
}

// storedDefault keeps JSON-native defaults and stringifies the rest.
func storedDefault(v any) any {
	switch v.(type) {
	case string, bool, int, int64, float64, float32, []string, []any:
		return v
	}
	return fmt.Sprint(v)
}

// isZero mirrors the loader's truthiness test: empty strings, zero numbers,
// false and empty collections are treated as unset.
func isZero(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case int:
		return t == 0
	case int64:
		return t == 0
	case float64:
		return t == 0
	case []string:
		return len(t) == 0
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
