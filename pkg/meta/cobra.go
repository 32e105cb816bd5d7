package meta

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// ExtractOptions controls ExtractCobra.
type ExtractOptions struct {
	WithHelp    bool
	WithExample bool
	Logger      *slog.Logger
}

// ExtractCobra builds a snapshot of a cobra command tree under one module.
// Command names are relative to root. Non-runnable commands become groups;
// hidden commands, help and completion are skipped unless deprecated.
func ExtractCobra(root *cobra.Command, module string, opts ExtractOptions) Snapshot {
	b := &Builder{
		WithHelp:    opts.WithHelp,
		WithExample: opts.WithExample,
		RootName:    root.Name(),
		Groups:      make(map[string]GroupInfo),
		Logger:      opts.Logger,
	}

	var commands []CommandInfo
	var visit func(cmd *cobra.Command, prefix []string)
	visit = func(cmd *cobra.Command, prefix []string) {
		children := append([]*cobra.Command(nil), cmd.Commands()...)
		sort.Slice(children, func(i, j int) bool { return children[i].Name() < children[j].Name() })
		for _, child := range children {
			if skipCommand(child) {
				continue
			}
			tokens := append(append([]string(nil), prefix...), child.Name())
			name := strings.Join(tokens, " ")
			if child.Runnable() {
				commands = append(commands, commandInfo(child, name, module))
			}
			if child.HasSubCommands() {
				b.Groups[name] = GroupInfo{Summary: child.Short, Deprecate: commandDeprecation(child)}
				visit(child, tokens)
			}
		}
	}
	visit(root, nil)

	snap := b.Build(commands)
	if _, ok := snap[module]; !ok {
		g := NewGroup(b.RootName)
		g.ModuleName = module
		snap[module] = g
	}
	return snap
}

func skipCommand(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return true
	}
	return cmd.Hidden && cmd.Deprecated == ""
}

func commandDeprecation(cmd *cobra.Command) *DeprecationInfo {
	if cmd.Deprecated == "" {
		return nil
	}
	return &DeprecationInfo{Redirect: cmd.Deprecated, Hide: true}
}

func commandInfo(cmd *cobra.Command, name, module string) CommandInfo {
	info := CommandInfo{
		Name:      name,
		Module:    module,
		Deprecate: commandDeprecation(cmd),
		Summary:   cmd.Short,
		Examples:  splitExamples(cmd.Example),
	}
	if v, ok := cmd.Annotations["confirmation"]; ok && v == "true" {
		info.Confirmation = true
	}
	if v, ok := cmd.Annotations["preview"]; ok && v == "true" {
		info.IsPreview = true
	}
	if cmd.LocalFlags().Lookup("no-wait") != nil {
		info.SupportsNoWait = true
	}

	cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
		if f.Name == "help" {
			return
		}
		if f.Hidden && f.Deprecated == "" {
			return
		}
		info.Arguments = append(info.Arguments, flagArgument(cmd, f))
	})
	return info
}

func flagArgument(cmd *cobra.Command, f *pflag.Flag) ArgumentSettings {
	arg := ArgumentSettings{
		Dest:     strings.ReplaceAll(f.Name, "-", "_"),
		Options:  []OptionAlias{{Name: "--" + f.Name}},
		Type:     flagType(f.Value.Type()),
		Required: isRequired(f),
		Help:     f.Usage,
	}
	if f.Shorthand != "" {
		alias := OptionAlias{Name: "-" + f.Shorthand}
		if f.ShorthandDeprecated != "" {
			alias.Deprecated = &DeprecationInfo{Redirect: f.ShorthandDeprecated, Target: "--" + f.Name, Hide: true}
		}
		arg.Options = append(arg.Options, alias)
	}
	if f.Deprecated != "" {
		arg.Deprecate = &DeprecationInfo{Redirect: f.Deprecated, Hide: true}
	}
	if !zeroFlagDefault(f.DefValue) {
		arg.Default = f.DefValue
	}
	if _, ok := cmd.GetFlagCompletionFunc(f.Name); ok {
		arg.HasCompleter = true
	}
	if len(f.Annotations[cobra.BashCompFilenameExt]) > 0 {
		arg.Type = TypeFile
	}
	return arg
}

func flagType(t string) string {
	switch t {
	case "string":
		return "str"
	case "bool":
		return "bool"
	case "int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64", "count":
		return "int"
	case "float32", "float64":
		return "float"
	}
	return t
}

func isRequired(f *pflag.Flag) bool {
	v := f.Annotations[cobra.BashCompOneRequiredFlag]
	return len(v) > 0 && v[0] == "true"
}

func zeroFlagDefault(v string) bool {
	switch v {
	case "", "false", "0", "[]", "0s", "<nil>":
		return true
	}
	return false
}

// splitExamples turns a cobra Example block into examples separated by blank
// lines. A leading "# " line names the example.
func splitExamples(text string) []Example {
	var out []Example
	for _, chunk := range strings.Split(strings.TrimSpace(text), "\n\n") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		ex := Example{Text: chunk}
		if first, rest, ok := strings.Cut(chunk, "\n"); ok && strings.HasPrefix(first, "# ") {
			ex.Name = strings.TrimPrefix(first, "# ")
			ex.Text = strings.TrimSpace(rest)
		}
		out = append(out, ex)
	}
	return out
}
