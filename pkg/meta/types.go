// Package meta models a command metadata snapshot: the groups, commands and
// parameters a CLI exposes at one point in time.
//
// A Snapshot maps module names to their root GroupNode. Groups nest through
// SubGroups keyed by full group name ("monitor log-profiles") and hold
// Commands keyed by full command name ("monitor log-profiles create"). A
// command's name is always the space-joined path of its ancestor group names
// plus its own leaf token, which is what Lookup relies on.
package meta

import (
	"encoding/json"
	"sort"
	"strings"
)

// DeprecationKeys are the only keys kept in a deprecation sub-object.
var DeprecationKeys = []string{"expiration", "target", "redirect", "hide"}

// DeprecationInfo describes a deprecated command, group, parameter or option.
type DeprecationInfo struct {
	Expiration string `json:"expiration,omitempty"`
	Target     string `json:"target,omitempty"`
	Redirect   string `json:"redirect,omitempty"`
	Hide       bool   `json:"hide,omitempty"`
}

// UnmarshalJSON accepts hide as a boolean or as a version string, which older
// extractors emitted.
func (d *DeprecationInfo) UnmarshalJSON(data []byte) error {
	var raw struct {
		Expiration string `json:"expiration"`
		Target     string `json:"target"`
		Redirect   string `json:"redirect"`
		Hide       any    `json:"hide"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.Expiration = raw.Expiration
	d.Target = raw.Target
	d.Redirect = raw.Redirect
	switch h := raw.Hide.(type) {
	case bool:
		d.Hide = h
	case string:
		d.Hide = h != ""
	default:
		d.Hide = false
	}
	return nil
}

// IsZero reports whether no deprecation key is set.
func (d *DeprecationInfo) IsZero() bool {
	return d == nil || *d == DeprecationInfo{}
}

// Example is one usage example of a command.
type Example struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// ParameterNode is one argument of a command.
type ParameterNode struct {
	// Name is the dest: the canonical identifier, unique within a command.
	Name string `json:"name"`
	// Options are the flag spellings, sorted.
	Options []string `json:"options"`
	Type    string   `json:"type,omitempty"`

	AAZType    string `json:"aaz_type,omitempty"`
	AAZDefault any    `json:"aaz_default,omitempty"`
	AAZChoices any    `json:"aaz_choices,omitempty"`

	Choices      []string `json:"choices,omitempty"`
	Required     bool     `json:"required,omitempty"`
	IDPart       string   `json:"id_part,omitempty"`
	Nargs        any      `json:"nargs,omitempty"`
	Default      any      `json:"default,omitempty"`
	HasCompleter bool     `json:"has_completer,omitempty"`
	Desc         string   `json:"desc,omitempty"`

	OptionsDeprecateInfo []DeprecationInfo `json:"options_deprecate_info,omitempty"`
	DeprecateInfo        *DeprecationInfo  `json:"deprecate_info,omitempty"`
}

// CommandNode is one leaf command.
type CommandNode struct {
	Name           string           `json:"name"`
	IsAAZ          bool             `json:"is_aaz"`
	Confirmation   bool             `json:"confirmation,omitempty"`
	SupportsNoWait bool             `json:"supports_no_wait,omitempty"`
	IsPreview      bool             `json:"is_preview,omitempty"`
	DeprecateInfo  *DeprecationInfo `json:"deprecate_info,omitempty"`
	Desc           string           `json:"desc,omitempty"`
	Examples       []Example        `json:"examples,omitempty"`
	Parameters     []*ParameterNode `json:"parameters"`
}

// Parameter returns the parameter with the given dest, or nil.
func (c *CommandNode) Parameter(name string) *ParameterNode {
	if c == nil {
		return nil
	}
	for _, p := range c.Parameters {
		if p != nil && p.Name == name {
			return p
		}
	}
	return nil
}

// ParameterAt returns the parameter at index i, or nil when out of range.
func (c *CommandNode) ParameterAt(i int) *ParameterNode {
	if c == nil || i < 0 || i >= len(c.Parameters) {
		return nil
	}
	return c.Parameters[i]
}

// Leaf returns the last token of the command name.
func (c *CommandNode) Leaf() string {
	fields := strings.Fields(c.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// GroupNode is a command group. The root group of a module carries
// ModuleName and the CLI's own name.
type GroupNode struct {
	ModuleName    string                  `json:"module_name,omitempty"`
	Name          string                  `json:"name"`
	Desc          string                  `json:"desc,omitempty"`
	DeprecateInfo *DeprecationInfo        `json:"deprecate_info,omitempty"`
	Commands      map[string]*CommandNode `json:"commands"`
	SubGroups     map[string]*GroupNode   `json:"sub_groups"`
}

// NewGroup returns an empty group with initialized maps.
func NewGroup(name string) *GroupNode {
	return &GroupNode{
		Name:      name,
		Commands:  make(map[string]*CommandNode),
		SubGroups: make(map[string]*GroupNode),
	}
}

// Snapshot maps module names to their root group.
type Snapshot map[string]*GroupNode

// Modules returns the module names in sorted order.
func (s Snapshot) Modules() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
