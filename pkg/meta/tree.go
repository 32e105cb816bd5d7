package meta

import (
	"sort"
	"strings"
)

// Lookup finds a command by its full name. It descends from each module root
// through the sub-groups named by every proper prefix of the name, then reads
// the command itself. A missing intermediate group means not found.
func Lookup(s Snapshot, name string) *CommandNode {
	for _, module := range s.Modules() {
		if cmd := LookupIn(s[module], name); cmd != nil {
			return cmd
		}
	}
	return nil
}

// LookupIn performs the descent of Lookup within one root group.
func LookupIn(root *GroupNode, name string) *CommandNode {
	group := descend(root, strings.Fields(name), 1)
	if group == nil {
		return nil
	}
	return group.Commands[name]
}

// LookupGroup finds a group by its full name.
func LookupGroup(s Snapshot, name string) *GroupNode {
	tokens := strings.Fields(name)
	if len(tokens) == 0 {
		return nil
	}
	for _, module := range s.Modules() {
		if g := descend(s[module], tokens, 0); g != nil {
			return g
		}
	}
	return nil
}

// descend walks sub-groups for tokens[:1], tokens[:2], ... leaving the last
// keep tokens unconsumed.
func descend(root *GroupNode, tokens []string, keep int) *GroupNode {
	if root == nil {
		return nil
	}
	group := root
	for i := 1; i <= len(tokens)-keep; i++ {
		next, ok := group.SubGroups[strings.Join(tokens[:i], " ")]
		if !ok || next == nil {
			return nil
		}
		group = next
	}
	return group
}

// VisitFunc is called for each command. key is the map key under which the
// command is stored, which is its full name.
type VisitFunc func(key string, cmd *CommandNode)

// Walk visits every command below g depth-first: sub-groups before commands,
// keys in lexicographic order at every level.
func Walk(g *GroupNode, fn VisitFunc) {
	if g == nil {
		return
	}
	for _, k := range sortedKeys(g.SubGroups) {
		Walk(g.SubGroups[k], fn)
	}
	for _, k := range sortedKeys(g.Commands) {
		if cmd := g.Commands[k]; cmd != nil {
			fn(k, cmd)
		}
	}
}

// WalkSnapshot walks every module root in module order.
func WalkSnapshot(s Snapshot, fn VisitFunc) {
	for _, module := range s.Modules() {
		Walk(s[module], fn)
	}
}

// WalkGroups visits g and every group below it in the same order as Walk.
func WalkGroups(g *GroupNode, fn func(key string, group *GroupNode)) {
	if g == nil {
		return
	}
	for _, k := range sortedKeys(g.SubGroups) {
		sub := g.SubGroups[k]
		if sub == nil {
			continue
		}
		fn(k, sub)
		WalkGroups(sub, fn)
	}
}

// CommandNames returns every command name in walk order, duplicates included.
func CommandNames(s Snapshot) []string {
	var names []string
	WalkSnapshot(s, func(key string, _ *CommandNode) {
		names = append(names, key)
	})
	return names
}

// Duplicates returns command names that appear more than once in s, sorted.
func Duplicates(s Snapshot) []string {
	seen := make(map[string]int)
	for _, n := range CommandNames(s) {
		seen[n]++
	}
	var dups []string
	for n, c := range seen {
		if c > 1 {
			dups = append(dups, n)
		}
	}
	sort.Strings(dups)
	return dups
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
