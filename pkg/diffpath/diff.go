package diffpath

import "sort"

// ValueChange holds both sides of a leaf whose value differs.
type ValueChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Diff is the raw structural difference between two snapshots, expressed as
// path strings.
type Diff struct {
	// Added holds paths present only in the "after" snapshot.
	Added []string `json:"added,omitempty"`
	// Removed holds paths present only in the "before" snapshot.
	Removed []string `json:"removed,omitempty"`
	// Changed holds paths present on both sides with different values.
	Changed map[string]ValueChange `json:"changed,omitempty"`
}

// Empty reports whether the diff carries no paths at all.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Len returns the total number of paths.
func (d Diff) Len() int {
	return len(d.Added) + len(d.Removed) + len(d.Changed)
}

// ChangedPaths returns the keys of Changed in sorted order.
func (d Diff) ChangedPaths() []string {
	out := make([]string, 0, len(d.Changed))
	for k := range d.Changed {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Paths returns every added, removed and changed path, sorted.
func (d Diff) Paths() []string {
	out := make([]string, 0, d.Len())
	out = append(out, d.Added...)
	out = append(out, d.Removed...)
	for k := range d.Changed {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
