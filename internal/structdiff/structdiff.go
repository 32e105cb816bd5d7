// Package structdiff computes the structural difference between two decoded
// JSON documents and reports it as bracketed diff paths.
//
// Mappings are compared key by key, so key order never matters. Lists are
// compared position by position; a longer side contributes added or removed
// tail elements. Any other difference, including a change of kind between
// mapping, list and scalar, is reported as a changed value at that path.
package structdiff

import (
	"reflect"
	"sort"

	"github.com/CliForge/clidiff/pkg/diffpath"
)

// Compare returns the difference between before and after. Both values are
// expected to be the output of encoding/json decoding into any.
func Compare(before, after any) diffpath.Diff {
	w := &walker{changed: make(map[string]diffpath.ValueChange)}
	w.compare(nil, before, after)

	sort.Strings(w.added)
	sort.Strings(w.removed)

	d := diffpath.Diff{Added: w.added, Removed: w.removed}
	if len(w.changed) > 0 {
		d.Changed = w.changed
	}
	return d
}

type walker struct {
	added   []string
	removed []string
	changed map[string]diffpath.ValueChange
}

func (w *walker) compare(path diffpath.Path, before, after any) {
	switch b := before.(type) {
	case map[string]any:
		if a, ok := after.(map[string]any); ok {
			w.compareMaps(path, b, a)
			return
		}
	case []any:
		if a, ok := after.([]any); ok {
			w.compareLists(path, b, a)
			return
		}
	default:
		if scalarEqual(before, after) {
			return
		}
	}
	w.changed[path.String()] = diffpath.ValueChange{Old: before, New: after}
}

func (w *walker) compareMaps(path diffpath.Path, before, after map[string]any) {
	for _, k := range sortedKeys(before) {
		child := path.Child(diffpath.KeySegment(k))
		av, ok := after[k]
		if !ok {
			w.removed = append(w.removed, child.String())
			continue
		}
		w.compare(child, before[k], av)
	}
	for _, k := range sortedKeys(after) {
		if _, ok := before[k]; !ok {
			w.added = append(w.added, path.Child(diffpath.KeySegment(k)).String())
		}
	}
}

func (w *walker) compareLists(path diffpath.Path, before, after []any) {
	shared := min(len(before), len(after))
	for i := 0; i < shared; i++ {
		w.compare(path.Child(diffpath.IndexSegment(i)), before[i], after[i])
	}
	for i := shared; i < len(before); i++ {
		w.removed = append(w.removed, path.Child(diffpath.IndexSegment(i)).String())
	}
	for i := shared; i < len(after); i++ {
		w.added = append(w.added, path.Child(diffpath.IndexSegment(i)).String())
	}
}

func scalarEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch a.(type) {
	case map[string]any, []any:
		return false
	}
	switch b.(type) {
	case map[string]any, []any:
		return false
	}
	return reflect.DeepEqual(a, b)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
