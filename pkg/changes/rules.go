package changes

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/CliForge/clidiff/pkg/diffpath"
	"github.com/CliForge/clidiff/pkg/meta"
)

// commandDiff collects the records of one command present on both sides.
type commandDiff struct {
	name          string
	module        string
	before, after *meta.CommandNode
	records       []ChangeRecord
}

func (c *commandDiff) add(rec ChangeRecord) {
	rec.Module = c.module
	rec.Command = c.name
	switch {
	case rec.Rule != "":
		rec.Severity = SeverityBreaking
	case rec.Severity == "":
		rec.Severity = SeveritySafe
	}
	c.records = append(c.records, rec)
}

func (c *commandDiff) classify(t *touch) {
	props := make([]string, 0, len(t.props))
	for p := range t.props {
		props = append(props, p)
	}
	sort.Strings(props)

	for _, prop := range props {
		switch prop {
		case diffpath.KeyParameters:
			c.compareParameters(t)
		case "is_preview":
			c.previewChange()
		case "confirmation":
			c.boolChange(prop, c.before.Confirmation, c.after.Confirmation)
		case "supports_no_wait":
			c.boolChange(prop, c.before.SupportsNoWait, c.after.SupportsNoWait)
		case "is_aaz":
			c.boolChange(prop, c.before.IsAAZ, c.after.IsAAZ)
		case "deprecate_info":
			c.deprecationChange()
		case "examples":
			c.examplesChange()
		case "desc":
			c.stringChange(prop, c.before.Desc, c.after.Desc)
		case "name":
			c.stringChange(prop, c.before.Name, c.after.Name)
		default:
			c.add(genericRecord(KindCommandProperty, prop, "", t.props[prop]))
		}
	}
}

func (c *commandDiff) previewChange() {
	old, cur := c.before.IsPreview, c.after.IsPreview
	if old == cur {
		return
	}
	rec := ChangeRecord{
		ChangeType: ChangeChange,
		Kind:       KindCommandProperty,
		Property:   "is_preview",
		Detail:     Detail{Old: old, New: cur, Summary: fmt.Sprintf("is_preview changed from %t to %t", old, cur)},
	}
	if cur {
		rec.Rule = RuleCmdPreviewSet
	}
	c.add(rec)
}

func (c *commandDiff) boolChange(prop string, old, cur bool) {
	if old == cur {
		return
	}
	c.add(ChangeRecord{
		ChangeType: ChangeChange,
		Kind:       KindCommandProperty,
		Property:   prop,
		Detail:     Detail{Old: old, New: cur, Summary: fmt.Sprintf("%s changed from %t to %t", prop, old, cur)},
	})
}

func (c *commandDiff) stringChange(prop, old, cur string) {
	if old == cur {
		return
	}
	c.add(ChangeRecord{
		ChangeType: directionOf(old != "", cur != ""),
		Kind:       KindCommandProperty,
		Property:   prop,
		Detail:     Detail{Old: emptyToNil(old), New: emptyToNil(cur), Summary: prop + " changed"},
	})
}

func (c *commandDiff) examplesChange() {
	old, cur := c.before.Examples, c.after.Examples
	if reflect.DeepEqual(old, cur) {
		return
	}
	c.add(ChangeRecord{
		ChangeType: directionOf(len(old) > 0, len(cur) > 0),
		Kind:       KindCommandProperty,
		Property:   "examples",
		Detail: Detail{
			Old:          len(old),
			New:          len(cur),
			ExampleCount: intPtr(len(cur)),
			Summary:      fmt.Sprintf("examples changed from %d to %d", len(old), len(cur)),
		},
	})
}

func (c *commandDiff) deprecationChange() {
	dc, ok := compareDeprecation(c.before.DeprecateInfo, c.after.DeprecateInfo)
	if !ok {
		return
	}
	rec := ChangeRecord{
		ChangeType: dc.changeType,
		Kind:       KindCommandDeprecation,
		Property:   "deprecate_info",
		Severity:   dc.severity,
		Detail:     Detail{Old: dc.old, New: dc.new, Summary: "command " + dc.summary},
	}
	if dc.hidden {
		rec.Rule = RuleCmdDeprecateHide
	}
	c.add(rec)
}

type deprecationDelta struct {
	changeType ChangeType
	severity   Severity
	// hidden is set when the newer side hides something the older did not.
	hidden   bool
	old, new any
	summary  string
}

// compareDeprecation grades a deprecation transition. Newly hiding a surface
// is breaking; a visible notice is dangerous; dropping a notice is safe.
func compareDeprecation(old, cur *meta.DeprecationInfo) (deprecationDelta, bool) {
	oldSet, curSet := !old.IsZero(), !cur.IsZero()
	switch {
	case !oldSet && !curSet:
		return deprecationDelta{}, false
	case oldSet && curSet && *old == *cur:
		return deprecationDelta{}, false
	}

	d := deprecationDelta{changeType: directionOf(oldSet, curSet)}
	if oldSet {
		d.old = *old
	}
	if curSet {
		d.new = *cur
	}

	switch {
	case !curSet:
		d.severity = SeveritySafe
		d.summary = "deprecation removed"
	case cur.Hide && (!oldSet || !old.Hide):
		d.hidden = true
		d.severity = SeverityBreaking
		d.summary = "deprecated and hidden" + describeDeprecation(cur)
	case !oldSet:
		d.severity = SeverityDangerous
		d.summary = "deprecated" + describeDeprecation(cur)
	default:
		d.severity = SeverityDangerous
		d.summary = "deprecation changed" + describeDeprecation(cur)
	}
	return d, true
}

func describeDeprecation(d *meta.DeprecationInfo) string {
	var parts []string
	if d.Redirect != "" {
		parts = append(parts, "redirect "+d.Redirect)
	}
	if d.Target != "" {
		parts = append(parts, "target "+d.Target)
	}
	if d.Expiration != "" {
		parts = append(parts, "expires "+d.Expiration)
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

// genericRecord describes a property the classifier has no rule for, using
// the raw diff entries.
func genericRecord(kind Kind, prop, param string, entries []entry) ChangeRecord {
	rec := ChangeRecord{
		ChangeType: ChangeDefault,
		Kind:       kind,
		Property:   prop,
		Detail:     Detail{Parameter: param, Summary: prop + " changed"},
	}
	if len(entries) == 0 {
		return rec
	}
	op := entries[0].op
	for _, e := range entries[1:] {
		if e.op != op {
			op = ChangeDefault
			break
		}
	}
	rec.ChangeType = op
	switch op {
	case ChangeAdd:
		rec.Detail.Summary = prop + " added"
	case ChangeRemove:
		rec.Detail.Summary = prop + " removed"
	}
	if len(entries) == 1 && entries[0].change != nil {
		rec.Detail.Old = entries[0].change.Old
		rec.Detail.New = entries[0].change.New
	}
	return rec
}

func directionOf(oldSet, curSet bool) ChangeType {
	switch {
	case !oldSet && curSet:
		return ChangeAdd
	case oldSet && !curSet:
		return ChangeRemove
	}
	return ChangeChange
}

func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}
