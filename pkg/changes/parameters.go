package changes

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/CliForge/clidiff/pkg/meta"
)

// parameterFields lists the fields compared for a parameter, in report order.
var parameterFields = []string{
	"options",
	"type",
	"aaz_type",
	"default",
	"aaz_default",
	"required",
	"choices",
	"aaz_choices",
	"deprecate_info",
	"options_deprecate_info",
	"id_part",
	"nargs",
	"has_completer",
	"desc",
}

var knownParameterField = func() map[string]bool {
	m := make(map[string]bool, len(parameterFields))
	for _, f := range parameterFields {
		m[f] = true
	}
	m["name"] = true
	return m
}()

// compareParameters reconciles the parameters addressed by index. When the
// indexed parameters on both sides share a dest the addressed fields are
// compared. Otherwise each side is matched by dest on the other side, so an
// insertion in the middle of the list does not cascade.
func (c *commandDiff) compareParameters(t *touch) {
	if t.allParams {
		c.compareParametersByName()
		return
	}

	indices := make([]int, 0, len(t.params))
	for i := range t.params {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	seen := make(map[string]bool)
	for _, i := range indices {
		pt := t.params[i]
		bp, ap := c.before.ParameterAt(i), c.after.ParameterAt(i)

		if bp != nil && ap != nil && bp.Name == ap.Name {
			if seen[bp.Name] {
				continue
			}
			seen[bp.Name] = true
			if pt.whole() {
				c.compareParameter(bp, ap, nil)
			} else {
				c.compareParameter(bp, ap, pt.fields)
			}
			continue
		}

		if bp != nil && !seen[bp.Name] {
			seen[bp.Name] = true
			if other := c.after.Parameter(bp.Name); other != nil {
				c.compareParameter(bp, other, nil)
			} else {
				c.parameterRemoved(bp)
			}
		}
		if ap != nil && !seen[ap.Name] {
			seen[ap.Name] = true
			if other := c.before.Parameter(ap.Name); other != nil {
				c.compareParameter(other, ap, nil)
			} else {
				c.parameterAdded(ap)
			}
		}
	}
}

func (c *commandDiff) compareParametersByName() {
	for _, bp := range c.before.Parameters {
		if bp == nil {
			continue
		}
		if ap := c.after.Parameter(bp.Name); ap != nil {
			c.compareParameter(bp, ap, nil)
		} else {
			c.parameterRemoved(bp)
		}
	}
	for _, ap := range c.after.Parameters {
		if ap != nil && c.before.Parameter(ap.Name) == nil {
			c.parameterAdded(ap)
		}
	}
}

func (c *commandDiff) parameterAdded(p *meta.ParameterNode) {
	rec := ChangeRecord{
		ChangeType: ChangeAdd,
		Kind:       KindParameterAdd,
		Property:   "parameters",
		Detail:     Detail{Parameter: p.Name, Summary: "parameter " + describeParameter(p) + " added"},
	}
	if p.Required {
		rec.Rule = RuleParaRequiredAdd
		rec.Detail.Summary = "required parameter " + describeParameter(p) + " added"
	}
	c.add(rec)
}

func (c *commandDiff) parameterRemoved(p *meta.ParameterNode) {
	c.add(ChangeRecord{
		ChangeType: ChangeRemove,
		Kind:       KindParameterRemove,
		Property:   "parameters",
		Rule:       RuleParaRemove,
		Detail:     Detail{Parameter: p.Name, Summary: "parameter " + describeParameter(p) + " removed"},
	})
}

func describeParameter(p *meta.ParameterNode) string {
	if len(p.Options) == 0 {
		return p.Name
	}
	return fmt.Sprintf("%s (%s)", p.Name, strings.Join(p.Options, ", "))
}

// compareParameter emits records for the differing fields of one parameter.
// A nil fields map compares every known field.
func (c *commandDiff) compareParameter(b, a *meta.ParameterNode, fields map[string][]entry) {
	for _, f := range parameterFields {
		if fields != nil {
			if _, ok := fields[f]; !ok {
				continue
			}
		}
		c.compareField(f, b, a)
	}

	if fields == nil {
		return
	}
	var unknown []string
	for f := range fields {
		if f != "" && !knownParameterField[f] {
			unknown = append(unknown, f)
		}
	}
	sort.Strings(unknown)
	for _, f := range unknown {
		c.add(genericRecord(KindParameterProperty, f, b.Name, fields[f]))
	}
}

func (c *commandDiff) compareField(field string, b, a *meta.ParameterNode) {
	switch field {
	case "options":
		c.optionsChange(b, a)
	case "type":
		c.typeChange(field, b.Name, b.Type, a.Type)
	case "aaz_type":
		c.typeChange(field, b.Name, b.AAZType, a.AAZType)
	case "default":
		c.defaultChange(field, b.Name, b.Default, a.Default)
	case "aaz_default":
		c.defaultChange(field, b.Name, b.AAZDefault, a.AAZDefault)
	case "required":
		c.requiredChange(b.Name, b.Required, a.Required)
	case "choices":
		c.choicesChange(field, b.Name, b.Choices, a.Choices)
	case "aaz_choices":
		c.choicesChange(field, b.Name, choiceValues(b.AAZChoices), choiceValues(a.AAZChoices))
	case "deprecate_info":
		c.parameterDeprecation(b.Name, b.DeprecateInfo, a.DeprecateInfo)
	case "options_deprecate_info":
		c.optionDeprecation(b.Name, b.OptionsDeprecateInfo, a.OptionsDeprecateInfo)
	case "id_part":
		c.propertyChange(field, b.Name, emptyToNil(b.IDPart), emptyToNil(a.IDPart))
	case "nargs":
		c.propertyChange(field, b.Name, b.Nargs, a.Nargs)
	case "has_completer":
		c.propertyChange(field, b.Name, b.HasCompleter, a.HasCompleter)
	case "desc":
		c.propertyChange(field, b.Name, emptyToNil(b.Desc), emptyToNil(a.Desc))
	}
}

// optionsChange treats exactly one removed plus one added spelling as a
// rename. Any other difference is reported option by option.
func (c *commandDiff) optionsChange(b, a *meta.ParameterNode) {
	removed := difference(b.Options, a.Options)
	added := difference(a.Options, b.Options)
	if len(removed) == 0 && len(added) == 0 {
		return
	}

	if len(removed) == 1 && len(added) == 1 {
		c.add(ChangeRecord{
			ChangeType: ChangeChange,
			Kind:       KindOptionRename,
			Property:   "options",
			Rule:       RuleParaOptionRename,
			Detail: Detail{
				Parameter: b.Name,
				Old:       removed[0],
				New:       added[0],
				Summary:   fmt.Sprintf("option %s renamed to %s", removed[0], added[0]),
			},
		})
		return
	}

	for _, opt := range removed {
		c.add(ChangeRecord{
			ChangeType: ChangeRemove,
			Kind:       KindOptionRemove,
			Property:   "options",
			Rule:       RuleParaOptionRemove,
			Detail:     Detail{Parameter: b.Name, Removed: []string{opt}, Summary: "option " + opt + " removed"},
		})
	}
	for _, opt := range added {
		c.add(ChangeRecord{
			ChangeType: ChangeAdd,
			Kind:       KindOptionAdd,
			Property:   "options",
			Detail:     Detail{Parameter: b.Name, Added: []string{opt}, Summary: "option " + opt + " added"},
		})
	}
}

// typeChange is breaking when both sides declare types that do not
// normalize to the same name.
func (c *commandDiff) typeChange(field, param, old, cur string) {
	if old == cur {
		return
	}
	rec := ChangeRecord{
		ChangeType: directionOf(old != "", cur != ""),
		Kind:       KindTypeChange,
		Property:   field,
		Detail: Detail{
			Parameter: param,
			Old:       emptyToNil(old),
			New:       emptyToNil(cur),
			Summary:   fmt.Sprintf("%s changed from %q to %q", field, old, cur),
		},
	}
	switch {
	case old == "" || cur == "":
	case meta.TypesEquivalent(old, cur):
		rec.Detail.Summary = fmt.Sprintf("%s normalized from %q to %q", field, old, cur)
	default:
		rec.Rule = RuleParaTypeChange
	}
	c.add(rec)
}

func (c *commandDiff) defaultChange(field, param string, old, cur any) {
	if reflect.DeepEqual(old, cur) {
		return
	}
	rec := ChangeRecord{
		ChangeType: directionOf(old != nil, cur != nil),
		Kind:       KindDefaultChange,
		Property:   field,
		Detail:     Detail{Parameter: param, Old: old, New: cur},
	}
	switch rec.ChangeType {
	case ChangeAdd:
		rec.Detail.Summary = fmt.Sprintf("%s %v added", field, cur)
	case ChangeRemove:
		rec.Rule = RuleParaDefaultRemove
		rec.Detail.Summary = fmt.Sprintf("%s %v removed", field, old)
	default:
		rec.Rule = RuleParaDefaultChange
		rec.Detail.Summary = fmt.Sprintf("%s changed from %v to %v", field, old, cur)
	}
	c.add(rec)
}

func (c *commandDiff) requiredChange(param string, old, cur bool) {
	if old == cur {
		return
	}
	rec := ChangeRecord{
		ChangeType: ChangeChange,
		Kind:       KindRequiredChange,
		Property:   "required",
		Detail: Detail{
			Parameter: param,
			Old:       old,
			New:       cur,
			Summary:   fmt.Sprintf("required changed from %t to %t", old, cur),
		},
	}
	if cur {
		rec.Rule = RuleParaRequiredSet
	}
	c.add(rec)
}

// choicesChange is breaking when a previously accepted value disappears.
// Dropping the choice list altogether accepts any value and is safe.
func (c *commandDiff) choicesChange(field, param string, old, cur []string) {
	removed := difference(old, cur)
	added := difference(cur, old)
	if len(removed) == 0 && len(added) == 0 {
		return
	}
	rec := ChangeRecord{
		ChangeType: directionOf(len(old) > 0, len(cur) > 0),
		Kind:       KindChoicesChange,
		Property:   field,
		Detail:     Detail{Parameter: param, Added: added, Removed: removed},
	}
	var parts []string
	if len(removed) > 0 {
		parts = append(parts, "removed "+strings.Join(removed, ", "))
	}
	if len(added) > 0 {
		parts = append(parts, "added "+strings.Join(added, ", "))
	}
	rec.Detail.Summary = field + " " + strings.Join(parts, "; ")
	if len(removed) > 0 && len(cur) > 0 {
		rec.Rule = RuleParaChoicesShrink
	}
	c.add(rec)
}

func (c *commandDiff) parameterDeprecation(param string, old, cur *meta.DeprecationInfo) {
	dc, ok := compareDeprecation(old, cur)
	if !ok {
		return
	}
	rec := ChangeRecord{
		ChangeType: dc.changeType,
		Kind:       KindDeprecationChange,
		Property:   "deprecate_info",
		Severity:   dc.severity,
		Detail:     Detail{Parameter: param, Old: dc.old, New: dc.new, Summary: "parameter " + dc.summary},
	}
	if dc.hidden {
		rec.Rule = RuleParaDeprecateHide
	}
	c.add(rec)
}

// optionDeprecation grades new option deprecation entries. An entry that hides
// an option is breaking.
func (c *commandDiff) optionDeprecation(param string, old, cur []meta.DeprecationInfo) {
	if reflect.DeepEqual(old, cur) {
		return
	}
	var fresh []meta.DeprecationInfo
	for _, d := range cur {
		if !containsDeprecation(old, d) {
			fresh = append(fresh, d)
		}
	}

	rec := ChangeRecord{
		ChangeType: directionOf(len(old) > 0, len(cur) > 0),
		Kind:       KindDeprecationChange,
		Property:   "options_deprecate_info",
		Detail:     Detail{Parameter: param, Old: deprecationList(old), New: deprecationList(cur)},
	}
	switch {
	case len(fresh) == 0:
		rec.Detail.Summary = "option deprecation removed"
	case anyHidden(fresh):
		rec.Rule = RuleParaOptionDeprecateHide
		rec.Detail.Summary = "option deprecated and hidden" + describeDeprecation(&fresh[0])
	default:
		rec.Severity = SeverityDangerous
		rec.Detail.Summary = "option deprecated" + describeDeprecation(&fresh[0])
	}
	c.add(rec)
}

func (c *commandDiff) propertyChange(field, param string, old, cur any) {
	if reflect.DeepEqual(old, cur) {
		return
	}
	c.add(ChangeRecord{
		ChangeType: directionOf(old != nil, cur != nil),
		Kind:       KindParameterProperty,
		Property:   field,
		Detail:     Detail{Parameter: param, Old: old, New: cur, Summary: field + " changed"},
	})
}

func containsDeprecation(list []meta.DeprecationInfo, d meta.DeprecationInfo) bool {
	for _, x := range list {
		if x == d {
			return true
		}
	}
	return false
}

func anyHidden(list []meta.DeprecationInfo) bool {
	for _, d := range list {
		if d.Hide {
			return true
		}
	}
	return false
}

func deprecationList(list []meta.DeprecationInfo) any {
	if len(list) == 0 {
		return nil
	}
	return list
}

// choiceValues flattens aaz_choices, which is either a list of values or a
// mapping from display name to value, into sorted display strings.
func choiceValues(v any) []string {
	var out []string
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		for _, x := range t {
			out = append(out, fmt.Sprint(x))
		}
	case []string:
		out = append(out, t...)
	case map[string]any:
		for k := range t {
			out = append(out, k)
		}
	default:
		out = append(out, fmt.Sprint(t))
	}
	sort.Strings(out)
	return out
}

// difference returns the sorted members of a missing from b.
func difference(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, s := range b {
		set[s] = struct{}{}
	}
	var out []string
	for _, s := range a {
		if _, ok := set[s]; !ok {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
