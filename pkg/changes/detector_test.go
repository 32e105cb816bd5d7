package changes

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CliForge/clidiff/pkg/diffpath"
	"github.com/CliForge/clidiff/pkg/meta"
)

func tree(cmds ...*meta.CommandNode) meta.Snapshot {
	root := meta.NewGroup("az")
	root.ModuleName = "test"
	for _, c := range cmds {
		tokens := strings.Fields(c.Name)
		g := root
		for i := 1; i < len(tokens); i++ {
			name := strings.Join(tokens[:i], " ")
			sub, ok := g.SubGroups[name]
			if !ok {
				sub = meta.NewGroup(name)
				g.SubGroups[name] = sub
			}
			g = sub
		}
		g.Commands[c.Name] = c
	}
	return meta.Snapshot{"test": root}
}

func command(name string, params ...*meta.ParameterNode) *meta.CommandNode {
	return &meta.CommandNode{Name: name, Parameters: append([]*meta.ParameterNode{}, params...)}
}

func param(name string, options ...string) *meta.ParameterNode {
	return &meta.ParameterNode{Name: name, Options: options, Type: meta.TypeString}
}

func detect(t *testing.T, before, after meta.Snapshot) *Result {
	t.Helper()
	res, err := NewDetector(nil).CompareSnapshots(before, after)
	require.NoError(t, err)
	return res
}

func sample() meta.Snapshot {
	return tree(
		command("monitor log-profiles create", param("name", "--name")),
		command("monitor log-profiles list"),
		command("group sub create", param("location", "--location", "-l"), param("name", "--name", "-n")),
		command("vm list", param("resource_group", "--resource-group", "-g")),
	)
}

func TestDetect_Idempotent(t *testing.T) {
	res := detect(t, sample(), sample())
	assert.Empty(t, res.Records)
	assert.Empty(t, res.Warnings)
}

func TestDetect_CommandRemoved(t *testing.T) {
	before := sample()
	after := tree(
		command("monitor log-profiles list"),
		command("group sub create", param("location", "--location", "-l"), param("name", "--name", "-n")),
		command("vm list", param("resource_group", "--resource-group", "-g")),
	)

	res := detect(t, before, after)
	require.Len(t, res.Records, 1)

	rec := res.Records[0]
	assert.Equal(t, "monitor log-profiles create", rec.Command)
	assert.Equal(t, ChangeRemove, rec.ChangeType)
	assert.Equal(t, KindCommandRemove, rec.Kind)
	assert.Equal(t, RuleCmdRemove, rec.Rule)
	assert.Equal(t, SeverityBreaking, rec.Severity)
	assert.Equal(t, "test", rec.Module)
	require.NotNil(t, rec.Detail.ParamCount)
	assert.Equal(t, 1, *rec.Detail.ParamCount)
}

func TestDetect_CommandAddedIsNotBreaking(t *testing.T) {
	after := sample()
	after["test"].SubGroups["vm"].Commands["vm show"] = command("vm show", param("name", "--name"))

	res := detect(t, sample(), after)
	require.Len(t, res.Records, 1)
	assert.Equal(t, ChangeAdd, res.Records[0].ChangeType)
	assert.False(t, res.Records[0].IsBreaking())
	assert.Empty(t, FilterBreaking(res.Records))
}

func TestDetect_OptionRename(t *testing.T) {
	before := tree(command("vm create", param("name", "--name", "-n")))
	after := tree(command("vm create", param("name", "--name", "--new-name")))

	res := detect(t, before, after)
	require.Len(t, res.Records, 1)

	rec := res.Records[0]
	assert.Equal(t, KindOptionRename, rec.Kind)
	assert.Equal(t, RuleParaOptionRename, rec.Rule)
	assert.Equal(t, "name", rec.Detail.Parameter)
	assert.Equal(t, "-n", rec.Detail.Old)
	assert.Equal(t, "--new-name", rec.Detail.New)
}

func TestDetect_OptionsAddedAndRemoved(t *testing.T) {
	before := tree(command("vm create", param("name", "--name", "-n")))
	after := tree(command("vm create", param("name", "--name", "--vm-name", "-v")))

	res := detect(t, before, after)
	kinds := map[Kind]int{}
	for _, r := range res.Records {
		kinds[r.Kind]++
	}
	assert.Equal(t, map[Kind]int{KindOptionRemove: 1, KindOptionAdd: 2}, kinds)
	assert.True(t, IsBreaking(res.Records))
}

func TestDetect_DefaultRules(t *testing.T) {
	withDefault := func() meta.Snapshot {
		p := param("location", "--location")
		p.Default = "eastus"
		return tree(command("group create", p))
	}
	without := func() meta.Snapshot {
		return tree(command("group create", param("location", "--location")))
	}

	removed := detect(t, withDefault(), without())
	require.Len(t, removed.Records, 1)
	assert.Equal(t, ChangeRemove, removed.Records[0].ChangeType)
	assert.Equal(t, RuleParaDefaultRemove, removed.Records[0].Rule)

	added := detect(t, without(), withDefault())
	require.Len(t, added.Records, 1)
	assert.Equal(t, ChangeAdd, added.Records[0].ChangeType)
	assert.False(t, added.Records[0].IsBreaking())

	changed := withDefault()
	changed["test"].SubGroups["group"].Commands["group create"].Parameters[0].Default = "westus"
	res := detect(t, withDefault(), changed)
	require.Len(t, res.Records, 1)
	assert.Equal(t, RuleParaDefaultChange, res.Records[0].Rule)

	aazDefault := func(v any) meta.Snapshot {
		p := param("location", "--location")
		p.AAZDefault = v
		return tree(command("group create", p))
	}
	tests := []struct {
		name     string
		old, cur any
		change   ChangeType
		rule     string
	}{
		{"removed", "eastus", nil, ChangeRemove, RuleParaDefaultRemove},
		{"added", nil, "eastus", ChangeAdd, ""},
		{"changed", "eastus", "westus", ChangeChange, RuleParaDefaultChange},
	}
	for _, tt := range tests {
		t.Run("aaz_default "+tt.name, func(t *testing.T) {
			res := detect(t, aazDefault(tt.old), aazDefault(tt.cur))
			require.Len(t, res.Records, 1)
			assert.Equal(t, "aaz_default", res.Records[0].Property)
			assert.Equal(t, tt.change, res.Records[0].ChangeType)
			assert.Equal(t, tt.rule, res.Records[0].Rule)
		})
	}
}

func TestDetect_RequiredTightening(t *testing.T) {
	loose := func() meta.Snapshot {
		return tree(command("group sub create", param("location", "--location")))
	}
	strict := func() meta.Snapshot {
		p := param("location", "--location")
		p.Required = true
		return tree(command("group sub create", p))
	}

	res := detect(t, loose(), strict())
	require.Len(t, res.Records, 1)
	assert.Equal(t, "group sub create", res.Records[0].Command)
	assert.Equal(t, KindRequiredChange, res.Records[0].Kind)
	assert.Equal(t, RuleParaRequiredSet, res.Records[0].Rule)

	res = detect(t, strict(), loose())
	require.Len(t, res.Records, 1)
	assert.False(t, res.Records[0].IsBreaking())
}

func TestDetect_ParameterInsertionDoesNotCascade(t *testing.T) {
	before := tree(command("vm create", param("image", "--image"), param("size", "--size")))
	after := tree(command("vm create", param("zone", "--zone"), param("image", "--image"), param("size", "--size")))

	res := detect(t, before, after)
	require.Len(t, res.Records, 1)
	assert.Equal(t, KindParameterAdd, res.Records[0].Kind)
	assert.Equal(t, "zone", res.Records[0].Detail.Parameter)
	assert.False(t, res.Records[0].IsBreaking())
}

func TestDetect_ParameterAddRequiredAndRemove(t *testing.T) {
	required := param("zone", "--zone")
	required.Required = true
	before := tree(command("vm create", param("image", "--image"), param("size", "--size")))
	after := tree(command("vm create", param("image", "--image"), required))

	res := detect(t, before, after)
	rules := map[string]bool{}
	for _, r := range res.Records {
		rules[r.Rule] = true
	}
	assert.True(t, rules[RuleParaRemove])
	assert.True(t, rules[RuleParaRequiredAdd])
	assert.Len(t, res.Records, 2)
}

func TestDetect_TypeChange(t *testing.T) {
	typed := func(typ string) meta.Snapshot {
		p := param("count", "--count")
		p.Type = typ
		return tree(command("vm scale", p))
	}

	res := detect(t, typed("int"), typed("string"))
	require.Len(t, res.Records, 1)
	assert.Equal(t, RuleParaTypeChange, res.Records[0].Rule)

	res = detect(t, typed("str"), typed("string"))
	require.Len(t, res.Records, 1)
	assert.Equal(t, KindTypeChange, res.Records[0].Kind)
	assert.False(t, res.Records[0].IsBreaking())

	aazTyped := func(typ string) meta.Snapshot {
		p := param("count", "--count")
		p.AAZType = typ
		return tree(command("vm scale", p))
	}
	tests := []struct {
		name     string
		old, cur string
		rule     string
	}{
		{"class change", "AAZIntArg", "AAZStrArg", RuleParaTypeChange},
		{"normalized", "AAZStrArg", "string", ""},
		{"declared", "", "AAZStrArg", ""},
	}
	for _, tt := range tests {
		t.Run("aaz_type "+tt.name, func(t *testing.T) {
			res := detect(t, aazTyped(tt.old), aazTyped(tt.cur))
			require.Len(t, res.Records, 1)
			assert.Equal(t, "aaz_type", res.Records[0].Property)
			assert.Equal(t, KindTypeChange, res.Records[0].Kind)
			assert.Equal(t, tt.rule, res.Records[0].Rule)
		})
	}
}

func TestDetect_Choices(t *testing.T) {
	choices := func(c ...string) meta.Snapshot {
		p := param("sku", "--sku")
		p.Choices = c
		return tree(command("vm create", p))
	}

	res := detect(t, choices("Basic", "Premium", "Standard"), choices("Basic", "Standard"))
	require.Len(t, res.Records, 1)
	assert.Equal(t, RuleParaChoicesShrink, res.Records[0].Rule)
	assert.Equal(t, []string{"Premium"}, res.Records[0].Detail.Removed)

	res = detect(t, choices("Basic"), choices("Basic", "Standard"))
	require.Len(t, res.Records, 1)
	assert.False(t, res.Records[0].IsBreaking())

	aazChoices := func(v any) meta.Snapshot {
		p := param("sku", "--sku")
		p.AAZChoices = v
		return tree(command("vm create", p))
	}
	tests := []struct {
		name     string
		old, cur any
		removed  []string
		rule     string
	}{
		{"list shrink", []any{"Basic", "Premium"}, []any{"Basic"}, []string{"Premium"}, RuleParaChoicesShrink},
		{"list grow", []any{"Basic"}, []any{"Basic", "Premium"}, nil, ""},
		{"map shrink", map[string]any{"Basic": "basic", "Premium": "premium"}, map[string]any{"Basic": "basic"}, []string{"Premium"}, RuleParaChoicesShrink},
		{"map grow", map[string]any{"Basic": "basic"}, map[string]any{"Basic": "basic", "Standard": "standard"}, nil, ""},
		{"map dropped", map[string]any{"Basic": "basic"}, nil, []string{"Basic"}, ""},
	}
	for _, tt := range tests {
		t.Run("aaz_choices "+tt.name, func(t *testing.T) {
			res := detect(t, aazChoices(tt.old), aazChoices(tt.cur))
			require.Len(t, res.Records, 1)
			assert.Equal(t, "aaz_choices", res.Records[0].Property)
			assert.Equal(t, KindChoicesChange, res.Records[0].Kind)
			assert.Equal(t, tt.removed, res.Records[0].Detail.Removed)
			assert.Equal(t, tt.rule, res.Records[0].Rule)
		})
	}
}

func TestDetect_Deprecations(t *testing.T) {
	plain := func() meta.Snapshot {
		return tree(command("vm create", param("size", "--size")))
	}
	hidden := func() meta.Snapshot {
		p := param("size", "--size")
		p.DeprecateInfo = &meta.DeprecationInfo{Target: "--vm-size", Hide: true}
		return tree(command("vm create", p))
	}
	visible := func() meta.Snapshot {
		s := plain()
		s["test"].SubGroups["vm"].Commands["vm create"].DeprecateInfo = &meta.DeprecationInfo{Redirect: "vm new"}
		return s
	}

	res := detect(t, plain(), hidden())
	require.Len(t, res.Records, 1)
	assert.Equal(t, RuleParaDeprecateHide, res.Records[0].Rule)

	res = detect(t, plain(), visible())
	require.Len(t, res.Records, 1)
	assert.Equal(t, KindCommandDeprecation, res.Records[0].Kind)
	assert.Equal(t, SeverityDangerous, res.Records[0].Severity)
	assert.Len(t, FilterSeverity(res.Records, SeverityDangerous), 1)
	assert.Empty(t, FilterSeverity(res.Records, SeverityBreaking))

	res = detect(t, hidden(), plain())
	require.Len(t, res.Records, 1)
	assert.Equal(t, SeveritySafe, res.Records[0].Severity)
}

func TestDetect_OptionDeprecateHide(t *testing.T) {
	before := tree(command("vm create", param("size", "--size")))
	p := param("size", "--size")
	p.OptionsDeprecateInfo = []meta.DeprecationInfo{{Target: "--size", Hide: true}}
	after := tree(command("vm create", p))

	res := detect(t, before, after)
	require.Len(t, res.Records, 1)
	assert.Equal(t, RuleParaOptionDeprecateHide, res.Records[0].Rule)
}

func TestDetect_Preview(t *testing.T) {
	stable := func() meta.Snapshot { return tree(command("vm list")) }
	preview := func() meta.Snapshot {
		s := stable()
		s["test"].SubGroups["vm"].Commands["vm list"].IsPreview = true
		return s
	}

	res := detect(t, stable(), preview())
	require.Len(t, res.Records, 1)
	assert.Equal(t, RuleCmdPreviewSet, res.Records[0].Rule)

	res = detect(t, preview(), stable())
	require.Len(t, res.Records, 1)
	assert.False(t, res.Records[0].IsBreaking())
}

func TestDetect_GroupDeprecation(t *testing.T) {
	after := sample()
	after["test"].SubGroups["monitor"].DeprecateInfo = &meta.DeprecationInfo{Redirect: "insights", Hide: true}

	res := detect(t, sample(), after)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "monitor", res.Records[0].Command)
	assert.Equal(t, KindGroupDeprecation, res.Records[0].Kind)
	assert.Equal(t, RuleGroupDeprecateHide, res.Records[0].Rule)
}

func TestDetect_Deterministic(t *testing.T) {
	after := tree(
		command("monitor log-profiles list"),
		command("group sub create", param("location", "--location", "--loc"), param("name", "--name", "-n")),
		command("vm list", param("resource_group", "--resource-group")),
		command("vm show"),
		command("network list"),
	)

	first, err := json.Marshal(detect(t, sample(), after).Records)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		next, err := json.Marshal(detect(t, sample(), after).Records)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(next))
	}
}

func TestDetect_Warnings(t *testing.T) {
	s := sample()
	diff := diffpath.Diff{
		Added: []string{"root['test'"},
		Changed: map[string]diffpath.ValueChange{
			"root['test']['commands']['ghost']['is_preview']": {Old: false, New: true},
		},
	}

	res := NewDetector(nil).Detect(diff, s, s)
	assert.Empty(t, res.Records)
	require.Len(t, res.Warnings, 2)
	assert.Equal(t, WarningParse, res.Warnings[0].Kind)
	assert.Equal(t, WarningLookup, res.Warnings[1].Kind)
	assert.Equal(t, "ghost", res.Warnings[1].Command)
}

func TestDetect_DuplicateCommand(t *testing.T) {
	a := tree(command("vm list"))
	b := tree(command("vm list"))
	s := meta.Snapshot{"a": a["test"], "b": b["test"]}

	res := NewDetector(nil).Detect(diffpath.Diff{}, s, s)
	assert.Empty(t, res.Records)
	require.Len(t, res.Warnings, 2)
	assert.Equal(t, WarningDuplicate, res.Warnings[0].Kind)
}

func TestCompare_Documents(t *testing.T) {
	before, err := meta.ParseDocument([]byte(`{
    "module_name": "monitor", "name": "az", "commands": {},
    "sub_groups": {"monitor": {"name": "monitor", "commands": {}, "sub_groups": {
        "monitor log-profiles": {"name": "monitor log-profiles", "sub_groups": {}, "commands": {
            "monitor log-profiles create": {"name": "monitor log-profiles create", "is_aaz": false,
                "parameters": [{"name": "name", "options": ["--name"], "type": "string"}]}
        }}
    }}}
}`))
	require.NoError(t, err)
	after, err := meta.ParseDocument([]byte(`{
    "module_name": "monitor", "name": "az", "commands": {},
    "sub_groups": {"monitor": {"name": "monitor", "commands": {}, "sub_groups": {
        "monitor log-profiles": {"name": "monitor log-profiles", "sub_groups": {}, "commands": {}}
    }}}
}`))
	require.NoError(t, err)

	res := NewDetector(nil).Compare(before, after)
	require.Len(t, res.Records, 1)
	assert.Equal(t, ChangeRecord{
		Module:     "monitor",
		Command:    "monitor log-profiles create",
		ChangeType: ChangeRemove,
		Kind:       KindCommandRemove,
		Severity:   SeverityBreaking,
		Rule:       RuleCmdRemove,
		Detail:     Detail{ParamCount: intPtr(1), ExampleCount: intPtr(0), Summary: "command removed"},
	}, res.Records[0])
}

func TestDetect_CommandMovedModule(t *testing.T) {
	before := tree(command("vm list", param("loc", "--loc")))
	strict := param("loc", "--loc")
	strict.Required = true
	moved := tree(command("vm list", strict))
	root := moved["test"]
	root.ModuleName = "other"
	after := meta.Snapshot{"other": root}

	res := detect(t, before, after)
	assert.Empty(t, res.Warnings)
	require.Len(t, res.Records, 1)
	rec := res.Records[0]
	assert.Equal(t, "other", rec.Module)
	assert.Equal(t, "vm list", rec.Command)
	assert.Equal(t, KindRequiredChange, rec.Kind)
	assert.Equal(t, RuleParaRequiredSet, rec.Rule)

	unchanged := tree(command("vm list", param("loc", "--loc")))
	res = detect(t, before, meta.Snapshot{"other": unchanged["test"]})
	assert.Empty(t, res.Records)
}

func TestCompare_NullEntries(t *testing.T) {
	before, err := meta.ParseDocument([]byte(`{
    "module_name": "vm", "name": "az", "commands": {},
    "sub_groups": {"vm": {"name": "vm", "sub_groups": {}, "commands": {
        "vm list": {"name": "vm list", "parameters": [null, {"name": "a", "options": ["--a"]}]},
        "vm show": null
    }}}
}`))
	require.NoError(t, err)
	after, err := meta.ParseDocument([]byte(`{
    "module_name": "vm", "name": "az", "commands": {},
    "sub_groups": {"vm": {"name": "vm", "sub_groups": {}, "commands": {
        "vm list": {"name": "vm list", "parameters": [{"name": "b", "options": ["--b"]}]}
    }}}
}`))
	require.NoError(t, err)

	var res *Result
	require.NotPanics(t, func() { res = NewDetector(nil).Compare(before, after) })
	require.Len(t, res.Records, 2)
	assert.Equal(t, RuleParaRemove, res.Records[0].Rule)
	assert.Equal(t, "a", res.Records[0].Detail.Parameter)
	assert.Equal(t, KindParameterAdd, res.Records[1].Kind)
	assert.Equal(t, "b", res.Records[1].Detail.Parameter)
}

func TestCompareSnapshots_NilParameter(t *testing.T) {
	before := tree(command("vm list", nil, param("a", "--a")))
	after := tree(command("vm list", param("a", "--a"), param("b", "--b")))

	var res *Result
	require.NotPanics(t, func() { res = detect(t, before, after) })
	var added []string
	for _, r := range res.Records {
		if r.Kind == KindParameterAdd {
			added = append(added, r.Detail.Parameter)
		}
	}
	assert.Equal(t, []string{"b"}, added)
}
