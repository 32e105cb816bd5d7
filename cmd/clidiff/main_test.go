package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CliForge/clidiff/pkg/changes"
	"github.com/CliForge/clidiff/pkg/meta"
)

func TestMain(m *testing.M) {
	pterm.DisableStyling()
	pterm.DisableColor()
	os.Exit(m.Run())
}

func network(cmds ...*meta.CommandNode) meta.Snapshot {
	root := meta.NewGroup("az")
	root.ModuleName = "network"
	group := meta.NewGroup("network")
	for _, c := range cmds {
		group.Commands[c.Name] = c
	}
	root.SubGroups["network"] = group
	return meta.Snapshot{"network": root}
}

func command(name, desc string, params ...string) *meta.CommandNode {
	c := &meta.CommandNode{Name: name, Desc: desc, Parameters: []*meta.ParameterNode{}}
	for _, p := range params {
		c.Parameters = append(c.Parameters, &meta.ParameterNode{Name: p, Options: []string{"--" + p}})
	}
	return c
}

func writeModule(t *testing.T, dir string, s meta.Snapshot) string {
	t.Helper()
	paths, err := meta.WriteModuleFiles(dir, s)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	return paths[0]
}

// snapshots writes a base and a diff file where "network create" loses
// its --location parameter and "network delete" is added.
func snapshots(t *testing.T) (string, string) {
	t.Helper()
	base := writeModule(t, filepath.Join(t.TempDir(), "base"),
		network(command("network create", "Create a network.", "name", "location")))
	diff := writeModule(t, filepath.Join(t.TempDir(), "diff"),
		network(
			command("network create", "Create a network.", "name"),
			command("network delete", "Delete a network.", "name", "yes"),
		))
	return base, diff
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("CLIDIFF_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestMetaDiffText(t *testing.T) {
	base, diff := snapshots(t)
	out, _, err := run(t, "meta-diff", "--base-meta-file", base, "--diff-meta-file", diff)
	require.NoError(t, err)

	assert.Contains(t, out, "network create")
	assert.Contains(t, out, "(breaking: "+changes.RuleParaRemove+")")
	assert.Contains(t, out, "network delete")
}

func TestMetaDiffOnlyBreakToFile(t *testing.T) {
	base, diff := snapshots(t)
	outFile := filepath.Join(t.TempDir(), "diff.json")

	_, stderr, err := run(t, "meta-diff", "--base-meta-file", base, "--diff-meta-file", diff,
		"--only-break", "-o", "dict", "--output-file", outFile)
	require.NoError(t, err)
	assert.Contains(t, stderr, outFile)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	var records []map[string]any
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 1)
	assert.Equal(t, changes.RuleParaRemove, records[0]["rule"])
}

func TestMetaDiffNoChanges(t *testing.T) {
	base, _ := snapshots(t)
	outFile := filepath.Join(t.TempDir(), "diff.json")

	out, stderr, err := run(t, "meta-diff", "--base-meta-file", base, "--diff-meta-file", base,
		"--output-file", outFile)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, stderr, "No meta diffs")
	assert.NoFileExists(t, outFile)
}

func TestMetaDiffErrors(t *testing.T) {
	base, diff := snapshots(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing file", []string{"--base-meta-file", filepath.Join(t.TempDir(), "nope.json"), "--diff-meta-file", diff}},
		{"bad output type", []string{"--base-meta-file", base, "--diff-meta-file", diff, "-o", "xml"}},
		{"bad where", []string{"--base-meta-file", base, "--diff-meta-file", diff, "--where", "Breaking &&"}},
		{"missing flag", []string{"--base-meta-file", base}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, append([]string{"meta-diff"}, tt.args...)...)
			assert.Error(t, err)
		})
	}
}

func TestVersionDiffDirBackend(t *testing.T) {
	root := t.TempDir()
	writeModule(t, filepath.Join(root, "azure-cli-1.0"),
		network(command("network create", "Create a network.", "name", "location")))
	writeModule(t, filepath.Join(root, "azure-cli-2.0"),
		network(command("network create", "Create a network.", "name")))
	t.Setenv("CLIDIFF_STORAGE_BACKEND", "dir")
	t.Setenv("CLIDIFF_STORAGE_DIR", root)

	out, _, err := run(t, "version-diff", "--base-version", "1.0", "--diff-version", "2.0", "--no-progress")
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "network", records[0]["module"])
	assert.Equal(t, changes.RuleParaRemove, records[0]["rule"])

	_, _, err = run(t, "version-diff", "--base-version", "1.0", "--diff-version", "9.9", "--no-progress")
	assert.Error(t, err)

	_, _, err = run(t, "version-diff", "--base-version", "1.0", "--diff-version", "2.0", "-o", "tree")
	assert.Error(t, err)
}

func TestExampleDiff(t *testing.T) {
	base, diff := snapshots(t)
	out, _, err := run(t, "cmd-example-diff", "--base-meta-file", base, "--diff-meta-file", diff, "--min-examples", "1")
	require.NoError(t, err)

	var items []changes.CommandExamples
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "network delete", items[0].Command)
	assert.Equal(t, changes.ChangeAdd, items[0].ChangeType)
	assert.Equal(t, 0, items[0].ExampleCount)
}

func TestLint(t *testing.T) {
	dir := t.TempDir()
	clean := writeModule(t, filepath.Join(dir, "clean"),
		network(command("network create", "Create a network.", "name")))
	_, stderr, err := run(t, "lint", "--meta-file", clean)
	require.NoError(t, err)
	assert.Contains(t, stderr, "No high severity")

	dirty := writeModule(t, filepath.Join(dir, "dirty"),
		network(command("network create", "", "name")))
	out, _, err := run(t, "lint", "--meta-file", dirty)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 high severity")
	assert.Contains(t, out, "missing_command_help")

	exclusions := filepath.Join(dir, "linter_exclusions.yml")
	require.NoError(t, os.WriteFile(exclusions, []byte("network create:\n  rule_exclusions:\n  - missing_command_help\n"), 0644))
	_, _, err = run(t, "lint", "--meta-file", dirty, "--exclusions", exclusions)
	assert.NoError(t, err)
}

func TestExportMeta(t *testing.T) {
	dir := t.TempDir()
	_, _, err := run(t, "export-meta", "--output-dir", dir, "--with-help")
	require.NoError(t, err)

	doc, err := meta.ReadDocument(filepath.Join(dir, meta.ModuleFileName("clidiff")))
	require.NoError(t, err)
	assert.NotNil(t, meta.Lookup(doc.Snapshot, "meta-diff"))
}
