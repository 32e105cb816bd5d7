package meta

import (
	"testing"

	"github.com/spf13/cobra"
)

func newTestTree() *cobra.Command {
	noop := func(*cobra.Command, []string) error { return nil }

	root := &cobra.Command{Use: "tool"}
	group := &cobra.Command{Use: "vault", Short: "Manage vaults."}

	create := &cobra.Command{
		Use:     "create",
		Short:   "Create a vault.",
		RunE:    noop,
		Example: "# Create a vault\ntool vault create --name v1\n\ntool vault create -n v2",
	}
	create.Flags().StringP("name", "n", "", "Vault name.")
	create.Flags().String("location", "eastus", "Location.")
	create.Flags().Int("retention", 0, "Retention days.")
	create.Flags().Bool("no-wait", false, "Do not wait.")
	create.Flags().String("sku", "", "Old flag.")
	create.Flags().String("internal", "", "Internal.")
	_ = create.MarkFlagRequired("name")
	_ = create.Flags().MarkDeprecated("sku", "use --tier")
	_ = create.Flags().MarkHidden("internal")
	_ = create.RegisterFlagCompletionFunc("location", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return nil, cobra.ShellCompDirectiveNoFileComp
	})

	old := &cobra.Command{Use: "purge", RunE: noop, Deprecated: "use delete"}
	secret := &cobra.Command{Use: "debug", RunE: noop, Hidden: true}

	group.AddCommand(create, old, secret)
	root.AddCommand(group, &cobra.Command{Use: "version", RunE: noop})
	return root
}

func TestExtractCobra(t *testing.T) {
	snap := ExtractCobra(newTestTree(), "tool", ExtractOptions{WithHelp: true, WithExample: true})

	root := snap["tool"]
	if root == nil {
		t.Fatal("module root missing")
	}
	if root.Name != "tool" {
		t.Errorf("root name = %q, want tool", root.Name)
	}
	if LookupIn(root, "version") == nil {
		t.Error("top-level command missing")
	}
	if LookupIn(root, "vault debug") != nil {
		t.Error("hidden command should be skipped")
	}

	g := LookupGroup(snap, "vault")
	if g == nil || g.Desc != "Manage vaults." {
		t.Fatalf("group = %+v", g)
	}

	purge := Lookup(snap, "vault purge")
	if purge == nil || purge.DeprecateInfo == nil || !purge.DeprecateInfo.Hide {
		t.Fatalf("deprecated command = %+v", purge)
	}

	create := Lookup(snap, "vault create")
	if create == nil {
		t.Fatal("vault create missing")
	}
	if !create.SupportsNoWait {
		t.Error("supports_no_wait not detected")
	}
	if len(create.Examples) != 2 || create.Examples[0].Name != "Create a vault" {
		t.Errorf("examples = %+v", create.Examples)
	}

	name := create.Parameter("name")
	if name == nil {
		t.Fatal("name parameter missing")
	}
	if !name.Required {
		t.Error("name should be required")
	}
	if got := name.Options; len(got) != 2 || got[0] != "--name" || got[1] != "-n" {
		t.Errorf("options = %v", got)
	}
	if name.Type != TypeString {
		t.Errorf("type = %q", name.Type)
	}

	loc := create.Parameter("location")
	if loc.Default != "eastus" || !loc.HasCompleter {
		t.Errorf("location = %+v", loc)
	}
	if r := create.Parameter("retention"); r.Type != TypeInt || r.Default != nil {
		t.Errorf("retention = %+v", r)
	}
	if p := create.Parameter("no_wait"); p == nil || p.Type != TypeBool {
		t.Errorf("no_wait = %+v", p)
	}
	if p := create.Parameter("sku"); p == nil || p.DeprecateInfo == nil {
		t.Errorf("deprecated flag = %+v", p)
	}
	if create.Parameter("internal") != nil {
		t.Error("hidden flag should be skipped")
	}
	if create.Parameter("help") != nil {
		t.Error("help flag should be skipped")
	}
}

func TestExtractCobra_EmptyTree(t *testing.T) {
	snap := ExtractCobra(&cobra.Command{Use: "bare"}, "bare", ExtractOptions{})
	if g := snap["bare"]; g == nil || len(g.Commands) != 0 {
		t.Fatalf("snapshot = %+v", snap)
	}
}
