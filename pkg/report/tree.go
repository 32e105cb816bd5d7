package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pterm/pterm"

	"github.com/CliForge/clidiff/pkg/changes"
)

// TreeNode is a group or command with the records attached to it.
type TreeNode struct {
	Name     string                 `json:"name"`
	Changes  []changes.ChangeRecord `json:"changes,omitempty"`
	Children []*TreeNode            `json:"children,omitempty"`
}

func (n *TreeNode) child(name string) *TreeNode {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	c := &TreeNode{Name: name}
	n.Children = append(n.Children, c)
	return c
}

func (n *TreeNode) sort() {
	sort.SliceStable(n.Children, func(i, j int) bool { return n.Children[i].Name < n.Children[j].Name })
	for _, c := range n.Children {
		c.sort()
	}
}

// BuildTree places each record under the groups named by the prefixes of its
// command. Group records attach to the group node itself.
func BuildTree(records []changes.ChangeRecord) *TreeNode {
	root := &TreeNode{Name: "az"}
	for _, r := range records {
		tokens := strings.Fields(r.Command)
		node := root
		for i := 1; i <= len(tokens); i++ {
			node = node.child(strings.Join(tokens[:i], " "))
		}
		node.Changes = append(node.Changes, r)
	}
	root.sort()
	return root
}

// RenderTree draws the tree with pterm.
func RenderTree(root *TreeNode) (string, error) {
	out, err := pterm.DefaultTree.WithRoot(toPterm(root)).Srender()
	if err != nil {
		return "", fmt.Errorf("failed to render tree: %w", err)
	}
	return out, nil
}

func toPterm(n *TreeNode) pterm.TreeNode {
	node := pterm.TreeNode{Text: n.Name}
	for _, r := range n.Changes {
		text := fmt.Sprintf("%s %s", r.ChangeType, summaryOf(r))
		if r.Detail.Parameter != "" {
			text = fmt.Sprintf("%s [%s] %s", r.ChangeType, r.Detail.Parameter, summaryOf(r))
		}
		if r.IsBreaking() {
			text += " (breaking: " + r.Rule + ")"
		}
		node.Children = append(node.Children, pterm.TreeNode{Text: text})
	}
	for _, c := range n.Children {
		node.Children = append(node.Children, toPterm(c))
	}
	return node
}

// TreeFormatter renders records with RenderTree.
type TreeFormatter struct{}

func (f *TreeFormatter) Name() string { return FormatTree }

func (f *TreeFormatter) Format(w io.Writer, records []changes.ChangeRecord) error {
	out, err := RenderTree(BuildTree(records))
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, out)
	return err
}
