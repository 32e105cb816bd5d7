package changes

import "github.com/CliForge/clidiff/pkg/meta"

// CommandExamples summarizes one added or removed command.
type CommandExamples struct {
	Command      string     `json:"cmd"`
	ChangeType   ChangeType `json:"change_type"`
	ParamCount   int        `json:"param_count"`
	ExampleCount int        `json:"example_count"`
}

// CommandExampleDiff lists commands removed from before, then commands added
// in after, with their parameter and example counts taken from the side that
// has them.
func CommandExampleDiff(before, after meta.Snapshot) []CommandExamples {
	var out []CommandExamples
	visitedBefore := make(map[string]bool)
	present := make(map[string]bool)

	meta.WalkSnapshot(before, func(key string, cmd *meta.CommandNode) {
		if visitedBefore[key] {
			return
		}
		visitedBefore[key] = true
		if meta.Lookup(after, key) != nil {
			present[key] = true
			return
		}
		out = append(out, summarize(key, ChangeRemove, cmd))
	})

	meta.WalkSnapshot(after, func(key string, cmd *meta.CommandNode) {
		if present[key] {
			return
		}
		present[key] = true
		out = append(out, summarize(key, ChangeAdd, cmd))
	})
	return out
}

func summarize(name string, ct ChangeType, cmd *meta.CommandNode) CommandExamples {
	return CommandExamples{
		Command:      name,
		ChangeType:   ct,
		ParamCount:   len(cmd.Parameters),
		ExampleCount: len(cmd.Examples),
	}
}

// MissingExamples returns the added commands with fewer than minCount examples.
func MissingExamples(items []CommandExamples, minCount int) []CommandExamples {
	var out []CommandExamples
	for _, it := range items {
		if it.ChangeType == ChangeAdd && it.ExampleCount < minCount {
			out = append(out, it)
		}
	}
	return out
}
