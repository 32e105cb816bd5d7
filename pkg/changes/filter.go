package changes

import (
	"fmt"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// FilterBreaking keeps the records a breaking rule matched.
func FilterBreaking(records []ChangeRecord) []ChangeRecord {
	out := make([]ChangeRecord, 0, len(records))
	for _, r := range records {
		if r.IsBreaking() {
			out = append(out, r)
		}
	}
	return out
}

// FilterSeverity keeps records at or above floor.
func FilterSeverity(records []ChangeRecord, floor Severity) []ChangeRecord {
	out := make([]ChangeRecord, 0, len(records))
	for _, r := range records {
		if r.Severity.rank() >= floor.rank() {
			out = append(out, r)
		}
	}
	return out
}

// IsBreaking reports whether any record is breaking.
func IsBreaking(records []ChangeRecord) bool {
	for _, r := range records {
		if r.IsBreaking() {
			return true
		}
	}
	return false
}

// GroupByCommand groups records by command name.
func GroupByCommand(records []ChangeRecord) map[string][]ChangeRecord {
	groups := make(map[string][]ChangeRecord)
	for _, r := range records {
		groups[r.Command] = append(groups[r.Command], r)
	}
	return groups
}

// GroupBySeverity groups records by severity.
func GroupBySeverity(records []ChangeRecord) map[Severity][]ChangeRecord {
	groups := make(map[Severity][]ChangeRecord)
	for _, r := range records {
		groups[r.Severity] = append(groups[r.Severity], r)
	}
	return groups
}

// SortByModule orders records by module, then command. Records of the same
// command keep their relative order.
func SortByModule(records []ChangeRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Module != records[j].Module {
			return records[i].Module < records[j].Module
		}
		return records[i].Command < records[j].Command
	})
}

// recordEnv is the environment filter expressions are evaluated against.
type recordEnv struct {
	Module     string
	Command    string
	ChangeType string
	Kind       string
	Property   string
	Parameter  string
	Rule       string
	Severity   string
	Breaking   bool
}

func envOf(r ChangeRecord) recordEnv {
	return recordEnv{
		Module:     r.Module,
		Command:    r.Command,
		ChangeType: string(r.ChangeType),
		Kind:       string(r.Kind),
		Property:   r.Property,
		Parameter:  r.Detail.Parameter,
		Rule:       r.Rule,
		Severity:   string(r.Severity),
		Breaking:   r.IsBreaking(),
	}
}

// CompileFilter compiles a boolean expression over record fields, e.g.
// `Kind == "option_rename" && Command startsWith "vm "`.
func CompileFilter(expression string) (*vm.Program, error) {
	program, err := expr.Compile(expression, expr.Env(recordEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("failed to compile filter: %w", err)
	}
	return program, nil
}

// FilterExpr keeps the records for which expression holds. An empty
// expression keeps everything.
func FilterExpr(records []ChangeRecord, expression string) ([]ChangeRecord, error) {
	if expression == "" {
		return records, nil
	}
	program, err := CompileFilter(expression)
	if err != nil {
		return nil, err
	}

	out := make([]ChangeRecord, 0, len(records))
	for _, r := range records {
		output, err := expr.Run(program, envOf(r))
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate filter on %s: %w", r.Command, err)
		}
		if keep, ok := output.(bool); ok && keep {
			out = append(out, r)
		}
	}
	return out, nil
}
