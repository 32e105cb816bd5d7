package lint

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Exclusions suppress rules per command and per parameter, in the layout of
// linter_exclusions.yml:
//
//	vm create:
//	  rule_exclusions:
//	  - missing_command_help
//	  parameters:
//	    ids:
//	      rule_exclusions:
//	      - option_length_too_long
type Exclusions map[string]*CommandExclusion

// CommandExclusion lists the rules skipped for one command and its parameters.
type CommandExclusion struct {
	RuleExclusions []string                       `yaml:"rule_exclusions,omitempty"`
	Parameters     map[string]*ParameterExclusion `yaml:"parameters,omitempty"`
}

// ParameterExclusion lists the rules skipped for one parameter.
type ParameterExclusion struct {
	RuleExclusions []string `yaml:"rule_exclusions,omitempty"`
}

// LoadExclusions reads an exclusion file.
func LoadExclusions(path string) (Exclusions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read exclusions: %w", err)
	}
	var ex Exclusions
	if err := yaml.Unmarshal(data, &ex); err != nil {
		return nil, fmt.Errorf("failed to parse exclusions %s: %w", path, err)
	}
	if ex == nil {
		ex = Exclusions{}
	}
	return ex, nil
}

// MergeExclusions appends every rule of right into left and returns left.
// Lists are concatenated as is; repeated rule names are kept.
func MergeExclusions(left, right Exclusions) Exclusions {
	if left == nil {
		left = Exclusions{}
	}
	for command, rc := range right {
		if rc == nil {
			continue
		}
		lc := left[command]
		if lc == nil {
			lc = &CommandExclusion{}
			left[command] = lc
		}
		lc.RuleExclusions = append(lc.RuleExclusions, rc.RuleExclusions...)
		for param, rp := range rc.Parameters {
			if rp == nil {
				continue
			}
			if lc.Parameters == nil {
				lc.Parameters = make(map[string]*ParameterExclusion)
			}
			lp := lc.Parameters[param]
			if lp == nil {
				lp = &ParameterExclusion{}
				lc.Parameters[param] = lp
			}
			lp.RuleExclusions = append(lp.RuleExclusions, rp.RuleExclusions...)
		}
	}
	return left
}

// Excludes reports whether rule is suppressed for command, or for its
// parameter when param is set.
func (e Exclusions) Excludes(command, param, rule string) bool {
	c := e[command]
	if c == nil {
		return false
	}
	if param == "" {
		return contains(c.RuleExclusions, rule)
	}
	p := c.Parameters[param]
	return p != nil && contains(p.RuleExclusions, rule)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
