package meta

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"
)

// Indent is the indentation used for every persisted snapshot.
const Indent = "    "

// ConfigError reports a snapshot file that is missing or cannot be decoded.
// It is fatal for the invocation that hit it.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("snapshot %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Document is a decoded snapshot file. Raw keeps the generic JSON form the
// structural diff runs on; Snapshot is the typed view used for lookups.
type Document struct {
	Path     string
	Raw      any
	Snapshot Snapshot
}

// ReadDocument loads a snapshot file. Errors are *ConfigError.
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	doc.Path = path
	return doc, nil
}

// LoadSnapshot reads a snapshot file into its typed form.
func LoadSnapshot(path string) (Snapshot, error) {
	doc, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}
	return doc.Snapshot, nil
}

// ParseDocument decodes snapshot bytes. Comments and trailing commas are
// tolerated.
func ParseDocument(data []byte) (*Document, error) {
	clean := jsonc.ToJSON(data)

	var raw any
	if err := json.Unmarshal(clean, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	snap, err := parseSnapshot(clean, raw)
	if err != nil {
		return nil, err
	}
	return &Document{Raw: raw, Snapshot: snap}, nil
}

// ParseSnapshot decodes snapshot bytes into the typed form only.
func ParseSnapshot(data []byte) (Snapshot, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}
	return doc.Snapshot, nil
}

// parseSnapshot accepts either a module map or a single module root group,
// the latter recognised by its own commands or sub_groups keys.
func parseSnapshot(clean []byte, raw any) (Snapshot, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, errors.New("snapshot root must be a JSON object")
	}

	_, hasCommands := obj["commands"]
	_, hasGroups := obj["sub_groups"]
	if hasCommands || hasGroups {
		root := NewGroup("")
		if err := json.Unmarshal(clean, root); err != nil {
			return nil, fmt.Errorf("failed to decode module: %w", err)
		}
		fixGroup(root)
		return Snapshot{root.ModuleName: root}, nil
	}

	snap := make(Snapshot, len(obj))
	if err := json.Unmarshal(clean, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	for module, g := range snap {
		if g == nil {
			return nil, fmt.Errorf("module %q: root group is null", module)
		}
		if g.ModuleName == "" {
			g.ModuleName = module
		}
		fixGroup(g)
	}
	return snap, nil
}

// fixGroup replaces nil maps and drops null commands, groups and
// parameters so traversal never has to check.
func fixGroup(g *GroupNode) {
	if g.Commands == nil {
		g.Commands = make(map[string]*CommandNode)
	}
	if g.SubGroups == nil {
		g.SubGroups = make(map[string]*GroupNode)
	}
	for name, cmd := range g.Commands {
		if cmd == nil {
			delete(g.Commands, name)
			continue
		}
		params := make([]*ParameterNode, 0, len(cmd.Parameters))
		for _, p := range cmd.Parameters {
			if p != nil {
				params = append(params, p)
			}
		}
		cmd.Parameters = params
	}
	for name, sub := range g.SubGroups {
		if sub == nil {
			delete(g.SubGroups, name)
			continue
		}
		fixGroup(sub)
	}
}

// Generic converts a snapshot to the decoded-JSON form the structural diff
// expects.
func Generic(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return out, nil
}

// Marshal encodes v with the 4-space indentation used for snapshot files.
// Map keys are emitted in sorted order, so output is stable.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", Indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteSnapshot writes the whole snapshot as a module map.
func WriteSnapshot(path string, s Snapshot) error {
	return writeJSON(path, s)
}

// ModuleFileName returns the conventional file name of a module snapshot.
func ModuleFileName(module string) string {
	return "az_" + module + "_meta.json"
}

// WriteModuleFiles writes one file per module into dir, each holding the
// module's root group. It returns the written paths in module order.
func WriteModuleFiles(dir string, s Snapshot) ([]string, error) {
	var paths []string
	for _, module := range s.Modules() {
		p := filepath.Join(dir, ModuleFileName(module))
		if err := writeJSON(p, s[module]); err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func writeJSON(path string, v any) error {
	data, err := Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
