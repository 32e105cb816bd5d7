package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DirStore reads snapshots from a local directory laid out like the remote
// container. Without an index file the directory tree is listed instead.
type DirStore struct {
	Root      string
	IndexFile string
}

func (s *DirStore) Index(ctx context.Context) ([]string, error) {
	data, err := s.Fetch(ctx, s.indexFile())
	if err == nil {
		return parseIndex(data), nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	var names []string
	err = filepath.WalkDir(s.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		rel, err := filepath.Rel(s.Root, p)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.Root, err)
	}
	sort.Strings(names)
	return names, nil
}

func (s *DirStore) Fetch(_ context.Context, name string) ([]byte, error) {
	p, err := safeJoin(s.Root, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p, err)
	}
	return data, nil
}

func (s *DirStore) indexFile() string {
	if s.IndexFile == "" {
		return DefaultIndexFile
	}
	return s.IndexFile
}

// safeJoin joins a slash-separated relative name onto root, refusing names
// that escape it.
func safeJoin(root, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return filepath.Join(root, clean), nil
}
