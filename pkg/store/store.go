// Package store fetches published metadata snapshots.
//
// A store exposes an index, one relative file name per line, and the files it
// names. Snapshot files of a release live under "<prefix><version>/" and are
// named "az_<module>_meta.json":
//
//	azure-cli-2.61.0/az_network_meta.json
//	azure-cli-2.61.0/az_vm_meta.json
//
// Backends exist for plain HTTP blob containers, Google Cloud Storage buckets
// and local directories. CachedStore keeps fetched files in the xdg cache.
package store

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when a store has no file under a name.
	ErrNotFound = errors.New("not found")
	// ErrCacheMiss is returned when a cache has no entry under a name.
	ErrCacheMiss = errors.New("cache miss")
)

// Store lists and fetches snapshot files.
type Store interface {
	// Index returns the relative names of every published file.
	Index(ctx context.Context) ([]string, error)
	// Fetch returns the content of one file.
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// RemoteFetchError reports a failure to fetch an index or a module file.
type RemoteFetchError struct {
	Version string
	Name    string
	Err     error
}

func (e *RemoteFetchError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("failed to fetch index for version %s: %v", e.Version, e.Err)
	}
	return fmt.Sprintf("failed to fetch %s for version %s: %v", e.Name, e.Version, e.Err)
}

func (e *RemoteFetchError) Unwrap() error {
	return e.Err
}

var moduleFileRe = regexp.MustCompile(`^az_(.+)_meta\.json$`)

// ModuleName extracts the module from a snapshot file name. It reports false
// for names that do not follow the az_<module>_meta.json convention.
func ModuleName(file string) (string, bool) {
	m := moduleFileRe.FindStringSubmatch(path.Base(file))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// VersionFile is one snapshot file of a release.
type VersionFile struct {
	Module string
	// Name is the index entry, e.g. "azure-cli-2.61.0/az_vm_meta.json".
	Name string
	// Base is the file name without its directory.
	Base string
}

// VersionFiles selects the module files of version from an index, sorted by
// module.
func VersionFiles(index []string, prefix, version string) []VersionFile {
	dir := prefix + version + "/"
	var out []VersionFile
	for _, entry := range index {
		entry = strings.TrimSpace(entry)
		if !strings.HasPrefix(entry, dir) {
			continue
		}
		base := strings.TrimPrefix(entry, dir)
		if strings.Contains(base, "/") {
			continue
		}
		module, ok := ModuleName(base)
		if !ok {
			continue
		}
		out = append(out, VersionFile{Module: module, Name: entry, Base: base})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Module < out[j].Module })
	return out
}

// FileName joins a version directory and a base file name.
func FileName(prefix, version, base string) string {
	return prefix + version + "/" + base
}

// parseIndex splits an index file into its non-empty lines.
func parseIndex(data []byte) []string {
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			out = append(out, line)
		}
	}
	return out
}
