package store

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleName(t *testing.T) {
	tests := []struct {
		file   string
		module string
		ok     bool
	}{
		{"az_network_meta.json", "network", true},
		{"azure-cli-2.61.0/az_vm_meta.json", "vm", true},
		{"az_data_boxedge_meta.json", "data_boxedge", true},
		{"network_meta.json", "", false},
		{"az_network_meta.json.bak", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			module, ok := ModuleName(tt.file)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.module, module)
		})
	}
}

func TestVersionFiles(t *testing.T) {
	index := []string{
		"azure-cli-2.61.0/az_vm_meta.json",
		"azure-cli-2.61.0/az_network_meta.json",
		"azure-cli-2.61.0/readme.txt",
		"azure-cli-2.61.0/nested/az_acr_meta.json",
		"azure-cli-2.62.0/az_vm_meta.json",
		" azure-cli-2.61.0/az_acr_meta.json ",
	}
	files := VersionFiles(index, "azure-cli-", "2.61.0")
	require.Len(t, files, 3)
	assert.Equal(t, "acr", files[0].Module)
	assert.Equal(t, "network", files[1].Module)
	assert.Equal(t, VersionFile{Module: "vm", Name: "azure-cli-2.61.0/az_vm_meta.json", Base: "az_vm_meta.json"}, files[2])

	assert.Empty(t, VersionFiles(index, "azure-cli-", "2.63.0"))
	assert.Equal(t, "azure-cli-2.62.0/az_vm_meta.json", FileName("azure-cli-", "2.62.0", "az_vm_meta.json"))
}

func TestRemoteFetchError(t *testing.T) {
	err := &RemoteFetchError{Version: "2.61.0", Name: "azure-cli-2.61.0/az_vm_meta.json", Err: ErrNotFound}
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "az_vm_meta.json")

	idx := &RemoteFetchError{Version: "2.61.0", Err: errors.New("boom")}
	assert.Equal(t, "failed to fetch index for version 2.61.0: boom", idx.Error())
}

func newBlobServer(t *testing.T, files map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPStore(t *testing.T) {
	srv := newBlobServer(t, map[string]string{
		"/meta/version_list.txt":                  "azure-cli-2.61.0/az_vm_meta.json\n\nazure-cli-2.62.0/az_vm_meta.json\n",
		"/meta/azure-cli-2.61.0/az_vm_meta.json": `{"module_name": "vm"}`,
	})
	s := NewHTTPStore(srv.URL+"/meta/", "", 0, nil)
	ctx := context.Background()

	index, err := s.Index(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"azure-cli-2.61.0/az_vm_meta.json", "azure-cli-2.62.0/az_vm_meta.json"}, index)

	data, err := s.Fetch(ctx, "azure-cli-2.61.0/az_vm_meta.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"module_name": "vm"}`, string(data))

	_, err = s.Fetch(ctx, "azure-cli-2.62.0/az_vm_meta.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPStore_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewHTTPStore(srv.URL, "index.txt", 0, nil)
	_, err := s.Index(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "500")
}

func writeFile(t *testing.T, root, name, body string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0644))
}

func TestDirStore_ListsWithoutIndex(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "azure-cli-2.61.0/az_vm_meta.json", "{}")
	writeFile(t, root, "azure-cli-2.61.0/az_acr_meta.json", "{}")
	writeFile(t, root, "azure-cli-2.61.0/notes.txt", "x")

	s := &DirStore{Root: root}
	ctx := context.Background()
	index, err := s.Index(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"azure-cli-2.61.0/az_acr_meta.json", "azure-cli-2.61.0/az_vm_meta.json"}, index)

	_, err = s.Fetch(ctx, "azure-cli-2.62.0/az_vm_meta.json")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Fetch(ctx, "../outside.json")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestDirStore_UsesIndex(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "version_list.txt", "azure-cli-2.61.0/az_vm_meta.json\n")
	writeFile(t, root, "azure-cli-2.61.0/az_acr_meta.json", "{}")

	index, err := (&DirStore{Root: root}).Index(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"azure-cli-2.61.0/az_vm_meta.json"}, index)
}

type countingStore struct {
	files   map[string]string
	fetches int
}

func (s *countingStore) Index(context.Context) ([]string, error) {
	return []string{"a/az_x_meta.json"}, nil
}

func (s *countingStore) Fetch(_ context.Context, name string) ([]byte, error) {
	s.fetches++
	body, ok := s.files[name]
	if !ok {
		return nil, ErrNotFound
	}
	return []byte(body), nil
}

func TestCache(t *testing.T) {
	c, err := NewCache(t.TempDir())
	require.NoError(t, err)

	_, err = c.Get("a/az_x_meta.json")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set("a/az_x_meta.json", []byte("{}")))
	data, err := c.Get("a/az_x_meta.json")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	p, err := c.Path("a/az_x_meta.json")
	require.NoError(t, err)
	assert.FileExists(t, p)

	assert.Error(t, c.Set("../escape", []byte("x")))

	require.NoError(t, c.Clear())
	_, err = c.Get("a/az_x_meta.json")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCachedStore(t *testing.T) {
	c, err := NewCache(t.TempDir())
	require.NoError(t, err)
	backend := &countingStore{files: map[string]string{"a/az_x_meta.json": "{}"}}
	ctx := context.Background()

	fresh := &CachedStore{Store: backend, Cache: c}
	_, err = fresh.Fetch(ctx, "a/az_x_meta.json")
	require.NoError(t, err)
	_, err = fresh.Fetch(ctx, "a/az_x_meta.json")
	require.NoError(t, err)
	assert.Equal(t, 2, backend.fetches, "without use_cache every fetch reaches the backend")

	cached := &CachedStore{Store: backend, Cache: c, UseCache: true}
	data, err := cached.Fetch(ctx, "a/az_x_meta.json")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
	assert.Equal(t, 2, backend.fetches)

	_, err = cached.Fetch(ctx, "a/az_y_meta.json")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 3, backend.fetches)

	index, err := cached.Index(ctx)
	require.NoError(t, err)
	assert.Len(t, index, 1)
}
