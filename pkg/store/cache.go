package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// Cache keeps fetched files on disk under their relative names.
type Cache struct {
	Dir string
}

// DefaultCacheDir returns the xdg cache directory of the tool.
func DefaultCacheDir() string {
	return filepath.Join(xdg.CacheHome, "clidiff")
}

// NewCache returns a cache rooted at dir, or at DefaultCacheDir when dir is
// empty.
func NewCache(dir string) (*Cache, error) {
	if dir == "" {
		dir = DefaultCacheDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{Dir: dir}, nil
}

// Get returns a cached file or ErrCacheMiss.
func (c *Cache) Get(name string) ([]byte, error) {
	p, err := safeJoin(c.Dir, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	return data, nil
}

// Set stores a file.
func (c *Cache) Set(name string, data []byte) error {
	p, err := safeJoin(c.Dir, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := os.WriteFile(p, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

// Path returns where name is cached.
func (c *Cache) Path(name string) (string, error) {
	return safeJoin(c.Dir, name)
}

// Clear removes every cached file.
func (c *Cache) Clear() error {
	if err := os.RemoveAll(c.Dir); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return os.MkdirAll(c.Dir, 0755)
}

// CachedStore serves files from Cache when UseCache is set and writes every
// fetched file back to it. The index is always fetched fresh.
type CachedStore struct {
	Store    Store
	Cache    *Cache
	UseCache bool
	Logger   *slog.Logger
}

func (s *CachedStore) Index(ctx context.Context) ([]string, error) {
	return s.Store.Index(ctx)
}

func (s *CachedStore) Fetch(ctx context.Context, name string) ([]byte, error) {
	if s.Cache != nil && s.UseCache {
		data, err := s.Cache.Get(name)
		if err == nil {
			s.logger().Debug("cache hit", "name", name)
			return data, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			return nil, err
		}
	}

	data, err := s.Store.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		if err := s.Cache.Set(name, data); err != nil {
			s.logger().Warn("failed to cache file", "name", name, "error", err)
		}
	}
	return data, nil
}

func (s *CachedStore) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}
