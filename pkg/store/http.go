package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public container holding per-version snapshots.
const DefaultBaseURL = "https://azcmdchangemgmt.blob.core.windows.net/cmd-metadata-per-version"

// DefaultIndexFile is the name of the index file at the container root.
const DefaultIndexFile = "version_list.txt"

// HTTPStore reads snapshots from a plain HTTP blob container.
type HTTPStore struct {
	BaseURL   string
	IndexFile string
	Client    *http.Client
	Logger    *slog.Logger
}

// NewHTTPStore returns a store rooted at baseURL.
func NewHTTPStore(baseURL, indexFile string, timeout time.Duration, logger *slog.Logger) *HTTPStore {
	if indexFile == "" {
		indexFile = DefaultIndexFile
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &HTTPStore{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		IndexFile: indexFile,
		Client:    &http.Client{Timeout: timeout},
		Logger:    logger,
	}
}

func (s *HTTPStore) Index(ctx context.Context) ([]string, error) {
	data, err := s.Fetch(ctx, s.IndexFile)
	if err != nil {
		return nil, err
	}
	return parseIndex(data), nil
}

func (s *HTTPStore) Fetch(ctx context.Context, name string) ([]byte, error) {
	u, err := s.url(name)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "clidiff")

	s.Logger.Debug("fetching", "url", u)
	resp, err := s.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, u)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", u, err)
	}
	return data, nil
}

func (s *HTTPStore) url(name string) (string, error) {
	base, err := url.Parse(s.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", s.BaseURL, err)
	}
	return base.JoinPath(strings.Split(name, "/")...).String(), nil
}

func (s *HTTPStore) client() *http.Client {
	if s.Client == nil {
		return http.DefaultClient
	}
	return s.Client
}
