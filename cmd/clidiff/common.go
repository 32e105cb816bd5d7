package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/CliForge/clidiff/pkg/config"
	"github.com/CliForge/clidiff/pkg/store"
)

func newLogger(w io.Writer, verbose, debug bool) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case debug:
		level = slog.LevelDebug
	case verbose:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// notifier prints user-facing notices to the command's stderr.
type notifier struct {
	w io.Writer
}

func notices(cmd *cobra.Command) notifier {
	return notifier{w: cmd.ErrOrStderr()}
}

func (n notifier) Info(format string, a ...any) {
	pterm.Info.WithWriter(n.w).Printfln(format, a...)
}

func (n notifier) Warning(format string, a ...any) {
	pterm.Warning.WithWriter(n.w).Printfln(format, a...)
}

func (n notifier) Success(format string, a ...any) {
	pterm.Success.WithWriter(n.w).Printfln(format, a...)
}

// openStore builds the configured snapshot store. The returned close
// function is never nil.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, func() error, error) {
	noop := func() error { return nil }
	s := cfg.Storage
	switch s.Backend {
	case config.BackendHTTP:
		return store.NewHTTPStore(s.BaseURL, s.IndexFile, cfg.HTTP.Timeout, logger), noop, nil
	case config.BackendGCS:
		gcs, err := store.NewGCSStore(ctx, s.Bucket, s.IndexFile, s.CredentialsFile)
		if err != nil {
			return nil, noop, err
		}
		return gcs, gcs.Close, nil
	case config.BackendDir:
		return &store.DirStore{Root: s.Dir, IndexFile: s.IndexFile}, noop, nil
	}
	return nil, noop, fmt.Errorf("unknown storage backend %q", s.Backend)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	return enc.Encode(v)
}
