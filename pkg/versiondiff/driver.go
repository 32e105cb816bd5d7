// Package versiondiff compares every module snapshot of two published
// releases.
package versiondiff

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/CliForge/clidiff/internal/structdiff"
	"github.com/CliForge/clidiff/pkg/changes"
	"github.com/CliForge/clidiff/pkg/meta"
	"github.com/CliForge/clidiff/pkg/store"
)

// DefaultPrefix is the directory prefix of a release in the store.
const DefaultPrefix = "azure-cli-"

// DefaultWorkers bounds concurrent module comparisons.
const DefaultWorkers = 4

// ErrVersionNotFound is returned when the index lists no module of a version.
var ErrVersionNotFound = errors.New("version not found in index")

// Request selects the releases to compare.
type Request struct {
	BaseVersion  string
	DiffVersion  string
	OnlyBreaking bool
	// TargetModule limits the run to one module when set.
	TargetModule string
}

// NoticeLevel grades a notice.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
)

// Notice reports a module that was skipped or had nothing to report.
type Notice struct {
	Level   NoticeLevel
	Module  string
	Message string
	Err     error
}

// Result is the outcome of a run. Records are sorted by module, then command.
type Result struct {
	Records  []changes.ChangeRecord
	Warnings []changes.Warning
	Notices  []Notice
	// Compared counts the modules that were diffed.
	Compared int
}

// Driver runs version comparisons against a store.
type Driver struct {
	Store store.Store
	// Cache, when set, keeps fetched files; UseCache serves from it.
	Cache    *store.Cache
	UseCache bool
	Prefix   string
	Workers  int
	Logger   *slog.Logger
	// Progress, when set, is told about every finished module. It is called
	// from worker goroutines.
	Progress func(module string)
	// Planned, when set, receives the number of modules before work starts.
	Planned func(n int)
}

type job struct {
	module string
	base   *store.VersionFile
	diff   *store.VersionFile
}

type outcome struct {
	records  []changes.ChangeRecord
	warnings []changes.Warning
	notices  []Notice
	compared bool
}

// Run compares the two releases of req. Index failures are fatal; problems
// with a single module become notices and the module is skipped.
func (d *Driver) Run(ctx context.Context, req Request) (*Result, error) {
	logger := d.logger()
	src := d.source()
	prefix := d.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}

	index, err := src.Index(ctx)
	if err != nil {
		return nil, &store.RemoteFetchError{Version: req.BaseVersion, Err: err}
	}
	baseFiles := store.VersionFiles(index, prefix, req.BaseVersion)
	if len(baseFiles) == 0 {
		return nil, &store.RemoteFetchError{Version: req.BaseVersion, Err: ErrVersionNotFound}
	}
	diffFiles := store.VersionFiles(index, prefix, req.DiffVersion)
	if len(diffFiles) == 0 {
		return nil, &store.RemoteFetchError{Version: req.DiffVersion, Err: ErrVersionNotFound}
	}

	jobs := plan(baseFiles, diffFiles, req.TargetModule)
	logger.Info("comparing versions", "base", req.BaseVersion, "diff", req.DiffVersion, "modules", len(jobs))

	if d.Planned != nil {
		d.Planned(len(jobs))
	}
	outcomes := make([]outcome, len(jobs))
	detector := changes.NewDetector(logger)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers())
	for i, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = d.compare(gctx, src, detector, req, j)
			if d.Progress != nil {
				d.Progress(j.module)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{}
	for _, o := range outcomes {
		res.Records = append(res.Records, o.records...)
		res.Warnings = append(res.Warnings, o.warnings...)
		res.Notices = append(res.Notices, o.notices...)
		if o.compared {
			res.Compared++
		}
	}
	changes.SortByModule(res.Records)
	return res, nil
}

// plan pairs base and diff files by module, in module order. Modules that
// only exist in the diff release are paired with no base.
func plan(base, diff []store.VersionFile, target string) []job {
	byModule := make(map[string]*store.VersionFile, len(diff))
	for i := range diff {
		byModule[diff[i].Module] = &diff[i]
	}

	var jobs []job
	seen := make(map[string]bool, len(base))
	for i := range base {
		b := &base[i]
		seen[b.Module] = true
		if target != "" && b.Module != target {
			continue
		}
		jobs = append(jobs, job{module: b.Module, base: b, diff: byModule[b.Module]})
	}
	for i := range diff {
		f := &diff[i]
		if seen[f.Module] || (target != "" && f.Module != target) {
			continue
		}
		jobs = append(jobs, job{module: f.Module, diff: f})
	}
	return jobs
}

func (d *Driver) compare(ctx context.Context, src store.Store, detector *changes.Detector, req Request, j job) outcome {
	var o outcome
	if j.diff == nil {
		o.notices = append(o.notices, Notice{
			Level:   NoticeWarning,
			Module:  j.module,
			Message: fmt.Sprintf("Module %s removed for %s", j.module, req.DiffVersion),
		})
		return o
	}

	after, err := d.load(ctx, src, req.DiffVersion, j.diff)
	if err != nil {
		o.notices = append(o.notices, failure(j.module, err))
		return o
	}

	var res *changes.Result
	if j.base == nil {
		res, err = detector.CompareSnapshots(meta.Snapshot{}, after.Snapshot)
		if err != nil {
			o.notices = append(o.notices, failure(j.module, err))
			return o
		}
	} else {
		before, err := d.load(ctx, src, req.BaseVersion, j.base)
		if err != nil {
			o.notices = append(o.notices, failure(j.module, err))
			return o
		}
		diff := structdiff.Compare(before.Raw, after.Raw)
		if diff.Empty() {
			o.notices = append(o.notices, Notice{
				Level:   NoticeInfo,
				Module:  j.module,
				Message: fmt.Sprintf("No meta diffs from version: %s/%s for module: %s", req.DiffVersion, j.base.Base, j.module),
			})
			return o
		}
		res = detector.Detect(diff, before.Snapshot, after.Snapshot)
	}

	o.compared = true
	o.warnings = res.Warnings
	records := res.Records
	if req.OnlyBreaking {
		records = changes.FilterBreaking(records)
	}
	for i := range records {
		records[i].Module = j.module
	}
	o.records = records
	return o
}

func (d *Driver) load(ctx context.Context, src store.Store, version string, f *store.VersionFile) (*meta.Document, error) {
	data, err := src.Fetch(ctx, f.Name)
	if err != nil {
		return nil, &store.RemoteFetchError{Version: version, Name: f.Name, Err: err}
	}
	doc, err := meta.ParseDocument(data)
	if err != nil {
		return nil, &meta.ConfigError{Path: f.Name, Err: err}
	}
	doc.Path = f.Name
	return doc, nil
}

func failure(module string, err error) Notice {
	return Notice{Level: NoticeWarning, Module: module, Message: err.Error(), Err: err}
}

func (d *Driver) source() store.Store {
	if d.Cache == nil {
		return d.Store
	}
	return &store.CachedStore{Store: d.Store, Cache: d.Cache, UseCache: d.UseCache, Logger: d.Logger}
}

func (d *Driver) workers() int {
	if d.Workers <= 0 {
		return DefaultWorkers
	}
	return d.Workers
}

func (d *Driver) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return d.Logger
}
