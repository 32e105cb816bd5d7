package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CliForge/clidiff/pkg/progress"
	"github.com/CliForge/clidiff/pkg/report"
	"github.com/CliForge/clidiff/pkg/store"
	"github.com/CliForge/clidiff/pkg/versiondiff"
)

func newVersionDiffCmd(a *app) *cobra.Command {
	var (
		baseVersion  string
		diffVersion  string
		onlyBreak    bool
		diffFile     string
		useCache     bool
		outputType   string
		targetModule string
		workers      int
		noProgress   bool
	)

	cmd := &cobra.Command{
		Use:   "version-diff",
		Short: "Compare every module snapshot of two published versions",
		Long: `Fetch the per-module metadata snapshots of two published versions
from the configured store and classify the changes of every module.

Modules missing from the newer version, or whose snapshot cannot be
fetched or parsed, are reported and skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputType != report.FormatDict && outputType != report.FormatCSV {
				return fmt.Errorf("unsupported output type %q: use dict or csv", outputType)
			}
			ctx := cmd.Context()
			cfg := a.cfg

			src, closeStore, err := openStore(ctx, cfg, a.logger)
			if err != nil {
				return err
			}
			defer closeStore()

			d := &versiondiff.Driver{
				Store:    src,
				UseCache: useCache,
				Prefix:   cfg.Storage.PathPrefix,
				Workers:  cfg.Workers,
				Logger:   a.logger,
			}
			if workers > 0 {
				d.Workers = workers
			}
			if cfg.Cache.Enabled || useCache {
				cache, err := store.NewCache(cfg.Cache.Dir)
				if err != nil {
					return err
				}
				d.Cache = cache
			}

			var ind progress.Indicator = progress.Noop{}
			d.Planned = func(n int) {
				ind = progress.New(progress.Config{Enabled: !noProgress, Writer: cmd.ErrOrStderr()}, n)
				_ = ind.Start(fmt.Sprintf("Comparing %s to %s", baseVersion, diffVersion))
			}
			d.Progress = func(module string) { ind.Step(module) }

			res, err := d.Run(ctx, versiondiff.Request{
				BaseVersion:  baseVersion,
				DiffVersion:  diffVersion,
				OnlyBreaking: onlyBreak,
				TargetModule: targetModule,
			})
			if err != nil {
				ind.Failure("version diff failed")
				return err
			}
			ind.Stop()

			n := notices(cmd)
			for _, note := range res.Notices {
				if note.Level == versiondiff.NoticeInfo {
					n.Info("%s", note.Message)
				} else {
					n.Warning("%s", note.Message)
				}
			}
			for _, w := range res.Warnings {
				a.logger.Warn(w.Message, "kind", w.Kind, "command", w.Command, "path", w.Path)
			}

			if diffFile != "" {
				if err := report.WriteFile(diffFile, res.Records, outputType); err != nil {
					return err
				}
				n.Success("Compared %d modules, wrote %d changes to %s", res.Compared, len(res.Records), diffFile)
				return nil
			}
			return report.NewManager().Format(cmd.OutOrStdout(), res.Records, outputType)
		},
	}

	cmd.Flags().StringVar(&baseVersion, "base-version", "", "Older published version, e.g. 2.60.0")
	cmd.Flags().StringVar(&diffVersion, "diff-version", "", "Newer published version, e.g. 2.61.0")
	cmd.Flags().BoolVar(&onlyBreak, "only-break", false, "Only report breaking changes")
	cmd.Flags().StringVar(&diffFile, "version-diff-file", "", "Write output to a file instead of stdout")
	cmd.Flags().BoolVar(&useCache, "use-cache", false, "Serve snapshots from the local cache when present")
	cmd.Flags().StringVarP(&outputType, "output-type", "o", report.FormatDict, "Output type: dict or csv")
	cmd.Flags().StringVar(&targetModule, "target-module", "", "Only compare this module")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent module comparisons (default from config)")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")
	_ = cmd.MarkFlagRequired("base-version")
	_ = cmd.MarkFlagRequired("diff-version")

	return cmd
}
