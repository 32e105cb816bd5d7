package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CliForge/clidiff/internal/structdiff"
	"github.com/CliForge/clidiff/pkg/changes"
	"github.com/CliForge/clidiff/pkg/meta"
	"github.com/CliForge/clidiff/pkg/report"
)

func newMetaDiffCmd(a *app) *cobra.Command {
	var (
		baseFile   string
		diffFile   string
		onlyBreak  bool
		outputType string
		outputFile string
		where      string
	)

	cmd := &cobra.Command{
		Use:   "meta-diff",
		Short: "Compare two command metadata snapshot files",
		Long: `Compare two command metadata snapshots and report classified changes.

Output types:
  text   one line per change (default)
  tree   changes grouped by command group
  dict   the record list as JSON
  json   same as dict
  csv    module,cmd,change_type,property,detail,rule
  table  aligned table

--where filters records with an expression over Module, Command,
ChangeType, Kind, Property, Parameter, Rule, Severity and Breaking:
  --where 'Breaking && Property == "parameters"'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputType == "" {
				outputType = a.cfg.Output.Format
			}
			manager := report.NewManager()
			if _, err := manager.Get(outputType); err != nil {
				return err
			}
			if where != "" {
				if _, err := changes.CompileFilter(where); err != nil {
					return err
				}
			}

			before, err := meta.ReadDocument(baseFile)
			if err != nil {
				return err
			}
			after, err := meta.ReadDocument(diffFile)
			if err != nil {
				return err
			}

			diff := structdiff.Compare(before.Raw, after.Raw)
			if diff.Empty() {
				notices(cmd).Info("No meta diffs from %s to %s", diffFile, baseFile)
				return nil
			}

			res := changes.NewDetector(a.logger).Detect(diff, before.Snapshot, after.Snapshot)
			for _, w := range res.Warnings {
				a.logger.Warn(w.Message, "kind", w.Kind, "command", w.Command, "path", w.Path)
			}

			records := res.Records
			if onlyBreak {
				records = changes.FilterBreaking(records)
			}
			records, err = changes.FilterExpr(records, where)
			if err != nil {
				return err
			}
			a.logger.Info("classified changes", "records", len(records), "breaking", len(changes.FilterBreaking(records)))

			if outputFile != "" {
				if err := report.WriteFile(outputFile, records, outputType); err != nil {
					return err
				}
				notices(cmd).Success("Wrote %d changes to %s", len(records), outputFile)
				return nil
			}
			if err := manager.Format(cmd.OutOrStdout(), records, outputType); err != nil {
				return fmt.Errorf("failed to render %s output: %w", outputType, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&baseFile, "base-meta-file", "", "Older metadata snapshot")
	cmd.Flags().StringVar(&diffFile, "diff-meta-file", "", "Newer metadata snapshot")
	cmd.Flags().BoolVar(&onlyBreak, "only-break", false, "Only report breaking changes")
	cmd.Flags().StringVarP(&outputType, "output-type", "o", "", "Output type: text, tree, dict, json, csv, table")
	cmd.Flags().StringVar(&outputFile, "output-file", "", "Write output to a file instead of stdout")
	cmd.Flags().StringVar(&where, "where", "", "Filter expression over change records")
	_ = cmd.MarkFlagRequired("base-meta-file")
	_ = cmd.MarkFlagRequired("diff-meta-file")

	return cmd
}
