package main

import (
	"github.com/spf13/cobra"

	"github.com/CliForge/clidiff/pkg/changes"
	"github.com/CliForge/clidiff/pkg/meta"
	"github.com/CliForge/clidiff/pkg/report"
)

func newExampleDiffCmd(a *app) *cobra.Command {
	var (
		baseFile    string
		diffFile    string
		minExamples int
		outputFile  string
	)

	cmd := &cobra.Command{
		Use:   "cmd-example-diff",
		Short: "List added and removed commands with their example counts",
		Long: `List the commands removed from the base snapshot and the commands
added in the diff snapshot, with their parameter and example counts.

With --min-examples, only added commands having fewer examples are listed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			before, err := meta.ReadDocument(baseFile)
			if err != nil {
				return err
			}
			after, err := meta.ReadDocument(diffFile)
			if err != nil {
				return err
			}

			items := changes.CommandExampleDiff(before.Snapshot, after.Snapshot)
			if minExamples > 0 {
				items = changes.MissingExamples(items, minExamples)
			}
			if items == nil {
				items = []changes.CommandExamples{}
			}
			a.logger.Info("command example diff", "commands", len(items))

			if outputFile != "" {
				return report.WriteJSONFile(outputFile, items)
			}
			return writeJSON(cmd.OutOrStdout(), items)
		},
	}

	cmd.Flags().StringVar(&baseFile, "base-meta-file", "", "Older metadata snapshot")
	cmd.Flags().StringVar(&diffFile, "diff-meta-file", "", "Newer metadata snapshot")
	cmd.Flags().IntVar(&minExamples, "min-examples", 0, "Only list added commands with fewer examples")
	cmd.Flags().StringVar(&outputFile, "output-file", "", "Write output to a file instead of stdout")
	_ = cmd.MarkFlagRequired("base-meta-file")
	_ = cmd.MarkFlagRequired("diff-meta-file")

	return cmd
}
