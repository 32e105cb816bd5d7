package main

import (
	"github.com/spf13/cobra"

	"github.com/CliForge/clidiff/pkg/meta"
)

func newExportMetaCmd(a *app) *cobra.Command {
	var (
		outputDir   string
		withHelp    bool
		withExample bool
	)

	cmd := &cobra.Command{
		Use:   "export-meta",
		Short: "Write the metadata snapshot of clidiff itself",
		Long: `Extract the command metadata of this tool's own command tree and write
it as az_clidiff_meta.json into the output directory. Two exports from
different builds can be compared with meta-diff.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap := meta.ExtractCobra(cmd.Root(), "clidiff", meta.ExtractOptions{
				WithHelp:    withHelp,
				WithExample: withExample,
				Logger:      a.logger,
			})
			paths, err := meta.WriteModuleFiles(outputDir, snap)
			if err != nil {
				return err
			}
			for _, p := range paths {
				notices(cmd).Success("Wrote %s", p)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outputDir, "output-dir", ".", "Directory to write the snapshot into")
	cmd.Flags().BoolVar(&withHelp, "with-help", false, "Include command and parameter help")
	cmd.Flags().BoolVar(&withExample, "with-example", false, "Include command examples")

	return cmd
}
