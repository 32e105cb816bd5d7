package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CliForge/clidiff/pkg/lint"
	"github.com/CliForge/clidiff/pkg/meta"
)

func newLintCmd(a *app) *cobra.Command {
	var (
		metaFile       string
		baseFile       string
		exclusionFiles []string
		rules          []string
		checkLinks     bool
		currentVersion string
		minExamples    int
		outputType     string
	)

	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Check a metadata snapshot against help and naming rules",
		Long: `Check every command of a metadata snapshot against the lint rules.

Rules:
  ` + strings.Join(lint.Rules(), "\n  ") + `

Exclusion files use the linter_exclusions.yml layout and are merged in
the order given. --base-meta-file enables missing_examples_from_added_command.
The command fails when a high severity violation remains.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputType != "text" && outputType != "json" {
				return fmt.Errorf("unsupported output type %q: use text or json", outputType)
			}
			doc, err := meta.ReadDocument(metaFile)
			if err != nil {
				return err
			}

			exclusions := lint.Exclusions{}
			for _, f := range exclusionFiles {
				ex, err := lint.LoadExclusions(f)
				if err != nil {
					return err
				}
				exclusions = lint.MergeExclusions(exclusions, ex)
			}

			l := &lint.Linter{
				Exclusions:     exclusions,
				Only:           rules,
				CurrentVersion: currentVersion,
				Logger:         a.logger,
			}
			if checkLinks {
				l.Links = lint.NewLinkChecker(a.cfg.HTTP.Timeout)
			}

			violations, err := l.Lint(cmd.Context(), doc.Snapshot)
			if err != nil {
				return err
			}
			if baseFile != "" {
				base, err := meta.ReadDocument(baseFile)
				if err != nil {
					return err
				}
				violations = append(violations, l.LintAdded(base.Snapshot, doc.Snapshot, minExamples)...)
			}

			if outputType == "json" {
				if violations == nil {
					violations = []lint.Violation{}
				}
				if err := writeJSON(cmd.OutOrStdout(), violations); err != nil {
					return err
				}
			} else {
				for _, v := range violations {
					fmt.Fprintln(cmd.OutOrStdout(), v.String())
				}
			}

			high := 0
			for _, v := range violations {
				if v.Severity == lint.SeverityHigh {
					high++
				}
			}
			if high > 0 {
				return fmt.Errorf("%d high severity lint violations", high)
			}
			notices(cmd).Success("No high severity lint violations")
			return nil
		},
	}

	cmd.Flags().StringVar(&metaFile, "meta-file", "", "Metadata snapshot to lint")
	cmd.Flags().StringVar(&baseFile, "base-meta-file", "", "Older snapshot, for rules over added commands")
	cmd.Flags().StringArrayVar(&exclusionFiles, "exclusions", nil, "Exclusion file (repeatable)")
	cmd.Flags().StringSliceVar(&rules, "rules", nil, "Only run these rules")
	cmd.Flags().BoolVar(&checkLinks, "check-links", false, "Probe links found in help text")
	cmd.Flags().StringVar(&currentVersion, "current-version", "", "Version deprecation expirations are compared to")
	cmd.Flags().IntVar(&minExamples, "min-examples", 1, "Examples required for added commands")
	cmd.Flags().StringVarP(&outputType, "output-type", "o", "text", "Output type: text or json")
	_ = cmd.MarkFlagRequired("meta-file")

	return cmd
}
