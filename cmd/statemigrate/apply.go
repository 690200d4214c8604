package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	migrate "github.com/goliatone/go-state-migrate"
	"github.com/goliatone/go-state-migrate/pkg/state"
	"github.com/spf13/cobra"
)

func newApplyCommand(a *app) *cobra.Command {
	var (
		dryRun     bool
		reportPath string
	)
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Migrate the state file in place",
		Long: `apply upgrades the state file to the latest schema version and saves it.
A missing file is created. Files already at the latest version are left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				report migrate.Report
				err    error
			)
			if dryRun {
				_, _, report, err = a.preview(cmd)
			} else {
				var runner *migrate.Runner
				runner, err = a.runner(true)
				if err == nil {
					_, report, _, err = state.Upgrader{Store: a.store, Migrator: runner}.Upgrade(cmd.Context())
				}
			}
			if err != nil {
				return err
			}

			writeSummary(cmd.OutOrStdout(), a.opts.State, report, dryRun)
			if reportPath != "" {
				return writeReport(cmd.OutOrStdout(), reportPath, report)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "migrate in memory without saving")
	cmd.Flags().StringVar(&reportPath, "report", "", "write the migration report as JSON to this path (- for stdout)")
	return cmd
}

func writeSummary(w io.Writer, path string, report migrate.Report, dryRun bool) {
	if !report.Changed() {
		fmt.Fprintf(w, "%s is up to date at version %d\n", path, report.To)
		return
	}
	verb := "migrated"
	if dryRun {
		verb = "would migrate"
	}
	fmt.Fprintf(w, "%s %s from version %d to %d\n", verb, path, report.From, report.To)
	for _, step := range report.Steps {
		if step.Skipped {
			fmt.Fprintf(w, "  %d %s: skipped\n", step.Version, step.Name)
			continue
		}
		fmt.Fprintf(w, "  %d %s: +%d ~%d -%d\n", step.Version, step.Name, len(step.Added), len(step.Changed), len(step.Removed))
	}
}

func writeReport(stdout io.Writer, path string, report migrate.Report) error {
	payload, err := report.ToJSON()
	if err != nil {
		return fmt.Errorf("statemigrate: encode report: %w", err)
	}
	if path == "-" {
		_, err = fmt.Fprintln(stdout, string(payload))
		return err
	}
	if err := os.WriteFile(path, append(payload, '\n'), 0o644); err != nil {
		return fmt.Errorf("statemigrate: write report: %w", err)
	}
	return nil
}

func versionList(migrations []migrate.Migration) string {
	parts := make([]string, 0, len(migrations))
	for _, mig := range migrations {
		parts = append(parts, strconv.Itoa(mig.Version))
	}
	return strings.Join(parts, ", ")
}
