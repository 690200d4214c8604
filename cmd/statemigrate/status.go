package main

import (
	"fmt"

	migrate "github.com/goliatone/go-state-migrate"
	"github.com/spf13/cobra"
)

func newStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored version and the migrations still pending",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loaded, _, ok, err := a.store.Load(cmd.Context())
			if err != nil {
				return err
			}
			runner, err := a.runner(false)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			pending := runner.Pending(loaded)
			if !ok {
				fmt.Fprintf(out, "state:   %s (missing)\n", a.opts.State)
			} else {
				fmt.Fprintf(out, "state:   %s\n", a.opts.State)
			}
			fmt.Fprintf(out, "version: %d\n", migrate.VersionOf(loaded))
			fmt.Fprintf(out, "latest:  %d\n", runner.Latest())
			if len(pending) == 0 {
				fmt.Fprintln(out, "pending: none")
				return nil
			}
			fmt.Fprintf(out, "pending: %s\n", versionList(pending))
			for _, mig := range pending {
				fmt.Fprintf(out, "  %d %s\n", mig.Version, mig.Name)
			}
			return nil
		},
	}
}
