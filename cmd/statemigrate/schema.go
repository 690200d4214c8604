package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/goliatone/go-state-migrate/tree"
	"github.com/spf13/cobra"
)

func newSchemaCommand(a *app) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Describe the leaf paths and value types of the state",
		Long: `schema prints every leaf path of the migrated state with its value type.
Use --raw to describe the file as stored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loaded, migrated, _, err := a.preview(cmd)
			if err != nil {
				return err
			}
			target := migrated
			if raw {
				target = loaded
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, field := range tree.Describe(target) {
				fmt.Fprintf(tw, "%s\t%s\n", field.Path, field.Type)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "describe the stored state without migrating it")
	return cmd
}
