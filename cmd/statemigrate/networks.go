package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/goliatone/go-state-migrate/pkg/wallet"
	"github.com/spf13/cobra"
)

func newNetworksCommand(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "networks",
		Short: "List the networks of the migrated state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, migrated, _, err := a.preview(cmd)
			if err != nil {
				return err
			}
			networks, err := wallet.Networks(migrated)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(networks)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tID\tNAME\tON\tPRIMARY\tSECONDARY")
			for _, network := range networks {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%t\t%s\t%s\n",
					network.Type, network.ID, network.Name, network.On,
					network.Connection.Primary.Current, network.Connection.Secondary.Current)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print networks as JSON")
	return cmd
}
