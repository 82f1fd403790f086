package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "List configured regions and their endpoints.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CODE\tNAME\tENDPOINTS")
		for _, r := range c.cfg.DomainRegions() {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Code, r.Name, strings.Join(r.Endpoints, ", "))
		}
		return tw.Flush()
	},
}
