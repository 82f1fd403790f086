package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/aussiebroadwan/geohop/internal/client/domain"
	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe <region>",
	Short: "Probe every endpoint of a region and show which one would be selected.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		region, err := c.region(args[0])
		if err != nil {
			return err
		}

		results := c.selector.Rank(cmd.Context(), region)
		best, selErr := c.selector.Select(cmd.Context(), region)

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ENDPOINT\tSTATUS\tLATENCY\tVERSION\t")
		for _, r := range results {
			marker := ""
			if selErr == nil && r.Endpoint == best.Endpoint {
				marker = "*"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Endpoint, r.Status, r.Latency.Round(time.Millisecond), relayVersion(r), marker)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		return selErr
	},
}

func relayVersion(r domain.ProbeResult) string {
	if r.Metadata == nil || r.Metadata.Version == "" {
		return "-"
	}
	return r.Metadata.Version
}
