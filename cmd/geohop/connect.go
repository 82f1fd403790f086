package main

import (
	"fmt"
	"io"
	"time"

	"github.com/aussiebroadwan/geohop/internal/client/domain"
	"github.com/aussiebroadwan/geohop/pkg/relaysdk"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	switchTo    string
	switchAfter time.Duration
)

var connectCmd = &cobra.Command{
	Use:   "connect <region>",
	Short: "Connect to a region and keep the session refreshed until interrupted.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		mgr, err := c.manager(func(e domain.Event) {
			fmt.Fprintf(out, "%s  %-13s region=%s endpoint=%s session=%s\n",
				e.At.Format(time.TimeOnly), e.Type, e.Region, e.Endpoint, e.SessionID)
			if e.Err != nil {
				fmt.Fprintf(out, "          reason: %v\n", e.Err)
			}
		})
		if err != nil {
			return err
		}
		defer mgr.Disconnect()

		ack, err := mgr.Connect(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printAck(out, ack)

		g, ctx := errgroup.WithContext(cmd.Context())
		if switchTo != "" {
			g.Go(func() error {
				select {
				case <-time.After(switchAfter):
				case <-ctx.Done():
					return nil
				}
				ack, err := mgr.SwitchRegion(ctx, switchTo)
				if err != nil {
					return fmt.Errorf("switch to %s: %w", switchTo, err)
				}
				printAck(out, ack)
				return nil
			})
		}
		g.Go(func() error {
			<-ctx.Done()
			return nil
		})

		err = g.Wait()
		if err == nil && cmd.Context().Err() != nil {
			fmt.Fprintln(out, "interrupted, disconnecting")
		}
		return err
	},
}

func init() {
	connectCmd.Flags().StringVar(&switchTo, "switch-to", "", "Region to switch to after --switch-after.")
	connectCmd.Flags().DurationVar(&switchAfter, "switch-after", 30*time.Second, "Delay before switching regions.")
}

func printAck(w io.Writer, ack *relaysdk.ConnectResponse) {
	fmt.Fprintf(w, "connected: session=%s ip=%s country=%s expires=%s\n",
		ack.SessionID, ack.IP, ack.Country, ack.ExpiresAt.Format(time.RFC3339))
}
