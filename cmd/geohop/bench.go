package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aussiebroadwan/geohop/internal/client/domain"
	"github.com/aussiebroadwan/geohop/internal/client/service"
	"github.com/aussiebroadwan/geohop/internal/client/store"
	"github.com/aussiebroadwan/geohop/internal/client/store/drivers/sqlite"
	"github.com/spf13/cobra"
)

var (
	benchIterations int
	benchPause      time.Duration
	benchHistory    string
)

var benchCmd = &cobra.Command{
	Use:   "bench <region>",
	Short: "Run repeated connect/disconnect cycles and report latency and success rate.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if benchIterations <= 0 {
			return fmt.Errorf("iterations must be positive, got %d", benchIterations)
		}

		c, err := newClient()
		if err != nil {
			return err
		}
		mgr, err := c.manager(nil)
		if err != nil {
			return err
		}
		defer mgr.Disconnect()

		runner := &service.BenchmarkRunner{
			Manager: mgr,
			Pause:   benchPause,
			Logger:  c.logger,
			Request: func(ctx context.Context) error {
				sess, ok := mgr.Session()
				if !ok {
					return domain.ErrNotConnected
				}
				_, err := c.relay.IP(ctx, sess.Endpoint, sess.Token.Raw, sess.ID)
				return err
			},
		}

		report, err := runner.Run(cmd.Context(), args[0], benchIterations)
		printReport(cmd.OutOrStdout(), report)
		if err != nil {
			return err
		}

		if benchHistory != "" {
			return saveReport(cmd.Context(), benchHistory, report)
		}
		return nil
	},
}

func init() {
	benchCmd.Flags().IntVarP(&benchIterations, "iterations", "n", 5, "Number of connect/disconnect cycles.")
	benchCmd.Flags().DurationVar(&benchPause, "pause", time.Second, "Pause between iterations.")
	benchCmd.Flags().StringVar(&benchHistory, "history", "", "SQLite file to record the run in.")
}

func printReport(w io.Writer, r service.BenchmarkReport) {
	for _, it := range r.Results {
		status := "ok"
		if !it.OK() {
			status = it.Err.Error()
		}
		fmt.Fprintf(w, "#%d  connect=%-8s request=%-8s %s\n",
			it.N, it.Connect.Round(time.Millisecond), it.Request.Round(time.Millisecond), status)
	}
	fmt.Fprintf(w, "\nregion %s: %d/%d succeeded (%.0f%%)\n", r.Region, r.Successes, r.Iterations, r.SuccessRate*100)
	if r.Successes > 0 {
		fmt.Fprintf(w, "avg connect %s, avg request %s\n", r.AvgConnect.Round(time.Millisecond), r.AvgRequest.Round(time.Millisecond))
	}
}

func saveReport(ctx context.Context, path string, r service.BenchmarkReport) error {
	history, err := sqlite.Open(path)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer history.Close()

	if err := history.ApplyMigrations(); err != nil {
		return fmt.Errorf("migrate history: %w", err)
	}

	run := &store.BenchmarkRun{
		Region:      r.Region,
		StartedAt:   r.StartedAt,
		Iterations:  r.Iterations,
		Successes:   r.Successes,
		SuccessRate: r.SuccessRate,
		AvgConnect:  r.AvgConnect,
		AvgRequest:  r.AvgRequest,
	}
	for _, it := range r.Results {
		rec := store.IterationRecord{N: it.N, Connect: it.Connect, Request: it.Request}
		if it.Err != nil {
			rec.Error = it.Err.Error()
		}
		run.Results = append(run.Results, rec)
	}

	return history.SaveRun(ctx, run)
}
