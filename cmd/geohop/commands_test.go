package main

import (
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/geohop/internal/client/store/drivers/sqlite"
	"github.com/aussiebroadwan/geohop/internal/relay/app"
	"github.com/stretchr/testify/require"
)

// startRelay serves an in-memory reference relay for region.
func startRelay(t *testing.T, region string) string {
	t.Helper()

	application, err := app.New(app.Config{
		Region:              region,
		Country:             region,
		SessionStore:        "memory",
		Env:                 "test",
		LogLevel:            "error",
		LogFormat:           "json",
		ShutdownGracePeriod: time.Second,
		SweepInterval:       time.Hour,
		UpstreamTimeout:     time.Second,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(application.Handler())
	t.Cleanup(srv.Close)
	return srv.URL
}

// writeRegions writes a config with one endpoint per region code.
func writeRegions(t *testing.T, endpoints map[string]string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("log_level: error\nregions:\n")
	for code, ep := range endpoints {
		fmt.Fprintf(&b, "  - code: %s\n    endpoints:\n      - %s\n", code, ep)
	}
	path := filepath.Join(t.TempDir(), "geohop.yaml")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

func TestConnectCommand(t *testing.T) {
	us := startRelay(t, "US")
	de := startRelay(t, "DE")
	path := writeRegions(t, map[string]string{"US": us, "DE": de})

	t.Run("switches region and disconnects when interrupted", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()

		out, err := runContext(t, ctx, "connect", "US",
			"--config", path, "--switch-to", "DE", "--switch-after", "20ms")
		require.NoError(t, err)

		require.Equal(t, 2, strings.Count(out, "connected: session="), out)
		require.Contains(t, out, "country=US")
		require.Contains(t, out, "country=DE")
		require.Contains(t, out, "interrupted, disconnecting")

		// connected US, disconnected US, connected DE, disconnected DE.
		var events []string
		for _, line := range strings.Split(out, "\n") {
			fields := strings.Fields(line)
			if len(fields) >= 3 && strings.HasPrefix(fields[2], "region=") {
				events = append(events, fields[1]+" "+fields[2])
			}
		}
		require.Equal(t, []string{
			"connected region=US",
			"disconnected region=US",
			"connected region=DE",
			"disconnected region=DE",
		}, events)
	})

	t.Run("unknown switch target fails", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		_, err := runContext(t, ctx, "connect", "US",
			"--config", path, "--switch-to", "ZZ", "--switch-after", "1ms")
		require.ErrorContains(t, err, "ZZ")
	})
}

func TestBenchCommand(t *testing.T) {
	us := startRelay(t, "US")
	path := writeRegions(t, map[string]string{"US": us})
	history := filepath.Join(t.TempDir(), "bench.db")

	out, err := run(t, "bench", "US",
		"--config", path, "-n", "3", "--pause", "0s", "--history", history)
	require.NoError(t, err)
	require.Contains(t, out, "region US: 3/3 succeeded (100%)")
	require.Contains(t, out, "avg connect")

	st, err := sqlite.Open(history)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ListRuns(context.Background(), "US", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, 3, runs[0].Iterations)
	require.Equal(t, 3, runs[0].Successes)

	saved, err := st.GetRun(context.Background(), runs[0].ID)
	require.NoError(t, err)
	require.Len(t, saved.Results, 3)
	for _, it := range saved.Results {
		require.Empty(t, it.Error)
	}
}
