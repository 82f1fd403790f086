package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/geohop/pkg/relaysdk"
	"github.com/stretchr/testify/require"
)

func healthServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(relaysdk.HealthResponse{
			Status:    "ok",
			Version:   "v9.9.9",
			Timestamp: time.Now(),
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runContext(t, context.Background(), args...)
}

// runContext executes the CLI with ctx standing in for the signal context.
// Subcommands keep the context of their previous execution, so it is reset
// on each of them.
func runContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	for _, sub := range rootCmd.Commands() {
		sub.SetContext(ctx)
	}
	err := rootCmd.ExecuteContext(ctx)
	return out.String(), err
}

func writeConfig(t *testing.T, endpoints ...string) string {
	t.Helper()
	body := "log_level: error\nregions:\n  - code: US\n    name: United States\n    endpoints:\n"
	for _, ep := range endpoints {
		body += fmt.Sprintf("      - %s\n", ep)
	}
	path := filepath.Join(t.TempDir(), "geohop.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRegionsCommand(t *testing.T) {
	path := writeConfig(t, "http://a.example", "http://b.example")

	out, err := run(t, "regions", "--config", path)
	require.NoError(t, err)
	require.Contains(t, out, "United States")
	require.Contains(t, out, "http://a.example, http://b.example")
}

func TestProbeCommand(t *testing.T) {
	up := healthServer(t, http.StatusOK)
	down := healthServer(t, http.StatusServiceUnavailable)

	t.Run("marks the selected endpoint", func(t *testing.T) {
		out, err := run(t, "probe", "US", "--config", writeConfig(t, down.URL, up.URL))
		require.NoError(t, err)
		require.Contains(t, out, "v9.9.9")
		require.Contains(t, out, "error")
		require.Regexp(t, up.URL+`.*healthy.*\*`, out)
	})

	t.Run("fails when nothing is healthy", func(t *testing.T) {
		_, err := run(t, "probe", "US", "--config", writeConfig(t, down.URL))
		require.Error(t, err)
	})

	t.Run("unknown region", func(t *testing.T) {
		_, err := run(t, "probe", "ZZ", "--config", writeConfig(t, up.URL))
		require.ErrorContains(t, err, "ZZ")
	})
}
