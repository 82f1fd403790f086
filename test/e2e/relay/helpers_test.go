package relay_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/aussiebroadwan/geohop/internal/relay/app"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Helpers for relay end-to-end tests: a real redis in a container and
 * in-process relays sharing it.
 */

const redisImage = "redis:7-alpine"

// setupRedis starts redis in a container and returns its address.
func setupRedis(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        redisImage,
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor: wait.ForLog("Ready to accept connections").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	mappedPort, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, mappedPort.Port())
}

// startRelay runs a relay for region backed by the redis at addr and returns
// its base URL.
func startRelay(t *testing.T, region, redisAddr string) string {
	t.Helper()

	application, err := app.New(app.Config{
		Region:              region,
		Country:             region,
		SessionStore:        "redis",
		RedisAddr:           redisAddr,
		Env:                 "test",
		LogLevel:            "warn",
		LogFormat:           "json",
		ShutdownGracePeriod: 5 * time.Second,
		SweepInterval:       time.Hour,
		UpstreamTimeout:     5 * time.Second,
	})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Serve(ctx, ln) }()

	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})

	return "http://" + ln.Addr().String()
}
