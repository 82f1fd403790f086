package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aussiebroadwan/geohop/internal/client/config"
	"github.com/aussiebroadwan/geohop/internal/client/domain"
	"github.com/aussiebroadwan/geohop/internal/client/service"
	"github.com/aussiebroadwan/geohop/pkg/relaysdk"
	"github.com/aussiebroadwan/geohop/pkg/slogx"
	"github.com/aussiebroadwan/geohop/pkg/tokenx"
	"github.com/spf13/cobra"
)

const version = "v0.1.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "geohop",
	Short:         "Connect through the best relay of a region and keep the session fresh.",
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       version,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the config file (default: geohop.yaml in . or ./configs).")
	rootCmd.AddCommand(regionsCmd, probeCmd, connectCmd, benchCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// client bundles everything a command needs.
type client struct {
	cfg      *config.Config
	logger   *slog.Logger
	relay    *relaysdk.Client
	selector *service.EndpointSelector
}

func newClient() (*client, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := slogx.New(slogx.Config{
		Service: "geohop",
		Version: version,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Output:  os.Stderr,
	})

	relay := relaysdk.NewClient()
	relay.UserAgent = "geohop/" + version

	return &client{
		cfg:    cfg,
		logger: logger,
		relay:  relay,
		selector: &service.EndpointSelector{
			Prober: &service.HealthProbe{Client: relay, Timeout: cfg.ProbeTimeout()},
			Logger: logger,
		},
	}, nil
}

func (c *client) region(code string) (domain.Region, error) {
	r, ok := c.cfg.DomainRegions().Lookup(code)
	if !ok {
		return domain.Region{}, fmt.Errorf("%w: %s", domain.ErrUnknownRegion, code)
	}
	return r, nil
}

func (c *client) manager(onEvent func(domain.Event)) (*service.ConnectionManager, error) {
	return service.NewConnectionManager(service.Options{
		Regions:          c.cfg.DomainRegions(),
		Selector:         c.selector,
		Minter:           tokenx.NewIssuer(c.cfg.TokenDuration()),
		Handshaker:       c.relay,
		RefreshBuffer:    c.cfg.RefreshBuffer(),
		HandshakeTimeout: c.cfg.HandshakeTimeout(),
		Logger:           c.logger,
		OnEvent:          onEvent,
	})
}
