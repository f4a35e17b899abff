package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/mbd888/stellarbeat-mcp/internal/config"
	"github.com/mbd888/stellarbeat-mcp/internal/health"
	"github.com/mbd888/stellarbeat-mcp/internal/logging"
	"github.com/mbd888/stellarbeat-mcp/internal/mcpserver"
	"github.com/mbd888/stellarbeat-mcp/internal/monitor"
	"github.com/mbd888/stellarbeat-mcp/internal/ratelimit"
	"github.com/mbd888/stellarbeat-mcp/internal/server"
	"github.com/mbd888/stellarbeat-mcp/internal/stellarbeat"
	"github.com/mbd888/stellarbeat-mcp/internal/traces"
	"github.com/mbd888/stellarbeat-mcp/internal/workflow"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "stellarbeat-mcp",
		Short: "MCP server exposing Stellar network monitoring tools backed by the Stellarbeat API.",
		Long: `stellarbeat-mcp speaks the Model Context Protocol over stdin/stdout. It answers
questions about Stellar nodes, validators, organizations and consensus health
using the public Stellarbeat API. Logs go to stderr.`,
		SilenceUsage: true,
		Version:      version,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	f := rootCmd.Flags()
	f.String("network", config.DefaultNetwork, "Stellar network to monitor: mainnet or testnet (env STELLARBEAT_NETWORK)")
	f.String("log-level", config.DefaultLogLevel, "Log level: debug, info, warn or error (env LOG_LEVEL)")
	f.String("log-format", config.DefaultLogFormat, "Log format: text or json (env LOG_FORMAT)")
	f.String("metrics-addr", "", "Address for the /metrics and /health listener, disabled when empty (env METRICS_ADDR)")

	return rootCmd
}

// loadConfig reads the environment, then applies flags that were set
// explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	overrides := map[string]*string{
		"network":      &cfg.Network,
		"log-level":    &cfg.LogLevel,
		"log-format":   &cfg.LogFormat,
		"metrics-addr": &cfg.MetricsAddr,
	}
	for name, field := range overrides {
		if !cmd.Flags().Changed(name) {
			continue
		}
		v, err := cmd.Flags().GetString(name)
		if err != nil {
			return nil, err
		}
		*field = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// app is the wired object graph behind the stdio server.
type app struct {
	client   *stellarbeat.Client
	limiter  *ratelimit.Limiter
	service  *monitor.Service
	handlers *mcpserver.Handlers
	health   *health.Registry
}

func newApp(cfg *config.Config, logger *slog.Logger) *app {
	limiter := ratelimit.New(ratelimit.Config{Limit: cfg.RateLimitPerMinute, Window: time.Minute})
	client := stellarbeat.New(cfg.BaseURL(),
		stellarbeat.WithLimiter(limiter),
		stellarbeat.WithLogger(logger),
	)
	svc := monitor.NewService(client, monitor.WithConcurrency(cfg.RankConcurrency))

	reg := health.NewRegistry()
	reg.Register("upstream", health.UpstreamChecker("upstream", client))
	reg.Register("rate_limit", health.RateLimitChecker("rate_limit", limiter))

	return &app{
		client:   client,
		limiter:  limiter,
		service:  svc,
		handlers: mcpserver.NewHandlers(svc, workflow.New(svc), logger),
		health:   reg,
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	// stdout carries the protocol; logs must never go there.
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := traces.Init(ctx, cfg.OTLPEndpoint, version, logger)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	a := newApp(cfg, logger)
	defer a.service.Close()

	if cfg.MetricsAddr != "" {
		ops := server.New(cfg.MetricsAddr, a.health,
			server.WithLogger(logger),
			server.WithVersion(version),
		)
		go func() {
			if err := ops.Run(ctx); err != nil {
				logger.Error("ops server failed", "error", err)
			}
		}()
	}

	logger.Info("serving MCP over stdio",
		"version", version,
		"network", cfg.Network,
		"upstream", a.client.BaseURL(),
		"rate_limit_per_minute", cfg.RateLimitPerMinute,
	)

	s := mcpserver.NewMCPServer(a.handlers, version)
	if err := mcpgo.ServeStdio(s); err != nil {
		return fmt.Errorf("serve stdio: %w", err)
	}
	return nil
}
