// Fraud scoring gateway - scores card transactions with Gemini and a heuristic fallback
package main

import (
	"context"
	"net/http"
	"os"

	"github.com/mbd888/fraudgate/internal/config"
	"github.com/mbd888/fraudgate/internal/logging"
	"github.com/mbd888/fraudgate/internal/scoring"
	"github.com/mbd888/fraudgate/internal/server"
	"github.com/mbd888/fraudgate/internal/toolclient"
	"github.com/mbd888/fraudgate/internal/traces"
)

const service = "gateway"

// Build info - set by ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	cfg, err := config.Load(config.DefaultGatewayPort)
	if err != nil {
		logging.New(service, "info", "json").Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(service, cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting fraud gateway",
		"version", Version,
		"commit", Commit,
		"build_time", BuildTime,
	)
	logger.Info("configuration loaded",
		"env", cfg.Env,
		"tool_base_url", cfg.Gateway.ToolBaseURL,
		"vertex_enabled", cfg.Gateway.VertexEnabled(),
		"studio_configured", cfg.Gateway.GoogleAPIKey != "",
		"force_studio", cfg.Gateway.ForceStudio,
	)

	ctx := context.Background()
	shutdownTraces, err := traces.Init(ctx, service, cfg.OTLPEndpoint, logger)
	if err != nil {
		logger.Error("failed to init tracing", "error", err)
		os.Exit(1)
	}

	tools := toolclient.New(cfg.Gateway.ToolBaseURL, cfg.Gateway.ContextTimeout)

	policy := scoring.Policy{
		Primary:        scoring.NewVertexBackend(cfg.Gateway),
		Secondary:      scoring.NewStudioBackend(cfg.Gateway, &http.Client{Transport: traces.Transport(nil)}),
		ForceSecondary: cfg.Gateway.ForceStudio,
		AttemptTimeout: cfg.Gateway.BackendTimeout,
	}

	svc, err := scoring.NewService(tools, policy,
		scoring.WithLogger(logger),
		scoring.WithTimeouts(cfg.Gateway.ContextTimeout, cfg.Gateway.FlagTimeout),
	)
	if err != nil {
		logger.Error("failed to create scoring service", "error", err)
		os.Exit(1)
	}

	srv := server.New(service, cfg, server.WithLogger(logger))
	srv.Health().RegisterPing("tool_proxy", tools.Ping)
	scoring.NewHandler(svc).RegisterRoutes(srv.Router())

	srv.OnShutdown("flag_notifications", svc.WaitForFlags)
	srv.OnShutdown("tracing", shutdownTraces)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
