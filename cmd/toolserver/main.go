// Tool proxy - fronts the user and transaction-history services for the gateway
package main

import (
	"context"
	"database/sql"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	"github.com/mbd888/fraudgate/internal/config"
	"github.com/mbd888/fraudgate/internal/logging"
	"github.com/mbd888/fraudgate/internal/realtime"
	"github.com/mbd888/fraudgate/internal/server"
	"github.com/mbd888/fraudgate/internal/toolproxy"
	"github.com/mbd888/fraudgate/internal/traces"
)

const service = "toolserver"

// Build info - set by ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	cfg, err := config.Load(config.DefaultToolServerPort)
	if err != nil {
		logging.New(service, "info", "json").Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(service, cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting tool proxy",
		"version", Version,
		"commit", Commit,
		"build_time", BuildTime,
	)
	logger.Info("configuration loaded",
		"env", cfg.Env,
		"users_api", cfg.ToolProxy.UsersAPI,
		"txn_api", cfg.ToolProxy.TransactionsAPI,
		"review_queue", storeKind(cfg),
	)

	ctx := context.Background()
	shutdownTraces, err := traces.Init(ctx, service, cfg.OTLPEndpoint, logger)
	if err != nil {
		logger.Error("failed to init tracing", "error", err)
		os.Exit(1)
	}

	srv := server.New(service, cfg, server.WithLogger(logger))

	store, err := openStore(ctx, cfg, srv)
	if err != nil {
		logger.Error("failed to open review queue", "error", err)
		os.Exit(1)
	}
	srv.Health().RegisterPing("review_queue", store.Ping)

	hub := realtime.NewHub(logger)
	srv.Go(hub.Run)

	upstream := toolproxy.NewUpstream(cfg.ToolProxy.UsersAPI, cfg.ToolProxy.TransactionsAPI, cfg.ToolProxy.UpstreamTimeout)
	svc, err := toolproxy.NewService(upstream, store,
		toolproxy.WithNotifier(hub),
		toolproxy.WithLogger(logger),
	)
	if err != nil {
		logger.Error("failed to create tool service", "error", err)
		os.Exit(1)
	}

	router := srv.Router()
	toolproxy.NewHandler(svc).RegisterRoutes(router)
	router.GET("/ws", gin.WrapF(hub.HandleWebSocket))
	router.Any("/mcp", gin.WrapH(toolproxy.NewMCPHTTPHandler(toolproxy.NewMCPServer(svc, Version))))

	srv.OnShutdown("tracing", shutdownTraces)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func storeKind(cfg *config.Config) string {
	if cfg.ToolProxy.DatabaseURL != "" {
		return "postgres"
	}
	return "memory"
}

// openStore returns the PostgreSQL review queue when DATABASE_URL is set,
// the in-memory one otherwise.
func openStore(ctx context.Context, cfg *config.Config, srv *server.Server) (toolproxy.Store, error) {
	if cfg.ToolProxy.DatabaseURL == "" {
		return toolproxy.NewMemoryStore(), nil
	}

	db, err := sql.Open("postgres", cfg.ToolProxy.DatabaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	store := toolproxy.NewPostgresStore(db)
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	srv.OnShutdown("database", func(context.Context) error { return db.Close() })
	return store, nil
}
