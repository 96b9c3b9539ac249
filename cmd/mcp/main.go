// Tool proxy MCP server - exposes the fraud tools to LLM agents over stdio
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mbd888/fraudgate/internal/config"
	"github.com/mbd888/fraudgate/internal/logging"
	"github.com/mbd888/fraudgate/internal/toolproxy"
)

// Version is set by ldflags.
var Version = "dev"

func main() {
	cfg, err := config.Load(config.DefaultToolServerPort)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the protocol, so logs go to stderr.
	logger := logging.NewWithWriter(os.Stderr, "mcp", cfg.LogLevel, cfg.LogFormat)

	upstream := toolproxy.NewUpstream(cfg.ToolProxy.UsersAPI, cfg.ToolProxy.TransactionsAPI, cfg.ToolProxy.UpstreamTimeout)
	svc, err := toolproxy.NewService(upstream, toolproxy.NewMemoryStore(), toolproxy.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "tool service error: %v\n", err)
		os.Exit(1)
	}

	s := toolproxy.NewMCPServer(svc, Version)
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		os.Exit(1)
	}
}
