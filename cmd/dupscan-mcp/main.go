package main

import (
	"fmt"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/pflag"

	"github.com/ludo-technologies/dupscan/internal/config"
	"github.com/ludo-technologies/dupscan/internal/version"
	"github.com/ludo-technologies/dupscan/mcp"
)

const serverName = "dupscan"

func main() {
	configPath := pflag.StringP("config", "c", "", "Configuration file (default: discover .dupscan.toml from the working directory)")
	verbose := pflag.BoolP("verbose", "v", false, "Enable debug logging")
	pflag.Parse()

	// stdout carries JSON-RPC, so every log goes to stderr
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, path, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	server := mcpserver.NewMCPServer(
		serverName,
		version.Short(),
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithLogging(),
	)

	mcp.RegisterTools(server, mcp.NewHandlerSet(mcp.NewDependencies(cfg, path, logger)))

	logger.Info("starting MCP server",
		"name", serverName, "version", version.Short(), "config", path,
		"tools", []string{"find_near_duplicates", "compare_documents", "band_parameters"})

	// Blocks until the client disconnects
	if err := mcpserver.ServeStdio(server); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.LoadConfig(path)
		return cfg, path, err
	}
	return config.NewTomlConfigLoader().LoadConfig(".")
}
