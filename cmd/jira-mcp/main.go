package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/MankowskiNick/jira-mcp/internal/config"
	"github.com/MankowskiNick/jira-mcp/internal/jira"
	"github.com/MankowskiNick/jira-mcp/internal/tools"
)

const (
	serverName    = "jira-mcp"
	serverVersion = "1.0.0"
)

func main() {
	// Stdout carries the MCP protocol stream, so all logging goes to stderr.
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("service", serverName).Logger()

	config.LoadEnv(".env", log)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client := jira.NewClient(cfg, log)
	user, err := client.ValidateCredentials(ctx)
	if err != nil {
		log.Fatal().Err(err).Str("host", cfg.Host).Msg("credential check failed")
	}
	log.Info().
		Str("host", cfg.Host).
		Str("project", cfg.ProjectKey).
		Str("user", user.DisplayName).
		Bool("zephyr", cfg.ZephyrEnabled()).
		Msg("connected to Jira")

	s := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	tools.NewHandler(cfg, log).Register(s)

	log.Info().Msg("serving MCP over stdio")
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
