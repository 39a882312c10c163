// ABOUTME: Standalone MCP server exposing a chat session over stdio
// ABOUTME: Configured entirely from the environment for agent launchers
package main

import (
	"os"

	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/harper/chatdesk/internal/backend"
	"github.com/harper/chatdesk/internal/config"
	"github.com/harper/chatdesk/internal/core"
	"github.com/harper/chatdesk/internal/mcp"
	"github.com/harper/chatdesk/internal/storage/sqlite"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup runs before exiting
func run() int {
	// Load .env file if it exists
	_ = godotenv.Load()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("load config")
		return 1
	}
	zerolog.SetGlobalLevel(cfg.Level())

	if cfg.Username == "" {
		log.Error().Msg("CHATDESK_USERNAME must be set for the standalone server")
		return 1
	}

	var b core.Backend = backend.NewClient(cfg.Backend())
	if cfg.CacheEnabled {
		db, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			log.Warn().Err(err).Msg("Local cache unavailable")
		} else {
			defer db.Close()
			b = sqlite.NewCachingBackend(b, sqlite.NewRecordStore(db))
		}
	}

	session := core.NewSession(b, cfg.Username,
		core.WithMode(cfg.InitialMode()),
		core.WithGrouper(core.NewGrouper(cfg.Location())),
		core.WithLogger(log.Logger),
	)

	server := mcpserver.NewMCPServer("chatdesk", "0.1.0")
	mcp.RegisterTools(server, session)

	log.Info().Str("username", cfg.Username).Str("backend", cfg.BackendURL).Msg("chatdesk MCP server starting on stdio")
	if err := mcpserver.ServeStdio(server); err != nil {
		log.Error().Err(err).Msg("server error")
		return 1
	}
	return 0
}
