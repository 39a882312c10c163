// ABOUTME: MCP command starts a Model Context Protocol server over stdio
// ABOUTME: Lets LLM agents chat with the backend through one session
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/harper/chatdesk/internal/mcp"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs chatdesk as an MCP (Model Context Protocol) server over stdio so agents
can send questions, switch modes, and browse past conversations on
behalf of the resolved user. Logs go to stderr; stdout carries the
protocol.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically launched by an MCP client)
  chatdesk mcp --user alice

  # Client configuration:
  # {
  #   "mcpServers": {
  #     "chatdesk": {
  #       "command": "chatdesk",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	session, err := a.newSession(a.backend())
	if err != nil {
		return err
	}

	server := mcpserver.NewMCPServer("chatdesk", versionInfo.Version)
	mcp.RegisterTools(server, session)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("username", session.Username()).Msg("MCP server starting on stdio")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}
	return nil
}
