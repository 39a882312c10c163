// ABOUTME: MCP tool definitions and registration for the chat session server
// ABOUTME: Exposes one session's send, history, and transcript operations as tools
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/chatdesk/internal/core"
)

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, session *core.Session) *Handlers {
	handlers := NewHandlers(session)

	// 1. send_message - Ask the backend a question in the active conversation
	server.AddTool(mcp.Tool{
		Name:        "send_message",
		Description: "Send a question to the chat backend in the active conversation. Uses the current routing mode unless mode is given.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"message": map[string]any{
					"type":        "string",
					"description": "Question to send",
				},
				"mode": map[string]any{
					"type":        "string",
					"description": "Optional routing mode: sql (database query) or pdf (SOP document)",
					"enum":        []string{"sql", "pdf"},
				},
			},
			Required: []string{"message"},
		},
	}, handlers.SendMessage)

	// 2. new_conversation - Start a fresh conversation
	server.AddTool(mcp.Tool{
		Name:        "new_conversation",
		Description: "Start a new conversation with an empty transcript. Any answer still in flight is discarded.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, handlers.NewConversation)

	// 3. list_conversations - Summaries of past conversations, newest first
	server.AddTool(mcp.Tool{
		Name:        "list_conversations",
		Description: "List the user's past conversations, newest first, with the first question as a snippet.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"limit": map[string]any{
					"type":        "number",
					"description": "Maximum number of conversations to return (default: 20)",
					"default":     20,
				},
			},
		},
	}, handlers.ListConversations)

	// 4. open_conversation - Make a past conversation active
	server.AddTool(mcp.Tool{
		Name:        "open_conversation",
		Description: "Open a past conversation by id, or by its 1-based position in the last list_conversations result, and load its transcript.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"conversation_id": map[string]any{
					"type":        "string",
					"description": "Conversation ID to open",
				},
				"index": map[string]any{
					"type":        "number",
					"description": "1-based position in the last listing",
				},
			},
		},
	}, handlers.OpenConversation)

	// 5. set_mode - Change the routing mode
	server.AddTool(mcp.Tool{
		Name:        "set_mode",
		Description: "Set the routing mode for later messages: sql (database query) or pdf (SOP document).",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"mode": map[string]any{
					"type":        "string",
					"description": "Routing mode",
					"enum":        []string{"sql", "pdf"},
				},
			},
			Required: []string{"mode"},
		},
	}, handlers.SetMode)

	// 6. get_transcript - The active conversation as it stands
	server.AddTool(mcp.Tool{
		Name:        "get_transcript",
		Description: "Get the active conversation's id, mode, pending flag, and transcript.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, handlers.GetTranscript)

	// 7. get_timeline - Every turn grouped by calendar day
	server.AddTool(mcp.Tool{
		Name:        "get_timeline",
		Description: "Get all of the user's turns grouped by calendar day, oldest day first.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, handlers.GetTimeline)

	return handlers
}
