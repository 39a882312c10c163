// ABOUTME: MCP tool handler implementations over a single chat session
// ABOUTME: Returns JSON text results; tool failures are reported as error results
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harper/chatdesk/internal/core"
	"github.com/harper/chatdesk/internal/models"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	session *core.Session

	mu      sync.Mutex
	listing []models.ConversationSummary
}

// NewHandlers creates handlers bound to session
func NewHandlers(session *core.Session) *Handlers {
	return &Handlers{session: session}
}

type turnView struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

type transcriptView struct {
	ConversationID string     `json:"conversation_id"`
	Mode           string     `json:"mode"`
	Pending        bool       `json:"pending"`
	Turns          []turnView `json:"turns"`
}

func viewOf(snap core.Snapshot) transcriptView {
	turns := make([]turnView, 0, len(snap.Transcript))
	for _, t := range snap.Transcript {
		turns = append(turns, turnView{Speaker: t.Speaker.Label(), Text: t.Text})
	}
	return transcriptView{
		ConversationID: string(snap.ConversationID),
		Mode:           string(snap.Mode),
		Pending:        snap.Pending,
		Turns:          turns,
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// SendMessage handles the send_message tool
func (h *Handlers) SendMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError("message argument is required and must be a string"), nil
	}

	var result core.SendResult
	if raw := request.GetString("mode", ""); raw != "" {
		mode, perr := models.ParseMode(raw)
		if perr != nil {
			return mcp.NewToolResultError(perr.Error()), nil
		}
		result, err = h.session.SendWithMode(ctx, mode, message)
	} else {
		result, err = h.session.Send(ctx, message)
	}
	if err != nil {
		return mcp.NewToolResultError(core.HumanMessage(err)), nil
	}

	snap := h.session.Snapshot()
	return jsonResult(map[string]any{
		"conversation_id": string(snap.ConversationID),
		"mode":            string(snap.Mode),
		"answer":          result.Answer,
		"discarded":       result.Discarded,
	})
}

// NewConversation handles the new_conversation tool
func (h *Handlers) NewConversation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := h.session.NewConversation()
	return jsonResult(map[string]any{"conversation_id": string(id)})
}

// ListConversations handles the list_conversations tool
func (h *Handlers) ListConversations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", 20)

	summaries, err := h.session.History(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to fetch history: %s", core.HumanMessage(err))), nil
	}

	h.mu.Lock()
	h.listing = summaries
	h.mu.Unlock()

	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}

	items := make([]map[string]any, 0, len(summaries))
	for i, s := range summaries {
		item := map[string]any{
			"index":           i + 1,
			"conversation_id": string(s.ConversationID),
			"owner":           s.OwnerName,
			"snippet":         s.Snippet,
		}
		if !s.CreatedAt.IsZero() {
			item["created_at"] = s.CreatedAt.Format(time.RFC3339)
		}
		items = append(items, item)
	}

	return jsonResult(map[string]any{
		"conversations": items,
		"count":         len(items),
	})
}

// OpenConversation handles the open_conversation tool
func (h *Handlers) OpenConversation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary, err := h.resolveSummary(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if _, err := h.session.SelectConversation(ctx, summary); err != nil {
		return mcp.NewToolResultError(core.HumanMessage(err)), nil
	}
	return jsonResult(viewOf(h.session.Snapshot()))
}

func (h *Handlers) resolveSummary(request mcp.CallToolRequest) (models.ConversationSummary, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if id := request.GetString("conversation_id", ""); id != "" {
		for _, s := range h.listing {
			if string(s.ConversationID) == id {
				return s, nil
			}
		}
		return models.ConversationSummary{ConversationID: models.ConversationID(id)}, nil
	}

	index := request.GetInt("index", 0)
	if index <= 0 {
		return models.ConversationSummary{}, fmt.Errorf("conversation_id or index is required")
	}
	if index > len(h.listing) {
		return models.ConversationSummary{}, fmt.Errorf("index %d out of range; call list_conversations first (have %d)", index, len(h.listing))
	}
	return h.listing[index-1], nil
}

// SetMode handles the set_mode tool
func (h *Handlers) SetMode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("mode")
	if err != nil {
		return mcp.NewToolResultError("mode argument is required and must be a string"), nil
	}
	mode, err := models.ParseMode(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := h.session.SetMode(mode); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"mode":        string(mode),
		"description": mode.Description(),
	})
}

// GetTranscript handles the get_transcript tool
func (h *Handlers) GetTranscript(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(viewOf(h.session.Snapshot()))
}

// GetTimeline handles the get_timeline tool
func (h *Handlers) GetTimeline(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	buckets, err := h.session.Timeline(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to fetch history: %s", core.HumanMessage(err))), nil
	}

	days := make([]map[string]any, 0, len(buckets))
	for _, b := range buckets {
		turns := make([]map[string]any, 0, len(b.Turns))
		for _, t := range b.Turns {
			turn := map[string]any{"speaker": t.Speaker.Label(), "text": t.Text}
			if !t.Timestamp.IsZero() {
				turn["timestamp"] = t.Timestamp.Format(time.RFC3339)
			}
			turns = append(turns, turn)
		}
		day := map[string]any{"title": b.Title(), "turns": turns}
		if !b.Unknown {
			day["date"] = b.Day.String()
		}
		days = append(days, day)
	}
	return jsonResult(map[string]any{"days": days})
}
