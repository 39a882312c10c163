// ABOUTME: Wire types for the chat backend's JSON payloads
// ABOUTME: Decodes timestamps leniently so malformed values never fail a request
package backend

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/harper/chatdesk/internal/models"
)

// timestampLayouts are tried in order; the backend emits RFC 1123 (GMT)
var timestampLayouts = []string{
	time.RFC1123,
	time.RFC1123Z,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999",
}

// flexTime accepts any timestamp representation and falls back to zero
type flexTime struct {
	time.Time
}

func (ft *flexTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] != '"' {
		if secs, err := strconv.ParseFloat(string(data), 64); err == nil {
			ft.Time = time.Unix(int64(secs), 0).UTC()
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	ft.Time = parseTimestamp(s)
	return nil
}

// parseTimestamp returns the zero time when s matches no known layout
func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// errorBody is the backend's failure envelope
type errorBody struct {
	Error string `json:"error"`
}

type chatRequest struct {
	Command        string `json:"command"`
	Username       string `json:"username"`
	ConversationID string `json:"conversation_id"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// conversationRow is one row of GET /chat/conversation/{id}
type conversationRow struct {
	User         string   `json:"user"`
	Bot          string   `json:"bot"`
	UserQuestion string   `json:"user_question"`
	CreatedAt    flexTime `json:"created_at"`
}

func (r conversationRow) record(id models.ConversationID) models.HistoryRecord {
	return models.HistoryRecord{
		ConversationID: id,
		Username:       r.User,
		UserQuestion:   r.UserQuestion,
		BotAnswer:      r.Bot,
		Timestamp:      r.CreatedAt.Time,
	}
}

// userHistoryRow is one row of GET /history/user/{username}
type userHistoryRow struct {
	ConversationID string   `json:"conversation_id"`
	Snippet        string   `json:"first_message_snippet"`
	UserQuestion   string   `json:"user_question"`
	Bot            string   `json:"bot"`
	User           string   `json:"user"`
	CreatedAt      flexTime `json:"created_at"`
}

func (r userHistoryRow) record() models.HistoryRecord {
	question := r.UserQuestion
	if question == "" {
		question = r.Snippet
	}
	return models.HistoryRecord{
		ConversationID: models.ConversationID(r.ConversationID),
		Username:       r.User,
		UserQuestion:   question,
		BotAnswer:      r.Bot,
		Timestamp:      r.CreatedAt.Time,
	}
}

// adminHistoryRow is one entry of GET /admin/history
type adminHistoryRow struct {
	UserID         string   `json:"user_id"`
	Message        string   `json:"message"`
	Timestamp      flexTime `json:"timestamp"`
	ConversationID string   `json:"conversation_id"`
	UserQuestion   string   `json:"user_question"`
}

func (r adminHistoryRow) record() models.HistoryRecord {
	return models.HistoryRecord{
		ConversationID: models.ConversationID(r.ConversationID),
		Username:       r.UserID,
		UserQuestion:   r.UserQuestion,
		BotAnswer:      r.Message,
		Timestamp:      r.Timestamp.Time,
	}
}

type adminHistoryResponse struct {
	History []adminHistoryRow `json:"history"`
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type loginResponse struct {
	Message string      `json:"message"`
	User    models.User `json:"user"`
}

type messageResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename,omitempty"`
}

type tablesResponse struct {
	Tables []string `json:"tables"`
}
