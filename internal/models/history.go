// ABOUTME: Stored exchange records and the per-conversation summaries derived from them
// ABOUTME: HistoryRecord is read-only input; it is never built by the session core
package models

import (
	"strings"
	"time"
)

// ConversationID groups turns into one logical conversation
type ConversationID string

// IsZero reports whether the id is absent (legacy records have none)
func (id ConversationID) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}

// Short returns the first 8 characters, for table output
func (id ConversationID) Short() string {
	if len(id) <= 8 {
		return string(id)
	}
	return string(id[:8])
}

// HistoryRecord is one stored question/answer exchange as returned by the backend.
// Any field may be empty; a zero Timestamp means it was missing or unparseable.
type HistoryRecord struct {
	ConversationID ConversationID `json:"conversation_id" yaml:"conversation_id"`
	Username       string         `json:"user" yaml:"user"`
	UserQuestion   string         `json:"user_question" yaml:"user_question"`
	BotAnswer      string         `json:"bot" yaml:"bot"`
	Timestamp      time.Time      `json:"created_at" yaml:"created_at"`
}

// HasQuestion reports whether the record carries a non-blank user question
func (r HistoryRecord) HasQuestion() bool {
	return strings.TrimSpace(r.UserQuestion) != ""
}

// UntitledSnippet labels conversations without any user question
const UntitledSnippet = "untitled conversation"

// ConversationSummary is the browsing entry for one conversation
type ConversationSummary struct {
	ConversationID ConversationID `json:"conversation_id"`
	OwnerName      string         `json:"user"`
	CreatedAt      time.Time      `json:"created_at"`
	Snippet        string         `json:"snippet"`
}
