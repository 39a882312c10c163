// ABOUTME: Routing mode types deciding which backend capability answers a message
// ABOUTME: Defines the chat command wire format sent to the backend
package models

import (
	"fmt"
	"strings"
)

// Mode is the routing tag prefixed to every outgoing question
type Mode string

const (
	// ModeSQL routes the question to structured-data lookup
	ModeSQL Mode = "sql"

	// ModeDocument routes the question to document lookup
	ModeDocument Mode = "pdf"
)

// DefaultMode is the mode a fresh session starts in
const DefaultMode = ModeSQL

// ParseMode accepts the wire tags plus a couple of human aliases
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sql", "database", "db":
		return ModeSQL, nil
	case "pdf", "document", "doc", "docs":
		return ModeDocument, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want sql or pdf)", s)
	}
}

// Description returns the label shown next to the mode in the CLI
func (m Mode) Description() string {
	switch m {
	case ModeSQL:
		return "Database Query"
	case ModeDocument:
		return "SOP Document"
	default:
		return string(m)
	}
}

// Valid reports whether m is one of the known modes
func (m Mode) Valid() bool {
	return m == ModeSQL || m == ModeDocument
}

// ChatCommand is one outgoing message addressed to the chat backend
type ChatCommand struct {
	Mode           Mode           `json:"mode"`
	Question       string         `json:"question"`
	Username       string         `json:"username"`
	ConversationID ConversationID `json:"conversation_id"`
}

// Command renders the routed command string, e.g. "/sql how many users?"
func (c ChatCommand) Command() string {
	return "/" + string(c.Mode) + " " + c.Question
}

// ChatReply is the backend's answer to a ChatCommand
type ChatReply struct {
	Answer string `json:"response"`
}
