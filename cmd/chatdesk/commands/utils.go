// ABOUTME: Shared utility functions for CLI commands
// ABOUTME: Text truncation, relative times, JSON output, and transcript printing
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/harper/chatdesk/internal/models"
)

// truncate shortens a string to maxLen runes, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// oneLine collapses whitespace so snippets fit a table row
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// formatTime formats a time for display
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
	return t.Format("2006-01-02")
}

// printJSON writes v as indented JSON
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// printTranscript writes each turn as "Speaker: text"
func printTranscript(w io.Writer, t models.Transcript) {
	for _, turn := range t {
		fmt.Fprintf(w, "%s: %s\n\n", turn.Speaker.Label(), turn.Text)
	}
}

// pickSummary resolves a 1-based listing position or a conversation id
func pickSummary(summaries []models.ConversationSummary, ref string) (models.ConversationSummary, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.ConversationSummary{}, fmt.Errorf("expected a list number or conversation id")
	}
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(summaries) {
			return models.ConversationSummary{}, fmt.Errorf("no conversation #%d (have %d)", n, len(summaries))
		}
		return summaries[n-1], nil
	}
	for _, s := range summaries {
		if string(s.ConversationID) == ref || (len(ref) >= 8 && strings.HasPrefix(string(s.ConversationID), ref)) {
			return s, nil
		}
	}
	return models.ConversationSummary{ConversationID: models.ConversationID(ref)}, nil
}

// summaryJSON is the JSON shape of one conversation summary
type summaryJSON struct {
	ConversationID string `json:"conversation_id"`
	Owner          string `json:"owner"`
	CreatedAt      string `json:"created_at,omitempty"`
	Snippet        string `json:"snippet"`
}

func toSummaryJSON(summaries []models.ConversationSummary) []summaryJSON {
	out := make([]summaryJSON, 0, len(summaries))
	for _, s := range summaries {
		item := summaryJSON{
			ConversationID: string(s.ConversationID),
			Owner:          s.OwnerName,
			Snippet:        s.Snippet,
		}
		if !s.CreatedAt.IsZero() {
			item.CreatedAt = s.CreatedAt.Format(time.RFC3339)
		}
		out = append(out, item)
	}
	return out
}
