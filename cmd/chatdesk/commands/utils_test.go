// ABOUTME: Tests for shared utility functions used by CLI commands
// ABOUTME: Verifies truncate, formatTime, and conversation picking
package commands

import (
	"strings"
	"testing"
	"time"

	"github.com/harper/chatdesk/internal/models"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short string unchanged", "hello", 10, "hello"},
		{"exact length unchanged", "hello", 5, "hello"},
		{"long string truncated", "hello world", 8, "hello..."},
		{"very short maxLen", "hello", 2, "he"},
		{"maxLen equals 3", "hello", 3, "hel"},
		{"empty string", "", 10, ""},
		{"unicode kept whole", "你好世界！", 3, "你好世"},
		{"unicode with ellipsis", "你好世界！你好", 5, "你好..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestOneLine(t *testing.T) {
	if got := oneLine("  how many\n\tusers  joined? "); got != "how many users joined?" {
		t.Errorf("oneLine() = %q", got)
	}
}

func TestFormatTime(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{"zero", time.Time{}, "unknown"},
		{"just now", now.Add(-10 * time.Second), "just now"},
		{"minutes", now.Add(-5 * time.Minute), "5m ago"},
		{"hours", now.Add(-3 * time.Hour), "3h ago"},
		{"days", now.Add(-49 * time.Hour), "2d ago"},
		{"old", time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), "2020-01-02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatTime(tt.in); got != tt.want {
				t.Errorf("formatTime() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPickSummary(t *testing.T) {
	listing := []models.ConversationSummary{
		{ConversationID: "aaaaaaaa-1111", Snippet: "first"},
		{ConversationID: "bbbbbbbb-2222", Snippet: "second"},
	}

	tests := []struct {
		name    string
		ref     string
		wantID  models.ConversationID
		wantErr bool
	}{
		{"by number", "2", "bbbbbbbb-2222", false},
		{"by full id", "aaaaaaaa-1111", "aaaaaaaa-1111", false},
		{"by short id", "bbbbbbbb", "bbbbbbbb-2222", false},
		{"unknown id passes through", "cccccccc-3333", "cccccccc-3333", false},
		{"number out of range", "3", "", true},
		{"zero", "0", "", true},
		{"blank", " ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pickSummary(listing, tt.ref)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ConversationID != tt.wantID {
				t.Errorf("ConversationID = %s, want %s", got.ConversationID, tt.wantID)
			}
		})
	}
}

func TestPrintTranscript(t *testing.T) {
	var b strings.Builder
	printTranscript(&b, models.Transcript{models.UserTurn("hi"), models.BotTurn("hello")})
	if b.String() != "You: hi\n\nBot: hello\n\n" {
		t.Errorf("printTranscript() = %q", b.String())
	}
}
