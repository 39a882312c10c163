// ABOUTME: Export of one cached conversation transcript
// ABOUTME: Supports YAML, Markdown, and JSON export formats
package sqlite

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harper/chatdesk/internal/core"
	"github.com/harper/chatdesk/internal/models"
)

// ErrNotCached is returned when exporting a conversation with no cached rows
var ErrNotCached = errors.New("conversation not in local cache")

// Export formats
const (
	FormatYAML     = "yaml"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// TranscriptExport is the exportable form of one conversation
type TranscriptExport struct {
	Version        string       `yaml:"version" json:"version"`
	ExportedAt     string       `yaml:"exported_at" json:"exported_at"`
	Tool           string       `yaml:"tool" json:"tool"`
	ConversationID string       `yaml:"conversation_id" json:"conversation_id"`
	Username       string       `yaml:"username,omitempty" json:"username,omitempty"`
	Title          string       `yaml:"title" json:"title"`
	Turns          []ExportTurn `yaml:"turns" json:"turns"`
}

// ExportTurn is one line of an exported transcript
type ExportTurn struct {
	Speaker   string `yaml:"speaker" json:"speaker"`
	Text      string `yaml:"text" json:"text"`
	Timestamp string `yaml:"timestamp,omitempty" json:"timestamp,omitempty"`
}

// NewTranscriptExport builds an export from a conversation's records
func NewTranscriptExport(id models.ConversationID, records []models.HistoryRecord) *TranscriptExport {
	exp := &TranscriptExport{
		Version:        "1.0",
		ExportedAt:     time.Now().Format(time.RFC3339),
		Tool:           "chatdesk",
		ConversationID: string(id),
		Turns:          []ExportTurn{},
	}

	summaries := core.Summarize(records)
	if len(summaries) > 0 {
		exp.Username = summaries[0].OwnerName
		exp.Title = summaries[0].Snippet
	} else {
		exp.Title = models.UntitledSnippet
	}

	for _, tt := range core.TimedTurnsFromRecords(records) {
		turn := ExportTurn{Speaker: tt.Speaker.Label(), Text: tt.Text}
		if !tt.Timestamp.IsZero() {
			turn.Timestamp = tt.Timestamp.Format(time.RFC3339)
		}
		exp.Turns = append(exp.Turns, turn)
	}
	return exp
}

// Export builds an export of a cached conversation
func (s *RecordStore) Export(id models.ConversationID) (*TranscriptExport, error) {
	records, err := s.ByConversation(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation %s: %w", id, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotCached, id)
	}
	return NewTranscriptExport(id, records), nil
}

// WriteExport encodes exp to w in the given format
func WriteExport(w io.Writer, exp *TranscriptExport, format string) error {
	switch strings.ToLower(format) {
	case FormatYAML, "yml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(exp); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return encoder.Close()
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(exp); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	case FormatMarkdown, "md":
		return writeMarkdown(w, exp)
	default:
		return fmt.Errorf("unknown export format %q (want yaml, markdown, or json)", format)
	}
}

// FormatForPath picks an export format from a file extension, defaulting to YAML
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return FormatMarkdown
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// ExportToFile writes exp to outputPath, creating parent directories
func ExportToFile(exp *TranscriptExport, outputPath, format string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(outputPath) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := WriteExport(file, exp, format); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func writeMarkdown(w io.Writer, exp *TranscriptExport) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", exp.Title)
	fmt.Fprintf(&b, "- **Conversation:** %s\n", exp.ConversationID)
	if exp.Username != "" {
		fmt.Fprintf(&b, "- **User:** %s\n", exp.Username)
	}
	fmt.Fprintf(&b, "- **Exported:** %s\n\n", exp.ExportedAt)

	for _, turn := range exp.Turns {
		if turn.Timestamp != "" {
			fmt.Fprintf(&b, "**%s** _(%s)_\n\n", turn.Speaker, turn.Timestamp)
		} else {
			fmt.Fprintf(&b, "**%s**\n\n", turn.Speaker)
		}
		fmt.Fprintf(&b, "%s\n\n", turn.Text)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
