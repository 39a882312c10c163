// ABOUTME: Export command writing one conversation to YAML, Markdown, or JSON
// ABOUTME: Refreshes the local cache from the backend first unless --offline
package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/chatdesk/internal/models"
	"github.com/harper/chatdesk/internal/storage/sqlite"
)

var (
	exportOut     string
	exportAs      string
	exportOffline bool
)

// NewExportCmd creates the export command
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <conversation-id>",
		Short: "Export a conversation transcript",
		Long: `Export a conversation transcript to YAML, Markdown, or JSON.

The format follows --as, or the --out file extension (.md, .json,
anything else is YAML). Without --out the export is printed.`,
		Example: `  chatdesk export 3f2a9c1e-... --out referral.md
  chatdesk export 3f2a9c1e-... --as json
  chatdesk export 3f2a9c1e-... --offline --out backup.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: runExport,
	}

	cmd.Flags().StringVarP(&exportOut, "out", "o", "", "Write to this file instead of stdout")
	cmd.Flags().StringVar(&exportAs, "as", "", "Export format: yaml, markdown, json")
	cmd.Flags().BoolVar(&exportOffline, "offline", false, "Export from the local cache without refreshing")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	id := models.ConversationID(args[0])
	if id.IsZero() {
		return errors.New("conversation id cannot be empty")
	}

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if a.records == nil {
		return errors.New("export needs the local cache (CHATDESK_CACHE=true)")
	}

	if !exportOffline {
		// The caching backend replaces the cached copy on success
		if _, err := a.backend().FetchConversation(cmd.Context(), id); err != nil {
			return fmt.Errorf("refreshing conversation: %w", err)
		}
	}

	exp, err := a.records.Export(id)
	if err != nil {
		return err
	}

	format := exportAs
	if format == "" {
		format = sqlite.FormatYAML
		if exportOut != "" {
			format = sqlite.FormatForPath(exportOut)
		}
	}

	if exportOut == "" {
		return sqlite.WriteExport(cmd.OutOrStdout(), exp, format)
	}
	if err := sqlite.ExportToFile(exp, exportOut, format); err != nil {
		return err
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d turn(s) to %s\n", len(exp.Turns), exportOut)
	}
	return nil
}
