// ABOUTME: Cache commands inspecting and pruning the local history cache
// ABOUTME: Provides status and forget subcommands
package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/chatdesk/internal/models"
)

// NewCacheCmd creates the cache command group
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local conversation cache",
		Long: `Manage the local SQLite cache of conversations.

Every history fetch and answered question is written through to the
cache so history, show, and export work with --offline.`,
	}

	cmd.AddCommand(newCacheStatusCmd())
	cmd.AddCommand(newCacheForgetCmd())

	return cmd
}

func newCacheStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show cache location and size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if a.records == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Cache: disabled")
				return nil
			}
			n, err := a.records.Count()
			if err != nil {
				return fmt.Errorf("counting records: %w", err)
			}

			if wantJSON(cmd) {
				return printJSON(cmd.OutOrStdout(), map[string]any{"path": a.db.Path(), "records": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cache: %s\n", a.db.Path())
			fmt.Fprintf(cmd.OutOrStdout(), "Records: %d\n", n)
			return nil
		},
	}
}

func newCacheForgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget <conversation-id>",
		Short: "Remove one conversation from the cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if a.records == nil {
				return errors.New("cache is disabled")
			}
			n, err := a.records.DeleteConversation(models.ConversationID(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d record(s)\n", n)
			return nil
		},
	}
}
