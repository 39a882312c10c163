// ABOUTME: History command listing past conversations newest first
// ABOUTME: Reads the backend or, with --offline, the local cache
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	historyOffline bool
	historyLimit   int
)

// NewHistoryCmd creates the history command
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past conversations",
		Long: `List past conversations, newest first.

Each conversation is shown with its first question as a snippet.
Use the number or id with 'chatdesk show' or '/open' in chat.`,
		Example: `  chatdesk history
  chatdesk history --limit 5
  chatdesk history --offline --format json`,
		RunE: runHistory,
	}

	cmd.Flags().BoolVar(&historyOffline, "offline", false, "Read from the local cache instead of the backend")
	cmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "Show at most this many conversations")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyLimit < 0 {
		return fmt.Errorf("--limit must not be negative, got %d", historyLimit)
	}

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	b, err := a.sessionBackend(historyOffline)
	if err != nil {
		return err
	}
	session, err := a.newSession(b)
	if err != nil {
		return err
	}

	summaries, err := session.History(cmd.Context())
	if err != nil {
		return err
	}
	if historyLimit > 0 && len(summaries) > historyLimit {
		summaries = summaries[:historyLimit]
	}

	if wantJSON(cmd) {
		return printJSON(cmd.OutOrStdout(), toSummaryJSON(summaries))
	}

	if len(summaries) == 0 {
		if !quiet {
			fmt.Fprintln(cmd.OutOrStdout(), "No conversations found")
		}
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "#\tWHEN\tID\tOWNER\tFIRST QUESTION\n")
	fmt.Fprintf(w, "-\t----\t--\t-----\t--------------\n")
	for i, s := range summaries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			i+1,
			formatTime(s.CreatedAt),
			s.ConversationID.Short(),
			s.OwnerName,
			truncate(oneLine(s.Snippet), 50))
	}
	_ = w.Flush()

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "\nTotal: %d conversation(s)\n", len(summaries))
	}
	return nil
}
