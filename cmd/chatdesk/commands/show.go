// ABOUTME: Show command printing one conversation's transcript
// ABOUTME: Accepts a full conversation id or a number from the history listing
package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/harper/chatdesk/internal/models"
)

var showOffline bool

// NewShowCmd creates the show command
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <conversation>",
		Short: "Print a past conversation",
		Long: `Print the transcript of a past conversation.

The argument is a conversation id, or the number shown by 'chatdesk history'.`,
		Example: `  chatdesk show 2
  chatdesk show 3f2a9c1e-7d4b-4e0a-9d65-0b1f8f6c2a11
  chatdesk show 2 --offline`,
		Args: cobra.ExactArgs(1),
		RunE: runShow,
	}

	cmd.Flags().BoolVar(&showOffline, "offline", false, "Read from the local cache instead of the backend")

	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	b, err := a.sessionBackend(showOffline)
	if err != nil {
		return err
	}
	session, err := a.newSession(b)
	if err != nil {
		return err
	}

	var listing []models.ConversationSummary
	if _, numErr := strconv.Atoi(args[0]); numErr == nil {
		listing, err = session.History(cmd.Context())
		if err != nil {
			return err
		}
	}
	summary, err := pickSummary(listing, args[0])
	if err != nil {
		return err
	}

	if _, err := session.SelectConversation(cmd.Context(), summary); err != nil {
		return err
	}
	transcript := session.Transcript()

	if wantJSON(cmd) {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"conversation_id": string(session.ConversationID()),
			"turns":           transcript,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Conversation %s\n\n", session.ConversationID())
	if len(transcript) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "(no messages)")
		return nil
	}
	printTranscript(cmd.OutOrStdout(), transcript)
	return nil
}
