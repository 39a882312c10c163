// ABOUTME: One-shot ask command that sends a single question
// ABOUTME: Prints only the answer so it composes with shell pipelines
package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harper/chatdesk/internal/models"
)

var askConversation string

// NewAskCmd creates the ask command
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question...]",
		Short: "Ask a single question and print the answer",
		Long: `Ask a single question and print the answer.

Without --conversation a new conversation is started for the question.`,
		Example: `  chatdesk ask "how many complaints were filed last week?"
  chatdesk ask --mode pdf "what is the referral approval process?"
  chatdesk ask --conversation 3f2a... "and the week before?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAsk,
	}

	cmd.Flags().StringVarP(&askConversation, "conversation", "c", "", "Continue an existing conversation")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	session, err := a.newSession(a.backend())
	if err != nil {
		return err
	}

	if askConversation != "" {
		// Adopting the id is enough; a failed transcript load does not block sending
		_, _ = session.SelectConversation(cmd.Context(), models.ConversationSummary{
			ConversationID: models.ConversationID(askConversation),
		})
	}

	result, err := session.Send(cmd.Context(), question)
	if err != nil {
		return err
	}

	if wantJSON(cmd) {
		return printJSON(cmd.OutOrStdout(), map[string]string{
			"conversation_id": string(session.ConversationID()),
			"mode":            string(session.Mode()),
			"question":        question,
			"answer":          result.Answer,
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), result.Answer)
	if !quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "conversation %s\n", session.ConversationID())
	}
	return nil
}
