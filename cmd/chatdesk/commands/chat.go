// ABOUTME: Interactive chat command: a line-oriented REPL over one session
// ABOUTME: Slash commands switch mode, start or reopen conversations
package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/harper/chatdesk/internal/core"
	"github.com/harper/chatdesk/internal/models"
)

var chatOffline bool

const chatHelp = `Commands:
  /new             start a new conversation
  /mode [sql|pdf]  show or change the routing mode
  /history         list past conversations
  /open <n|id>     reopen a conversation from /history
  /show            reprint the current transcript
  /timeline        show all your turns grouped by day
  /help            show this help
  /quit            leave
Anything else is sent as a question.`

// NewChatCmd creates the chat command
func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session.

Type a question and press enter. The question is routed by the
current mode: sql asks the database, pdf asks the SOP documents.

` + chatHelp,
		Example: `  chatdesk chat
  chatdesk chat --mode pdf
  chatdesk chat --offline`,
		RunE: runChat,
	}

	cmd.Flags().BoolVar(&chatOffline, "offline", false, "Browse cached conversations without the backend")

	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	b, err := a.sessionBackend(chatOffline)
	if err != nil {
		return err
	}
	r := &repl{out: cmd.OutOrStdout(), loc: a.cfg.Location()}
	session, err := a.newSession(b, core.WithOnChange(r.redraw))
	if err != nil {
		return err
	}
	r.session = session

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return r.run(ctx, cmd.InOrStdin())
}

// repl drives a session from text lines
type repl struct {
	session *core.Session
	out     io.Writer
	loc     *time.Location
	listing []models.ConversationSummary

	// what redraw has already printed
	shownID    models.ConversationID
	shownTurns int
}

// redraw prints the turns a state change added to the active conversation
func (r *repl) redraw(snap core.Snapshot) {
	if snap.ConversationID != r.shownID || len(snap.Transcript) < r.shownTurns {
		r.shownID = snap.ConversationID
		r.shownTurns = 0
	}
	printTranscript(r.out, snap.Transcript[r.shownTurns:])
	r.shownTurns = len(snap.Transcript)
	if snap.Pending {
		fmt.Fprintln(r.out, "(waiting for the backend)")
	}
}

func (r *repl) prompt() {
	fmt.Fprintf(r.out, "[%s] > ", r.session.Mode())
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	fmt.Fprintf(r.out, "Logged in as %s · mode %s (%s)\n\n", r.session.Username(), r.session.Mode(), r.session.Mode().Description())
	snap := r.session.Snapshot()
	r.shownID = snap.ConversationID
	r.shownTurns = 0
	r.redraw(snap)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		r.prompt()
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if quit := r.handle(ctx, line); quit {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// handle processes one line and reports whether the REPL should stop
func (r *repl) handle(ctx context.Context, line string) bool {
	if !strings.HasPrefix(line, "/") {
		r.send(ctx, line)
		return false
	}

	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(name) {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(r.out, chatHelp)
	case "/new":
		id := r.session.NewConversation()
		fmt.Fprintf(r.out, "Started conversation %s\n", id.Short())
	case "/mode":
		r.mode(arg)
	case "/history":
		r.history(ctx)
	case "/open":
		r.open(ctx, arg)
	case "/show":
		printTranscript(r.out, r.session.Transcript())
	case "/timeline":
		r.timeline(ctx)
	default:
		fmt.Fprintf(r.out, "Unknown command %s (try /help)\n", name)
	}
	return false
}

func (r *repl) send(ctx context.Context, text string) {
	// Turns, including error turns, are printed by redraw
	if _, err := r.session.Send(ctx, text); errors.Is(err, core.ErrBusy) {
		fmt.Fprintln(r.out, "Still waiting for the previous answer")
	}
}

func (r *repl) mode(arg string) {
	if arg == "" {
		m := r.session.Mode()
		fmt.Fprintf(r.out, "Mode: %s (%s)\n", m, m.Description())
		return
	}
	m, err := models.ParseMode(arg)
	if err != nil {
		fmt.Fprintln(r.out, err)
		return
	}
	if err := r.session.SetMode(m); err != nil {
		fmt.Fprintln(r.out, err)
		return
	}
	fmt.Fprintf(r.out, "Mode: %s (%s)\n", m, m.Description())
}

func (r *repl) history(ctx context.Context) {
	summaries, err := r.session.History(ctx)
	if err != nil {
		fmt.Fprintf(r.out, "Could not load history: %s\n", core.HumanMessage(err))
		return
	}
	r.listing = summaries
	if len(summaries) == 0 {
		fmt.Fprintln(r.out, "No past conversations")
		return
	}
	for i, s := range summaries {
		fmt.Fprintf(r.out, "%3d. %-10s %-8s %s\n", i+1, formatTime(s.CreatedAt), s.ConversationID.Short(), truncate(oneLine(s.Snippet), 60))
	}
}

func (r *repl) open(ctx context.Context, arg string) {
	summary, err := pickSummary(r.listing, arg)
	if err != nil {
		fmt.Fprintln(r.out, err)
		return
	}
	_, err = r.session.SelectConversation(ctx, summary)
	if err == nil {
		fmt.Fprintf(r.out, "Now in conversation %s\n", r.session.ConversationID().Short())
	}
}

func (r *repl) timeline(ctx context.Context) {
	buckets, err := r.session.Timeline(ctx)
	if err != nil {
		fmt.Fprintf(r.out, "Could not load history: %s\n", core.HumanMessage(err))
		return
	}
	printTimeline(r.out, buckets, r.loc)
}
