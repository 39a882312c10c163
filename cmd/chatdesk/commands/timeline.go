// ABOUTME: Timeline command grouping every turn by calendar day
// ABOUTME: Admins can pass --admin to see all users' conversations
package commands

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/harper/chatdesk/internal/core"
	"github.com/harper/chatdesk/internal/models"
)

var (
	timelineAdmin   bool
	timelineOffline bool
)

// NewTimelineCmd creates the timeline command
func NewTimelineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Show your turns grouped by day",
		Long: `Show every question and answer grouped by calendar day, oldest first.

Days follow CHATDESK_TIMEZONE. Turns without a usable timestamp are
listed last under "Unknown date".`,
		Example: `  chatdesk timeline
  chatdesk timeline --admin
  chatdesk timeline --format json`,
		RunE: runTimeline,
	}

	cmd.Flags().BoolVar(&timelineAdmin, "admin", false, "Include every user's history (admin login required)")
	cmd.Flags().BoolVar(&timelineOffline, "offline", false, "Read from the local cache instead of the backend")

	return cmd
}

func runTimeline(cmd *cobra.Command, args []string) error {
	if timelineAdmin && timelineOffline {
		return errors.New("--admin and --offline cannot be combined")
	}

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var buckets []models.DateBucket
	if timelineAdmin {
		user, ok, err := a.savedUser()
		if err != nil {
			return err
		}
		if !ok || !user.IsAdmin() {
			return errors.New("--admin requires logging in with an admin account")
		}
		records, err := a.client.AdminHistory(cmd.Context(), user.Role)
		if err != nil {
			return err
		}
		grouper := core.NewGrouper(a.cfg.Location())
		buckets = grouper.GroupByDay(core.TimedTurnsFromRecords(records))
	} else {
		b, err := a.sessionBackend(timelineOffline)
		if err != nil {
			return err
		}
		session, err := a.newSession(b)
		if err != nil {
			return err
		}
		buckets, err = session.Timeline(cmd.Context())
		if err != nil {
			return err
		}
	}

	if wantJSON(cmd) {
		return printJSON(cmd.OutOrStdout(), toTimelineJSON(buckets))
	}
	if len(buckets) == 0 {
		if !quiet {
			fmt.Fprintln(cmd.OutOrStdout(), "No history found")
		}
		return nil
	}
	printTimeline(cmd.OutOrStdout(), buckets, a.cfg.Location())
	return nil
}

// printTimeline writes day headings and clock times in loc
func printTimeline(w io.Writer, buckets []models.DateBucket, loc *time.Location) {
	for _, b := range buckets {
		fmt.Fprintf(w, "== %s ==\n", b.Title())
		for _, t := range b.Turns {
			stamp := "     "
			if !t.Timestamp.IsZero() {
				stamp = t.Timestamp.In(loc).Format("15:04")
			}
			fmt.Fprintf(w, "  %s  %-4s %s\n", stamp, t.Speaker.Label()+":", truncate(oneLine(t.Text), 100))
		}
		fmt.Fprintln(w)
	}
}

type timelineTurnJSON struct {
	Speaker   string `json:"speaker"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp,omitempty"`
}

type timelineDayJSON struct {
	Date  string             `json:"date,omitempty"`
	Title string             `json:"title"`
	Turns []timelineTurnJSON `json:"turns"`
}

func toTimelineJSON(buckets []models.DateBucket) []timelineDayJSON {
	out := make([]timelineDayJSON, 0, len(buckets))
	for _, b := range buckets {
		day := timelineDayJSON{Title: b.Title(), Turns: make([]timelineTurnJSON, 0, len(b.Turns))}
		if !b.Unknown {
			day.Date = b.Day.String()
		}
		for _, t := range b.Turns {
			turn := timelineTurnJSON{Speaker: t.Speaker.Label(), Text: t.Text}
			if !t.Timestamp.IsZero() {
				turn.Timestamp = t.Timestamp.Format(time.RFC3339)
			}
			day.Turns = append(day.Turns, turn)
		}
		out = append(out, day)
	}
	return out
}
