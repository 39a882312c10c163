// ABOUTME: History summarizer grouping raw records into one summary per conversation
// ABOUTME: Summaries are sorted newest first with a deterministic tie-break
package core

import (
	"slices"
	"strings"
	"time"

	"github.com/harper/chatdesk/internal/models"
)

// Summarize groups records by conversation id and returns one summary per group,
// ordered by CreatedAt descending, ties by conversation id ascending.
//
// The anchor of a group is its earliest record with a user question; the snippet
// and CreatedAt come from it. Groups without any question fall back to their
// earliest record and the UntitledSnippet placeholder. Records without a
// timestamp count as later than every dated record.
func Summarize(records []models.HistoryRecord) []models.ConversationSummary {
	groups := make(map[models.ConversationID][]models.HistoryRecord)
	var order []models.ConversationID
	for _, rec := range records {
		if _, ok := groups[rec.ConversationID]; !ok {
			order = append(order, rec.ConversationID)
		}
		groups[rec.ConversationID] = append(groups[rec.ConversationID], rec)
	}

	summaries := make([]models.ConversationSummary, 0, len(order))
	for _, id := range order {
		summaries = append(summaries, summarizeGroup(id, groups[id]))
	}

	slices.SortStableFunc(summaries, func(a, b models.ConversationSummary) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(string(a.ConversationID), string(b.ConversationID))
	})
	return summaries
}

func summarizeGroup(id models.ConversationID, group []models.HistoryRecord) models.ConversationSummary {
	anchor := -1
	for i, rec := range group {
		if !rec.HasQuestion() {
			continue
		}
		if anchor < 0 || earlier(rec.Timestamp, group[anchor].Timestamp) {
			anchor = i
		}
	}

	snippet := models.UntitledSnippet
	if anchor >= 0 {
		snippet = group[anchor].UserQuestion
	} else {
		anchor = 0
		for i, rec := range group {
			if earlier(rec.Timestamp, group[anchor].Timestamp) {
				anchor = i
			}
		}
	}

	owner := group[anchor].Username
	if owner == "" {
		for _, rec := range group {
			if rec.Username != "" {
				owner = rec.Username
				break
			}
		}
	}

	return models.ConversationSummary{
		ConversationID: id,
		OwnerName:      owner,
		CreatedAt:      group[anchor].Timestamp,
		Snippet:        snippet,
	}
}

// earlier reports whether a is strictly before b, treating the zero time as
// later than any real timestamp.
func earlier(a, b time.Time) bool {
	switch {
	case a.IsZero():
		return false
	case b.IsZero():
		return true
	default:
		return a.Before(b)
	}
}
