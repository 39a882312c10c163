// ABOUTME: Transcript assembler expanding history records into display turns
// ABOUTME: Appends always copy so earlier transcript values stay valid for readers
package core

import (
	"strings"

	"github.com/harper/chatdesk/internal/models"
)

// WelcomeText is the onboarding message shown when a session starts
const WelcomeText = "Welcome to chatdesk!\n\n" +
	"I am your virtual assistant for member and service information.\n\n" +
	"Use 'Database Query' mode (sql) to look up users, complaints or medical referrals, " +
	"or 'SOP Document' mode (pdf) to get answers from the procedure documents."

// FromHistoryRecords expands records into turns: for each record a USER turn
// when it has a question, then a BOT turn when it has an answer. Input order is kept.
func FromHistoryRecords(records []models.HistoryRecord) models.Transcript {
	out := make(models.Transcript, 0, len(records)*2)
	for _, rec := range records {
		if rec.HasQuestion() {
			out = append(out, models.UserTurn(rec.UserQuestion))
		}
		if strings.TrimSpace(rec.BotAnswer) != "" {
			out = append(out, models.BotTurn(rec.BotAnswer))
		}
	}
	return out
}

// AppendUser returns t plus a trailing USER turn
func AppendUser(t models.Transcript, text string) models.Transcript {
	return appendTurn(t, models.UserTurn(text))
}

// AppendBot returns t plus a trailing BOT turn
func AppendBot(t models.Transcript, text string) models.Transcript {
	return appendTurn(t, models.BotTurn(text))
}

func appendTurn(t models.Transcript, turn models.Turn) models.Transcript {
	out := make(models.Transcript, len(t), len(t)+1)
	copy(out, t)
	return append(out, turn)
}

// WelcomeTranscript returns the single onboarding turn
func WelcomeTranscript() models.Transcript {
	return models.Transcript{models.BotTurn(WelcomeText)}
}
