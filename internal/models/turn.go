// ABOUTME: Turn represents a single utterance in a conversation transcript
// ABOUTME: Transcripts are append-only sequences of turns scoped to one conversation
package models

import "slices"

// Speaker identifies who produced a turn
type Speaker string

const (
	SpeakerUser Speaker = "user"
	SpeakerBot  Speaker = "bot"
)

// Label returns a short display label for the speaker
func (s Speaker) Label() string {
	switch s {
	case SpeakerUser:
		return "You"
	case SpeakerBot:
		return "Bot"
	default:
		return string(s)
	}
}

// Turn is one utterance tagged with its speaker
type Turn struct {
	Speaker Speaker `json:"speaker" yaml:"speaker"`
	Text    string  `json:"text" yaml:"text"`
}

// UserTurn builds a USER turn
func UserTurn(text string) Turn {
	return Turn{Speaker: SpeakerUser, Text: text}
}

// BotTurn builds a BOT turn
func BotTurn(text string) Turn {
	return Turn{Speaker: SpeakerBot, Text: text}
}

// Transcript is an ordered list of turns belonging to one conversation.
// Values are treated as immutable: appending always produces a new slice.
type Transcript []Turn

// Clone returns a copy that shares no backing array with t
func (t Transcript) Clone() Transcript {
	if t == nil {
		return Transcript{}
	}
	return slices.Clone(t)
}

// Last returns the final turn and whether one exists
func (t Transcript) Last() (Turn, bool) {
	if len(t) == 0 {
		return Turn{}, false
	}
	return t[len(t)-1], true
}
