// ABOUTME: Conversation identity manager issuing and adopting conversation ids
// ABOUTME: New ids are random UUIDv4 values so they never collide within a process
package core

import (
	"github.com/google/uuid"

	"github.com/harper/chatdesk/internal/models"
)

// IDSource produces fresh conversation ids
type IDSource func() models.ConversationID

// StartNew generates a fresh, globally unique conversation id
func StartNew() models.ConversationID {
	return models.ConversationID(uuid.NewString())
}

// Adopt returns existing unchanged when it is set, otherwise a fresh id.
// Legacy history rows were stored without a conversation id.
func Adopt(existing models.ConversationID) models.ConversationID {
	return adoptWith(existing, StartNew)
}

func adoptWith(existing models.ConversationID, newID IDSource) models.ConversationID {
	if existing.IsZero() {
		return newID()
	}
	return existing
}
