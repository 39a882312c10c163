// ABOUTME: Write-through cache decorator around the chat backend
// ABOUTME: Successful fetches and answered sends land in the local record store
package sqlite

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/harper/chatdesk/internal/core"
	"github.com/harper/chatdesk/internal/models"
)

// CachingBackend forwards to a live backend and caches what comes back.
// Cache write failures are logged and never fail the call.
type CachingBackend struct {
	next  core.Backend
	store *RecordStore
	now   func() time.Time
}

var _ core.Backend = (*CachingBackend)(nil)

// NewCachingBackend wraps next so its results are saved in store
func NewCachingBackend(next core.Backend, store *RecordStore) *CachingBackend {
	return &CachingBackend{next: next, store: store, now: time.Now}
}

// FetchHistoryForUser forwards and upserts the returned rows
func (c *CachingBackend) FetchHistoryForUser(ctx context.Context, username string) ([]models.HistoryRecord, error) {
	records, err := c.next.FetchHistoryForUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := c.store.SaveAll(records); err != nil {
		log.Warn().Err(err).Str("username", username).Msg("Caching user history failed")
	}
	return records, nil
}

// FetchConversation forwards and replaces the cached copy of the conversation
func (c *CachingBackend) FetchConversation(ctx context.Context, id models.ConversationID) ([]models.HistoryRecord, error) {
	records, err := c.next.FetchConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.store.ReplaceConversation(id, records); err != nil {
		log.Warn().Err(err).Str("conversation_id", string(id)).Msg("Caching conversation failed")
	}
	return records, nil
}

// SendChatCommand forwards and saves the answered exchange stamped with local time
func (c *CachingBackend) SendChatCommand(ctx context.Context, cmd models.ChatCommand) (models.ChatReply, error) {
	reply, err := c.next.SendChatCommand(ctx, cmd)
	if err != nil {
		return reply, err
	}
	rec := models.HistoryRecord{
		ConversationID: cmd.ConversationID,
		Username:       cmd.Username,
		UserQuestion:   cmd.Question,
		BotAnswer:      reply.Answer,
		Timestamp:      c.now().UTC(),
	}
	if err := c.store.Save(rec); err != nil {
		log.Warn().Err(err).Str("conversation_id", string(cmd.ConversationID)).Msg("Caching exchange failed")
	}
	return reply, nil
}

// OfflineBackend answers reads from the cache alone; sends always fail
type OfflineBackend struct {
	store *RecordStore
}

var _ core.Backend = (*OfflineBackend)(nil)

// ErrOffline is returned when an offline session tries to send
var ErrOffline = offlineError{}

type offlineError struct{}

func (offlineError) Error() string { return "offline: sending requires the backend" }

// UserMessage is shown in the transcript's error turn
func (offlineError) UserMessage() string { return "you are offline; reconnect to ask new questions" }

// NewOfflineBackend reads from store
func NewOfflineBackend(store *RecordStore) *OfflineBackend {
	return &OfflineBackend{store: store}
}

// FetchHistoryForUser returns the cached records for username
func (o *OfflineBackend) FetchHistoryForUser(_ context.Context, username string) ([]models.HistoryRecord, error) {
	return o.store.ByUser(username)
}

// FetchConversation returns the cached records of id
func (o *OfflineBackend) FetchConversation(_ context.Context, id models.ConversationID) ([]models.HistoryRecord, error) {
	return o.store.ByConversation(id)
}

// SendChatCommand always fails with ErrOffline
func (o *OfflineBackend) SendChatCommand(context.Context, models.ChatCommand) (models.ChatReply, error) {
	return models.ChatReply{}, ErrOffline
}
