// ABOUTME: Tests for the write-through caching backend and offline reads
// ABOUTME: Uses a stub backend so no network is involved
package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/chatdesk/internal/core"
	"github.com/harper/chatdesk/internal/models"
)

type stubBackend struct {
	history      []models.HistoryRecord
	conversation []models.HistoryRecord
	answer       string
	err          error
}

func (s *stubBackend) FetchHistoryForUser(context.Context, string) ([]models.HistoryRecord, error) {
	return s.history, s.err
}

func (s *stubBackend) FetchConversation(context.Context, models.ConversationID) ([]models.HistoryRecord, error) {
	return s.conversation, s.err
}

func (s *stubBackend) SendChatCommand(context.Context, models.ChatCommand) (models.ChatReply, error) {
	if s.err != nil {
		return models.ChatReply{}, s.err
	}
	return models.ChatReply{Answer: s.answer}, nil
}

func TestCachingBackend_FetchHistorySaves(t *testing.T) {
	store := newTestStore(t)
	stub := &stubBackend{history: []models.HistoryRecord{
		rec("c1", "alice", "q1", "a1", 0),
		rec("c2", "alice", "q2", "a2", time.Hour),
	}}
	cb := NewCachingBackend(stub, store)

	got, err := cb.FetchHistoryForUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	cached, err := store.ByUser("alice")
	require.NoError(t, err)
	assert.Len(t, cached, 2)
}

func TestCachingBackend_FetchConversationReplaces(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(rec("c1", "alice", "stale", "x", 0)))

	stub := &stubBackend{conversation: []models.HistoryRecord{
		rec("c1", "alice", "fresh", "y", time.Second),
	}}
	cb := NewCachingBackend(stub, store)

	_, err := cb.FetchConversation(context.Background(), "c1")
	require.NoError(t, err)

	cached, err := store.ByConversation("c1")
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, "fresh", cached[0].UserQuestion)
}

func TestCachingBackend_HistoryKeepsCachedAnswers(t *testing.T) {
	store := newTestStore(t)
	stub := &stubBackend{
		conversation: []models.HistoryRecord{rec("c1", "alice", "how many users?", "42 users", time.Hour)},
		history:      []models.HistoryRecord{rec("c1", "alice", "how many users?", "", time.Hour)},
	}
	cb := NewCachingBackend(stub, store)

	_, err := cb.FetchConversation(context.Background(), "c1")
	require.NoError(t, err)
	_, err = cb.FetchHistoryForUser(context.Background(), "alice")
	require.NoError(t, err)

	cached, err := store.ByConversation("c1")
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, "42 users", cached[0].BotAnswer)
}

func TestCachingBackend_SendSavesExchange(t *testing.T) {
	store := newTestStore(t)
	cb := NewCachingBackend(&stubBackend{answer: "42 rows"}, store)
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return fixed }

	reply, err := cb.SendChatCommand(context.Background(), models.ChatCommand{
		Mode:           models.ModeSQL,
		Question:       "count rows",
		Username:       "alice",
		ConversationID: "c1",
	})
	require.NoError(t, err)
	assert.Equal(t, "42 rows", reply.Answer)

	cached, err := store.ByConversation("c1")
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, "count rows", cached[0].UserQuestion, "the routing prefix is not stored")
	assert.Equal(t, "42 rows", cached[0].BotAnswer)
	assert.True(t, cached[0].Timestamp.Equal(fixed))
}

func TestCachingBackend_ErrorsAreNotCached(t *testing.T) {
	store := newTestStore(t)
	boom := errors.New("boom")
	cb := NewCachingBackend(&stubBackend{err: boom}, store)

	_, err := cb.SendChatCommand(context.Background(), models.ChatCommand{ConversationID: "c1", Question: "q"})
	assert.ErrorIs(t, err, boom)
	_, err = cb.FetchHistoryForUser(context.Background(), "alice")
	assert.ErrorIs(t, err, boom)

	n, err := store.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOfflineBackend(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SaveAll([]models.HistoryRecord{
		rec("c1", "alice", "q1", "a1", 0),
		rec("c1", "alice", "q2", "a2", time.Second),
	}))
	ob := NewOfflineBackend(store)

	history, err := ob.FetchHistoryForUser(context.Background(), "alice")
	require.NoError(t, err)
	summaries := core.Summarize(history)
	require.Len(t, summaries, 1)
	assert.Equal(t, "q1", summaries[0].Snippet)

	conv, err := ob.FetchConversation(context.Background(), "c1")
	require.NoError(t, err)
	assert.Len(t, conv, 2)

	_, err = ob.SendChatCommand(context.Background(), models.ChatCommand{})
	assert.ErrorIs(t, err, ErrOffline)
	assert.Contains(t, core.HumanMessage(err), "offline")
}

func TestOfflineSessionLoadsCachedConversation(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(rec("c1", "alice", "hello", "hi", 0)))

	s := core.NewSession(NewOfflineBackend(store), "alice")
	summaries, err := s.History(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	_, err = s.SelectConversation(context.Background(), summaries[0])
	require.NoError(t, err)
	transcript := s.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, "hello", transcript[0].Text)
	assert.Equal(t, "hi", transcript[1].Text)
}
