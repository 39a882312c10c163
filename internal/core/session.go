// ABOUTME: Session controller owning the active conversation, transcript and mode
// ABOUTME: Guards in-flight requests with a token so stale completions are dropped
package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/harper/chatdesk/internal/models"
)

// Backend is the question-answering service the session talks to
type Backend interface {
	FetchHistoryForUser(ctx context.Context, username string) ([]models.HistoryRecord, error)
	FetchConversation(ctx context.Context, id models.ConversationID) ([]models.HistoryRecord, error)
	SendChatCommand(ctx context.Context, cmd models.ChatCommand) (models.ChatReply, error)
}

// Snapshot is a consistent copy of session state
type Snapshot struct {
	ConversationID models.ConversationID
	Transcript     models.Transcript
	Mode           models.Mode
	Pending        bool
}

// SendResult describes how a Send completed
type SendResult struct {
	Answer string
	// Discarded is set when the conversation changed before the reply arrived
	Discarded bool
}

// Option configures a Session
type Option func(*Session)

// WithMode sets the initial routing mode
func WithMode(m models.Mode) Option {
	return func(s *Session) {
		if m.Valid() {
			s.mode = m
		}
	}
}

// WithIDSource overrides the conversation id generator
func WithIDSource(src IDSource) Option {
	return func(s *Session) {
		if src != nil {
			s.newID = src
		}
	}
}

// WithGrouper sets the day grouper used by Timeline
func WithGrouper(g *Grouper) Option {
	return func(s *Session) {
		if g != nil {
			s.grouper = g
		}
	}
}

// WithOnChange registers a callback run after every state transition.
// It is called without the session lock held.
func WithOnChange(fn func(Snapshot)) Option {
	return func(s *Session) {
		s.onChange = fn
	}
}

// WithLogger sets the session logger
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// inflight marks the one request allowed to complete into the transcript
type inflight struct {
	kind           string
	conversationID models.ConversationID
}

// Session holds the state of one operator's chat.
// All methods are safe for concurrent use; at most one send or load is in flight.
type Session struct {
	backend  Backend
	username string
	newID    IDSource
	grouper  *Grouper
	onChange func(Snapshot)
	logger   zerolog.Logger

	mu             sync.Mutex
	conversationID models.ConversationID
	transcript     models.Transcript
	mode           models.Mode
	pending        *inflight
}

// NewSession starts a session with a fresh conversation and the welcome transcript
func NewSession(backend Backend, username string, opts ...Option) *Session {
	s := &Session{
		backend:  backend,
		username: username,
		newID:    StartNew,
		grouper:  NewGrouper(nil),
		logger:   log.Logger,
		mode:     models.DefaultMode,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.conversationID = s.newID()
	s.transcript = WelcomeTranscript()
	return s
}

// Username returns the operator the session sends as
func (s *Session) Username() string {
	return s.username
}

// ConversationID returns the active conversation id
func (s *Session) ConversationID() models.ConversationID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// Transcript returns a copy of the active transcript
func (s *Session) Transcript() models.Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.Clone()
}

// Mode returns the current routing mode
func (s *Session) Mode() models.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Pending reports whether a send or load is in flight
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Snapshot returns a consistent copy of the session state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		ConversationID: s.conversationID,
		Transcript:     s.transcript.Clone(),
		Mode:           s.mode,
		Pending:        s.pending != nil,
	}
}

func (s *Session) notify(snap Snapshot) {
	if s.onChange != nil {
		s.onChange(snap)
	}
}

// SetMode switches the routing mode for subsequent sends
func (s *Session) SetMode(m models.Mode) error {
	if !m.Valid() {
		return fmt.Errorf("invalid mode %q", m)
	}
	s.mu.Lock()
	s.mode = m
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// NewConversation starts an empty conversation under a fresh id.
// A reply still in flight for the previous conversation will be discarded.
func (s *Session) NewConversation() models.ConversationID {
	s.mu.Lock()
	s.conversationID = s.newID()
	s.transcript = models.Transcript{}
	s.pending = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Debug().Str("conversation_id", string(snap.ConversationID)).Msg("Started new conversation")
	s.notify(snap)
	return snap.ConversationID
}

// SelectConversation makes summary's conversation active and loads its transcript.
// The id is adopted before fetching, so it is updated even if the fetch fails; a
// failed fetch leaves a single BOT error turn. Summaries without an id get a fresh
// one and nothing to load.
func (s *Session) SelectConversation(ctx context.Context, summary models.ConversationSummary) (models.ConversationID, error) {
	s.mu.Lock()
	id := adoptWith(summary.ConversationID, s.newID)
	s.conversationID = id
	s.transcript = models.Transcript{}
	if summary.ConversationID.IsZero() {
		s.pending = nil
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.notify(snap)
		return id, nil
	}
	token := &inflight{kind: "load", conversationID: id}
	s.pending = token
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	start := time.Now()
	records, err := s.backend.FetchConversation(ctx, id)

	s.mu.Lock()
	if s.pending != token {
		s.mu.Unlock()
		s.logger.Debug().
			Str("conversation_id", string(id)).
			Msg("Discarding conversation load after switch")
		return id, nil
	}
	s.pending = nil
	if err != nil {
		s.transcript = models.Transcript{models.BotTurn(loadErrorText(err))}
	} else {
		s.transcript = FromHistoryRecords(records)
	}
	snap = s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	if err != nil {
		s.logger.Warn().Err(err).Str("conversation_id", string(id)).Msg("Failed to load conversation")
		return id, fmt.Errorf("loading conversation %s: %w", id, err)
	}
	s.logger.Debug().
		Str("conversation_id", string(id)).
		Int("records", len(records)).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("Loaded conversation")
	return id, nil
}

// Send routes text to the backend under the current mode. The USER turn is
// appended before the request goes out and is kept even if the request fails,
// in which case a BOT error turn follows it. A second Send while one is in
// flight returns ErrBusy and leaves the transcript unchanged. If the active
// conversation changes before the reply arrives, the reply is dropped.
func (s *Session) Send(ctx context.Context, text string) (SendResult, error) {
	return s.send(ctx, text, "")
}

// SendWithMode switches to m and sends text as one step. The mode only changes
// when the send is accepted; an empty or rejected send leaves it as it was.
func (s *Session) SendWithMode(ctx context.Context, m models.Mode, text string) (SendResult, error) {
	if !m.Valid() {
		return SendResult{}, fmt.Errorf("invalid mode %q", m)
	}
	return s.send(ctx, text, m)
}

func (s *Session) send(ctx context.Context, text string, mode models.Mode) (SendResult, error) {
	if strings.TrimSpace(text) == "" {
		return SendResult{}, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.pending != nil {
		s.mu.Unlock()
		return SendResult{}, ErrBusy
	}
	if mode != "" {
		s.mode = mode
	}
	token := &inflight{kind: "send", conversationID: s.conversationID}
	s.pending = token
	cmd := models.ChatCommand{
		Mode:           s.mode,
		Question:       text,
		Username:       s.username,
		ConversationID: s.conversationID,
	}
	s.transcript = AppendUser(s.transcript, text)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	start := time.Now()
	reply, err := s.backend.SendChatCommand(ctx, cmd)

	s.mu.Lock()
	if s.pending != token {
		s.mu.Unlock()
		s.logger.Debug().
			Str("conversation_id", string(cmd.ConversationID)).
			Msg("Discarding reply for inactive conversation")
		return SendResult{Discarded: true}, nil
	}
	s.pending = nil
	if err != nil {
		s.transcript = AppendBot(s.transcript, sendErrorText(err))
	} else {
		s.transcript = AppendBot(s.transcript, reply.Answer)
	}
	snap = s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	if err != nil {
		s.logger.Warn().Err(err).
			Str("conversation_id", string(cmd.ConversationID)).
			Str("mode", string(cmd.Mode)).
			Msg("Chat command failed")
		return SendResult{}, fmt.Errorf("sending message: %w", err)
	}
	s.logger.Debug().
		Str("conversation_id", string(cmd.ConversationID)).
		Str("mode", string(cmd.Mode)).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("Chat command answered")
	return SendResult{Answer: reply.Answer}, nil
}

// History fetches the operator's records and summarizes them per conversation
func (s *Session) History(ctx context.Context) ([]models.ConversationSummary, error) {
	records, err := s.backend.FetchHistoryForUser(ctx, s.username)
	if err != nil {
		return nil, fmt.Errorf("fetching history for %s: %w", s.username, err)
	}
	return Summarize(records), nil
}

// Timeline fetches the operator's records and groups their turns by day
func (s *Session) Timeline(ctx context.Context) ([]models.DateBucket, error) {
	records, err := s.backend.FetchHistoryForUser(ctx, s.username)
	if err != nil {
		return nil, fmt.Errorf("fetching history for %s: %w", s.username, err)
	}
	return s.grouper.GroupByDay(TimedTurnsFromRecords(records)), nil
}
