// ABOUTME: Tests for the session controller
// ABOUTME: Covers send ordering, busy rejection, stale replies and conversation switching
package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/harper/chatdesk/internal/models"
)

// fakeBackend answers immediately unless a gate channel is set, in which case
// calls block until the test releases them.
type fakeBackend struct {
	mu        sync.Mutex
	commands  []models.ChatCommand
	answer    string
	sendErr   error
	sendGate  chan struct{}
	sendStart chan struct{}

	conversations map[models.ConversationID][]models.HistoryRecord
	fetchErr      error
	fetchGate     chan struct{}
	fetchStart    chan struct{}
	fetched       []models.ConversationID

	userHistory []models.HistoryRecord
	historyErr  error
}

func (f *fakeBackend) FetchHistoryForUser(ctx context.Context, username string) ([]models.HistoryRecord, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.userHistory, nil
}

func (f *fakeBackend) FetchConversation(ctx context.Context, id models.ConversationID) ([]models.HistoryRecord, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, id)
	f.mu.Unlock()
	if f.fetchStart != nil {
		f.fetchStart <- struct{}{}
	}
	if f.fetchGate != nil {
		<-f.fetchGate
	}
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.conversations[id], nil
}

func (f *fakeBackend) SendChatCommand(ctx context.Context, cmd models.ChatCommand) (models.ChatReply, error) {
	f.mu.Lock()
	f.commands = append(f.commands, cmd)
	f.mu.Unlock()
	if f.sendStart != nil {
		f.sendStart <- struct{}{}
	}
	if f.sendGate != nil {
		<-f.sendGate
	}
	if f.sendErr != nil {
		return models.ChatReply{}, f.sendErr
	}
	return models.ChatReply{Answer: f.answer}, nil
}

func sequentialIDs() IDSource {
	n := 0
	return func() models.ConversationID {
		n++
		return models.ConversationID("id-" + string(rune('0'+n)))
	}
}

func TestNewSession_Defaults(t *testing.T) {
	s := NewSession(&fakeBackend{}, "budi")

	if s.ConversationID().IsZero() {
		t.Error("session should start with a conversation id")
	}
	if s.Mode() != models.ModeSQL {
		t.Errorf("Mode() = %q, want sql", s.Mode())
	}
	tr := s.Transcript()
	if len(tr) != 1 || tr[0].Text != WelcomeText {
		t.Errorf("initial transcript = %+v, want welcome", tr)
	}
	if s.Username() != "budi" {
		t.Errorf("Username() = %q", s.Username())
	}
}

func TestSend_Success(t *testing.T) {
	fb := &fakeBackend{answer: "42 users"}
	s := NewSession(fb, "budi", WithIDSource(sequentialIDs()))
	s.NewConversation()

	res, err := s.Send(context.Background(), "how many users?")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if res.Answer != "42 users" || res.Discarded {
		t.Errorf("result = %+v", res)
	}

	tr := s.Transcript()
	if len(tr) != 2 {
		t.Fatalf("transcript len = %d, want 2", len(tr))
	}
	if tr[0] != models.UserTurn("how many users?") || tr[1] != models.BotTurn("42 users") {
		t.Errorf("transcript = %+v", tr)
	}

	cmd := fb.commands[0]
	if cmd.Command() != "/sql how many users?" {
		t.Errorf("command = %q", cmd.Command())
	}
	if cmd.Username != "budi" || cmd.ConversationID != "id-2" {
		t.Errorf("command = %+v", cmd)
	}
	if s.Pending() {
		t.Error("session should not be pending after completion")
	}
}

func TestSend_FailureKeepsUserTurn(t *testing.T) {
	fb := &fakeBackend{sendErr: errors.New("connection refused")}
	s := NewSession(fb, "budi")
	s.NewConversation()

	_, err := s.Send(context.Background(), "hello")
	if err == nil {
		t.Fatal("Send() should report backend failure")
	}

	tr := s.Transcript()
	if len(tr) != 2 {
		t.Fatalf("transcript len = %d, want 2", len(tr))
	}
	if tr[0] != models.UserTurn("hello") {
		t.Errorf("user turn = %+v", tr[0])
	}
	if tr[1].Speaker != models.SpeakerBot || !strings.Contains(tr[1].Text, "connection refused") {
		t.Errorf("error turn = %+v", tr[1])
	}
}

func TestSend_EmptyRejected(t *testing.T) {
	fb := &fakeBackend{}
	s := NewSession(fb, "budi")
	before := s.Transcript()

	if _, err := s.Send(context.Background(), "  \n"); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("Send(blank) error = %v, want ErrEmptyMessage", err)
	}
	if len(s.Transcript()) != len(before) || len(fb.commands) != 0 {
		t.Error("blank send should not change anything")
	}
}

func TestSend_BusyWhilePending(t *testing.T) {
	fb := &fakeBackend{
		answer:    "ok",
		sendGate:  make(chan struct{}),
		sendStart: make(chan struct{}, 1),
	}
	s := NewSession(fb, "budi")
	s.NewConversation()

	done := make(chan error, 1)
	go func() {
		_, err := s.Send(context.Background(), "first")
		done <- err
	}()
	<-fb.sendStart

	before := s.Transcript()
	if _, err := s.Send(context.Background(), "hello"); !errors.Is(err, ErrBusy) {
		t.Fatalf("second Send() error = %v, want ErrBusy", err)
	}
	after := s.Transcript()
	if len(after) != len(before) {
		t.Errorf("busy send changed transcript: %+v", after)
	}

	close(fb.sendGate)
	if err := <-done; err != nil {
		t.Fatalf("first Send() error = %v", err)
	}

	tr := s.Transcript()
	if len(tr) != 2 || tr[0].Text != "first" || tr[1].Text != "ok" {
		t.Errorf("transcript = %+v", tr)
	}
}

func TestSend_DiscardedAfterNewConversation(t *testing.T) {
	fb := &fakeBackend{
		answer:    "late answer",
		sendGate:  make(chan struct{}),
		sendStart: make(chan struct{}, 1),
	}
	s := NewSession(fb, "budi", WithIDSource(sequentialIDs()))
	s.NewConversation()

	done := make(chan SendResult, 1)
	go func() {
		res, _ := s.Send(context.Background(), "question")
		done <- res
	}()
	<-fb.sendStart

	newID := s.NewConversation()
	close(fb.sendGate)

	res := <-done
	if !res.Discarded {
		t.Error("reply should be discarded after switching conversation")
	}
	if s.ConversationID() != newID {
		t.Errorf("active id = %s, want %s", s.ConversationID(), newID)
	}
	if tr := s.Transcript(); len(tr) != 0 {
		t.Errorf("new conversation transcript = %+v, want empty", tr)
	}
}

func TestSend_DiscardedAfterSelect(t *testing.T) {
	fb := &fakeBackend{
		answer:    "late answer",
		sendGate:  make(chan struct{}),
		sendStart: make(chan struct{}, 1),
		conversations: map[models.ConversationID][]models.HistoryRecord{
			"old": {{UserQuestion: "old q", BotAnswer: "old a"}},
		},
	}
	s := NewSession(fb, "budi")

	done := make(chan SendResult, 1)
	go func() {
		res, _ := s.Send(context.Background(), "question")
		done <- res
	}()
	<-fb.sendStart

	if _, err := s.SelectConversation(context.Background(), models.ConversationSummary{ConversationID: "old"}); err != nil {
		t.Fatalf("SelectConversation() error = %v", err)
	}
	close(fb.sendGate)

	if res := <-done; !res.Discarded {
		t.Error("reply should be discarded after selecting another conversation")
	}
	tr := s.Transcript()
	if len(tr) != 2 || tr[0].Text != "old q" || tr[1].Text != "old a" {
		t.Errorf("transcript = %+v, want loaded conversation only", tr)
	}
}

func TestSetMode_AffectsLaterSendsOnly(t *testing.T) {
	fb := &fakeBackend{answer: "a"}
	s := NewSession(fb, "budi")
	s.NewConversation()

	if _, err := s.Send(context.Background(), "one"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetMode(models.ModeDocument); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Send(context.Background(), "two"); err != nil {
		t.Fatal(err)
	}

	if fb.commands[0].Command() != "/sql one" || fb.commands[1].Command() != "/pdf two" {
		t.Errorf("commands = %q, %q", fb.commands[0].Command(), fb.commands[1].Command())
	}
	tr := s.Transcript()
	if tr[0].Text != "one" || tr[2].Text != "two" {
		t.Errorf("earlier turns changed: %+v", tr)
	}

	if err := s.SetMode(models.Mode("csv")); err == nil {
		t.Error("SetMode(invalid) should fail")
	}
	if s.Mode() != models.ModeDocument {
		t.Error("invalid SetMode should keep current mode")
	}
}

func TestSendWithMode(t *testing.T) {
	fb := &fakeBackend{
		answer:    "ok",
		sendGate:  make(chan struct{}),
		sendStart: make(chan struct{}, 1),
	}
	s := NewSession(fb, "budi")
	s.NewConversation()

	done := make(chan error, 1)
	go func() {
		_, err := s.Send(context.Background(), "first")
		done <- err
	}()
	<-fb.sendStart

	if _, err := s.SendWithMode(context.Background(), models.ModeDocument, "second"); !errors.Is(err, ErrBusy) {
		t.Fatalf("SendWithMode() while pending error = %v, want ErrBusy", err)
	}
	if s.Mode() != models.ModeSQL {
		t.Errorf("rejected send changed mode to %s", s.Mode())
	}
	if _, err := s.SendWithMode(context.Background(), models.ModeDocument, "  "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("empty SendWithMode() error = %v, want ErrEmptyMessage", err)
	}
	if s.Mode() != models.ModeSQL {
		t.Errorf("empty send changed mode to %s", s.Mode())
	}

	close(fb.sendGate)
	if err := <-done; err != nil {
		t.Fatalf("first Send() error = %v", err)
	}

	fb.sendGate = nil
	fb.sendStart = nil
	if _, err := s.SendWithMode(context.Background(), models.ModeDocument, "third"); err != nil {
		t.Fatal(err)
	}
	if got := fb.commands[1].Command(); got != "/pdf third" {
		t.Errorf("command = %q, want /pdf third", got)
	}
	if s.Mode() != models.ModeDocument {
		t.Errorf("mode = %s, want pdf after accepted send", s.Mode())
	}

	if _, err := s.SendWithMode(context.Background(), models.Mode("csv"), "q"); err == nil {
		t.Error("SendWithMode(invalid) should fail")
	}
}

func TestNewConversation_DistinctID(t *testing.T) {
	s := NewSession(&fakeBackend{}, "budi")
	prev := s.ConversationID()
	for i := 0; i < 20; i++ {
		next := s.NewConversation()
		if next == prev {
			t.Fatalf("NewConversation reused id %s", next)
		}
		if len(s.Transcript()) != 0 {
			t.Fatal("NewConversation should clear the transcript")
		}
		prev = next
	}
}

func TestSelectConversation_Success(t *testing.T) {
	fb := &fakeBackend{
		conversations: map[models.ConversationID][]models.HistoryRecord{
			"conv-9": {
				{UserQuestion: "q1", BotAnswer: "a1"},
				{UserQuestion: "q2", BotAnswer: "a2"},
			},
		},
	}
	s := NewSession(fb, "budi")

	id, err := s.SelectConversation(context.Background(), models.ConversationSummary{ConversationID: "conv-9"})
	if err != nil {
		t.Fatalf("SelectConversation() error = %v", err)
	}
	if id != "conv-9" || s.ConversationID() != "conv-9" {
		t.Errorf("active id = %s", s.ConversationID())
	}
	if tr := s.Transcript(); len(tr) != 4 || tr[3].Text != "a2" {
		t.Errorf("transcript = %+v", tr)
	}
}

func TestSelectConversation_FetchFailure(t *testing.T) {
	fb := &fakeBackend{answer: "x", fetchErr: errors.New("server unavailable")}
	s := NewSession(fb, "budi")
	s.NewConversation()
	_, _ = s.Send(context.Background(), "previous content")

	id, err := s.SelectConversation(context.Background(), models.ConversationSummary{ConversationID: "conv-7"})
	if err == nil {
		t.Fatal("SelectConversation() should report fetch failure")
	}
	if id != "conv-7" || s.ConversationID() != "conv-7" {
		t.Errorf("active id = %s, want adopted conv-7", s.ConversationID())
	}

	tr := s.Transcript()
	if len(tr) != 1 {
		t.Fatalf("transcript = %+v, want exactly one turn", tr)
	}
	if tr[0].Speaker != models.SpeakerBot || !strings.Contains(tr[0].Text, "server unavailable") {
		t.Errorf("error turn = %+v", tr[0])
	}
}

func TestSelectConversation_LegacySummary(t *testing.T) {
	fb := &fakeBackend{}
	s := NewSession(fb, "budi", WithIDSource(sequentialIDs()))

	id, err := s.SelectConversation(context.Background(), models.ConversationSummary{Snippet: "legacy"})
	if err != nil {
		t.Fatalf("SelectConversation() error = %v", err)
	}
	if id != "id-2" {
		t.Errorf("adopted id = %s, want freshly issued id-2", id)
	}
	if len(fb.fetched) != 0 {
		t.Errorf("legacy summary should not trigger a fetch, got %v", fb.fetched)
	}
	if len(s.Transcript()) != 0 {
		t.Error("legacy selection should leave an empty transcript")
	}
}

func TestSelectConversation_StaleLoadDiscarded(t *testing.T) {
	fb := &fakeBackend{
		fetchGate:  make(chan struct{}),
		fetchStart: make(chan struct{}, 1),
		conversations: map[models.ConversationID][]models.HistoryRecord{
			"slow": {{UserQuestion: "slow q"}},
		},
	}
	s := NewSession(fb, "budi")

	done := make(chan struct{})
	go func() {
		_, _ = s.SelectConversation(context.Background(), models.ConversationSummary{ConversationID: "slow"})
		close(done)
	}()
	<-fb.fetchStart

	if !s.Pending() {
		t.Error("session should be pending while loading")
	}
	if _, err := s.Send(context.Background(), "while loading"); !errors.Is(err, ErrBusy) {
		t.Errorf("Send during load error = %v, want ErrBusy", err)
	}

	fresh := s.NewConversation()
	close(fb.fetchGate)
	<-done

	if s.ConversationID() != fresh {
		t.Error("stale load changed the active conversation")
	}
	if len(s.Transcript()) != 0 {
		t.Errorf("stale load wrote transcript: %+v", s.Transcript())
	}
}

func TestOnChange_UserTurnVisibleBeforeReply(t *testing.T) {
	var mu sync.Mutex
	var lengths []int
	fb := &fakeBackend{answer: "a"}
	s := NewSession(fb, "budi", WithOnChange(func(snap Snapshot) {
		mu.Lock()
		lengths = append(lengths, len(snap.Transcript))
		mu.Unlock()
	}))
	s.NewConversation()
	if _, err := s.Send(context.Background(), "q"); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []int{0, 1, 2}
	if len(lengths) != len(want) {
		t.Fatalf("notifications = %v, want %v", lengths, want)
	}
	for i := range want {
		if lengths[i] != want[i] {
			t.Errorf("notifications = %v, want %v", lengths, want)
			break
		}
	}
}

func TestHistoryAndTimeline(t *testing.T) {
	fb := &fakeBackend{userHistory: []models.HistoryRecord{
		{ConversationID: "x", UserQuestion: "A?", BotAnswer: "1", Timestamp: at(1)},
		{ConversationID: "y", UserQuestion: "C?", BotAnswer: "3", Timestamp: at(86400 * 3)},
	}}
	s := NewSession(fb, "budi")

	summaries, err := s.History(context.Background())
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(summaries) != 2 || summaries[0].ConversationID != "y" {
		t.Errorf("summaries = %+v", summaries)
	}

	buckets, err := s.Timeline(context.Background())
	if err != nil {
		t.Fatalf("Timeline() error = %v", err)
	}
	if len(buckets) != 2 || len(buckets[0].Turns) != 2 {
		t.Errorf("buckets = %+v", buckets)
	}

	fb.historyErr = errors.New("boom")
	if _, err := s.History(context.Background()); err == nil {
		t.Error("History() should propagate backend errors")
	}
}

type friendlyErr struct{}

func (friendlyErr) Error() string       { return "status 500" }
func (friendlyErr) UserMessage() string { return "Command, username, and conversation_id are required" }

func TestHumanMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{errors.New("plain"), "plain"},
		{friendlyErr{}, "Command, username, and conversation_id are required"},
		{context.DeadlineExceeded, "the server took too long to respond"},
	}
	for _, tt := range tests {
		if got := HumanMessage(tt.err); got != tt.want {
			t.Errorf("HumanMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
