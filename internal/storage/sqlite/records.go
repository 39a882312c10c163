// ABOUTME: History record storage operations for SQLite
// ABOUTME: Saves, lists, and replaces cached question/answer exchanges
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harper/chatdesk/internal/models"
)

// History listings carry no answers, so an empty answer never replaces a cached one
const upsertRecord = `
	INSERT INTO history_records (id, conversation_id, username, user_question, bot_answer, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(conversation_id, created_at, user_question) DO UPDATE SET
		bot_answer = CASE WHEN excluded.bot_answer != '' THEN excluded.bot_answer ELSE history_records.bot_answer END,
		username = CASE WHEN excluded.username != '' THEN excluded.username ELSE history_records.username END,
		cached_at = CURRENT_TIMESTAMP
`

// Unknown times sort after every known one, then insertion order breaks ties
const selectRecords = `
	SELECT conversation_id, username, user_question, bot_answer, created_at
	FROM history_records
`

const orderRecords = `
	ORDER BY (created_at = 0), created_at ASC, rowid ASC
`

// RecordStore handles history record persistence
type RecordStore struct {
	db *DB
}

// NewRecordStore creates a new RecordStore
func NewRecordStore(db *DB) *RecordStore {
	return &RecordStore{db: db}
}

func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func saveRecord(x execer, rec models.HistoryRecord) error {
	if rec.ConversationID.IsZero() {
		return nil
	}
	_, err := x.Exec(upsertRecord, uuid.NewString(), string(rec.ConversationID), rec.Username,
		rec.UserQuestion, rec.BotAnswer, toNanos(rec.Timestamp))
	return err
}

// Save upserts one record; records without a conversation id are skipped
func (s *RecordStore) Save(rec models.HistoryRecord) error {
	return saveRecord(s.db, rec)
}

// SaveAll upserts records in a single transaction
func (s *RecordStore) SaveAll(records []models.HistoryRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, rec := range records {
		if err := saveRecord(tx, rec); err != nil {
			return fmt.Errorf("failed to save record for %s: %w", rec.ConversationID, err)
		}
	}
	return tx.Commit()
}

// ReplaceConversation swaps every cached row of id for records
func (s *RecordStore) ReplaceConversation(id models.ConversationID, records []models.HistoryRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM history_records WHERE conversation_id = ?", string(id)); err != nil {
		return fmt.Errorf("failed to clear conversation %s: %w", id, err)
	}
	for _, rec := range records {
		rec.ConversationID = id
		if err := saveRecord(tx, rec); err != nil {
			return fmt.Errorf("failed to save record for %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// ByConversation returns a conversation's records, oldest first
func (s *RecordStore) ByConversation(id models.ConversationID) ([]models.HistoryRecord, error) {
	return s.query(selectRecords+"WHERE conversation_id = ?"+orderRecords, string(id))
}

// ByUser returns every record owned by username
func (s *RecordStore) ByUser(username string) ([]models.HistoryRecord, error) {
	return s.query(selectRecords+"WHERE username = ?"+orderRecords, username)
}

// All returns every cached record
func (s *RecordStore) All() ([]models.HistoryRecord, error) {
	return s.query(selectRecords + orderRecords)
}

// DeleteConversation removes a conversation's records and reports how many went
func (s *RecordStore) DeleteConversation(id models.ConversationID) (int64, error) {
	res, err := s.db.Exec("DELETE FROM history_records WHERE conversation_id = ?", string(id))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Count returns the number of cached records
func (s *RecordStore) Count() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM history_records").Scan(&n)
	return n, err
}

func (s *RecordStore) query(q string, args ...any) ([]models.HistoryRecord, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	records := []models.HistoryRecord{}
	for rows.Next() {
		var (
			rec     models.HistoryRecord
			id      string
			created int64
		)
		if err := rows.Scan(&id, &rec.Username, &rec.UserQuestion, &rec.BotAnswer, &created); err != nil {
			return nil, err
		}
		rec.ConversationID = models.ConversationID(id)
		rec.Timestamp = fromNanos(created)
		records = append(records, rec)
	}
	return records, rows.Err()
}
