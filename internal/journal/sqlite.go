package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/mindjournal/internal/contracts"
)

// SQLiteStore is the single-file store used by the offline CLI
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps a database opened with database.OpenSQLite
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// ListRecords returns the non-deleted entries of userID in year, oldest first
func (s *SQLiteStore) ListRecords(ctx context.Context, userID string, year int) ([]contracts.JournalRecord, error) {
	// dates are stored as YYYY-MM-DD text, so bound by the year's first and
	// last day; Jan 1 of year+1 would not sort after year 9999
	first := contracts.NewDate(year, time.January, 1).String()
	last := contracts.NewDate(year, time.December, 31).String()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, journal_type, entry_date, created_at,
		       overall_score, depression_score, anxiety_score, stress_score,
		       dominant_emotion
		FROM journal_entries
		WHERE user_id = ? AND entry_date >= ? AND entry_date <= ? AND is_deleted = 0
		ORDER BY entry_date, created_at`,
		userID, first, last,
	)
	if err != nil {
		return nil, fmt.Errorf("query journal entries: %w", err)
	}
	defer rows.Close()

	var records []contracts.JournalRecord
	for rows.Next() {
		var (
			rec                                  contracts.JournalRecord
			typ, entryDate                       string
			overall, depression, anxiety, stress sql.NullInt64
		)
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &typ, &entryDate, &rec.Timestamp,
			&overall, &depression, &anxiety, &stress,
			&rec.DominantEmotion,
		); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}

		// a corrupt date stays zero and is reported by the aggregator
		rec.Date, _ = contracts.ParseDate(entryDate)
		rec.Type = contracts.JournalType(typ)
		rec.Timestamp = rec.Timestamp.UTC()
		rec.Scores = contracts.Scores{
			Overall:    scoreFromNull(overall),
			Depression: scoreFromNull(depression),
			Anxiety:    scoreFromNull(anxiety),
			Stress:     scoreFromNull(stress),
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CreateEntry inserts a new entry for userID
func (s *SQLiteStore) CreateEntry(ctx context.Context, userID string, entry contracts.NewEntry, now time.Time) (*contracts.JournalRecord, error) {
	rec, err := prepareEntry(userID, entry, now)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO journal_entries (
			id, user_id, journal_type, entry_date, created_at,
			overall_score, depression_score, anxiety_score, stress_score,
			dominant_emotion, content
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, string(rec.Type), rec.Date.String(), rec.Timestamp,
		nullableScore(rec.Scores.Overall), nullableScore(rec.Scores.Depression),
		nullableScore(rec.Scores.Anxiety), nullableScore(rec.Scores.Stress),
		rec.DominantEmotion, entry.Content,
	)
	if err != nil {
		return nil, fmt.Errorf("insert journal entry: %w", err)
	}
	return &rec, nil
}

// DeleteEntry soft-deletes an entry owned by userID and returns its date
func (s *SQLiteStore) DeleteEntry(ctx context.Context, userID, entryID string) (contracts.Date, error) {
	var entryDate string
	err := s.db.QueryRowContext(ctx,
		`UPDATE journal_entries SET is_deleted = 1
		 WHERE id = ? AND user_id = ? AND is_deleted = 0
		 RETURNING entry_date`,
		entryID, userID,
	).Scan(&entryDate)
	if errors.Is(err, sql.ErrNoRows) {
		return contracts.Date{}, fmt.Errorf("%w: entry %s", contracts.ErrNotFound, entryID)
	}
	if err != nil {
		return contracts.Date{}, fmt.Errorf("delete journal entry: %w", err)
	}

	// a corrupt date stays zero; callers fall back to the current year
	date, _ := contracts.ParseDate(entryDate)
	return date, nil
}

// ActiveUsers returns the users with at least one entry on or after since
func (s *SQLiteStore) ActiveUsers(ctx context.Context, since contracts.Date) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM journal_entries WHERE entry_date >= ? AND is_deleted = 0 ORDER BY user_id`,
		since.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("query active users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		users = append(users, id)
	}
	return users, rows.Err()
}

func scoreFromNull(v sql.NullInt64) contracts.Score {
	if !v.Valid {
		return contracts.Score{}
	}
	return contracts.SomeScore(int(v.Int64))
}
