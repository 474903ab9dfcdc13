package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/mindjournal/internal/contracts"
)

// PostgresStore keeps journal entries in the journal_entries table
// SSOT: journal entry persistence
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new postgres-backed store
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// ListRecords returns the non-deleted entries of userID in year, oldest first
func (s *PostgresStore) ListRecords(ctx context.Context, userID string, year int) ([]contracts.JournalRecord, error) {
	start, end := yearBounds(year)

	query := `
		SELECT id::text, user_id, journal_type, entry_date, created_at,
		       overall_score, depression_score, anxiety_score, stress_score,
		       dominant_emotion
		FROM journal_entries
		WHERE user_id = $1
		  AND entry_date >= $2 AND entry_date < $3
		  AND NOT is_deleted
		ORDER BY entry_date, created_at
	`

	rows, err := s.pool.Query(ctx, query, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal entries: %w", err)
	}
	defer rows.Close()

	var records []contracts.JournalRecord
	for rows.Next() {
		var (
			rec                                  contracts.JournalRecord
			typ                                  string
			entryDate                            time.Time
			overall, depression, anxiety, stress *int
		)
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &typ, &entryDate, &rec.Timestamp,
			&overall, &depression, &anxiety, &stress,
			&rec.DominantEmotion,
		); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}

		rec.Type = contracts.JournalType(typ)
		rec.Date = contracts.DateOf(entryDate)
		rec.Timestamp = rec.Timestamp.UTC()
		rec.Scores = contracts.Scores{
			Overall:    scoreFromNullable(overall),
			Depression: scoreFromNullable(depression),
			Anxiety:    scoreFromNullable(anxiety),
			Stress:     scoreFromNullable(stress),
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate journal entries: %w", err)
	}

	return records, nil
}

// CreateEntry inserts a new entry for userID
func (s *PostgresStore) CreateEntry(ctx context.Context, userID string, entry contracts.NewEntry, now time.Time) (*contracts.JournalRecord, error) {
	rec, err := prepareEntry(userID, entry, now)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO journal_entries (
			id, user_id, journal_type, entry_date, created_at,
			overall_score, depression_score, anxiety_score, stress_score,
			dominant_emotion, content
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = s.pool.Exec(ctx, query,
		rec.ID, rec.UserID, string(rec.Type), rec.Date.Time(), rec.Timestamp,
		nullableScore(rec.Scores.Overall), nullableScore(rec.Scores.Depression),
		nullableScore(rec.Scores.Anxiety), nullableScore(rec.Scores.Stress),
		rec.DominantEmotion, entry.Content,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert journal entry: %w", err)
	}

	return &rec, nil
}

// DeleteEntry soft-deletes an entry owned by userID and returns its date
func (s *PostgresStore) DeleteEntry(ctx context.Context, userID, entryID string) (contracts.Date, error) {
	if _, err := uuid.Parse(entryID); err != nil {
		return contracts.Date{}, fmt.Errorf("%w: entry %s", contracts.ErrNotFound, entryID)
	}

	query := `
		UPDATE journal_entries
		SET is_deleted = TRUE
		WHERE id = $1 AND user_id = $2 AND NOT is_deleted
		RETURNING entry_date
	`

	var entryDate time.Time
	err := s.pool.QueryRow(ctx, query, entryID, userID).Scan(&entryDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return contracts.Date{}, fmt.Errorf("%w: entry %s", contracts.ErrNotFound, entryID)
	}
	if err != nil {
		return contracts.Date{}, fmt.Errorf("failed to delete journal entry: %w", err)
	}
	return contracts.DateOf(entryDate), nil
}

// ActiveUsers returns the users with at least one entry on or after since
func (s *PostgresStore) ActiveUsers(ctx context.Context, since contracts.Date) ([]string, error) {
	query := `
		SELECT DISTINCT user_id
		FROM journal_entries
		WHERE entry_date >= $1 AND NOT is_deleted
		ORDER BY user_id
	`

	rows, err := s.pool.Query(ctx, query, since.Time())
	if err != nil {
		return nil, fmt.Errorf("failed to query active users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		users = append(users, id)
	}
	return users, rows.Err()
}
