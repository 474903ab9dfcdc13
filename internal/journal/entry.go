// Package journal provides the record sources behind the dashboard:
// postgres and sqlite stores, the remote journal API and deterministic fixtures.
package journal

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/mindjournal/internal/contracts"
)

// prepareEntry validates a new entry and fills in its defaults
func prepareEntry(userID string, entry contracts.NewEntry, now time.Time) (contracts.JournalRecord, error) {
	if userID == "" {
		return contracts.JournalRecord{}, fmt.Errorf("%w: user id is required", contracts.ErrInvalidArgument)
	}

	if entry.Type == "" {
		entry.Type = contracts.JournalText
	}
	if !entry.Type.Valid() {
		return contracts.JournalRecord{}, fmt.Errorf("%w: unknown journal type %q", contracts.ErrInvalidArgument, entry.Type)
	}

	for name, s := range map[string]contracts.Score{
		"overall":    entry.Scores.Overall,
		"depression": entry.Scores.Depression,
		"anxiety":    entry.Scores.Anxiety,
		"stress":     entry.Scores.Stress,
	} {
		if s.Valid && (s.Value < 0 || s.Value > 100) {
			return contracts.JournalRecord{}, fmt.Errorf("%w: %s score %d outside [0, 100]", contracts.ErrInvalidArgument, name, s.Value)
		}
	}

	date := entry.Date
	if date.IsZero() {
		date = contracts.DateOf(now)
	}

	return contracts.JournalRecord{
		ID:              uuid.NewString(),
		UserID:          userID,
		Type:            entry.Type,
		Date:            date,
		Timestamp:       now.UTC(),
		Scores:          entry.Scores,
		DominantEmotion: entry.DominantEmotion,
	}, nil
}

// yearBounds returns [Jan 1 of year, Jan 1 of year+1)
func yearBounds(year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}

func scoreFromNullable(v *int) contracts.Score {
	if v == nil {
		return contracts.Score{}
	}
	return contracts.SomeScore(*v)
}

func nullableScore(s contracts.Score) *int {
	if !s.Valid {
		return nil
	}
	v := s.Value
	return &v
}
