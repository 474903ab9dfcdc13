package contracts

import (
	"context"
	"time"
)

// RecordSource supplies the journal records of one user and year.
// Implementations: postgres and sqlite stores, the remote journal API, deterministic fixtures.
type RecordSource interface {
	ListRecords(ctx context.Context, userID string, year int) ([]JournalRecord, error)
}

// EntryStore is a writable RecordSource
type EntryStore interface {
	RecordSource
	CreateEntry(ctx context.Context, userID string, entry NewEntry, now time.Time) (*JournalRecord, error)
	// DeleteEntry returns the calendar day of the removed entry
	DeleteEntry(ctx context.Context, userID, entryID string) (Date, error)
	ActiveUsers(ctx context.Context, since Date) ([]string, error)
}
