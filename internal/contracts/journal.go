package contracts

import (
	"bytes"
	"encoding/json"
	"math"
	"time"
)

// JournalType distinguishes text and video journals
type JournalType string

const (
	JournalText  JournalType = "text"
	JournalVideo JournalType = "video"
)

// Valid reports whether t is a known journal type
func (t JournalType) Valid() bool {
	return t == JournalText || t == JournalVideo
}

// Score is an optional wellness metric in [0, 100]
type Score struct {
	Value int
	Valid bool
}

// SomeScore returns a present score
func SomeScore(v int) Score {
	return Score{Value: v, Valid: true}
}

// Or returns the value if present, otherwise def
func (s Score) Or(def int) int {
	if !s.Valid {
		return def
	}
	return s.Value
}

// MarshalJSON encodes an absent score as null
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

// UnmarshalJSON decodes a number or null
func (s *Score) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*s = Score{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*s = SomeScore(int(math.Round(f)))
	return nil
}

// Scores holds the named metrics of an entry. Any of them may be absent.
type Scores struct {
	Overall    Score `json:"overall"`
	Depression Score `json:"depression"`
	Anxiety    Score `json:"anxiety"`
	Stress     Score `json:"stress"`
}

// JournalRecord is one persisted journal entry as seen by aggregation
type JournalRecord struct {
	ID              string      `json:"id"`
	UserID          string      `json:"user_id"`
	Type            JournalType `json:"journal_type"`
	Date            Date        `json:"date"`      // day the entry is attributed to
	Timestamp       time.Time   `json:"timestamp"` // creation instant
	Scores          Scores      `json:"scores"`
	DominantEmotion string      `json:"dominant_emotion,omitempty"`
}

// NewEntry is the input for creating a journal entry
type NewEntry struct {
	Type            JournalType `json:"journal_type"`
	Date            Date        `json:"date"` // optional, defaults to today
	Content         string      `json:"content"`
	Scores          Scores      `json:"scores"`
	DominantEmotion string      `json:"dominant_emotion"`
}
