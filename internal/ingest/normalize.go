// Package ingest converts journal entries as served by the journal backend
// into contracts.JournalRecord values. All score fallbacks live here.
package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/wonny/mindjournal/internal/contracts"
)

// LLMAssessment is the nested assessment block. Text journals report
// mental_health_score, video journals overall_mental_health_score.
type LLMAssessment struct {
	MentalHealthScore        *float64 `json:"mental_health_score"`
	OverallMentalHealthScore *float64 `json:"overall_mental_health_score"`
	DepressionScore          *float64 `json:"depression_score"`
	AnxietyScore             *float64 `json:"anxiety_score"`
	StressScore              *float64 `json:"stress_score"`
}

// EmotionAnalysis is the nested emotion block
type EmotionAnalysis struct {
	DominantEmotion string `json:"dominant_emotion"`
}

// RawEntry is one element of the journal listing response
type RawEntry struct {
	ID          string `json:"id"`
	MongoID     string `json:"_id"`
	UserID      string `json:"user_id"`
	JournalType string `json:"journal_type"`
	Date        string `json:"date"`
	Timestamp   string `json:"timestamp"`

	// flat scores used by older entries
	MentalHealthScore *float64 `json:"mental_health_score"`
	DepressionScore   *float64 `json:"depression_score"`
	AnxietyScore      *float64 `json:"anxiety_score"`
	StressScore       *float64 `json:"stress_score"`

	LLMAssessment   *LLMAssessment   `json:"llm_assessment"`
	EmotionAnalysis *EmotionAnalysis `json:"emotion_analysis"`
}

// listing is the envelope of GET /api/journal/entries
type listing struct {
	Entries []RawEntry `json:"entries"`
}

// DecodeListing accepts either {"entries": [...]} or a bare array
func DecodeListing(data []byte) ([]RawEntry, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var entries []RawEntry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("decode journal entries: %w", err)
		}
		return entries, nil
	}

	var l listing
	if err := json.Unmarshal(trimmed, &l); err != nil {
		return nil, fmt.Errorf("decode journal listing: %w", err)
	}
	return l.Entries, nil
}

// ResolveScores applies the fallback chain for every metric:
// nested assessment value, then flat value, else absent.
func ResolveScores(e RawEntry) contracts.Scores {
	var llm LLMAssessment
	if e.LLMAssessment != nil {
		llm = *e.LLMAssessment
	}
	return contracts.Scores{
		Overall:    firstScore(llm.MentalHealthScore, llm.OverallMentalHealthScore, e.MentalHealthScore),
		Depression: firstScore(llm.DepressionScore, e.DepressionScore),
		Anxiety:    firstScore(llm.AnxietyScore, e.AnxietyScore),
		Stress:     firstScore(llm.StressScore, e.StressScore),
	}
}

func firstScore(candidates ...*float64) contracts.Score {
	for _, c := range candidates {
		if c == nil || math.IsNaN(*c) {
			continue
		}
		return contracts.SomeScore(clamp(int(math.Round(*c))))
	}
	return contracts.Score{}
}

func clamp(v int) int {
	return max(0, min(100, v))
}

// Normalize converts one raw entry. An unparseable date leaves Date zero so
// aggregation reports the record instead of failing.
func Normalize(e RawEntry) contracts.JournalRecord {
	id := e.ID
	if id == "" {
		id = e.MongoID
	}

	rec := contracts.JournalRecord{
		ID:     id,
		UserID: e.UserID,
		Type:   contracts.JournalType(strings.ToLower(e.JournalType)),
		Scores: ResolveScores(e),
	}
	if !rec.Type.Valid() {
		rec.Type = contracts.JournalText
	}
	if e.EmotionAnalysis != nil {
		rec.DominantEmotion = e.EmotionAnalysis.DominantEmotion
	}

	if d, err := contracts.ParseDate(dateOnly(e.Date)); err == nil {
		rec.Date = d
	}
	rec.Timestamp = parseTimestamp(e.Timestamp)
	return rec
}

// NormalizeAll converts a listing, preserving order
func NormalizeAll(entries []RawEntry) []contracts.JournalRecord {
	records := make([]contracts.JournalRecord, len(entries))
	for i, e := range entries {
		records[i] = Normalize(e)
	}
	return records
}

// timestampLayouts covers RFC3339 and naive ISO timestamps, which are UTC
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// dateOnly keeps the calendar part of a date-time value; the backend stores
// dates as midnight datetimes, with or without a zone.
func dateOnly(s string) string {
	n := len(contracts.DateLayout)
	if len(s) > n && (s[n] == 'T' || s[n] == ' ') {
		return s[:n]
	}
	return s
}
