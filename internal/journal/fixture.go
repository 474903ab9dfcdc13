package journal

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/wonny/mindjournal/internal/contracts"
)

var fixtureEmotions = []string{"joy", "calm", "neutral", "sadness", "anxiety", "anger", "gratitude"}

// FixtureSource generates plausible journal activity. The same seed, user
// and year always produce the same records, so it can stand in for the live
// backend in tests and offline demos.
type FixtureSource struct {
	seed int64
	now  func() time.Time
}

// NewFixtureSource creates a generator. Days after now() are left empty.
func NewFixtureSource(seed int64, now func() time.Time) *FixtureSource {
	if now == nil {
		now = time.Now
	}
	return &FixtureSource{seed: seed, now: now}
}

// ListRecords generates the records of userID in year
func (s *FixtureSource) ListRecords(_ context.Context, userID string, year int) ([]contracts.JournalRecord, error) {
	if year < 1 || year > 9999 {
		return nil, fmt.Errorf("%w: year %d out of range", contracts.ErrInvalidArgument, year)
	}

	rng := rand.New(rand.NewSource(s.userSeed(userID, year)))
	today := contracts.DateOf(s.now().UTC())

	var records []contracts.JournalRecord
	active := rng.Intn(2) == 0
	for day := contracts.NewDate(year, time.January, 1); day.Year == year && !today.Before(day); day = day.AddDays(1) {
		// habits come in runs: keep the current mode with high probability
		if rng.Intn(100) < 15 {
			active = !active
		}
		if !active {
			continue
		}

		n := entryCount(rng)
		for i := 0; i < n; i++ {
			records = append(records, s.record(rng, userID, day, len(records)))
		}
	}
	return records, nil
}

func (s *FixtureSource) userSeed(userID string, year int) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(userID))
	return s.seed ^ int64(h.Sum64()) ^ int64(year)
}

// entryCount favours one entry a day with an occasional busy day
func entryCount(rng *rand.Rand) int {
	switch p := rng.Intn(100); {
	case p < 55:
		return 1
	case p < 80:
		return 2
	case p < 90:
		return 3
	case p < 96:
		return 4
	default:
		return 5 + rng.Intn(3)
	}
}

func (s *FixtureSource) record(rng *rand.Rand, userID string, day contracts.Date, seq int) contracts.JournalRecord {
	typ := contracts.JournalText
	if rng.Intn(4) == 0 {
		typ = contracts.JournalVideo
	}

	hour := 7 + rng.Intn(16)
	ts := day.Time().Add(time.Duration(hour)*time.Hour + time.Duration(rng.Intn(60))*time.Minute)

	rec := contracts.JournalRecord{
		ID:              fmt.Sprintf("fixture-%s-%d", userID, seq),
		UserID:          userID,
		Type:            typ,
		Date:            day,
		Timestamp:       ts,
		DominantEmotion: fixtureEmotions[rng.Intn(len(fixtureEmotions))],
	}

	// roughly one entry in ten has not been assessed yet
	if rng.Intn(10) > 0 {
		rec.Scores = contracts.Scores{
			Overall:    contracts.SomeScore(30 + rng.Intn(61)),
			Depression: contracts.SomeScore(rng.Intn(60)),
			Anxiety:    contracts.SomeScore(rng.Intn(70)),
			Stress:     contracts.SomeScore(rng.Intn(80)),
		}
	}
	return rec
}
