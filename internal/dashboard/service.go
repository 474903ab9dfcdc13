// Package dashboard serves heatmaps and journal statistics for one user,
// combining a record source, the aggregator, the cache and realtime updates.
package dashboard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wonny/mindjournal/internal/contracts"
	"github.com/wonny/mindjournal/internal/heatmap"
	"github.com/wonny/mindjournal/internal/realtime"
	"github.com/wonny/mindjournal/pkg/logger"
	"github.com/wonny/mindjournal/pkg/redis"
)

// Service is the dashboard use-case layer
type Service struct {
	source   contracts.RecordSource
	agg      *heatmap.Aggregator
	cache    *redis.Cache
	hub      *realtime.Hub
	cacheTTL time.Duration
	loc      *time.Location
	logger   *logger.Logger
}

// Options are the optional collaborators of a Service
type Options struct {
	Cache    *redis.Cache  // nil disables memoization
	Hub      *realtime.Hub // nil disables push updates
	CacheTTL time.Duration
	Location *time.Location // zone of entry timestamps for hour patterns
}

// NewService creates a dashboard service
func NewService(source contracts.RecordSource, agg *heatmap.Aggregator, log *logger.Logger, opts Options) *Service {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = redis.DefaultTTL
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Service{
		source:   source,
		agg:      agg,
		cache:    opts.Cache,
		hub:      opts.Hub,
		cacheTTL: opts.CacheTTL,
		loc:      opts.Location,
		logger:   log.Component("dashboard"),
	}
}

// Writable reports whether the source accepts new entries
func (s *Service) Writable() bool {
	_, ok := s.source.(contracts.EntryStore)
	return ok
}

// Today returns the current day as seen by the aggregator
func (s *Service) Today() contracts.Date {
	return s.agg.Today()
}

// Heatmap returns the yearly grid of userID. The aggregation is memoized by
// a fingerprint of its inputs, so new records never hit a stale entry.
func (s *Service) Heatmap(ctx context.Context, userID string, year int) (*contracts.HeatmapResponse, error) {
	if year < 1 || year > 9999 {
		return nil, fmt.Errorf("%w: year %d out of range", contracts.ErrInvalidArgument, year)
	}

	records, err := s.source.ListRecords(ctx, userID, year)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	build := func() (interface{}, error) {
		return s.build(userID, year, records)
	}

	if s.cache == nil {
		v, err := build()
		if err != nil {
			return nil, err
		}
		return v.(*contracts.HeatmapResponse), nil
	}

	fp, err := s.fingerprint(records)
	if err != nil {
		return nil, err
	}

	var resp contracts.HeatmapResponse
	if err := s.cache.GetOrSet(ctx, redis.HeatmapKey(userID, year, fp), &resp, s.cacheTTL, build); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *Service) build(userID string, year int, records []contracts.JournalRecord) (*contracts.HeatmapResponse, error) {
	start := time.Now()

	grid, err := s.agg.BuildGrid(records, year)
	if err != nil {
		return nil, err
	}

	for _, skipped := range grid.Skipped {
		s.logger.WithFields(map[string]interface{}{
			"user_id":   userID,
			"index":     skipped.Index,
			"record_id": skipped.RecordID,
			"reason":    skipped.Reason,
		}).Warn("Skipped journal record")
	}

	zl := s.logger.Zerolog()
	zl.Debug().
		Str("user_id", userID).
		Int("year", year).
		Int("records", len(records)).
		Int("current_streak", grid.Streak.CurrentStreak).
		Dur("took", time.Since(start)).
		Msg("Heatmap built")

	return &contracts.HeatmapResponse{
		UserID:       userID,
		Year:         year,
		Weeks:        grid.Weeks,
		Streak:       grid.Streak,
		Milestones:   heatmap.Milestones(grid.Streak.LongestStreak),
		TotalEntries: grid.TotalEntries,
		Skipped:      len(grid.Skipped),
	}, nil
}

// fingerprint hashes everything the grid depends on: records, today and thresholds
func (s *Service) fingerprint(records []contracts.JournalRecord) (string, error) {
	data, err := json.Marshal(struct {
		Records []contracts.JournalRecord `json:"records"`
		Today   contracts.Date            `json:"today"`
		Levels  heatmap.Levels            `json:"levels"`
		Pending bool                      `json:"pending_today"`
	}{records, s.agg.Today(), s.agg.Levels(), s.agg.PendingToday()})
	if err != nil {
		return "", fmt.Errorf("fingerprint records: %w", err)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// MonthlyStats returns the statistics of one month
func (s *Service) MonthlyStats(ctx context.Context, userID string, year, month int) (*contracts.MonthlyStats, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: month %d out of range", contracts.ErrInvalidArgument, month)
	}
	if year < 1 || year > 9999 {
		return nil, fmt.Errorf("%w: year %d out of range", contracts.ErrInvalidArgument, year)
	}

	records, err := s.source.ListRecords(ctx, userID, year)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	stats, err := heatmap.MonthlyStats(records, year, month)
	if err != nil {
		return nil, err
	}
	stats.UserID = userID
	return stats, nil
}

// DailySummaries returns per-day summaries of a year
func (s *Service) DailySummaries(ctx context.Context, userID string, year int) ([]contracts.DailySummary, error) {
	if year < 1 || year > 9999 {
		return nil, fmt.Errorf("%w: year %d out of range", contracts.ErrInvalidArgument, year)
	}

	records, err := s.source.ListRecords(ctx, userID, year)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return heatmap.DailySummaries(inYear(records, year)), nil
}

// HourPattern returns the hour-of-day histogram of a year
func (s *Service) HourPattern(ctx context.Context, userID string, year int) (contracts.HourPattern, error) {
	if year < 1 || year > 9999 {
		return contracts.HourPattern{}, fmt.Errorf("%w: year %d out of range", contracts.ErrInvalidArgument, year)
	}

	records, err := s.source.ListRecords(ctx, userID, year)
	if err != nil {
		return contracts.HourPattern{}, fmt.Errorf("list records: %w", err)
	}
	return heatmap.HourPattern(inYear(records, year), s.loc), nil
}

func inYear(records []contracts.JournalRecord, year int) []contracts.JournalRecord {
	out := records[:0:0]
	for _, r := range records {
		if r.Date.Year == year {
			out = append(out, r)
		}
	}
	return out
}

func (s *Service) store() (contracts.EntryStore, error) {
	store, ok := s.source.(contracts.EntryStore)
	if !ok {
		return nil, contracts.ErrReadOnly
	}
	return store, nil
}

// AddEntry stores a new entry, then pushes the refreshed heatmap to userID's dashboards
func (s *Service) AddEntry(ctx context.Context, userID string, entry contracts.NewEntry) (*contracts.JournalRecord, error) {
	store, err := s.store()
	if err != nil {
		return nil, err
	}

	rec, err := store.CreateEntry(ctx, userID, entry, s.now())
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":  userID,
		"entry_id": rec.ID,
		"date":     rec.Date.String(),
	}).Info("Journal entry created")

	s.publishHeatmap(ctx, userID, rec.Date.Year)
	return rec, nil
}

// DeleteEntry removes an entry of userID and pushes the refreshed heatmap
func (s *Service) DeleteEntry(ctx context.Context, userID, entryID string) error {
	store, err := s.store()
	if err != nil {
		return err
	}

	date, err := store.DeleteEntry(ctx, userID, entryID)
	if err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":  userID,
		"entry_id": entryID,
		"date":     date.String(),
	}).Info("Journal entry deleted")

	if s.hub != nil {
		s.hub.Publish(realtime.Update{
			Type:    realtime.UpdateEntryDeleted,
			UserID:  userID,
			Payload: map[string]string{"id": entryID, "date": date.String()},
		})
	}

	year := date.Year
	if date.IsZero() {
		year = s.agg.Today().Year
	}
	s.publishHeatmap(ctx, userID, year)
	return nil
}

// publishHeatmap is best effort: the write already succeeded
func (s *Service) publishHeatmap(ctx context.Context, userID string, year int) {
	if s.hub == nil || s.hub.Subscribers(userID) == 0 {
		return
	}

	resp, err := s.Heatmap(ctx, userID, year)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to rebuild heatmap after write")
		return
	}
	s.hub.Publish(realtime.Update{Type: realtime.UpdateHeatmap, UserID: userID, Payload: resp})
}

// StreakAtRisk reports whether userID has a running streak but no entry today.
// The returned state is that of the current year.
func (s *Service) StreakAtRisk(ctx context.Context, userID string) (bool, contracts.StreakState, error) {
	today := s.agg.Today()
	resp, err := s.Heatmap(ctx, userID, today.Year)
	if err != nil {
		return false, contracts.StreakState{}, err
	}

	idx := today.Time().YearDay() - 1
	cell := resp.Weeks[idx/contracts.DaysPerWeek][idx%contracts.DaysPerWeek]
	if cell.EntryCount > 0 {
		return false, resp.Streak, nil
	}

	// with a strict break rule an empty today already reads 0, so look at yesterday's run
	streak := resp.Streak
	if streak.CurrentStreak == 0 && idx > 0 {
		streak.CurrentStreak = runEndingAt(resp, idx-1)
	}
	return streak.CurrentStreak > 0, streak, nil
}

func runEndingAt(resp *contracts.HeatmapResponse, idx int) int {
	n := 0
	for ; idx >= 0; idx-- {
		if resp.Weeks[idx/contracts.DaysPerWeek][idx%contracts.DaysPerWeek].EntryCount == 0 {
			break
		}
		n++
	}
	return n
}

// NotifyStreakAtRisk publishes a streak_at_risk update when applicable
func (s *Service) NotifyStreakAtRisk(ctx context.Context, userID string) (bool, error) {
	atRisk, streak, err := s.StreakAtRisk(ctx, userID)
	if err != nil || !atRisk {
		return false, err
	}
	if s.hub != nil {
		s.hub.Publish(realtime.Update{Type: realtime.UpdateStreakAtRisk, UserID: userID, Payload: streak})
	}
	return true, nil
}

// ActiveUsers lists users with entries since the given day
func (s *Service) ActiveUsers(ctx context.Context, since contracts.Date) ([]string, error) {
	store, err := s.store()
	if err != nil {
		return nil, err
	}
	return store.ActiveUsers(ctx, since)
}

func (s *Service) now() time.Time {
	return s.agg.Now()
}
