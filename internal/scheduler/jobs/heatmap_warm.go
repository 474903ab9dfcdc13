package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/mindjournal/internal/contracts"
	"github.com/wonny/mindjournal/pkg/logger"
)

// HeatmapWarmJob rebuilds the current-year heatmap of every active user so
// the first dashboard load of the day hits the cache
type HeatmapWarmJob struct {
	svc      Dashboard
	users    []string
	logger   *logger.Logger
	schedule string
}

// NewHeatmapWarmJob creates a new heatmap warm job.
// users is used when the record source cannot list active users.
func NewHeatmapWarmJob(svc Dashboard, users []string, log *logger.Logger) *HeatmapWarmJob {
	return &HeatmapWarmJob{
		svc:      svc,
		users:    users,
		logger:   log.Component("heatmap-warm"),
		schedule: "0 10 0 * * *", // every day at 00:10
	}
}

// Name returns the job name
func (j *HeatmapWarmJob) Name() string {
	return "heatmap_warm"
}

// Schedule returns the cron schedule
func (j *HeatmapWarmJob) Schedule() string {
	return j.schedule
}

// Run executes the job
func (j *HeatmapWarmJob) Run(ctx context.Context) error {
	users, err := activeUsers(ctx, j.svc, j.users)
	if err != nil {
		return fmt.Errorf("failed to list active users: %w", err)
	}

	year := j.svc.Today().Year
	zl := j.logger.Zerolog()
	var failed int
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			return err
		}

		resp, err := j.svc.Heatmap(ctx, userID, year)
		if err != nil {
			failed++
			zl.Warn().
				Err(err).
				Str("user_id", userID).
				Int("year", year).
				Msg("Failed to warm heatmap")
			continue
		}

		zl.Debug().
			Str("user_id", userID).
			Int("total_entries", resp.TotalEntries).
			Int("current_streak", resp.Streak.CurrentStreak).
			Msg("Heatmap warmed")
	}

	j.logger.WithFields(map[string]interface{}{
		"users":  len(users),
		"failed": failed,
		"year":   year,
	}).Info("Heatmap warm completed")

	// one bad user should not fail the run; all of them failing should
	if failed > 0 && failed == len(users) {
		return fmt.Errorf("failed to warm heatmap for all %d users", failed)
	}
	return nil
}

func isReadOnly(err error) bool {
	return errors.Is(err, contracts.ErrReadOnly)
}
