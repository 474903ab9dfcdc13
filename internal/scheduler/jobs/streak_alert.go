package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/mindjournal/pkg/logger"
)

// StreakAlertJob warns users whose streak ends tonight unless they write
type StreakAlertJob struct {
	svc      Dashboard
	users    []string
	logger   *logger.Logger
	schedule string
}

// NewStreakAlertJob creates a new streak alert job
func NewStreakAlertJob(svc Dashboard, users []string, log *logger.Logger) *StreakAlertJob {
	return &StreakAlertJob{
		svc:      svc,
		users:    users,
		logger:   log.Component("streak-alert"),
		schedule: "0 0 20 * * *", // every day at 20:00
	}
}

// Name returns the job name
func (j *StreakAlertJob) Name() string {
	return "streak_alert"
}

// Schedule returns the cron schedule
func (j *StreakAlertJob) Schedule() string {
	return j.schedule
}

// Run executes the job
func (j *StreakAlertJob) Run(ctx context.Context) error {
	users, err := activeUsers(ctx, j.svc, j.users)
	if err != nil {
		return fmt.Errorf("failed to list active users: %w", err)
	}

	var alerted, failed int
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			return err
		}

		sent, err := j.svc.NotifyStreakAtRisk(ctx, userID)
		if err != nil {
			failed++
			j.logger.WithFields(map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			}).Warn("Failed to check streak")
			continue
		}
		if sent {
			alerted++
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"users":   len(users),
		"alerted": alerted,
		"failed":  failed,
	}).Info("Streak alert completed")

	return nil
}
