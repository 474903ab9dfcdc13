// Package jobs holds the scheduled jobs of the dashboard backend.
package jobs

import (
	"context"

	"github.com/wonny/mindjournal/internal/contracts"
)

// activeWindowDays is how far back a user must have written to count as active
const activeWindowDays = 30

// Dashboard is the part of the dashboard service the jobs drive
type Dashboard interface {
	Today() contracts.Date
	ActiveUsers(ctx context.Context, since contracts.Date) ([]string, error)
	Heatmap(ctx context.Context, userID string, year int) (*contracts.HeatmapResponse, error)
	NotifyStreakAtRisk(ctx context.Context, userID string) (bool, error)
}

// activeUsers returns the users to process. Read-only sources cannot list
// users, so the configured fallback list is used instead.
func activeUsers(ctx context.Context, svc Dashboard, fallback []string) ([]string, error) {
	since := svc.Today().AddDays(-activeWindowDays)
	users, err := svc.ActiveUsers(ctx, since)
	if err == nil {
		return users, nil
	}
	if isReadOnly(err) {
		return fallback, nil
	}
	return nil, err
}
