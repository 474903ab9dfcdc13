package jobs

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/mindjournal/internal/contracts"
	"github.com/wonny/mindjournal/pkg/logger"
)

type fakeDashboard struct {
	mu       sync.Mutex
	today    contracts.Date
	users    []string
	usersErr error
	failFor  map[string]bool
	atRisk   map[string]bool
	since    contracts.Date
	warmed   []string
	notified []string
}

func (f *fakeDashboard) Today() contracts.Date { return f.today }

func (f *fakeDashboard) ActiveUsers(_ context.Context, since contracts.Date) ([]string, error) {
	f.since = since
	return f.users, f.usersErr
}

func (f *fakeDashboard) Heatmap(_ context.Context, userID string, year int) (*contracts.HeatmapResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[userID] {
		return nil, errors.New("source unavailable")
	}
	f.warmed = append(f.warmed, userID)
	return &contracts.HeatmapResponse{UserID: userID, Year: year}, nil
}

func (f *fakeDashboard) NotifyStreakAtRisk(_ context.Context, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[userID] {
		return false, errors.New("source unavailable")
	}
	if f.atRisk[userID] {
		f.notified = append(f.notified, userID)
		return true, nil
	}
	return false, nil
}

var today = contracts.NewDate(2024, time.June, 15)

func TestHeatmapWarmJob(t *testing.T) {
	svc := &fakeDashboard{
		today:   today,
		users:   []string{"alice", "bob", "carol"},
		failFor: map[string]bool{"bob": true},
	}
	job := NewHeatmapWarmJob(svc, nil, logger.Nop())

	assert.Equal(t, "heatmap_warm", job.Name())
	assert.Equal(t, "0 10 0 * * *", job.Schedule())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []string{"alice", "carol"}, svc.warmed)
	assert.Equal(t, contracts.NewDate(2024, time.May, 16), svc.since)
}

func TestHeatmapWarmJob_AllFail(t *testing.T) {
	svc := &fakeDashboard{
		today:   today,
		users:   []string{"alice"},
		failFor: map[string]bool{"alice": true},
	}
	err := NewHeatmapWarmJob(svc, nil, logger.Nop()).Run(context.Background())
	assert.Error(t, err)
}

func TestHeatmapWarmJob_ReadOnlyUsesFallback(t *testing.T) {
	svc := &fakeDashboard{today: today, usersErr: contracts.ErrReadOnly}

	job := NewHeatmapWarmJob(svc, []string{"demo"}, logger.Nop())
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []string{"demo"}, svc.warmed)
}

func TestHeatmapWarmJob_ListError(t *testing.T) {
	svc := &fakeDashboard{today: today, usersErr: errors.New("connection refused")}

	err := NewHeatmapWarmJob(svc, []string{"demo"}, logger.Nop()).Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, svc.warmed)
}

func TestHeatmapWarmJob_Cancelled(t *testing.T) {
	svc := &fakeDashboard{today: today, users: []string{"alice"}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewHeatmapWarmJob(svc, nil, logger.Nop()).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, svc.warmed)
}

func TestStreakAlertJob(t *testing.T) {
	svc := &fakeDashboard{
		today:   today,
		users:   []string{"alice", "bob", "carol", "dave"},
		atRisk:  map[string]bool{"alice": true, "dave": true},
		failFor: map[string]bool{"carol": true},
	}
	job := NewStreakAlertJob(svc, nil, logger.Nop())

	assert.Equal(t, "streak_alert", job.Name())
	assert.Equal(t, "0 0 20 * * *", job.Schedule())

	require.NoError(t, job.Run(context.Background()))
	sort.Strings(svc.notified)
	assert.Equal(t, []string{"alice", "dave"}, svc.notified)
}
