package commands

import (
	"fmt"

	"github.com/wonny/mindjournal/internal/dashboard"
	"github.com/wonny/mindjournal/internal/heatmap"
	"github.com/wonny/mindjournal/internal/journal"
	"github.com/wonny/mindjournal/internal/realtime"
	"github.com/wonny/mindjournal/internal/scheduler"
	"github.com/wonny/mindjournal/internal/scheduler/jobs"
	"github.com/wonny/mindjournal/internal/session"
	"github.com/wonny/mindjournal/pkg/config"
	"github.com/wonny/mindjournal/pkg/logger"
	"github.com/wonny/mindjournal/pkg/redis"
)

// app holds the wired dependencies shared by the commands
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	redis   *redis.Client
	hub     *realtime.Hub
	service *dashboard.Service
	closers []func()
}

// newApp connects to redis and the journal source and builds the dashboard service
func newApp(cfg *config.Config, log *logger.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	// 1. Redis (no-op client when disabled)
	rdb, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = rdb
	a.closers = append(a.closers, func() { _ = rdb.Close() })

	// 2. Journal source
	source, closeSource, err := journal.Open(cfg, journal.Deps{Logger: log, Redis: rdb})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open journal source: %w", err)
	}
	a.closers = append(a.closers, closeSource)

	// 3. Aggregator
	levels := heatmap.DefaultLevels
	if cfg.Heatmap.LevelsFile != "" {
		levels, err = heatmap.LoadLevels(cfg.Heatmap.LevelsFile)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("load activity levels: %w", err)
		}
	}
	agg := heatmap.New(heatmap.Options{
		Levels:       levels,
		Location:     cfg.Location(),
		PendingToday: cfg.Heatmap.PendingToday,
	})

	// 4. Realtime hub and dashboard service
	a.hub = realtime.NewHub(log)
	a.closers = append(a.closers, a.hub.Close)

	opts := dashboard.Options{
		Hub:      a.hub,
		CacheTTL: cfg.Heatmap.CacheTTL,
		Location: cfg.Location(),
	}
	if rdb.Enabled() {
		opts.Cache = redis.NewCache(rdb, "mindjournal")
	}
	a.service = dashboard.NewService(source, agg, log, opts)

	log.WithFields(map[string]interface{}{
		"source":   cfg.Journal.Source,
		"writable": a.service.Writable(),
		"redis":    rdb.Enabled(),
		"timezone": cfg.Heatmap.Timezone,
	}).Info("Dashboard service ready")

	return a, nil
}

// sessions returns the session manager, backed by redis when it is enabled
func (a *app) sessions() *session.Manager {
	var backend session.Backend
	if a.redis.Enabled() {
		backend = redis.NewCache(a.redis, "mindjournal")
	} else {
		a.log.Warn("Redis disabled, sessions are kept in memory")
		backend = session.NewMemoryBackend(nil)
	}
	return session.NewManager(backend, a.cfg.Session.TTL, nil)
}

// scheduler returns a scheduler with the dashboard jobs registered
func (a *app) scheduler() (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log, a.cfg.Location()).
		WithRetry(a.cfg.Scheduler.MaxRetries, a.cfg.Scheduler.RetryDelay)

	for _, job := range []scheduler.Job{
		jobs.NewHeatmapWarmJob(a.service, a.cfg.Scheduler.Users, a.log),
		jobs.NewStreakAlertJob(a.service, a.cfg.Scheduler.Users, a.log),
	} {
		if err := sched.AddJob(job); err != nil {
			return nil, err
		}
	}
	return sched, nil
}

// Close releases everything in reverse order of creation
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
