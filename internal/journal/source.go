package journal

import (
	"fmt"
	"time"

	"github.com/wonny/mindjournal/internal/contracts"
	"github.com/wonny/mindjournal/pkg/config"
	"github.com/wonny/mindjournal/pkg/database"
	"github.com/wonny/mindjournal/pkg/httputil"
	"github.com/wonny/mindjournal/pkg/logger"
	"github.com/wonny/mindjournal/pkg/redis"
)

// Deps are the shared resources a source may use
type Deps struct {
	Logger *logger.Logger
	Redis  *redis.Client // optional, rate-limits the remote source
	Now    func() time.Time
}

// Open builds the record source selected by cfg.Journal.Source.
// The returned close function releases its connections.
func Open(cfg *config.Config, deps Deps) (contracts.RecordSource, func(), error) {
	switch cfg.Journal.Source {
	case config.SourcePostgres:
		db, err := database.New(cfg)
		if err != nil {
			return nil, nil, err
		}
		return NewPostgresStore(db.Pool), db.Close, nil

	case config.SourceSQLite:
		db, err := database.OpenSQLite(cfg.Journal.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return NewSQLiteStore(db), func() { _ = db.Close() }, nil

	case config.SourceRemote:
		client := httputil.New(deps.Logger)
		if cfg.Journal.RemoteToken != "" {
			client.WithHeader("Authorization", "Bearer "+cfg.Journal.RemoteToken)
		}
		if deps.Redis != nil && deps.Redis.Enabled() {
			client.WithRateLimiter(redis.NewRateLimiter(deps.Redis, "ratelimit"), redis.JournalAPIRateLimit)
		}
		return NewRemoteSource(client, cfg.Journal.RemoteURL, deps.Logger), func() {}, nil

	case config.SourceFixture:
		return NewFixtureSource(cfg.Journal.FixtureSeed, deps.Now), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("%w: unknown journal source %q", contracts.ErrInvalidArgument, cfg.Journal.Source)
	}
}
