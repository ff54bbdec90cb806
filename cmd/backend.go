package cmd

import (
	"context"
	"fmt"

	"github.com/YashavikaSingh/meeting-summariser/cache"
	"github.com/YashavikaSingh/meeting-summariser/client"
	"github.com/YashavikaSingh/meeting-summariser/config"
	"github.com/YashavikaSingh/meeting-summariser/pkg/logging"
	"github.com/YashavikaSingh/meeting-summariser/pkg/meeting"
	"github.com/YashavikaSingh/meeting-summariser/pkg/session"
)

// Backend is everything the commands need from the summarizer backend.
type Backend interface {
	session.Backend
	SearchMeetings(ctx context.Context, query string, limit int) ([]meeting.Summary, error)
	ProcessMeeting(ctx context.Context, id string) (meeting.RawRecord, error)
}

// cachedBackend serves meeting details through the Redis cache.
type cachedBackend struct {
	*cache.Backend
	api *client.Client
}

func (b *cachedBackend) SearchMeetings(ctx context.Context, query string, limit int) ([]meeting.Summary, error) {
	return b.api.SearchMeetings(ctx, query, limit)
}

// ProcessMeeting changes the stored meeting, so the cached copy is dropped.
func (b *cachedBackend) ProcessMeeting(ctx context.Context, id string) (meeting.RawRecord, error) {
	res, err := b.api.ProcessMeeting(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Invalidate(ctx, id)
	return res, nil
}

// ConnectBackend builds the HTTP client for cfg and, when a cache is
// configured and reachable, wraps it with the meeting cache. An unreachable
// cache is logged and skipped.
func ConnectBackend(ctx context.Context, cfg *config.CLIConfig, token string, logger logging.Logger, metrics *client.Metrics) (Backend, func(), error) {
	api, err := client.NewFromConfig(cfg, token, logger, metrics)
	if err != nil {
		return nil, nil, fmt.Errorf("creating backend client: %w", err)
	}

	if !cfg.Cache.IsConfigured() {
		return api, func() {}, nil
	}

	rdb, err := cache.Connect(ctx, cfg.Cache)
	if err != nil {
		logger.Warn("meeting cache unavailable, continuing without it", logging.Err(err))
		return api, func() {}, nil
	}

	store := cache.NewRedisStore(rdb)
	b := &cachedBackend{
		Backend: cache.Wrap(api, store, cfg.Cache.GetTTL(), logger),
		api:     api,
	}
	return b, func() { _ = store.Close() }, nil
}
