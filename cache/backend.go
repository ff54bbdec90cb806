package cache

import (
	"context"
	"errors"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/YashavikaSingh/meeting-summariser/config"
	"github.com/YashavikaSingh/meeting-summariser/pkg/logging"
	"github.com/YashavikaSingh/meeting-summariser/pkg/meeting"
	"github.com/YashavikaSingh/meeting-summariser/pkg/session"
)

const keyPrefix = "msum:meeting:"

// entry is the msgpack-encoded cache value.
type entry struct {
	Detail   meeting.Detail `msgpack:"detail"`
	CachedAt time.Time      `msgpack:"cached_at"`
}

// Backend decorates a session.Backend with a read-through cache for
// GetMeeting. Deletes and attendee updates invalidate the cached meeting.
// Cache failures are logged and never fail the call.
type Backend struct {
	session.Backend

	store  Store
	ttl    time.Duration
	logger logging.Logger
}

// Wrap returns inner with meeting details cached in store for ttl.
func Wrap(inner session.Backend, store Store, ttl time.Duration, logger logging.Logger) *Backend {
	if ttl <= 0 {
		ttl = config.DefaultCacheTTL
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Backend{
		Backend: inner,
		store:   store,
		ttl:     ttl,
		logger:  logger.With(logging.F("component", "cache")),
	}
}

// Key returns the cache key of a meeting.
func Key(id string) string {
	return keyPrefix + id
}

func (b *Backend) GetMeeting(ctx context.Context, id string) (*meeting.Detail, error) {
	key := Key(id)

	data, err := b.store.Get(ctx, key)
	switch {
	case err == nil:
		var e entry
		uerr := msgpack.Unmarshal(data, &e)
		if uerr == nil {
			b.logger.Debug("meeting cache hit", logging.F("meeting_id", id), logging.F("age", time.Since(e.CachedAt).String()))
			return &e.Detail, nil
		}
		b.logger.Warn("discarding unreadable cache entry", logging.F("meeting_id", id), logging.Err(uerr))
	case !errors.Is(err, ErrMiss):
		b.logger.Warn("meeting cache read failed", logging.F("meeting_id", id), logging.Err(err))
	}

	d, err := b.Backend.GetMeeting(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err = msgpack.Marshal(&entry{Detail: *d, CachedAt: time.Now().UTC()})
	if err != nil {
		b.logger.Warn("encoding cache entry failed", logging.F("meeting_id", id), logging.Err(err))
		return d, nil
	}
	if err := b.store.Set(ctx, key, data, b.ttl); err != nil {
		b.logger.Warn("meeting cache write failed", logging.F("meeting_id", id), logging.Err(err))
	}
	return d, nil
}

func (b *Backend) UpdateAttendees(ctx context.Context, id string, attendees []string) error {
	if err := b.Backend.UpdateAttendees(ctx, id, attendees); err != nil {
		return err
	}
	b.Invalidate(ctx, id)
	return nil
}

func (b *Backend) DeleteMeeting(ctx context.Context, id string) error {
	if err := b.Backend.DeleteMeeting(ctx, id); err != nil {
		return err
	}
	b.Invalidate(ctx, id)
	return nil
}

// Invalidate drops the cached copy of a meeting.
func (b *Backend) Invalidate(ctx context.Context, id string) {
	if err := b.store.Del(ctx, Key(id)); err != nil {
		b.logger.Warn("meeting cache invalidation failed", logging.F("meeting_id", id), logging.Err(err))
	}
}
