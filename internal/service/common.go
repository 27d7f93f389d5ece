package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/attendance-service/internal/config"
	"github.com/spec-kit/attendance-service/internal/domain"
	"github.com/spec-kit/attendance-service/internal/events"
)

// Page is one window of a filtered listing.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

func newPage[T any](items []T, total int64, page, limit int) Page[T] {
	pages := 0
	if limit > 0 {
		pages = int(math.Ceil(float64(total) / float64(limit)))
	}
	return Page[T]{Items: items, Total: total, Page: page, Limit: limit, Pages: pages}
}

// ListCache caches list pages by resource and normalized query key.
type ListCache interface {
	// Get returns the generation it read under and whether dest was filled.
	Get(ctx context.Context, resource, key string, dest any) (int64, bool)
	// Set stores value only while gen is still the current generation.
	Set(ctx context.Context, resource, key string, gen int64, value any)
}

// maxOffset bounds the row offset so it never overflows.
const maxOffset = math.MaxInt32

// normalizePage clamps page and limit and returns the row offset.
func normalizePage(page, limit int, cfg config.PaginationConfig) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = cfg.DefaultLimit
	}
	if limit <= 0 {
		limit = 20
	}
	if cfg.MaxLimit > 0 && limit > cfg.MaxLimit {
		limit = cfg.MaxLimit
	}
	if page-1 > maxOffset/limit {
		page = maxOffset/limit + 1
	}
	return page, limit, (page - 1) * limit
}

// base carries what every CRUD service shares.
type base struct {
	dispatcher events.Dispatcher
	cache      ListCache
	clock      domain.Clock
	logger     *zap.Logger
	pagination config.PaginationConfig
}

func newBase(dispatcher events.Dispatcher, cache ListCache, clock domain.Clock, logger *zap.Logger, pagination config.PaginationConfig) base {
	if clock == nil {
		clock = domain.SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return base{dispatcher: dispatcher, cache: cache, clock: clock, logger: logger, pagination: pagination}
}

func (b base) now() time.Time {
	return b.clock().UTC().Truncate(time.Millisecond)
}

// publish notifies subscribers; handler failures never fail the write.
func (b base) publish(ctx context.Context, ev events.Event) {
	if b.dispatcher == nil {
		return
	}
	if err := b.dispatcher.Publish(ctx, ev); err != nil {
		b.logger.Warn("event handler failed",
			zap.String("event_id", ev.ID),
			zap.String("event_type", string(ev.Type)),
			zap.Error(err))
	}
}

func cachedList[T any](ctx context.Context, b base, resource, key string, load func() (Page[T], error)) (Page[T], error) {
	if b.cache == nil {
		return load()
	}
	var cached Page[T]
	gen, hit := b.cache.Get(ctx, resource, key, &cached)
	if hit {
		return cached, nil
	}
	page, err := load()
	if err != nil {
		return Page[T]{}, err
	}
	b.cache.Set(ctx, resource, key, gen, page)
	return page, nil
}
