// Package recent aggregates the "recently changed books" feed and caches it
// per browsing session.
package recent

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"bookfinder/internal/logger"
	"bookfinder/internal/metrics"
	"bookfinder/internal/platform/openlibrary"
)

const (
	// DefaultLimit is the number of books shown on the landing view.
	DefaultLimit = 48
	// FeedSize is how many change events are scanned per aggregation.
	FeedSize = 60
	// DefaultFreshness is how long an aggregation is served from cache.
	DefaultFreshness = 5 * time.Minute
	// DefaultTimeout bounds one aggregation, independent of any caller.
	DefaultTimeout = 30 * time.Second

	editBookKind = "edit-book"
)

// Catalog is the subset of the catalog client the aggregation needs.
type Catalog interface {
	RecentChanges(ctx context.Context, limit int) ([]openlibrary.ChangeEvent, error)
	ItemByKey(ctx context.Context, key string) (*openlibrary.WorkDetail, error)
}

type Config struct {
	Freshness time.Duration
	FanOut    int
	Timeout   time.Duration
}

type Service struct {
	catalog Catalog
	store   Store
	cfg     Config
	metrics *metrics.Registry
	flight  singleflight.Group
	now     func() time.Time
}

func NewService(catalog Catalog, store Store, cfg Config, m *metrics.Registry) *Service {
	if cfg.Freshness <= 0 {
		cfg.Freshness = DefaultFreshness
	}
	if cfg.FanOut <= 0 {
		cfg.FanOut = 8
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Service{
		catalog: catalog,
		store:   store,
		cfg:     cfg,
		metrics: m,
		now:     time.Now,
	}
}

// RecentlyChanged returns the session's recently edited books, from cache
// while fresh. On a failed feed fetch the cached entry is left untouched and
// the error is returned. The aggregation itself runs detached from ctx, so a
// caller that gives up only stops waiting for it.
func (s *Service) RecentlyChanged(ctx context.Context, sessionID string, limit int) ([]openlibrary.BookSummary, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if books, ok := s.cached(ctx, sessionID); ok {
		s.metrics.ObserveCache(true)
		return books, nil
	}
	s.metrics.ObserveCache(false)

	ch := s.flight.DoChan(sessionID+":"+strconv.Itoa(limit), func() (any, error) {
		actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Timeout)
		defer cancel()
		// another flight may have refreshed the entry while we waited
		if books, ok := s.cached(actx, sessionID); ok {
			return books, nil
		}
		return s.refresh(actx, sessionID, limit)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]openlibrary.BookSummary), nil
	}
}

// Forget drops the session's entry.
func (s *Service) Forget(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, sessionID)
}

func (s *Service) cached(ctx context.Context, sessionID string) ([]openlibrary.BookSummary, bool) {
	entry, err := s.store.Get(ctx, sessionID)
	if err != nil {
		logger.FromContext(ctx).Warn("recent cache read failed", zap.Error(err))
		return nil, false
	}
	if entry == nil || s.now().Sub(entry.CapturedAt) >= s.cfg.Freshness {
		return nil, false
	}
	return entry.Books, true
}

func (s *Service) refresh(ctx context.Context, sessionID string, limit int) ([]openlibrary.BookSummary, error) {
	log := logger.FromContext(ctx)
	now := s.now()

	events, err := s.catalog.RecentChanges(ctx, FeedSize)
	if err != nil {
		return nil, err
	}
	keys := EditedKeys(events, limit)

	slots := make([]*openlibrary.BookSummary, len(keys))
	var g errgroup.Group
	g.SetLimit(s.cfg.FanOut)
	for i, key := range keys {
		g.Go(func() error {
			item, err := s.catalog.ItemByKey(ctx, key)
			if err != nil {
				log.Debug("dropping recent item", zap.String("key", key), zap.Error(err))
				return nil
			}
			slots[i] = &openlibrary.BookSummary{
				Key:     key,
				OLID:    openlibrary.OLIDFromKey(key),
				Title:   item.Title,
				CoverID: item.FirstCover(),
			}
			return nil
		})
	}
	_ = g.Wait()

	// an expired aggregation fails every item; keep the previous entry
	if err := ctx.Err(); err != nil {
		return nil, &openlibrary.UpstreamError{Op: "recent_items", Err: err}
	}

	books := make([]openlibrary.BookSummary, 0, len(slots))
	for _, b := range slots {
		if b != nil {
			books = append(books, *b)
		}
	}

	if err := s.store.Put(ctx, sessionID, Entry{Books: books, CapturedAt: now}); err != nil {
		log.Warn("recent cache write failed", zap.Error(err))
	}
	log.Debug("recent feed aggregated",
		zap.Int("keys", len(keys)),
		zap.Int("books", len(books)),
	)
	return books, nil
}

// EditedKeys flattens edit-book events into the keys of the works and
// editions they touched, in feed order, keeping at most limit keys.
func EditedKeys(events []openlibrary.ChangeEvent, limit int) []string {
	var keys []string
	for _, ev := range events {
		if ev.Kind != editBookKind {
			continue
		}
		for _, ch := range ev.Changes {
			if !strings.HasPrefix(ch.Key, "/books/") && !strings.HasPrefix(ch.Key, "/works/") {
				continue
			}
			keys = append(keys, ch.Key)
			if len(keys) == limit {
				return keys
			}
		}
	}
	return keys
}
