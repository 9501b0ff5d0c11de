package view

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"bookfinder/internal/logger"
	"bookfinder/internal/platform/openlibrary"
	"bookfinder/internal/recent"
)

// RecentSource yields the recently changed books of a session.
type RecentSource interface {
	RecentlyChanged(ctx context.Context, sessionID string, limit int) ([]openlibrary.BookSummary, error)
}

// RecentState is what the landing screen renders.
type RecentState struct {
	Status Status `json:"status"`
	Books  []Card `json:"books"`
	Error  string `json:"error,omitempty"`
}

// RecentController drives the landing screen.
type RecentController struct {
	src       RecentSource
	sessionID string
	limit     int

	mu    sync.Mutex
	g     guard
	state RecentState
}

func NewRecentController(src RecentSource, sessionID string) *RecentController {
	return &RecentController{
		src:       src,
		sessionID: sessionID,
		limit:     recent.DefaultLimit,
	}
}

// WithLimit caps how many books the feed aggregates. n <= 0 keeps the default.
func (c *RecentController) WithLimit(n int) *RecentController {
	if n > 0 {
		c.limit = n
	}
	return c
}

// Load fetches the feed and applies it unless a newer load replaced it.
func (c *RecentController) Load(ctx context.Context) (RecentState, error) {
	c.mu.Lock()
	token := c.g.next()
	c.state.Status = StatusLoading
	c.state.Error = ""
	c.mu.Unlock()

	books, err := c.src.RecentlyChanged(ctx, c.sessionID, c.limit)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.g.current(token) {
		return c.state, ErrStale
	}
	if err != nil {
		logger.FromContext(ctx).Warn("recent feed failed", zap.Error(err))
		c.state = RecentState{Status: StatusError, Books: []Card{}, Error: msgRecentFailed}
		return c.state, err
	}
	c.state = RecentState{Status: StatusSuccess, Books: Cards(books)}
	return c.state, nil
}

func (c *RecentController) State() RecentState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close discards any load still in flight.
func (c *RecentController) Close() {
	c.mu.Lock()
	c.g.close()
	c.mu.Unlock()
}
