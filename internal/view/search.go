package view

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"bookfinder/internal/logger"
	"bookfinder/internal/platform/openlibrary"
)

// PageSize is the number of results requested per search page. A page whose
// upstream document count reaches this size means another page may exist.
const PageSize = openlibrary.SearchLimit

// PagedSearcher runs a paged free-text search.
type PagedSearcher interface {
	SearchPaged(ctx context.Context, query string, page, pageSize int) (openlibrary.SearchPage, error)
}

// SearchState is what the results screen renders.
type SearchState struct {
	Query       string `json:"query"`
	Status      Status `json:"status"`
	Books       []Card `json:"books"`
	Page        int    `json:"page"`
	HasMore     bool   `json:"has_more"`
	LoadingMore bool   `json:"loading_more"`
	Error       string `json:"error,omitempty"`
	MoreError   string `json:"more_error,omitempty"`
}

// SearchController drives the quick search screen and its "load more"
// pagination.
type SearchController struct {
	src PagedSearcher

	mu          sync.Mutex
	g           guard
	query       string
	status      Status
	results     []openlibrary.BookSummary
	page        int
	hasMore     bool
	loadingMore bool
	errMsg      string
	moreErrMsg  string
}

func NewSearchController(src PagedSearcher) *SearchController {
	return &SearchController{src: src}
}

// Search starts a new query at page one. A blank query resets the screen
// without a request.
func (c *SearchController) Search(ctx context.Context, query string) (SearchState, error) {
	query = strings.TrimSpace(query)

	c.mu.Lock()
	token := c.g.next()
	c.reset()
	if query == "" {
		st := c.snapshot()
		c.mu.Unlock()
		return st, ErrValidationEmpty
	}
	c.query = query
	c.status = StatusLoading
	c.mu.Unlock()

	res, err := c.src.SearchPaged(ctx, query, 1, PageSize)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.g.current(token) {
		return c.snapshot(), ErrStale
	}
	if err != nil {
		logger.FromContext(ctx).Warn("search failed", zap.String("query", query), zap.Error(err))
		c.status = StatusError
		c.errMsg = msgSearchFailed
		return c.snapshot(), err
	}
	c.status = StatusSuccess
	c.results = res.Books
	c.page = 1
	c.hasMore = res.Docs == PageSize
	return c.snapshot(), nil
}

// LoadMore fetches the next page and merges it into the held results. It is
// refused while a page is loading, before a successful search, or once a
// short page signalled the end.
func (c *SearchController) LoadMore(ctx context.Context) (SearchState, error) {
	c.mu.Lock()
	if c.query == "" || c.status != StatusSuccess || c.loadingMore || !c.hasMore {
		st := c.snapshot()
		c.mu.Unlock()
		return st, ErrLoadMoreRefused
	}
	// a new Search advances the generation and invalidates this page
	token := c.g.gen
	query, next := c.query, c.page+1
	c.loadingMore = true
	c.moreErrMsg = ""
	c.mu.Unlock()

	res, err := c.src.SearchPaged(ctx, query, next, PageSize)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.g.current(token) {
		return c.snapshot(), ErrStale
	}
	c.loadingMore = false
	if err != nil {
		logger.FromContext(ctx).Warn("load more failed",
			zap.String("query", query),
			zap.Int("page", next),
			zap.Error(err),
		)
		c.moreErrMsg = msgLoadMoreFailed
		return c.snapshot(), err
	}
	c.results = MergeUnique(c.results, res.Books)
	c.page = next
	c.hasMore = res.Docs == PageSize
	return c.snapshot(), nil
}

func (c *SearchController) State() SearchState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Close discards any page still in flight.
func (c *SearchController) Close() {
	c.mu.Lock()
	c.g.close()
	c.mu.Unlock()
}

func (c *SearchController) reset() {
	c.query = ""
	c.status = StatusIdle
	c.results = nil
	c.page = 0
	c.hasMore = false
	c.loadingMore = false
	c.errMsg = ""
	c.moreErrMsg = ""
}

func (c *SearchController) snapshot() SearchState {
	return SearchState{
		Query:       c.query,
		Status:      c.status,
		Books:       Cards(c.results),
		Page:        c.page,
		HasMore:     c.hasMore,
		LoadingMore: c.loadingMore,
		Error:       c.errMsg,
		MoreError:   c.moreErrMsg,
	}
}
