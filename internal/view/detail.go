package view

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"bookfinder/internal/logger"
	"bookfinder/internal/platform/openlibrary"
	"bookfinder/internal/platform/wikipedia"
)

// ItemFetcher fetches one catalog record by identifier.
type ItemFetcher interface {
	ItemByOLID(ctx context.Context, olid string) (*openlibrary.WorkDetail, error)
}

// Encyclopedia looks up a summary by exact title. A nil summary means no data.
type Encyclopedia interface {
	Summary(ctx context.Context, title string) (*wikipedia.Summary, error)
}

// DetailView is the render model of the detail screen.
type DetailView struct {
	OLID              string             `json:"olid"`
	Key               string             `json:"key"`
	Title             string             `json:"title"`
	Description       string             `json:"description,omitempty"`
	CoverID           *int               `json:"cover_id,omitempty"`
	CoverURL          string             `json:"cover_url"`
	PublishedDate     string             `json:"published_date"`
	ModifiedDate      string             `json:"modified_date"`
	Encyclopedia      *wikipedia.Summary `json:"encyclopedia,omitempty"`
	EncyclopediaFound bool               `json:"encyclopedia_found"`
}

type DetailState struct {
	Status Status      `json:"status"`
	Book   *DetailView `json:"book,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// DetailController drives the detail screen.
type DetailController struct {
	items ItemFetcher
	wiki  Encyclopedia

	mu    sync.Mutex
	g     guard
	state DetailState
}

func NewDetailController(items ItemFetcher, wiki Encyclopedia) *DetailController {
	return &DetailController{items: items, wiki: wiki}
}

// Load fetches the record and enriches it with the encyclopedia summary of
// its title. Enrichment failures never fail the screen.
func (c *DetailController) Load(ctx context.Context, olid string) (DetailState, error) {
	olid = strings.TrimSpace(olid)

	c.mu.Lock()
	token := c.g.next()
	if olid == "" {
		c.state = DetailState{Status: StatusError, Error: msgMissingID}
		st := c.state
		c.mu.Unlock()
		return st, ErrMissingID
	}
	c.state = DetailState{Status: StatusLoading}
	c.mu.Unlock()

	view, err := c.fetch(ctx, olid)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.g.current(token) {
		return c.state, ErrStale
	}
	if err != nil {
		c.state = DetailState{Status: StatusError, Error: msgNotFound}
		return c.state, err
	}
	c.state = DetailState{Status: StatusSuccess, Book: view}
	return c.state, nil
}

func (c *DetailController) fetch(ctx context.Context, olid string) (*DetailView, error) {
	log := logger.FromContext(ctx)

	item, err := c.items.ItemByOLID(ctx, olid)
	if err != nil {
		log.Warn("detail fetch failed", zap.String("olid", olid), zap.Error(err))
		return nil, err
	}

	cover := item.FirstCover()
	view := &DetailView{
		OLID:          olid,
		Key:           item.Key,
		Title:         item.Title,
		Description:   item.Description,
		CoverID:       cover,
		CoverURL:      openlibrary.CoverURL(cover, openlibrary.CoverLarge),
		PublishedDate: FormatDate(item.PublishedDate()),
		ModifiedDate:  FormatDate(item.LastModified),
	}

	if title := strings.TrimSpace(item.Title); title != "" && c.wiki != nil {
		summary, err := c.wiki.Summary(ctx, title)
		if err != nil {
			log.Warn("encyclopedia lookup failed", zap.String("title", title), zap.Error(err))
		} else if summary != nil {
			view.Encyclopedia = summary
			view.EncyclopediaFound = true
		}
	}
	return view, nil
}

func (c *DetailController) State() DetailState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *DetailController) Close() {
	c.mu.Lock()
	c.g.close()
	c.mu.Unlock()
}
