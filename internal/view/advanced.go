package view

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"bookfinder/internal/logger"
	"bookfinder/internal/platform/openlibrary"
)

// FieldSearcher runs a field-qualified search.
type FieldSearcher interface {
	AdvancedSearch(ctx context.Context, fields map[string]string) ([]openlibrary.BookSummary, error)
}

// AdvancedForm is the multi-field search form.
type AdvancedForm struct {
	Title            string `json:"title" validate:"max=200"`
	Author           string `json:"author" validate:"max=200"`
	Subject          string `json:"subject" validate:"max=200"`
	FirstPublishYear string `json:"first_publish_year" validate:"omitempty,number,len=4"`
}

func (f AdvancedForm) trimmed() AdvancedForm {
	return AdvancedForm{
		Title:            strings.TrimSpace(f.Title),
		Author:           strings.TrimSpace(f.Author),
		Subject:          strings.TrimSpace(f.Subject),
		FirstPublishYear: strings.TrimSpace(f.FirstPublishYear),
	}
}

// Fields returns the non-blank fields keyed by upstream parameter name.
func (f AdvancedForm) Fields() map[string]string {
	t := f.trimmed()
	out := make(map[string]string, 4)
	for name, value := range map[string]string{
		"title":              t.Title,
		"author":             t.Author,
		"subject":            t.Subject,
		"first_publish_year": t.FirstPublishYear,
	} {
		if value != "" {
			out[name] = value
		}
	}
	return out
}

// AdvancedState is what the advanced search screen renders.
type AdvancedState struct {
	Form   AdvancedForm `json:"form"`
	Status Status       `json:"status"`
	Books  []Card       `json:"books"`
	Error  string       `json:"error,omitempty"`
}

// AdvancedController drives the advanced search screen.
type AdvancedController struct {
	src FieldSearcher

	mu    sync.Mutex
	g     guard
	state AdvancedState
}

func NewAdvancedController(src FieldSearcher) *AdvancedController {
	return &AdvancedController{src: src}
}

// Submit validates the form and runs the search. Invalid or blank forms
// leave the screen untouched and issue no request.
func (c *AdvancedController) Submit(ctx context.Context, form AdvancedForm) (AdvancedState, error) {
	form = form.trimmed()
	if err := validateStruct(form); err != nil {
		return c.State(), err
	}
	fields := form.Fields()
	if len(fields) == 0 {
		return c.State(), ErrValidationEmpty
	}

	c.mu.Lock()
	token := c.g.next()
	c.state = AdvancedState{Form: form, Status: StatusLoading, Books: []Card{}}
	c.mu.Unlock()

	books, err := c.src.AdvancedSearch(ctx, fields)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.g.current(token) {
		return c.state, ErrStale
	}
	if err != nil {
		logger.FromContext(ctx).Warn("advanced search failed", zap.Any("fields", fields), zap.Error(err))
		c.state.Status = StatusError
		c.state.Error = msgAdvancedFailed
		return c.state, err
	}
	c.state.Status = StatusSuccess
	c.state.Books = Cards(books)
	return c.state, nil
}

// Reset clears the form and results and discards any search in flight.
func (c *AdvancedController) Reset() AdvancedState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.g.next()
	c.state = AdvancedState{}
	return c.state
}

func (c *AdvancedController) State() AdvancedState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *AdvancedController) Close() {
	c.mu.Lock()
	c.g.close()
	c.mu.Unlock()
}
