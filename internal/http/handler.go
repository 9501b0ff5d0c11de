package http

import (
	"net/http"

	"bookfinder/internal/httpx"
	"bookfinder/internal/session"
	"bookfinder/internal/view"
)

// Handler serves the screens of the caller's browsing session.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func screensFrom(w http.ResponseWriter, r *http.Request) (*session.Screens, bool) {
	s := httpx.SessionFrom(r)
	if s == nil || s.Screens == nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, httpx.CodeInternal, "No browsing session", nil)
		return nil, false
	}
	return s.Screens, true
}

// @Summary Recently changed books
// @Description Books recently edited in the catalog, cached per session for five minutes
// @Tags discovery
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Failure 502 {object} httpx.ErrorResponse
// @Router /v1/recent [get]
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	screens, ok := screensFrom(w, r)
	if !ok {
		return
	}
	st, err := screens.Recent.Load(r.Context())
	if err != nil {
		writeError(w, r, err, st.Error)
		return
	}
	httpx.JSONSuccess(w, r, st, nil)
}

// @Summary Search books
// @Description Free-text search, first page
// @Tags discovery
// @Produce json
// @Param q query string true "Search text"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 502 {object} httpx.ErrorResponse
// @Router /v1/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	screens, ok := screensFrom(w, r)
	if !ok {
		return
	}
	st, err := screens.Search.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err, st.Error)
		return
	}
	httpx.JSONSuccess(w, r, st, searchMeta(st))
}

// @Summary Load the next page of results
// @Description Appends the next page to the session's current search
// @Tags discovery
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Failure 502 {object} httpx.ErrorResponse
// @Router /v1/search/more [post]
func (h *Handler) SearchMore(w http.ResponseWriter, r *http.Request) {
	screens, ok := screensFrom(w, r)
	if !ok {
		return
	}
	st, err := screens.Search.LoadMore(r.Context())
	if err != nil {
		writeError(w, r, err, st.MoreError)
		return
	}
	httpx.JSONSuccess(w, r, st, searchMeta(st))
}

func searchMeta(st view.SearchState) map[string]any {
	return map[string]any{
		"page":      st.Page,
		"page_size": view.PageSize,
		"has_more":  st.HasMore,
	}
}

// @Summary Advanced search
// @Description Field-qualified search; blank fields are ignored
// @Tags discovery
// @Produce json
// @Param title query string false "Title"
// @Param author query string false "Author"
// @Param subject query string false "Subject"
// @Param first_publish_year query string false "First publish year"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 502 {object} httpx.ErrorResponse
// @Router /v1/advanced-search [get]
func (h *Handler) AdvancedSearch(w http.ResponseWriter, r *http.Request) {
	screens, ok := screensFrom(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	form := view.AdvancedForm{
		Title:            q.Get("title"),
		Author:           q.Get("author"),
		Subject:          q.Get("subject"),
		FirstPublishYear: q.Get("first_publish_year"),
	}
	st, err := screens.Advanced.Submit(r.Context(), form)
	if err != nil {
		writeError(w, r, err, st.Error)
		return
	}
	httpx.JSONSuccess(w, r, st, nil)
}

// @Summary Reset advanced search
// @Tags discovery
// @Success 204
// @Router /v1/advanced-search [delete]
func (h *Handler) ResetAdvancedSearch(w http.ResponseWriter, r *http.Request) {
	screens, ok := screensFrom(w, r)
	if !ok {
		return
	}
	screens.Advanced.Reset()
	httpx.JSONNoContent(w)
}

// @Summary Book detail
// @Description A work or edition enriched with its encyclopedia summary when one exists
// @Tags discovery
// @Produce json
// @Param id path string true "Open Library id, e.g. OL27448W"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 502 {object} httpx.ErrorResponse
// @Router /v1/books/{id} [get]
func (h *Handler) BookDetail(w http.ResponseWriter, r *http.Request) {
	screens, ok := screensFrom(w, r)
	if !ok {
		return
	}
	st, err := screens.Detail.Load(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, st.Error)
		return
	}
	httpx.JSONSuccess(w, r, st.Book, nil)
}
