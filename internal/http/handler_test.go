package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bookfinder/internal/httpx"
	"bookfinder/internal/metrics"
	"bookfinder/internal/platform/openlibrary"
	"bookfinder/internal/platform/wikipedia"
	"bookfinder/internal/recent"
	"bookfinder/internal/session"
	"bookfinder/internal/testutil"
	"bookfinder/internal/view"
)

type testServer struct {
	catalog *testutil.Upstream
	wiki    *testutil.Upstream
	handler http.Handler
	cookie  *http.Cookie
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		catalog: testutil.NewUpstream(t),
		wiki:    testutil.NewUpstream(t),
	}
	m := metrics.New()

	ol, err := openlibrary.NewClient(openlibrary.Config{BaseURL: ts.catalog.URL, MaxRetries: 0}, m, zap.NewNop())
	require.NoError(t, err)
	wp := wikipedia.NewClient(wikipedia.Config{BaseURL: ts.wiki.URL}, m, zap.NewNop())
	feed := recent.NewService(ol, recent.NewMemoryStore(), recent.Config{}, m)

	sessions := session.NewManager(session.Config{TTL: time.Hour}, func(id string) *session.Screens {
		return &session.Screens{
			Recent:   view.NewRecentController(feed, id),
			Search:   view.NewSearchController(ol),
			Advanced: view.NewAdvancedController(ol),
			Detail:   view.NewDetailController(ol, wp),
		}
	}, m, zap.NewNop())

	ts.handler = NewRouter(NewHandler(), RouterConfig{
		Sessions: sessions,
		Metrics:  m,
		Logger:   zap.NewNop(),
	})
	return ts
}

// do issues a request, keeping the session cookie across calls.
func (ts *testServer) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if ts.cookie != nil {
		req.AddCookie(ts.cookie)
	}
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.Name == httpx.SessionCookie {
			ts.cookie = c
		}
	}
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
	Error   struct {
		Code    string              `json:"code"`
		Message string              `json:"message"`
		Details []httpx.ErrorDetail `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

type searchData struct {
	Query   string      `json:"query"`
	Status  string      `json:"status"`
	Books   []view.Card `json:"books"`
	Page    int         `json:"page"`
	HasMore bool        `json:"has_more"`
}

func TestHandler_SearchAndLoadMore(t *testing.T) {
	ts := newTestServer(t)
	ts.catalog.Handle("/search.json", func(w http.ResponseWriter, r *http.Request) {
		var docs []testutil.Doc
		switch r.URL.Query().Get("page") {
		case "1":
			docs = testutil.Docs(1, 24)
		case "2":
			docs = append(testutil.Docs(24, 5), testutil.Docs(1, 1)...)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(testutil.SearchJSON(docs...)))
	})

	w := ts.do(t, http.MethodGet, "/v1/search?q=tolkien")
	require.Equal(t, http.StatusOK, w.Code)
	var page searchData
	env := decode(t, w, &page)
	assert.True(t, env.Success)
	assert.Equal(t, "success", page.Status)
	assert.Len(t, page.Books, 24)
	assert.True(t, page.HasMore)
	assert.Equal(t, true, env.Meta["has_more"])
	assert.NotEmpty(t, env.Meta["request_id"])
	assert.Equal(t, "tolkien", ts.catalog.LastQuery("/search.json").Get("q"))

	w = ts.do(t, http.MethodPost, "/v1/search/more")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &page)
	assert.Equal(t, 2, page.Page)
	assert.False(t, page.HasMore)
	assert.Len(t, page.Books, 28)

	w = ts.do(t, http.MethodPost, "/v1/search/more")
	assert.Equal(t, http.StatusConflict, w.Code)
	env = decode(t, w, nil)
	assert.Equal(t, httpx.CodeLoadMoreRefused, env.Error.Code)
	assert.Equal(t, 2, ts.catalog.Calls("/search.json"))
}

func TestHandler_SearchValidationAndUpstream(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/v1/search?q=+++")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, httpx.CodeValidationEmpty, decode(t, w, nil).Error.Code)
	assert.Zero(t, ts.catalog.TotalCalls())

	ts.catalog.JSON("/search.json", http.StatusServiceUnavailable, `{}`)
	w = ts.do(t, http.MethodGet, "/v1/search?q=dune")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	env := decode(t, w, nil)
	assert.Equal(t, httpx.CodeUpstreamUnavailable, env.Error.Code)
	assert.Equal(t, "Search failed. Please try again.", env.Error.Message)
}

func TestHandler_AdvancedSearch(t *testing.T) {
	ts := newTestServer(t)
	ts.catalog.JSON("/search.json", http.StatusOK, testutil.SearchJSON(testutil.Doc{
		Key: "/works/OL27448W", Title: "The Lord of the Rings", AuthorNames: []string{"J.R.R. Tolkien"}, FirstPublishYear: 1954,
	}))

	w := ts.do(t, http.MethodGet, "/v1/advanced-search?author=Tolkien&title=+&subject=")
	require.Equal(t, http.StatusOK, w.Code)

	q := ts.catalog.LastQuery("/search.json")
	assert.Equal(t, "Tolkien", q.Get("author"))
	assert.False(t, q.Has("title"))
	assert.False(t, q.Has("subject"))
	assert.False(t, q.Has("first_publish_year"))

	var st struct {
		Books []view.Card `json:"books"`
	}
	decode(t, w, &st)
	require.Len(t, st.Books, 1)
	assert.Equal(t, "First published: 1954", st.Books[0].FirstPublished)

	w = ts.do(t, http.MethodGet, "/v1/advanced-search?first_publish_year=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w, nil)
	assert.Equal(t, httpx.CodeValidation, env.Error.Code)
	require.Len(t, env.Error.Details, 1)
	assert.Equal(t, "first_publish_year", env.Error.Details[0].Field)

	w = ts.do(t, http.MethodGet, "/v1/advanced-search")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, httpx.CodeValidationEmpty, decode(t, w, nil).Error.Code)

	w = ts.do(t, http.MethodDelete, "/v1/advanced-search")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 1, ts.catalog.Calls("/search.json"))
}

func TestHandler_Recent(t *testing.T) {
	ts := newTestServer(t)
	ts.catalog.JSON("/recentchanges.json", http.StatusOK, testutil.RecentChangesJSON(
		testutil.ChangeEvent{Kind: "edit-book", Keys: []string{"/books/OL1M", "/works/OL2W"}},
		testutil.ChangeEvent{Kind: "merge-authors", Keys: []string{"/authors/OL3A"}},
	))
	ts.catalog.JSON(testutil.ItemPath("/books/OL1M"), http.StatusOK, testutil.ItemJSON("/books/OL1M", "Edition One", 11))
	ts.catalog.JSON(testutil.ItemPath("/works/OL2W"), http.StatusNotFound, `{"error":"notfound"}`)

	w := ts.do(t, http.MethodGet, "/v1/recent")
	require.Equal(t, http.StatusOK, w.Code)
	var st struct {
		Books []view.Card `json:"books"`
	}
	decode(t, w, &st)
	require.Len(t, st.Books, 1)
	assert.Equal(t, "Edition One", st.Books[0].Title)
	assert.Equal(t, "Unknown author", st.Books[0].Author)

	// cached for this session
	w = ts.do(t, http.MethodGet, "/v1/recent")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, ts.catalog.Calls("/recentchanges.json"))

	// a new visitor aggregates again
	ts.cookie = nil
	w = ts.do(t, http.MethodGet, "/v1/recent")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, ts.catalog.Calls("/recentchanges.json"))
}

func TestHandler_RecentUpstreamFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.catalog.JSON("/recentchanges.json", http.StatusInternalServerError, `{}`)

	w := ts.do(t, http.MethodGet, "/v1/recent")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Unable to load recent updates.", decode(t, w, nil).Error.Message)
}

func TestHandler_BookDetail(t *testing.T) {
	ts := newTestServer(t)
	ts.catalog.JSON("/works/OL27448W.json", http.StatusOK, `{
		"key": "/works/OL27448W",
		"title": "The Lord of the Rings",
		"description": {"type": "/type/text", "value": "An epic."},
		"covers": [8231856],
		"created": {"type": "/type/datetime", "value": "2009-10-15T11:34:21.437031"}
	}`)
	ts.catalog.JSON("/works/OL1W.json", http.StatusOK, testutil.ItemJSON("/works/OL1W", "Obscure Pamphlet"))
	ts.wiki.JSON("/page/summary/The%20Lord%20of%20the%20Rings", http.StatusOK, `{
		"extract": "A fantasy novel.",
		"content_urls": {"desktop": {"page": "https://en.wikipedia.org/wiki/The_Lord_of_the_Rings"}}
	}`)

	w := ts.do(t, http.MethodGet, "/v1/books/OL27448W")
	require.Equal(t, http.StatusOK, w.Code)
	var book view.DetailView
	decode(t, w, &book)
	assert.Equal(t, "An epic.", book.Description)
	assert.Equal(t, "October 15, 2009", book.PublishedDate)
	assert.Equal(t, "Unknown", book.ModifiedDate)
	assert.True(t, book.EncyclopediaFound)
	assert.Equal(t, "https://en.wikipedia.org/wiki/The_Lord_of_the_Rings", book.Encyclopedia.PageURL)

	t.Run("no encyclopedia data", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/v1/books/OL1W")
		require.Equal(t, http.StatusOK, w.Code)
		var book view.DetailView
		decode(t, w, &book)
		assert.False(t, book.EncyclopediaFound)
		assert.Nil(t, book.Encyclopedia)
	})

	t.Run("unknown record", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/v1/books/OL404W")
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, "Book not found.", decode(t, w, nil).Error.Message)
	})
}

func TestRouter_Probes(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, ts.cookie, "probes do not start sessions")

	w = ts.do(t, http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusOK, w.Code)

	ts.do(t, http.MethodGet, "/v1/search?q=")
	w = ts.do(t, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), metrics.MetricHTTPRequestsTotal))
	assert.True(t, strings.Contains(w.Body.String(), metrics.MetricActiveSessions))

	w = ts.do(t, http.MethodPut, "/v1/recent")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
