// Package testutil provides fake upstream APIs shared by package tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
)

// Upstream is an httptest server routing exact paths to canned handlers and
// counting calls per path.
type Upstream struct {
	*httptest.Server

	mu      sync.Mutex
	routes  map[string]http.HandlerFunc
	calls   map[string]int
	queries map[string]url.Values
}

// NewUpstream starts a server that is closed with the test.
func NewUpstream(t testing.TB) *Upstream {
	t.Helper()
	u := &Upstream{
		routes:  make(map[string]http.HandlerFunc),
		calls:   make(map[string]int),
		queries: make(map[string]url.Values),
	}
	u.Server = httptest.NewServer(http.HandlerFunc(u.serve))
	t.Cleanup(u.Close)
	return u
}

func (u *Upstream) serve(w http.ResponseWriter, r *http.Request) {
	path := r.URL.EscapedPath()
	u.mu.Lock()
	u.calls[path]++
	u.queries[path] = r.URL.Query()
	h, ok := u.routes[path]
	u.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	h(w, r)
}

// Handle registers a handler for an exact escaped path.
func (u *Upstream) Handle(path string, h http.HandlerFunc) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.routes[path] = h
}

// JSON registers a fixed status and body for a path.
func (u *Upstream) JSON(path string, status int, body string) {
	u.Handle(path, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

// Calls returns how many requests hit path.
func (u *Upstream) Calls(path string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls[path]
}

// TotalCalls returns the number of requests across all paths.
func (u *Upstream) TotalCalls() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	n := 0
	for _, c := range u.calls {
		n += c
	}
	return n
}

// LastQuery returns the query string of the latest request to path.
func (u *Upstream) LastQuery(path string) url.Values {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.queries[path]
}

// Doc is a search.json document fixture.
type Doc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title,omitempty"`
	AuthorNames      []string `json:"author_name,omitempty"`
	CoverI           int      `json:"cover_i,omitempty"`
	FirstPublishYear int      `json:"first_publish_year,omitempty"`
}

// SearchJSON renders a search.json body.
func SearchJSON(docs ...Doc) string {
	if docs == nil {
		docs = []Doc{}
	}
	body, _ := json.Marshal(map[string]any{"numFound": len(docs), "docs": docs})
	return string(body)
}

// Docs generates n documents with keys /works/OL<start+i>W.
func Docs(start, n int) []Doc {
	docs := make([]Doc, 0, n)
	for i := 0; i < n; i++ {
		id := start + i
		docs = append(docs, Doc{
			Key:   fmt.Sprintf("/works/OL%dW", id),
			Title: fmt.Sprintf("Book %d", id),
		})
	}
	return docs
}

// ChangeEvent is a recentchanges.json fixture entry.
type ChangeEvent struct {
	Kind string
	Keys []string
}

// RecentChangesJSON renders a recentchanges.json body.
func RecentChangesJSON(events ...ChangeEvent) string {
	out := make([]map[string]any, 0, len(events))
	for i, ev := range events {
		changes := make([]map[string]any, 0, len(ev.Keys))
		for _, k := range ev.Keys {
			changes = append(changes, map[string]any{"key": k, "revision": 1})
		}
		out = append(out, map[string]any{
			"id":      fmt.Sprint(i + 1),
			"kind":    ev.Kind,
			"changes": changes,
		})
	}
	body, _ := json.Marshal(out)
	return string(body)
}

// ItemJSON renders a minimal work/edition record.
func ItemJSON(key, title string, covers ...int) string {
	rec := map[string]any{"key": key, "title": title}
	if len(covers) > 0 {
		rec["covers"] = covers
	}
	body, _ := json.Marshal(rec)
	return string(body)
}

// ItemPath turns a key into the path the catalog client requests.
func ItemPath(key string) string {
	return strings.TrimRight(key, "/") + ".json"
}
