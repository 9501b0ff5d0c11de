package openlibrary

import (
	"encoding/json"
	"strings"
)

// BookSummary is the normalized shape every screen renders, whatever
// endpoint the record came from.
type BookSummary struct {
	Key              string   `json:"key"`
	OLID             string   `json:"olid"`
	Title            string   `json:"title"`
	AuthorNames      []string `json:"author_name,omitempty"`
	CoverID          *int     `json:"cover_id,omitempty"`
	FirstPublishYear *int     `json:"first_publish_year,omitempty"`
}

// FirstAuthor returns the display author or "" when none is known.
func (b BookSummary) FirstAuthor() string {
	if len(b.AuthorNames) == 0 {
		return ""
	}
	return b.AuthorNames[0]
}

// SearchPage is one page of search results. Docs counts every document the
// upstream returned, including those dropped during normalization.
type SearchPage struct {
	Books []BookSummary
	Docs  int
}

// WorkDetail is a single work or edition record. The upstream store is
// schemaless, so decoding never fails on a field of the wrong shape.
type WorkDetail struct {
	Key              string `json:"key,omitempty"`
	Title            string `json:"title,omitempty"`
	Description      string `json:"description,omitempty"`
	Covers           []int  `json:"covers,omitempty"`
	FirstPublishDate string `json:"first_publish_date,omitempty"`
	Created          string `json:"created,omitempty"`
	LastModified     string `json:"last_modified,omitempty"`
}

// UnmarshalJSON reads the record defensively; only a non-object body is an
// error.
func (w *WorkDetail) UnmarshalJSON(data []byte) error {
	doc, err := decodeDocument(data)
	if err != nil {
		return err
	}
	*w = WorkDetail{
		Key:              doc.str("key"),
		Title:            doc.str("title"),
		Description:      doc.textValue("description"),
		Covers:           doc.integers("covers"),
		FirstPublishDate: doc.str("first_publish_date"),
		Created:          doc.textValue("created"),
		LastModified:     doc.textValue("last_modified"),
	}
	return nil
}

// FirstCover returns the first cover reference, if any.
func (w WorkDetail) FirstCover() *int {
	if len(w.Covers) == 0 {
		return nil
	}
	c := w.Covers[0]
	return &c
}

// PublishedDate prefers first_publish_date and falls back to the record's
// creation timestamp.
func (w WorkDetail) PublishedDate() string {
	if d := strings.TrimSpace(w.FirstPublishDate); d != "" {
		return d
	}
	return w.Created
}

// ChangeEvent is one entry of the recentchanges feed.
type ChangeEvent struct {
	ID        string      `json:"id"`
	Kind      string      `json:"kind"`
	Timestamp string      `json:"timestamp"`
	Comment   string      `json:"comment"`
	Changes   []ChangeRef `json:"changes"`
}

// ChangeRef points at a record touched by a change event.
type ChangeRef struct {
	Key      string `json:"key"`
	Revision int    `json:"revision"`
}

// decodeChangeEvents decodes the feed item by item so a single malformed
// event does not discard the rest.
func decodeChangeEvents(data []byte) ([]ChangeEvent, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	events := make([]ChangeEvent, 0, len(raw))
	for _, item := range raw {
		var ev ChangeEvent
		if err := json.Unmarshal(item, &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}
