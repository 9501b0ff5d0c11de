package openlibrary

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
)

// document is an upstream record read without assuming a schema. Every
// accessor reports absence instead of failing on a missing or mistyped field.
type document map[string]any

func decodeDocument(data []byte) (document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (d document) str(name string) string {
	s, _ := d[name].(string)
	return s
}

func (d document) integer(name string) (int, bool) {
	return asInt(d[name])
}

func (d document) strings(name string) []string {
	items, ok := d[name].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (d document) integers(name string) []int {
	items, ok := d[name].([]any)
	if !ok {
		return nil
	}
	var out []int
	for _, item := range items {
		if n, ok := asInt(item); ok {
			out = append(out, n)
		}
	}
	return out
}

// textValue reads either a plain string or an {"type": ..., "value": ...}
// object, the two shapes used for descriptions, notes and timestamps.
func (d document) textValue(name string) string {
	switch v := d[name].(type) {
	case string:
		return v
	case map[string]any:
		s, _ := v["value"].(string)
		return s
	}
	return ""
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		f, err := n.Float64()
		if err != nil || f != math.Trunc(f) {
			return 0, false
		}
		return int(f), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

// summaryFromDocument normalizes a search.json doc. Docs without a key cannot
// be addressed or de-duplicated and are reported as not ok.
func summaryFromDocument(d document) (BookSummary, bool) {
	key := strings.TrimSpace(d.str("key"))
	if key == "" {
		return BookSummary{}, false
	}
	b := BookSummary{
		Key:         key,
		OLID:        OLIDFromKey(key),
		Title:       d.str("title"),
		AuthorNames: d.strings("author_name"),
	}
	if n, ok := d.integer("cover_i"); ok {
		b.CoverID = &n
	}
	if n, ok := d.integer("first_publish_year"); ok {
		b.FirstPublishYear = &n
	}
	return b, true
}
