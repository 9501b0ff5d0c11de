package view

import (
	"strconv"
	"strings"
	"time"

	"bookfinder/internal/platform/openlibrary"
)

const unknownAuthor = "Unknown author"

// Card is the render model of a book tile.
type Card struct {
	Key            string `json:"key"`
	OLID           string `json:"olid"`
	Title          string `json:"title"`
	Author         string `json:"author"`
	CoverURL       string `json:"cover_url"`
	FirstPublished string `json:"first_published,omitempty"`
	Link           string `json:"link"`
}

// NewCard maps a summary to its tile.
func NewCard(b openlibrary.BookSummary) Card {
	c := Card{
		Key:      b.Key,
		OLID:     b.OLID,
		Title:    b.Title,
		Author:   b.FirstAuthor(),
		CoverURL: openlibrary.CoverURL(b.CoverID, openlibrary.CoverMedium),
		Link:     "/book/" + b.OLID,
	}
	if c.Author == "" {
		c.Author = unknownAuthor
	}
	if b.FirstPublishYear != nil && *b.FirstPublishYear != 0 {
		c.FirstPublished = "First published: " + strconv.Itoa(*b.FirstPublishYear)
	}
	return c
}

func Cards(books []openlibrary.BookSummary) []Card {
	cards := make([]Card, 0, len(books))
	for _, b := range books {
		cards = append(cards, NewCard(b))
	}
	return cards
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
}

// FormatDate renders an upstream date for display. Values that do not parse
// as a full date are shown as-is.
func FormatDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "Unknown"
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("January 2, 2006")
		}
	}
	return value
}
