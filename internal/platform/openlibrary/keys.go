package openlibrary

import (
	"strconv"
	"strings"
)

// PlaceholderCover is served when a record has no usable cover id.
const PlaceholderCover = "/placeholder-book.svg"

var coversBase = "https://covers.openlibrary.org/b/id"

// CoverSize is the size code understood by the covers service.
type CoverSize string

const (
	CoverSmall  CoverSize = "S"
	CoverMedium CoverSize = "M"
	CoverLarge  CoverSize = "L"
)

// OLIDFromKey returns the trailing segment of a key such as "/works/OL123W".
// A key with an empty trailing segment is returned unchanged.
func OLIDFromKey(key string) string {
	i := strings.LastIndex(key, "/")
	if i < 0 {
		return key
	}
	if olid := key[i+1:]; olid != "" {
		return olid
	}
	return key
}

// KeyFromOLID rebuilds a key from an identifier: "W" suffixes are works,
// "M" suffixes are editions (books), anything else falls back to works.
func KeyFromOLID(olid string) string {
	switch {
	case strings.HasSuffix(olid, "W"):
		return "/works/" + olid
	case strings.HasSuffix(olid, "M"):
		return "/books/" + olid
	default:
		return "/works/" + olid
	}
}

// CoverURL builds the image URL for a cover id, or the placeholder path when
// the id is absent.
func CoverURL(coverID *int, size CoverSize) string {
	if coverID == nil || *coverID <= 0 {
		return PlaceholderCover
	}
	switch size {
	case CoverSmall, CoverMedium, CoverLarge:
	default:
		size = CoverMedium
	}
	return coversBase + "/" + strconv.Itoa(*coverID) + "-" + string(size) + ".jpg"
}
