// Package view holds one controller per screen. A controller owns the fetch
// lifecycle and the state a screen renders, and discards results that
// arrive after its input changed or after it was closed.
package view

import (
	"errors"
	"fmt"
)

// Status is the lifecycle of a screen's primary fetch.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalText renders the status by name in JSON payloads.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var (
	// ErrStale is returned when a result was discarded because a newer
	// request replaced it or the controller was closed.
	ErrStale = errors.New("view: result superseded")
	// ErrLoadMoreRefused is returned when a next page cannot be requested.
	ErrLoadMoreRefused = errors.New("view: no further page can be loaded")
	// ErrValidationEmpty is returned for a blank query or form.
	ErrValidationEmpty = errors.New("view: nothing to search for")
	// ErrMissingID is returned when the detail screen has no identifier.
	ErrMissingID = errors.New("view: missing book id")
)

// User-facing messages.
const (
	msgRecentFailed   = "Unable to load recent updates."
	msgSearchFailed   = "Search failed. Please try again."
	msgLoadMoreFailed = "Unable to load more results."
	msgAdvancedFailed = "Advanced search failed."
	msgMissingID      = "Missing book id."
	msgNotFound       = "Book not found."
)

// guard hands out request tokens. Only the latest token may apply its result.
// Callers hold the controller mutex.
type guard struct {
	gen    uint64
	closed bool
}

func (g *guard) next() uint64 {
	g.gen++
	return g.gen
}

func (g *guard) current(token uint64) bool {
	return !g.closed && g.gen == token
}

func (g *guard) close() {
	g.closed = true
	g.gen++
}
