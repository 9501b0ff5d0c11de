// Package session keeps the per-visitor screen controllers alive between
// requests and expires them after a period of inactivity.
package session

import (
	"time"

	"bookfinder/internal/view"
)

// Screens holds one controller per screen of a session.
type Screens struct {
	Recent   *view.RecentController
	Search   *view.SearchController
	Advanced *view.AdvancedController
	Detail   *view.DetailController
}

// Close discards every fetch still in flight.
func (s *Screens) Close() {
	s.Recent.Close()
	s.Search.Close()
	s.Advanced.Close()
	s.Detail.Close()
}

type Session struct {
	ID         string
	CreatedAt  time.Time
	LastUsedAt time.Time
	Screens    *Screens
}

// Factory builds the screens of a new session.
type Factory func(sessionID string) *Screens
