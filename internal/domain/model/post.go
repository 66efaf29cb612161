// Package model holds the domain types shared by the publishing services
// and the driven adapters.
package model

import "time"

// Post is an in-memory blog post or page. The same instance is shared with
// the editor UI, so services must never leave a mutated Contents behind.
type Post struct {
	ID         string
	Title      string
	Contents   string
	Permalink  string
	IsPage     bool
	AuthorID   string
	Categories []Category
	Keywords   []Keyword

	// DatePublishedOverride, when non-nil, pins the publish timestamp the
	// caller wants instead of "now".
	DatePublishedOverride *time.Time
}

// HasDatePublishedOverride reports whether the caller supplied an explicit
// publish date.
func (p *Post) HasDatePublishedOverride() bool {
	return p.DatePublishedOverride != nil
}

// PostResult is produced by every successful create or edit call.
//
// DatePublished is the caller's override date when present, otherwise client
// UTC time at the moment the call returned. A server-supplied authoritative
// date, if any, stays inside RemoteDoc and is deliberately not substituted.
type PostResult struct {
	PostID        string
	DatePublished time.Time
	ETag          string
	RemoteDoc     []byte
}
