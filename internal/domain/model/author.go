package model

import (
	"sort"
	"time"
)

// Author identifies a poster registered on the remote blog.
type Author struct {
	ID   string
	Name string
}

// SortAuthorsByName sorts authors by display name, ascending.
func SortAuthorsByName(authors []Author) {
	sort.SliceStable(authors, func(i, j int) bool {
		return authors[i].Name < authors[j].Name
	})
}

// PageInfo is the directory entry for a static page on the remote blog.
type PageInfo struct {
	ID            string
	Title         string
	DatePublished time.Time
	ParentID      string
}
