package api

import (
	"github.com/mossdal/loom/internal/archive"
)

// DocumentDetail is the response payload for a single archived document.
type DocumentDetail struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// DocumentListResponse wraps document listings.
type DocumentListResponse struct {
	Documents []string `json:"documents"`
	Total     int      `json:"total"`
}

// SearchResult is a single search hit (aliased from the archive layer).
type SearchResult = archive.Document

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}
