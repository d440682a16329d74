package models

import "time"

// ActivityKind distinguishes the two recent-activity lists.
type ActivityKind string

const (
	ActivityViewed     ActivityKind = "viewed"
	ActivityDownloaded ActivityKind = "downloaded"
)

// ActivityEntry is one row of a per-user recently-viewed or
// recently-downloaded list. The lists are capped, most-recent-first
// conveniences: they are never consulted for access control.
type ActivityEntry struct {
	MaterialID string       `json:"material_id"`
	Title      string       `json:"title"`
	Subject    string       `json:"subject"`
	Link       string       `json:"link"`
	Type       MaterialType `json:"type"`
	Timestamp  time.Time    `json:"timestamp"`
}
