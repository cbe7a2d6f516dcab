package domain

import (
	"time"
)

// ArticleStatus tracks an article through the downstream review flow.
type ArticleStatus string

const (
	StatusNew       ArticleStatus = "new"
	StatusSelected  ArticleStatus = "selected"
	StatusDismissed ArticleStatus = "dismissed"
	StatusSent      ArticleStatus = "sent"
)

// Article is the canonical record produced by the ingestion core. Link is the
// sole identity key: two fetches of the same URL collapse to one Article no
// matter how they were extracted. PubDate is nil when no trustworthy date
// could be extracted; it is never defaulted to the ingestion time.
type Article struct {
	ID         string        `db:"id"`
	Title      string        `db:"title"`
	Content    string        `db:"content"`
	Preview    string        `db:"preview"`
	Link       string        `db:"link"`
	PubDate    *time.Time    `db:"pub_date"`
	SourceID   string        `db:"source_id"`
	SourceName string        `db:"source_name"`
	Category   string        `db:"category"`
	Status     ArticleStatus `db:"status"`
	Seen       bool          `db:"seen"`
	SessionID  string        `db:"session_id"`
	CreatedAt  time.Time     `db:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at"`
}

// ArticleUpdate carries a partial update; nil fields are left untouched.
// Used by the date-enrichment pass.
type ArticleUpdate struct {
	Title   *string
	Content *string
	Preview *string
	PubDate *time.Time
}
