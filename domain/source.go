package domain

import (
	"net/url"
	"strings"
	"time"
)

// MonitoringType decides how a source's articles are collected. It is fixed
// at source-setup time and never re-derived during an ingestion pass.
type MonitoringType string

const (
	MonitoringRSS      MonitoringType = "RSS"
	MonitoringScraping MonitoringType = "SCRAPING"
	MonitoringADK      MonitoringType = "ADK"
)

// Source represents a monitored site. For RSS-typed sources URL is the feed
// URL itself, not the site URL.
type Source struct {
	ID             string         `db:"id"`
	URL            string         `db:"url"`
	Name           string         `db:"name"`
	Category       string         `db:"category"`
	MonitoringType MonitoringType `db:"monitoring_type"`
	IsPaused       bool           `db:"is_paused"`
	LastCheckedAt  *time.Time     `db:"last_checked_at"`
}

// Hostname returns the source's hostname without a leading "www.", used to
// check whether extracted article links belong to this source.
func (s Source) Hostname() string {
	parsed, err := url.Parse(s.URL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}

// SameHost reports whether link's hostname (ignoring "www.") equals host.
func SameHost(link, host string) bool {
	parsed, err := url.Parse(link)
	if err != nil {
		return false
	}
	linkHost := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	return linkHost != "" && linkHost == host
}

// SourceResult summarizes the outcome of one source within an ingestion pass.
type SourceResult struct {
	SourceName      string `json:"source_name"`
	URL             string `json:"url"`
	NewArticleCount int    `json:"new_article_count"`
	Success         bool   `json:"success"`
	Error           string `json:"error,omitempty"`
}
