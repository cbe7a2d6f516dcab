package extractor

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"

	"harvester/domain"
)

const (
	maxDateAge    = 10 * 365 * 24 * time.Hour
	maxDateFuture = 5 * 365 * 24 * time.Hour
)

// explicitDateLayouts are tried before the general parser: these formats are
// common in feeds and page chrome and some of them (notably the slashed
// numeric form) need a fixed month/day order.
var explicitDateLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"02-Jan-06",
	"2006-01-02",
	"01/02/2006",
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
}

var monthNameDate = regexp.MustCompile(`(?i)\b(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:tember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?\s+\d{1,2},?\s+\d{4}\b`)

var numericDate = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b|\b\d{2}/\d{2}/\d{4}\b|\b\d{2}-[A-Za-z]{3}-\d{2}\b`)

// pageDateMetaSelectors name the attributes publishers use for the publish
// timestamp, most reliable first.
var pageDateMetaSelectors = []string{
	`meta[property="article:published_time"]`,
	`meta[itemprop="datePublished"]`,
	`meta[name="date"]`,
	`meta[name="pubdate"]`,
	`meta[name="publish-date"]`,
	`meta[name="DC.date"]`,
	`meta[name="dc.date"]`,
	`meta[property="og:article:published_time"]`,
}

// dateFromItem resolves a feed item's publish date. Field order mirrors how
// trustworthy feed generators populate them. An out-of-window or unparsable
// date yields nil, never a substitute.
func dateFromItem(item *domain.RawItem) *time.Time {
	if item.PublishedParsed != nil {
		if t := acceptDate(*item.PublishedParsed); t != nil {
			return t
		}
	}

	for _, raw := range []string{item.Published, item.ISODate, item.DCDate} {
		if t := parseDateCandidate(raw); t != nil {
			return t
		}
	}
	return nil
}

// dateFromDocument recovers a publish date from a rendered page: meta tags,
// JSON-LD, <time> elements, then date-shaped free text.
func dateFromDocument(doc *goquery.Document) *time.Time {
	for _, selector := range pageDateMetaSelectors {
		if t := parseDateCandidate(doc.Find(selector).AttrOr("content", "")); t != nil {
			return t
		}
	}

	if t := jsonLDDate(doc); t != nil {
		return t
	}

	var fromTime *time.Time
	doc.Find("time").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		candidate := s.AttrOr("datetime", "")
		if candidate == "" {
			candidate = s.Text()
		}
		if t := parseDateCandidate(candidate); t != nil {
			fromTime = t
			return false
		}
		return true
	})
	if fromTime != nil {
		return fromTime
	}

	return dateFromText(doc.Find("body").Text())
}

// dateFromText scans free text for the first date-shaped substring within
// the sanity window.
func dateFromText(text string) *time.Time {
	for _, re := range []*regexp.Regexp{monthNameDate, numericDate} {
		for _, match := range re.FindAllString(text, 5) {
			if t := parseDateCandidate(match); t != nil {
				return t
			}
		}
	}
	return nil
}

func jsonLDDate(doc *goquery.Document) *time.Time {
	var found *time.Time
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, block := range jsonLDBlocks(s.Text()) {
			for _, key := range []string{"datePublished", "dateCreated"} {
				if raw, ok := block[key].(string); ok {
					if t := parseDateCandidate(raw); t != nil {
						found = t
						return false
					}
				}
			}
		}
		return true
	})
	return found
}

// parseDateCandidate parses a raw date string through the explicit layouts,
// then dateparse, and applies the sanity window. Returns nil on anything
// unparsable or implausible.
func parseDateCandidate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	for _, layout := range explicitDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return acceptDate(t)
		}
	}

	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return nil
	}
	return acceptDate(t)
}

// acceptDate applies the plausibility window: older than ten years or more
// than five years ahead means the source data is wrong, so no date at all.
func acceptDate(t time.Time) *time.Time {
	now := time.Now()
	if t.Before(now.Add(-maxDateAge)) || t.After(now.Add(maxDateFuture)) {
		return nil
	}
	utc := t.UTC()
	return &utc
}
