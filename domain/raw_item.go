package domain

import (
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

// RawItem is the single source-format-independent intermediate between
// fetching and extraction. Feed items, JSON-Feed items, externally extracted
// items and scraped anchors all map into it through the adapters below.
// Fields are optional; the extraction pipeline decides which to trust.
// RawItems are ephemeral and never persisted.
type RawItem struct {
	Title            string
	Link             string
	Description      string
	Content          string
	ContentEncoded   string
	MediaDescription string
	Author           string

	// Raw date candidates in extraction preference order. Published holds
	// whatever string the source provided; ISODate carries the last-modified
	// timestamp (Atom <updated>, JSON Feed date_modified) as a lower-priority
	// fallback; PublishedParsed is set only when the source format already
	// carries a parsed timestamp.
	Published       string
	ISODate         string
	DCDate          string
	PublishedParsed *time.Time
}

// FromFeedItem adapts a gofeed item (RSS 2.0, Atom, or JSON Feed -- gofeed
// normalizes all three) into a RawItem.
func FromFeedItem(item *gofeed.Item) RawItem {
	raw := RawItem{
		Title:           item.Title,
		Link:            item.Link,
		Description:     item.Description,
		Content:         item.Content,
		Published:       item.Published,
		ISODate:         item.Updated,
		PublishedParsed: item.PublishedParsed,
	}
	if item.Author != nil {
		raw.Author = item.Author.Name
	}
	if enc, ok := firstExtensionValue(item.Extensions, "content", "encoded"); ok {
		raw.ContentEncoded = enc
	}
	if md, ok := firstExtensionValue(item.Extensions, "media", "description"); ok {
		raw.MediaDescription = md
	}
	if dc := item.DublinCoreExt; dc != nil && len(dc.Date) > 0 {
		raw.DCDate = dc.Date[0]
	}
	return raw
}

// FromScrapedLink adapts an anchor harvested from a listing page. Title and
// link are all a listing page yields; the pipeline fetches the rest.
func FromScrapedLink(title, link string) RawItem {
	return RawItem{Title: title, Link: link}
}

func firstExtensionValue(exts ext.Extensions, namespace, name string) (string, bool) {
	ns, ok := exts[namespace]
	if !ok {
		return "", false
	}
	values, ok := ns[name]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0].Value, true
}
