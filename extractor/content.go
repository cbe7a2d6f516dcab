package extractor

import (
	"strings"

	"codeberg.org/readeck/go-readability/v2"
	"github.com/PuerkitoBio/goquery"

	"harvester/domain"
)

const (
	// minUsableContent is the shortest feed-provided body worth keeping.
	minUsableContent = 50
	// shortContentThreshold triggers a full-page fetch when the feed body
	// comes up shorter.
	shortContentThreshold = 240
	// minContainerContent is the acceptance bar for a container-selector
	// match on a rendered page.
	minContainerContent = 200
)

// contentContainerSelectors are tried in order against a rendered page; the
// first container yielding enough prose wins.
var contentContainerSelectors = []string{
	"article",
	`[role="main"] article`,
	".post-content",
	".entry-content",
	".article-content",
	".article-body",
	".post-body",
	".story-body",
	".blog-post-content",
	"#article-body",
	"main",
	"#content",
	".content",
}

// contentFromItem picks the richest body a feed item carries. Preference
// follows field quality, not length: descriptions are usually the author's
// own text, the encoded variants often carry markup noise.
func contentFromItem(item *domain.RawItem) string {
	candidates := []string{
		item.Description,
		item.Content,
		item.ContentEncoded,
		item.MediaDescription,
	}
	for _, candidate := range candidates {
		if len(strings.TrimSpace(candidate)) > minUsableContent {
			return candidate
		}
	}
	// Nothing usable in the item itself. The link stands in so the article
	// is still reviewable; a full-page fetch will usually replace it.
	return item.Link
}

// contentFromDocument extracts main article prose from a rendered page:
// container selectors first, readability for main-content isolation next,
// all paragraph text as the last resort.
func contentFromDocument(doc *goquery.Document) string {
	for _, selector := range contentContainerSelectors {
		container := doc.Find(selector).First()
		if container.Length() == 0 {
			continue
		}
		text := joinProse(container)
		if len(text) >= minContainerContent {
			return text
		}
	}

	if text := readabilityText(doc); len(text) >= minContainerContent {
		return text
	}

	return joinSelection(doc.Find("p"))
}

// joinProse collects the prose-bearing elements within a container,
// preserving paragraph breaks.
func joinProse(container *goquery.Selection) string {
	return joinSelection(container.Find("p, li, h2, h3, blockquote"))
}

func joinSelection(sel *goquery.Selection) string {
	var parts []string
	sel.Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n\n")
}

// readabilityText runs go-readability over the document HTML and returns the
// extracted plain text, or "" when extraction fails or yields nothing.
func readabilityText(doc *goquery.Document) string {
	pageHTML, err := doc.Html()
	if err != nil {
		return ""
	}

	article, err := readability.FromReader(strings.NewReader(pageHTML), nil)
	if err != nil {
		return ""
	}

	var buf strings.Builder
	if err := article.RenderText(&buf); err != nil {
		return ""
	}
	return strings.TrimSpace(buf.String())
}
