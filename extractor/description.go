package extractor

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const maxDescriptionLen = 300

var descriptionMetaSelectors = []string{
	`meta[name="description"]`,
	`meta[property="og:description"]`,
	`meta[name="twitter:description"]`,
}

var excerptSelectors = []string{
	".excerpt",
	".post-excerpt",
	".entry-summary",
	".article-summary",
	".summary",
	".lead",
	".standfirst",
}

// descriptionFromDocument finds the hook text of a page: explicit meta
// descriptions first, excerpt blocks next, the first real paragraph last.
func descriptionFromDocument(doc *goquery.Document) string {
	for _, selector := range descriptionMetaSelectors {
		if text := strings.TrimSpace(doc.Find(selector).AttrOr("content", "")); text != "" {
			return truncateDescription(text)
		}
	}

	for _, selector := range excerptSelectors {
		if text := strings.TrimSpace(doc.Find(selector).First().Text()); len(text) > 20 {
			return truncateDescription(text)
		}
	}

	var first string
	doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if len(text) > 40 {
			first = text
			return false
		}
		return true
	})
	return truncateDescription(first)
}

// makePreview derives the preview field from already-cleaned content when no
// better description exists.
func makePreview(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > 40 {
			return truncateDescription(line)
		}
	}
	return truncateDescription(strings.TrimSpace(content))
}

func truncateDescription(text string) string {
	if utf8.RuneCountInString(text) <= maxDescriptionLen {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:maxDescriptionLen-1])) + "…"
}
