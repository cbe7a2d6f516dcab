package extractor

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	swappedTitleLen   = 200
	swappedContentLen = 100
	longTitleLen      = 150
	clauseMinLen      = 10
	clauseMaxLen      = 100
)

// genericTitles never identify an article. A page whose best title candidate
// is one of these falls back to a slug-derived title.
var genericTitles = map[string]struct{}{
	"blog":            {},
	"home":            {},
	"news":            {},
	"articles":        {},
	"posts":           {},
	"all posts":       {},
	"latest posts":    {},
	"latest by topic": {},
	"untitled":        {},
	"index":           {},
}

var sentenceEnd = regexp.MustCompile(`[.!?。！？]\s`)

// normalizeItemTitle repairs the common feed pathologies around titles:
// title/content swapped, a whole paragraph stuffed into the title, or a bare
// URL where the title should be. Returns the corrected (title, content).
func normalizeItemTitle(title, content string) (string, string) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)

	if len(title) > swappedTitleLen && len(content) < swappedContentLen {
		title, content = content, title
	}

	if isBareURL(title) && content != "" && !isBareURL(content) {
		title, content = content, title
	}

	if len(title) > longTitleLen {
		if clause := leadingClause(title); clause != "" {
			title = clause
		}
	}

	return title, content
}

// leadingClause returns the first sentence of text when it is plausibly a
// title (10 to 100 chars), otherwise "".
func leadingClause(text string) string {
	loc := sentenceEnd.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	clause := strings.TrimSpace(text[:loc[0]+1])
	if len(clause) >= clauseMinLen && len(clause) <= clauseMaxLen {
		return clause
	}
	return ""
}

func isBareURL(s string) bool {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return false
	}
	return !strings.ContainsAny(s, " \t\n")
}

// titleFromDocument extracts the best title of a rendered article page.
// Candidates in priority order: og:title, JSON-LD headline/name, the first
// in-article h1, then the longest segment of a cleaned <title>. Generic
// candidates are rejected; the last resort is a slug-derived title.
func titleFromDocument(doc *goquery.Document, pageURL string) string {
	candidates := []string{
		strings.TrimSpace(doc.Find(`meta[property="og:title"]`).AttrOr("content", "")),
		jsonLDTitle(doc),
		articleH1(doc),
		cleanedPageTitle(doc),
	}

	for _, candidate := range candidates {
		if candidate == "" || isGenericTitle(candidate) {
			continue
		}
		return candidate
	}
	return slugTitle(pageURL)
}

func isGenericTitle(title string) bool {
	_, generic := genericTitles[strings.ToLower(strings.TrimSpace(title))]
	return generic
}

// jsonLDTitle reads headline/name from any ld+json Article-like block.
func jsonLDTitle(doc *goquery.Document) string {
	var title string
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, block := range jsonLDBlocks(s.Text()) {
			if headline, ok := block["headline"].(string); ok && strings.TrimSpace(headline) != "" {
				title = strings.TrimSpace(headline)
				return false
			}
			if name, ok := block["name"].(string); ok && strings.TrimSpace(name) != "" {
				title = strings.TrimSpace(name)
				return false
			}
		}
		return true
	})
	return title
}

// jsonLDBlocks parses an ld+json payload, flattening a top-level array and
// @graph containers into individual objects.
func jsonLDBlocks(raw string) []map[string]any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var blocks []map[string]any
	var single map[string]any
	if err := json.Unmarshal([]byte(raw), &single); err == nil {
		blocks = append(blocks, single)
		if graph, ok := single["@graph"].([]any); ok {
			for _, node := range graph {
				if m, ok := node.(map[string]any); ok {
					blocks = append(blocks, m)
				}
			}
		}
		return blocks
	}

	var list []map[string]any
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		return list
	}
	return nil
}

func articleH1(doc *goquery.Document) string {
	scopes := []string{"article h1", "main h1", "h1"}
	for _, scope := range scopes {
		text := strings.TrimSpace(doc.Find(scope).First().Text())
		if text != "" {
			return text
		}
	}
	return ""
}

// cleanedPageTitle strips "Title | Site" style suffixes by picking the
// longest delimiter-separated segment.
func cleanedPageTitle(doc *goquery.Document) string {
	raw := strings.TrimSpace(doc.Find("title").First().Text())
	if raw == "" {
		return ""
	}

	segments := regexp.MustCompile(`\s+[|\-–—»]\s+`).Split(raw, -1)
	best := ""
	for _, segment := range segments {
		segment = strings.TrimSpace(segment)
		if len(segment) > len(best) {
			best = segment
		}
	}
	return best
}

// slugTitle derives a human title from the last URL path segment:
// "/blog/why-go-wins" becomes "Why go wins".
func slugTitle(pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	segments := strings.Split(strings.Trim(parsed.EscapedPath(), "/"), "/")
	slug := ""
	for i := len(segments) - 1; i >= 0; i-- {
		candidate := segments[i]
		candidate = strings.TrimSuffix(candidate, ".html")
		candidate = strings.TrimSuffix(candidate, ".php")
		if candidate != "" && candidate != "index" {
			slug = candidate
			break
		}
	}
	if slug == "" {
		return ""
	}

	words := strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_'
	})
	title := strings.Join(words, " ")
	if title == "" {
		return ""
	}
	return strings.ToUpper(title[:1]) + title[1:]
}
