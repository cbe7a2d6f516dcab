package extractor

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// cleanRule is one entry of the ordered cleaning table. Rules run top to
// bottom after tag stripping; each removes one family of boilerplate.
type cleanRule struct {
	name    string
	pattern *regexp.Regexp
	repl    string
}

var cleanRules = []cleanRule{
	{
		name:    "byline-date",
		pattern: regexp.MustCompile(`(?im)^by\s+[\p{L}.\- ]{2,60},?\s*(?:on\s+)?(?:\w+ \d{1,2},? \d{4})?\s*$`),
		repl:    "",
	},
	{
		name:    "standalone-date",
		pattern: regexp.MustCompile(`(?im)^\s*(?:published|updated|posted)?\s*(?:on\s+)?(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:tember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?\s+\d{1,2},?\s+\d{4}\s*$`),
		repl:    "",
	},
	{
		name:    "read-more",
		pattern: regexp.MustCompile(`(?i)\bread more\b[^\n]*`),
		repl:    "",
	},
	{
		name:    "continue-reading",
		pattern: regexp.MustCompile(`(?i)\bcontinue reading\b[^\n]*`),
		repl:    "",
	},
	{
		name:    "share-boilerplate",
		pattern: regexp.MustCompile(`(?im)^.*\b(?:share this post|share this article|share on (?:facebook|twitter|x|linkedin)|tweet this|follow us on)\b.*$`),
		repl:    "",
	},
	{
		name:    "subscribe-boilerplate",
		pattern: regexp.MustCompile(`(?im)^.*\b(?:subscribe to (?:our|the) newsletter|sign up for (?:our|the) newsletter|enter your email)\b.*$`),
		repl:    "",
	},
	{
		name:    "comments-nav",
		pattern: regexp.MustCompile(`(?im)^\s*(?:leave a comment|no comments|\d+ comments?|skip to (?:main )?content|back to top)\s*$`),
		repl:    "",
	},
	{
		name:    "platform-noise",
		pattern: regexp.MustCompile(`(?im)^\s*(?:advertisement|sponsored content|this post may contain affiliate links[^\n]*|originally published at[^\n]*)\s*$`),
		repl:    "",
	},
}

// metadataLine matches lines shaped like navigation or metadata rather than
// prose: short, no sentence punctuation, mostly label-like.
var metadataLine = regexp.MustCompile(`(?i)^\s*(?:home|menu|search|tags?:.*|categor(?:y|ies):.*|filed under.*|posted in.*|photo(?:\s+credit)?:.*|image:.*|source:\s*\S+)\s*$`)

var (
	brTag        = regexp.MustCompile(`(?i)<br\s*/?>`)
	closePTag    = regexp.MustCompile(`(?i)</p\s*>`)
	manyNewlines = regexp.MustCompile(`\n{3,}`)
	spaceRuns    = regexp.MustCompile(`[ \t]{2,}`)
)

var stripPolicy = bluemonday.StrictPolicy()

// CleanText turns raw HTML or already-plain text into cleaned article prose.
// The function is idempotent: cleaning cleaned text returns it unchanged.
func CleanText(raw string) string {
	text := brTag.ReplaceAllString(raw, "\n")
	text = closePTag.ReplaceAllString(text, "\n\n")
	text = stripPolicy.Sanitize(text)
	text = unescapeFully(text)
	text = strings.ReplaceAll(text, " ", " ")

	for _, rule := range cleanRules {
		text = rule.pattern.ReplaceAllString(text, rule.repl)
	}

	text = collapseRepeatedBlocks(text)
	text = dropMetadataLines(text)

	text = spaceRuns.ReplaceAllString(text, " ")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = manyNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// unescapeFully decodes entities to a fixed point. Feeds routinely
// double-escape ("&amp;amp;"), and a single decode would leave text that
// decodes differently on the next cleaning pass.
func unescapeFully(text string) string {
	for range 4 {
		decoded := html.UnescapeString(text)
		if decoded == text {
			return decoded
		}
		text = decoded
	}
	return text
}

// collapseRepeatedBlocks removes consecutive duplicate lines. Scraped pages
// often repeat teaser text in both a summary block and the article body.
func collapseRepeatedBlocks(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	var prev string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && trimmed == prev {
			continue
		}
		out = append(out, line)
		if trimmed != "" {
			prev = trimmed
		}
	}
	return strings.Join(out, "\n")
}

func dropMetadataLines(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		if metadataLine.MatchString(line) {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
