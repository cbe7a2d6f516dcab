// Package validation classifies response bytes as feed or not-feed by
// content sniffing. The check is deliberately independent of the transport
// Content-Type because many servers mislabel feeds as text/html or
// application/octet-stream.
package validation

import (
	"encoding/json"
	"strings"
)

// sniffWindow bounds how much of the body the sniff inspects. Feed markers
// appear in the first few hundred bytes of any real feed.
const sniffWindow = 4096

var xmlFeedMarkers = []string{"<rss", "<feed", "<rdf:rdf", "<channel", "<?xml"}

// IsValidFeed reports whether data looks like an RSS, Atom, RDF or JSON
// feed. HTML documents are rejected before the markers are consulted because
// an HTML page may well mention "<rss" in escaped sample code.
func IsValidFeed(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	window := data
	if len(window) > sniffWindow {
		window = window[:sniffWindow]
	}
	head := strings.ToLower(string(window))

	if strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html") {
		return false
	}

	for _, marker := range xmlFeedMarkers {
		if strings.Contains(head, marker) {
			return true
		}
	}

	return isJSONFeed(data)
}

// isJSONFeed checks for the JSON Feed shape: an object with a version field
// and an items (or item) array.
func isJSONFeed(data []byte) bool {
	trimmed := strings.TrimSpace(string(data))
	if !strings.HasPrefix(trimmed, "{") {
		return false
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return false
	}

	if _, ok := doc["version"]; !ok {
		return false
	}
	if _, ok := doc["items"]; ok {
		return true
	}
	_, ok := doc["item"]
	return ok
}

// cosmeticXMLErrors are parser complaints that real-world feeds trigger
// without being unusable: unescaped ampersands, stray tokens, entity junk.
var cosmeticXMLErrors = []string{
	"invalid character entity",
	"unescaped",
	"unclosed token",
	"invalid character",
	"illegal character",
	"expected element name",
}

// IsAcceptableDespiteParseError decides whether a feed whose XML parse
// failed should still be treated as a feed: the parse error must be a known
// cosmetic issue and the raw bytes must still carry feed markers.
func IsAcceptableDespiteParseError(parseErr error, data []byte) bool {
	if parseErr == nil {
		return true
	}

	msg := strings.ToLower(parseErr.Error())
	cosmetic := false
	for _, marker := range cosmeticXMLErrors {
		if strings.Contains(msg, marker) {
			cosmetic = true
			break
		}
	}
	if !cosmetic {
		return false
	}

	return IsValidFeed(data)
}

// RepairFeedXML escapes bare ampersands, the dominant cosmetic breakage in
// hand-assembled RSS, so the feed can be re-parsed.
func RepairFeedXML(data []byte) []byte {
	s := string(data)
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] != '&' {
			b.WriteByte(s[i])
			continue
		}
		if isEntityStart(s[i:]) {
			b.WriteByte(s[i])
			continue
		}
		b.WriteString("&amp;")
	}

	return []byte(b.String())
}

func isEntityStart(s string) bool {
	end := len(s)
	if end > 10 {
		end = 10
	}
	semi := strings.IndexByte(s[:end], ';')
	if semi < 2 {
		return false
	}
	body := s[1:semi]
	if body[0] == '#' {
		return true
	}
	for i := 0; i < len(body); i++ {
		c := body[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
