package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidFeed(t *testing.T) {
	tests := []struct {
		name string
		data string
		want bool
	}{
		{"rss", `<?xml version="1.0"?><rss version="2.0"><channel></channel></rss>`, true},
		{"atom", `<feed xmlns="http://www.w3.org/2005/Atom"><title>t</title></feed>`, true},
		{"rdf", `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"></rdf:RDF>`, true},
		{"json feed", `{"version":"https://jsonfeed.org/version/1.1","items":[]}`, true},
		{"json without version", `{"items":[]}`, false},
		{"json without items", `{"version":"1"}`, false},
		{"html page", `<!DOCTYPE html><html><body>not a feed</body></html>`, false},
		{"html mentioning rss", `<html><body>&lt;rss&gt; sample: <rss></body></html>`, false},
		{"empty", ``, false},
		{"plain text", `hello world`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidFeed([]byte(tt.data)))
		})
	}
}

func TestIsValidFeed_MarkerBeyondSniffWindow(t *testing.T) {
	data := strings.Repeat(" ", sniffWindow+1) + "<rss>"
	assert.False(t, IsValidFeed([]byte(data)))
}

func TestIsAcceptableDespiteParseError(t *testing.T) {
	feed := []byte(`<?xml version="1.0"?><rss version="2.0"><channel></channel></rss>`)

	assert.True(t, IsAcceptableDespiteParseError(nil, feed))
	assert.True(t, IsAcceptableDespiteParseError(errors.New("XML syntax error on line 4: invalid character entity &q"), feed))
	assert.False(t, IsAcceptableDespiteParseError(errors.New("Failed to detect feed type"), feed))
	assert.False(t, IsAcceptableDespiteParseError(
		errors.New("invalid character entity"),
		[]byte(`<html><body>error page</body></html>`),
	))
}

func TestRepairFeedXML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare ampersand", `<title>Cats & Dogs</title>`, `<title>Cats &amp; Dogs</title>`},
		{"named entity untouched", `<title>Cats &amp; Dogs</title>`, `<title>Cats &amp; Dogs</title>`},
		{"numeric entity untouched", `<title>A&#169;B</title>`, `<title>A&#169;B</title>`},
		{"trailing ampersand", `<title>A &</title>`, `<title>A &amp;</title>`},
		{"not an entity", `<link>?a=1&b=2</link>`, `<link>?a=1&amp;b=2</link>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(RepairFeedXML([]byte(tt.in))))
		})
	}
}
