package discovery

import (
	"context"
	"net/url"
	"strings"

	"harvester/fetcher"
)

// platformProbe maps a hosting platform, recognized by hostname, to the feed
// paths that platform serves.
type platformProbe struct {
	match func(host string) bool
	paths func(site *url.URL) []string
}

var platformProbes = []platformProbe{
	{
		match: hostSuffix("substack.com"),
		paths: func(site *url.URL) []string { return []string{rootOf(site) + "/feed"} },
	},
	{
		match: hostSuffix("medium.com"),
		paths: func(site *url.URL) []string {
			// medium.com/@user and medium.com/publication both expose
			// /feed/<segment>; custom Medium domains expose /feed.
			segment := firstPathSegment(site)
			if site.Host == "medium.com" && segment != "" {
				return []string{rootOf(site) + "/feed/" + segment}
			}
			return []string{rootOf(site) + "/feed"}
		},
	},
	{
		match: hostSuffix("youtube.com"),
		paths: func(site *url.URL) []string {
			if channelID := youtubeChannelID(site); channelID != "" {
				return []string{"https://www.youtube.com/feeds/videos.xml?channel_id=" + channelID}
			}
			return nil
		},
	},
	{
		match: hostSuffix("reddit.com"),
		paths: func(site *url.URL) []string {
			base := strings.TrimSuffix(site.String(), "/")
			return []string{base + "/.rss"}
		},
	},
	{
		match: hostSuffix("github.com"),
		paths: func(site *url.URL) []string {
			segments := pathSegments(site)
			var paths []string
			if len(segments) >= 2 {
				repo := rootOf(site) + "/" + segments[0] + "/" + segments[1]
				paths = append(paths, repo+"/releases.atom", repo+"/commits.atom", repo+"/tags.atom")
			}
			return paths
		},
	},
	{
		match: hostSuffix("blogspot.com"),
		paths: func(site *url.URL) []string {
			return []string{
				rootOf(site) + "/feeds/posts/default",
				rootOf(site) + "/feeds/posts/default?alt=rss",
			}
		},
	},
	{
		match: hostSuffix("tumblr.com"),
		paths: func(site *url.URL) []string { return []string{rootOf(site) + "/rss"} },
	},
	{
		// Mastodon instances live on many domains; the profile path is the
		// signal, not the host.
		match: func(string) bool { return true },
		paths: func(site *url.URL) []string {
			segment := firstPathSegment(site)
			if strings.HasPrefix(segment, "@") {
				return []string{rootOf(site) + "/" + segment + ".rss"}
			}
			return nil
		},
	},
}

// fromPlatformPatterns probes the known feed conventions of major hosting
// platforms. Probes are gated on the hostname (or, for Mastodon, the profile
// path shape) so unrelated sites skip this strategy quickly.
func (e *Engine) fromPlatformPatterns(ctx context.Context, site *url.URL) (string, error) {
	host := strings.ToLower(site.Hostname())
	for _, probe := range platformProbes {
		if !probe.match(host) {
			continue
		}
		for _, candidate := range probe.paths(site) {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			if e.verifyCandidate(ctx, candidate) {
				return candidate, nil
			}
		}
	}
	return "", nil
}

// fromWordPress probes WordPress feed endpoints when the site page carries a
// WordPress signal. WordPress is common enough that an unconditional probe
// would be wasted on most sites, so the page is checked first.
func (e *Engine) fromWordPress(ctx context.Context, site *url.URL) (string, error) {
	resp, err := e.fetcher.Fetch(ctx, site.String(), fetcher.Options{Timeout: fetchTimeout})
	if err != nil {
		return "", nil
	}
	if !looksLikeWordPress(resp.Body) {
		return "", nil
	}

	for _, path := range []string{"/feed/", "/?feed=rss2", "/comments/feed/"} {
		candidate := rootOf(site) + path
		if e.verifyCandidate(ctx, candidate) {
			return candidate, nil
		}
	}
	return "", nil
}

func looksLikeWordPress(html []byte) bool {
	page := strings.ToLower(string(html))
	return strings.Contains(page, "wp-content") ||
		strings.Contains(page, "wp-includes") ||
		strings.Contains(page, `name="generator" content="wordpress`)
}

func hostSuffix(suffix string) func(string) bool {
	return func(host string) bool {
		return host == suffix || strings.HasSuffix(host, "."+suffix)
	}
}

func pathSegments(site *url.URL) []string {
	cleaned := strings.Trim(site.EscapedPath(), "/")
	if cleaned == "" {
		return nil
	}
	return strings.Split(cleaned, "/")
}

func firstPathSegment(site *url.URL) string {
	segments := pathSegments(site)
	if len(segments) == 0 {
		return ""
	}
	return segments[0]
}

func youtubeChannelID(site *url.URL) string {
	segments := pathSegments(site)
	if len(segments) >= 2 && segments[0] == "channel" {
		return segments[1]
	}
	return ""
}
