// Domain-level sentinel errors, used with errors.Is() across the pipeline.
package domain

import "errors"

// Article errors
var (
	// ErrArticleExists indicates the article's link is already in the store.
	// Raised both by the pre-extraction dedup check and by the insert path
	// when a concurrent run won the race; callers treat it as success.
	ErrArticleExists = errors.New("article already exists")

	// ErrInvalidLink indicates the candidate item carries no usable link.
	ErrInvalidLink = errors.New("article link is missing or invalid")

	// ErrContentTooShort indicates extraction produced too little content to
	// be worth persisting.
	ErrContentTooShort = errors.New("extracted content too short")

	// ErrErrorPageTitle indicates the extracted title is a known error-page
	// string ("404", "just a moment", ...), so the item is skipped.
	ErrErrorPageTitle = errors.New("title looks like an error page")
)

// Discovery errors
var (
	// ErrNoFeedFound indicates every discovery strategy was exhausted without
	// a verifiable feed. Negative results are cached like positive ones.
	ErrNoFeedFound = errors.New("no feed found for site")

	// ErrNotAFeed indicates fetched content failed the feed sniff.
	ErrNotAFeed = errors.New("content is not a recognizable feed")
)

// Scheduler errors
var (
	// ErrPassInProgress indicates an ingestion pass is already running; the
	// running flag is the only mutual-exclusion primitive between passes.
	ErrPassInProgress = errors.New("ingestion pass already in progress")

	// ErrMemoryPressure indicates the resource governor declined browser work
	// for this cycle. The source is retried on the next pass.
	ErrMemoryPressure = errors.New("memory over limit, scraping skipped this pass")

	// ErrScrapingDisallowed indicates robots.txt forbids fetching the page.
	ErrScrapingDisallowed = errors.New("scraping disallowed by robots.txt")
)

// External collaborator errors
var (
	// ErrExtractorEmpty indicates the AI extractor returned zero usable
	// articles and the traditional scrape fallback should run.
	ErrExtractorEmpty = errors.New("external extractor returned no articles")

	// ErrRendererUnavailable indicates the headless render collaborator could
	// not serve the request; scraping falls back to a static fetch.
	ErrRendererUnavailable = errors.New("renderer unavailable")
)
