package pipeline

import (
	"context"
	"fmt"
	"strings"

	"foolcalls/pkg/callid"
	"foolcalls/pkg/logger"
	"foolcalls/pkg/metrics"
	"foolcalls/pkg/urls"
)

// ListingCrawlerConfig describes where listing pages live and when to stop paging.
type ListingCrawlerConfig struct {
	ListingURL string // e.g. "https://www.fool.com/earnings-call-transcripts"
	StartPage  int
	// MaxPages caps the number of pages visited; 0 means unlimited.
	MaxPages int
	// TraverseAll keeps paging past pages whose links are all known.
	TraverseAll bool
}

// ListingCrawler walks the paginated transcript listing and emits URLs of transcripts
// that have not been downloaded yet. Implements URLGenerator.
//
// Paging stops, in order of precedence, when the context is cancelled, when MaxPages
// pages have been visited, when a page has no links at all, or when a page has no new
// links and TraverseAll is false.
type ListingCrawler struct {
	cfg     ListingCrawlerConfig
	fetcher urls.URLsFetcher
	filters []urls.UrlFilter
	log     logger.Logger
	metrics *metrics.Metrics
}

// NewListingCrawler creates a crawler. filters decide which links count as new.
func NewListingCrawler(cfg ListingCrawlerConfig, fetcher urls.URLsFetcher, filters []urls.UrlFilter, log logger.Logger, m *metrics.Metrics) *ListingCrawler {
	if cfg.StartPage < 1 {
		cfg.StartPage = 1
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &ListingCrawler{
		cfg:     cfg,
		fetcher: fetcher,
		filters: filters,
		log:     log,
		metrics: m,
	}
}

// Generate implements URLGenerator.
func (c *ListingCrawler) Generate(ctx context.Context, out chan<- string) error {
	seen := make(map[string]bool)
	emitted := 0

	for page, visited := c.cfg.StartPage, 0; ; page, visited = page+1, visited+1 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.cfg.MaxPages > 0 && visited >= c.cfg.MaxPages {
			c.log.Info("Reached page limit", logger.Int("max_pages", c.cfg.MaxPages))
			break
		}

		pageURL := c.buildPageURL(page)
		links, err := c.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			return fmt.Errorf("listing page %d: %w", page, err)
		}
		c.metrics.RecordListingPage()

		if len(links) == 0 {
			c.log.Info("No links on listing page, no more calls available", logger.Int("page", page))
			break
		}

		fresh, err := c.newURLs(ctx, links, seen)
		if err != nil {
			return err
		}
		c.log.Info("Scanned listing page",
			logger.Int("page", page),
			logger.Int("links", len(links)),
			logger.Int("new", len(fresh)))

		for _, u := range fresh {
			select {
			case out <- u:
				emitted++
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if len(fresh) == 0 && !c.cfg.TraverseAll {
			c.log.Info("No unprocessed links on page, stopping", logger.Int("page", page))
			break
		}
	}

	c.log.Info("Listing crawl finished", logger.Int("new_urls", emitted))
	return nil
}

// buildPageURL builds the URL for a given page number
func (c *ListingCrawler) buildPageURL(page int) string {
	sep := "?"
	if strings.Contains(c.cfg.ListingURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%spage=%d", c.cfg.ListingURL, sep, page)
}

// newURLs applies the filters and drops CIDs already emitted during this run.
func (c *ListingCrawler) newURLs(ctx context.Context, links []urls.URL, seen map[string]bool) ([]string, error) {
	locations := make([]string, 0, len(links))
	for _, l := range links {
		if l.Location != "" {
			locations = append(locations, l.Location)
		}
	}

	kept, err := urls.FilterURLs(ctx, locations, c.filters...)
	if err != nil {
		return nil, err
	}

	fresh := make([]string, 0, len(kept))
	for _, u := range kept {
		cid, err := callid.ToCID(u)
		if err != nil || seen[cid] {
			continue
		}
		seen[cid] = true
		fresh = append(fresh, u)
	}
	return fresh, nil
}
