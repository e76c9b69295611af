package urls

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// listingLinkSelector matches the article links of an earnings call transcript listing page.
const listingLinkSelector = "div.content-block.listed-articles.recent-articles.m-np div.list-content > a[href]"

// URLExtractor is a function type that extracts URLs from HTML content
type URLExtractor func(html []byte) ([]URL, error)

// PageFetcher downloads a page body. *httpclient.HTTPClient implements it.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTMLFetcher handles fetching HTML pages and extracting URLs using a provided extractor
type HTMLFetcher struct {
	client    PageFetcher
	extractor URLExtractor
}

// NewHTMLFetcher creates a new HTML fetcher with the given client and extractor function
func NewHTMLFetcher(client PageFetcher, extractor URLExtractor) *HTMLFetcher {
	return &HTMLFetcher{
		client:    client,
		extractor: extractor,
	}
}

// Fetch implements URLsFetcher. A page without links is not an error; callers use the
// empty result to stop paging.
func (f *HTMLFetcher) Fetch(ctx context.Context, pageURL string) ([]URL, error) {
	if f.extractor == nil {
		return nil, fmt.Errorf("extractor function is not set")
	}

	body, err := f.client.Fetch(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch HTML: %w", err)
	}

	urls, err := f.extractor(body)
	if err != nil {
		return nil, fmt.Errorf("failed to extract URLs from %s: %w", pageURL, err)
	}
	return urls, nil
}

// ExtractCallURLs returns an extractor for transcript listing pages. Relative links are
// resolved against root.
func ExtractCallURLs(root string) URLExtractor {
	return func(html []byte) ([]URL, error) {
		base, err := url.Parse(root)
		if err != nil {
			return nil, fmt.Errorf("invalid root url %q: %w", root, err)
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
		if err != nil {
			return nil, fmt.Errorf("failed to parse HTML: %w", err)
		}

		var urls []URL
		doc.Find(listingLinkSelector).Each(func(_ int, link *goquery.Selection) {
			href, _ := link.Attr("href")
			href = strings.TrimSpace(href)
			if href == "" {
				return
			}
			ref, err := url.Parse(href)
			if err != nil {
				return
			}

			title := strings.TrimSpace(link.Find("h4").Text())
			if title == "" {
				title, _ = link.Attr("title")
			}

			urls = append(urls, URL{
				Location: base.ResolveReference(ref).String(),
				Title:    title,
			})
		})

		return urls, nil
	}
}
