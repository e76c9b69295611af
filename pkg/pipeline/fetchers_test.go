package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foolcalls/pkg/pipeline"
	"foolcalls/pkg/urls"
)

// pagedFetcher serves canned listing pages keyed by page URL.
type pagedFetcher struct {
	pages   map[string][]urls.URL
	err     error
	visited []string
}

func (f *pagedFetcher) Fetch(ctx context.Context, pageURL string) ([]urls.URL, error) {
	f.visited = append(f.visited, pageURL)
	if f.err != nil {
		return nil, f.err
	}
	return f.pages[pageURL], nil
}

func callURL(day int, slug string) urls.URL {
	return urls.URL{Location: fmt.Sprintf("https://www.fool.com/earnings/call-transcripts/2020/07/%02d/%s.aspx", day, slug)}
}

func listing(page int) string {
	return fmt.Sprintf("https://www.fool.com/earnings-call-transcripts?page=%d", page)
}

func collect(t *testing.T, c *pipeline.ListingCrawler) ([]string, error) {
	t.Helper()
	out := make(chan string, 100)
	err := c.Generate(context.Background(), out)
	close(out)

	var got []string
	for u := range out {
		got = append(got, u)
	}
	return got, err
}

func threePages() *pagedFetcher {
	return &pagedFetcher{pages: map[string][]urls.URL{
		listing(1): {callURL(14, "a"), callURL(14, "b")},
		listing(2): {callURL(13, "c"), callURL(14, "b")},
		listing(3): {callURL(12, "d")},
	}}
}

func TestListingCrawler_StopsOnEmptyPage(t *testing.T) {
	t.Parallel()

	fetcher := threePages()
	c := pipeline.NewListingCrawler(pipeline.ListingCrawlerConfig{
		ListingURL: "https://www.fool.com/earnings-call-transcripts",
	}, fetcher, nil, nil, nil)

	got, err := collect(t, c)
	require.NoError(t, err)
	assert.Equal(t, []string{
		callURL(14, "a").Location,
		callURL(14, "b").Location,
		callURL(13, "c").Location,
		callURL(12, "d").Location,
	}, got)
	assert.Equal(t, []string{listing(1), listing(2), listing(3), listing(4)}, fetcher.visited)
}

func TestListingCrawler_MaxPages(t *testing.T) {
	t.Parallel()

	fetcher := threePages()
	c := pipeline.NewListingCrawler(pipeline.ListingCrawlerConfig{
		ListingURL: "https://www.fool.com/earnings-call-transcripts",
		StartPage:  2,
		MaxPages:   1,
	}, fetcher, nil, nil, nil)

	got, err := collect(t, c)
	require.NoError(t, err)
	assert.Equal(t, []string{callURL(13, "c").Location, callURL(14, "b").Location}, got)
	assert.Equal(t, []string{listing(2)}, fetcher.visited)
}

func TestListingCrawler_StopsOnPageWithoutNewLinks(t *testing.T) {
	t.Parallel()

	known := map[string]bool{"2020-07-13-c": true, "2020-07-14-b": true}
	filters := []urls.UrlFilter{urls.NewKnownCIDFilter(known)}

	fetcher := threePages()
	c := pipeline.NewListingCrawler(pipeline.ListingCrawlerConfig{
		ListingURL: "https://www.fool.com/earnings-call-transcripts",
	}, fetcher, filters, nil, nil)

	got, err := collect(t, c)
	require.NoError(t, err)
	assert.Equal(t, []string{callURL(14, "a").Location}, got)
	assert.Equal(t, []string{listing(1), listing(2)}, fetcher.visited)

	fetcher = threePages()
	c = pipeline.NewListingCrawler(pipeline.ListingCrawlerConfig{
		ListingURL:  "https://www.fool.com/earnings-call-transcripts",
		TraverseAll: true,
	}, fetcher, filters, nil, nil)

	got, err = collect(t, c)
	require.NoError(t, err)
	assert.Equal(t, []string{callURL(14, "a").Location, callURL(12, "d").Location}, got)
	assert.Len(t, fetcher.visited, 4)
}

func TestListingCrawler_FetchError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	c := pipeline.NewListingCrawler(pipeline.ListingCrawlerConfig{ListingURL: "https://x/listing"},
		&pagedFetcher{err: boom}, nil, nil, nil)

	_, err := collect(t, c)
	assert.ErrorIs(t, err, boom)
}

func TestListingCrawler_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := threePages()
	c := pipeline.NewListingCrawler(pipeline.ListingCrawlerConfig{ListingURL: "https://x/listing"}, fetcher, nil, nil, nil)

	err := c.Generate(ctx, make(chan string, 10))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fetcher.visited)
}
