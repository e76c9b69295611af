package urls

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"foolcalls/pkg/callid"
)

// UrlFilter defines the interface for URL filtering
type UrlFilter interface {
	ShouldKeep(ctx context.Context, url string) (bool, error)
}

// FilterURLs applies all filters to a list of URLs, keeping order.
func FilterURLs(ctx context.Context, urls []string, filters ...UrlFilter) ([]string, error) {
	filtered := make([]string, 0, len(urls))

	for _, urlStr := range urls {
		keep := true
		for _, f := range filters {
			shouldKeep, err := f.ShouldKeep(ctx, urlStr)
			if err != nil {
				return nil, fmt.Errorf("filter error for URL %s: %w", urlStr, err)
			}
			if !shouldKeep {
				keep = false
				break
			}
		}
		if keep {
			filtered = append(filtered, urlStr)
		}
	}

	return filtered, nil
}

// BaseURLFilter filters out base/root URLs
type BaseURLFilter struct{}

// NewBaseURLFilter creates a new base URL filter
func NewBaseURLFilter() *BaseURLFilter {
	return &BaseURLFilter{}
}

// ShouldKeep returns false if URL is a base/root URL
func (f *BaseURLFilter) ShouldKeep(ctx context.Context, urlStr string) (bool, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return true, nil
	}

	path := strings.Trim(parsed.Path, "/")
	return path != "", nil
}

// KnownCIDFilter drops transcript URLs whose call identifier is already in the set.
// URLs that do not yield a CID are dropped as well.
type KnownCIDFilter struct {
	known map[string]bool
}

// NewKnownCIDFilter creates a filter over the given CID set
func NewKnownCIDFilter(known map[string]bool) *KnownCIDFilter {
	return &KnownCIDFilter{known: known}
}

// ShouldKeep returns false if the URL's CID is known
func (f *KnownCIDFilter) ShouldKeep(ctx context.Context, urlStr string) (bool, error) {
	cid, err := callid.ToCID(urlStr)
	if err != nil {
		return false, nil
	}
	return !f.known[cid], nil
}

// ContainsPathFilter filters URLs to only keep those that contain a specific path segment
type ContainsPathFilter struct {
	pathSegment string
}

// NewContainsPathFilter creates a new path filter that keeps URLs containing the specified path segment
func NewContainsPathFilter(pathSegment string) *ContainsPathFilter {
	return &ContainsPathFilter{
		pathSegment: pathSegment,
	}
}

// ShouldKeep returns true if URL contains the specified path segment
func (f *ContainsPathFilter) ShouldKeep(ctx context.Context, urlStr string) (bool, error) {
	return strings.Contains(urlStr, f.pathSegment), nil
}
