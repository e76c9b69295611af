// Package callid converts between transcript URLs and call identifiers (CIDs).
//
// A CID is the last four path segments of a transcript URL joined with "-":
//
//	https://www.fool.com/earnings/call-transcripts/2020/01/28/apple-aapl-q1-2020-earnings-call-transcript.aspx
//	-> 2020-01-28-apple-aapl-q1-2020-earnings-call-transcript
package callid

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	// Extension is the file suffix carried by every transcript page.
	Extension = ".aspx"

	delimiter = "-"
	segments  = 4
)

var (
	ErrTooFewSegments = errors.New("url has fewer than four path segments")
	ErrTooFewParts    = errors.New("cid has fewer than four parts")
)

// ToCID returns the call identifier for a transcript URL or a path relative to the
// transcripts root. Only the URL path counts: scheme, host and query are ignored, and
// each of the last four segments must be non-empty.
func ToCID(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", rawURL, err)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < segments {
		return "", fmt.Errorf("%w: %q", ErrTooFewSegments, rawURL)
	}

	tail := parts[len(parts)-segments:]
	last := len(tail) - 1
	tail[last] = strings.TrimSuffix(tail[last], Extension)
	for _, p := range tail {
		if p == "" {
			return "", fmt.Errorf("%w: %q", ErrTooFewSegments, rawURL)
		}
	}

	return strings.Join(tail, delimiter), nil
}

// ToURLPath returns the path fragment (relative to the transcripts root) named by cid.
// The first three parts become path segments; the rest is the article slug.
func ToURLPath(cid string) (string, error) {
	parts := strings.Split(cid, delimiter)
	if len(parts) < segments {
		return "", fmt.Errorf("%w: %q", ErrTooFewParts, cid)
	}

	slug := strings.Join(parts[segments-1:], delimiter) + Extension
	return strings.Join(append(parts[:segments-1:segments-1], slug), "/"), nil
}

// ToURL joins root and the path fragment for cid.
func ToURL(root, cid string) (string, error) {
	path, err := ToURLPath(cid)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(root, "/") + "/" + path, nil
}
