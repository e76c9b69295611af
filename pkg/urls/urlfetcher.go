package urls

import "context"

// URL represents a link found on a listing page
type URL struct {
	Location string // Absolute URL of the transcript
	Title    string // Anchor text (optional)
}

// URLsFetcher defines the interface for listing page parsers
type URLsFetcher interface {
	Fetch(ctx context.Context, pageURL string) ([]URL, error)
}
