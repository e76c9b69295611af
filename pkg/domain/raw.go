package domain

import "time"

// RawTranscript is one downloaded transcript page before extraction.
type RawTranscript struct {
	// CID is the call identifier derived from CallURL.
	CID string `bson:"cid" json:"cid"`

	// CallURL is the absolute URL the page was downloaded from.
	CallURL string `bson:"call_url" json:"call_url"`

	// HTML is the uncompressed page body.
	HTML []byte `bson:"-" json:"-"`

	// DownloadedAt is when the page was fetched.
	DownloadedAt time.Time `bson:"fool_download_ts" json:"fool_download_ts"`

	// RunID identifies the crawl run that fetched the page.
	RunID string `bson:"run_id,omitempty" json:"run_id,omitempty"`
}

// QueueItem is a stored raw transcript waiting to be scraped.
type QueueItem struct {
	CID     string
	Key     string
	RunDate string
}
