package pipeline

import (
	"foolcalls/pkg/logger"
	"foolcalls/pkg/metrics"
	"foolcalls/pkg/store"
	"foolcalls/pkg/urls"
)

// DownloadPipelineConfig gathers what DownloadPipelineBuilder needs.
type DownloadPipelineConfig struct {
	RootURL         string
	Listing         ListingCrawlerConfig
	TranscriptsPath string
	// KnownCIDs are transcripts already in the store; they are not downloaded again.
	KnownCIDs map[string]bool
	Workers   int
	RunID     string
	OnSaved   SavedHook
}

// DownloadPipelineBuilder builds the transcript download pipeline
// Pipeline: [Listing Crawler] → [Content Consumer: fetch → gzip → store]
func DownloadPipelineBuilder(cfg DownloadPipelineConfig, client urls.PageFetcher, s store.Store, log logger.Logger, m *metrics.Metrics) *Pipeline {
	filters := []urls.UrlFilter{
		urls.NewBaseURLFilter(),
		urls.NewContainsPathFilter(cfg.TranscriptsPath + "/"),
		urls.NewKnownCIDFilter(cfg.KnownCIDs),
	}
	crawler := NewListingCrawler(
		cfg.Listing,
		urls.NewHTMLFetcher(client, urls.ExtractCallURLs(cfg.RootURL)),
		filters,
		log,
		m,
	)

	consumer := ContentConsumer{
		WorkerCount:      cfg.Workers,
		ContentProcessor: NewHTTPContentProcessor(client, cfg.RunID),
		ContentSaver:     NewStoreSaver(s),
		OnSaved:          cfg.OnSaved,
	}

	return NewPipeline(crawler, consumer, log, m)
}
