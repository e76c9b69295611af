// Package downloadservice crawls the transcript listing and stores new transcripts.
package downloadservice

import (
	"context"
	"fmt"

	"foolcalls/pkg/logger"
	"foolcalls/pkg/metrics"
	"foolcalls/pkg/pipeline"
	"foolcalls/pkg/store"
	"foolcalls/pkg/urls"
)

// Config holds configuration for the service
type Config struct {
	Store  store.Store
	Client urls.PageFetcher

	RootURL         string
	ListingPath     string
	TranscriptsPath string
	StartPage       int
	MaxPages        int
	TraverseAll     bool
	Workers         int
	// Redownload ignores the CIDs already in the store.
	Redownload bool

	// RunID is stored with every download.
	RunID string
	// OnSaved, if set, runs after each transcript is stored.
	OnSaved pipeline.SavedHook

	Logger  logger.Logger
	Metrics *metrics.Metrics
}

// Service handles downloading new transcripts from the paginated listing
type Service struct {
	cfg Config
	log logger.Logger
}

// NewService creates a new download service
func NewService(cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	return &Service{cfg: cfg, log: cfg.Logger}
}

// Download crawls listing pages until a stop rule fires and stores every transcript that
// is not in the store yet, or every listed transcript when Redownload is set.
func (s *Service) Download(ctx context.Context) (*pipeline.Result, error) {
	known := map[string]bool{}
	if !s.cfg.Redownload {
		var err error
		if known, err = KnownCIDs(ctx, s.cfg.Store); err != nil {
			return nil, err
		}
	}
	s.log.Info("Starting download",
		logger.String("run_id", s.cfg.RunID),
		logger.Int("known", len(known)),
		logger.Int("start_page", s.cfg.StartPage),
		logger.Int("max_pages", s.cfg.MaxPages),
		logger.Bool("traverse_all", s.cfg.TraverseAll),
		logger.Bool("redownload", s.cfg.Redownload))

	p := pipeline.DownloadPipelineBuilder(pipeline.DownloadPipelineConfig{
		RootURL: s.cfg.RootURL,
		Listing: pipeline.ListingCrawlerConfig{
			ListingURL:  s.cfg.RootURL + s.cfg.ListingPath,
			StartPage:   s.cfg.StartPage,
			MaxPages:    s.cfg.MaxPages,
			TraverseAll: s.cfg.TraverseAll,
		},
		TranscriptsPath: s.cfg.TranscriptsPath,
		KnownCIDs:       known,
		Workers:         s.cfg.Workers,
		RunID:           s.cfg.RunID,
		OnSaved:         s.cfg.OnSaved,
	}, s.cfg.Client, s.cfg.Store, s.log, s.cfg.Metrics)

	res, err := p.Run(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to download transcripts: %w", err)
	}
	return res, nil
}

// KnownCIDs returns the CIDs that have been downloaded on any run date.
func KnownCIDs(ctx context.Context, st store.Store) (map[string]bool, error) {
	keys, err := st.List(ctx, store.DownloadedPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to get downloaded transcripts: %w", err)
	}
	known := make(map[string]bool, len(keys))
	for _, key := range keys {
		info, err := store.ParseDownloadedKey(key)
		if err != nil {
			continue
		}
		known[info.CID] = true
	}
	return known, nil
}
