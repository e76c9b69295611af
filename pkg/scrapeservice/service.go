// Package scrapeservice turns stored raw transcripts into structured JSON.
package scrapeservice

import (
	"context"
	"fmt"

	"foolcalls/pkg/domain"
	"foolcalls/pkg/logger"
	"foolcalls/pkg/metrics"
	"foolcalls/pkg/store"
	"foolcalls/pkg/worker"
)

// Config holds configuration for the service
type Config struct {
	Store   store.Store
	Scraper worker.Extractor
	Sink    worker.TranscriptSink

	Version         string
	RootURL         string
	TranscriptsPath string
	Workers         int
	Overwrite       bool
	Limit           int

	Logger  logger.Logger
	Metrics *metrics.Metrics
}

// Service builds the scrape queue and fans it out to workers.
type Service struct {
	cfg     Config
	worker  *worker.Worker
	manager *worker.Manager
	log     logger.Logger
}

// NewService creates a new scrape service
func NewService(cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	w := worker.NewWorker(worker.Config{
		Store:           cfg.Store,
		Scraper:         cfg.Scraper,
		Logger:          cfg.Logger,
		Version:         cfg.Version,
		RootURL:         cfg.RootURL,
		TranscriptsPath: cfg.TranscriptsPath,
		Sink:            cfg.Sink,
		Metrics:         cfg.Metrics,
	})
	return &Service{
		cfg:     cfg,
		worker:  w,
		manager: worker.NewManager(cfg.Workers, w, cfg.Logger),
		log:     cfg.Logger,
	}
}

// Run scrapes every queued transcript. only, when given, restricts the queue to those CIDs.
func (s *Service) Run(ctx context.Context, only ...string) (worker.Summary, error) {
	items, err := BuildQueue(ctx, s.cfg.Store, QueueOptions{
		Version:   s.cfg.Version,
		Overwrite: s.cfg.Overwrite,
		Limit:     s.cfg.Limit,
		Only:      only,
	}, s.log)
	if err != nil {
		return worker.Summary{}, err
	}
	if len(items) == 0 {
		s.log.Info("Nothing to scrape", logger.String("version", s.cfg.Version))
		return worker.Summary{}, nil
	}

	summary, err := s.manager.ProcessItems(ctx, items)
	if err != nil {
		return summary, fmt.Errorf("failed to scrape transcripts: %w", err)
	}
	return summary, nil
}

// ScrapeOnSave returns a download hook that scrapes each transcript right after it is
// stored. Failures are logged; the download itself is unaffected.
func (s *Service) ScrapeOnSave() func(ctx context.Context, raw *domain.RawTranscript, item domain.QueueItem) {
	return func(ctx context.Context, raw *domain.RawTranscript, item domain.QueueItem) {
		if err := s.worker.ProcessRaw(ctx, raw); err != nil {
			s.log.Error("Failed to scrape downloaded transcript",
				logger.String("cid", item.CID),
				logger.String("key", item.Key),
				logger.Error(err))
			return
		}
		s.log.Debug("Scraped downloaded transcript", logger.String("cid", item.CID))
	}
}
