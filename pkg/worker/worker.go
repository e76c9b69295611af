package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"foolcalls/pkg/callid"
	"foolcalls/pkg/domain"
	"foolcalls/pkg/logger"
	"foolcalls/pkg/metrics"
	"foolcalls/pkg/store"
	"foolcalls/pkg/transcript"
)

// TranscriptSink receives every structured transcript in addition to the store.
type TranscriptSink interface {
	SaveTranscript(ctx context.Context, call *domain.StructuredCall) error
}

// Extractor turns one transcript page into its structured form.
type Extractor interface {
	Scrape(html []byte) (*domain.CallTranscript, error)
}

// Config wires a Worker.
type Config struct {
	Store store.Store
	// Scraper defaults to transcript.NewScraper reporting to Logger.
	Scraper Extractor
	Logger  logger.Logger
	// Version selects the structured output prefix.
	Version string
	// RootURL rebuilds call URLs from CIDs.
	RootURL string
	// TranscriptsPath is joined to RootURL when rebuilding call URLs.
	TranscriptsPath string
	// Sink is optional.
	Sink    TranscriptSink
	Metrics *metrics.Metrics
}

// Worker scrapes stored raw transcripts: read, gunzip, extract, save.
type Worker struct {
	cfg Config
}

// NewWorker creates a new worker
func NewWorker(cfg Config) *Worker {
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	if cfg.Scraper == nil {
		cfg.Scraper = transcript.NewScraper(cfg.Logger)
	}
	return &Worker{cfg: cfg}
}

// ProcessItem implements ItemProcessor.
func (w *Worker) ProcessItem(ctx context.Context, item domain.QueueItem) error {
	data, err := w.cfg.Store.Get(ctx, item.Key)
	if err != nil {
		return fmt.Errorf("failed to read raw transcript: %w", err)
	}
	if store.IsGzip(data) {
		if data, err = store.Gunzip(data); err != nil {
			return err
		}
	}

	return w.save(ctx, item.CID, "", data)
}

// ProcessRaw scrapes a transcript that was just downloaded without reading it back
// from the store.
func (w *Worker) ProcessRaw(ctx context.Context, raw *domain.RawTranscript) error {
	return w.save(ctx, raw.CID, raw.CallURL, raw.HTML)
}

func (w *Worker) save(ctx context.Context, cid, callURL string, html []byte) error {
	call, err := w.Scrape(cid, html)
	if err != nil {
		return err
	}
	if callURL != "" {
		call.CallURL = callURL
	}

	body, err := json.Marshal(call)
	if err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}
	key := store.StructuredKey(w.cfg.Version, cid)
	if err := w.cfg.Store.Put(ctx, key, body, store.PutOptions{
		ContentType: store.ContentTypeJSON,
		Metadata: map[string]string{
			store.MetaCID:            cid,
			store.MetaScraperVersion: w.cfg.Version,
		},
	}); err != nil {
		return fmt.Errorf("failed to save structured transcript: %w", err)
	}

	if w.cfg.Sink != nil {
		if err := w.cfg.Sink.SaveTranscript(ctx, call); err != nil {
			return fmt.Errorf("failed to save transcript to sink: %w", err)
		}
	}
	return nil
}

// Scrape runs the extraction engine on html and attaches the identifiers.
func (w *Worker) Scrape(cid string, html []byte) (*domain.StructuredCall, error) {
	start := time.Now()
	ct, err := w.cfg.Scraper.Scrape(html)
	elapsed := time.Since(start)

	if err != nil {
		stage := "unknown"
		var extractErr *transcript.ExtractionError
		if errors.As(err, &extractErr) {
			stage = extractErr.Stage
		}
		w.cfg.Metrics.RecordScrape(metrics.ResultFailure, stage, elapsed)
		return nil, fmt.Errorf("failed to extract %s: %w", cid, err)
	}
	w.cfg.Metrics.RecordScrape(metrics.ResultSuccess, "", elapsed)

	callURL, err := callid.ToURL(w.cfg.RootURL+w.cfg.TranscriptsPath, cid)
	if err != nil {
		return nil, err
	}
	return &domain.StructuredCall{CID: cid, CallURL: callURL, CallTranscript: *ct}, nil
}
