package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"foolcalls/pkg/domain"
	"foolcalls/pkg/logger"
	"foolcalls/pkg/metrics"
	"foolcalls/pkg/store"
)

// URLGenerator streams transcript URLs into out until it runs out of pages.
// It must not close out.
type URLGenerator interface {
	Generate(ctx context.Context, out chan<- string) error
}

// ContentProcessor downloads one transcript page.
type ContentProcessor interface {
	ProcessContent(ctx context.Context, url string) (*domain.RawTranscript, error)
}

// ContentSaver persists a downloaded transcript and returns its storage key.
type ContentSaver interface {
	SaveRaw(ctx context.Context, raw *domain.RawTranscript) (string, error)
}

// SavedHook runs after a transcript has been stored, on the worker that stored it.
type SavedHook func(ctx context.Context, raw *domain.RawTranscript, item domain.QueueItem)

// ContentConsumer is the final step that downloads pages and saves them
type ContentConsumer struct {
	WorkerCount      int
	ContentProcessor ContentProcessor
	ContentSaver     ContentSaver
	OnSaved          SavedHook
}

// Result summarizes one pipeline run.
type Result struct {
	Downloaded []domain.QueueItem
	Failed     int
}

// Pipeline connects a URL generator to a pool of download workers.
type Pipeline struct {
	generator URLGenerator
	consumer  ContentConsumer
	log       logger.Logger
	metrics   *metrics.Metrics
}

// NewPipeline creates a new pipeline. log and m may be nil.
func NewPipeline(generator URLGenerator, consumer ContentConsumer, log logger.Logger, m *metrics.Metrics) *Pipeline {
	if log == nil {
		log = logger.NewNop()
	}
	if consumer.WorkerCount < 1 {
		consumer.WorkerCount = 1
	}
	return &Pipeline{
		generator: generator,
		consumer:  consumer,
		log:       log,
		metrics:   m,
	}
}

// Run executes the pipeline until the generator is exhausted and every queued URL has
// been handled. Download failures are logged and counted; only a generator failure
// (or cancellation) is returned as an error, together with whatever was downloaded.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if p.generator == nil {
		return nil, errors.New("pipeline has no generator")
	}
	if p.consumer.ContentProcessor == nil {
		return nil, errors.New("content processor is not set")
	}
	if p.consumer.ContentSaver == nil {
		return nil, errors.New("content saver is not set")
	}

	urlChan := make(chan string, p.consumer.WorkerCount*2)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(urlChan)
		return p.generator.Generate(gctx, urlChan)
	})

	var (
		mu     sync.Mutex
		result = &Result{}
	)
	for i := 0; i < p.consumer.WorkerCount; i++ {
		workerID := i
		g.Go(func() error {
			for url := range urlChan {
				if gctx.Err() != nil {
					continue
				}
				item, err := p.processContentURL(gctx, url)

				mu.Lock()
				if err != nil {
					result.Failed++
				} else {
					result.Downloaded = append(result.Downloaded, item)
				}
				mu.Unlock()

				if err != nil {
					p.metrics.RecordDownload(metrics.ResultFailure)
					p.log.Error("Failed to download transcript",
						logger.Int("worker", workerID),
						logger.String("url", url),
						logger.Error(err))
					continue
				}
				p.metrics.RecordDownload(metrics.ResultSuccess)
				p.log.Info("Downloaded transcript",
					logger.Int("worker", workerID),
					logger.String("cid", item.CID),
					logger.String("key", item.Key))
			}
			return nil
		})
	}

	err := g.Wait()
	p.log.Info("Download pipeline finished",
		logger.Int("downloaded", len(result.Downloaded)),
		logger.Int("failed", result.Failed))
	return result, err
}

// processContentURL downloads url, saves it and runs the hook.
func (p *Pipeline) processContentURL(ctx context.Context, url string) (domain.QueueItem, error) {
	raw, err := p.consumer.ContentProcessor.ProcessContent(ctx, url)
	if err != nil {
		return domain.QueueItem{}, fmt.Errorf("failed to process content: %w", err)
	}

	key, err := p.consumer.ContentSaver.SaveRaw(ctx, raw)
	if err != nil {
		return domain.QueueItem{}, fmt.Errorf("failed to save transcript: %w", err)
	}

	item := domain.QueueItem{
		CID:     raw.CID,
		Key:     key,
		RunDate: raw.DownloadedAt.UTC().Format(store.RunDateLayout),
	}
	if p.consumer.OnSaved != nil {
		p.consumer.OnSaved(ctx, raw, item)
	}
	return item, nil
}
