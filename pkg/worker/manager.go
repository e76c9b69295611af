package worker

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"foolcalls/pkg/domain"
	"foolcalls/pkg/logger"
)

// progressEvery controls how often progress is logged.
const progressEvery = 100

// ItemProcessor handles one queued transcript.
type ItemProcessor interface {
	ProcessItem(ctx context.Context, item domain.QueueItem) error
}

// Summary counts the outcome of a ProcessItems run.
type Summary struct {
	Succeeded int
	Failed    int
	// Processed lists the CIDs handled successfully, in completion order.
	Processed []string
}

// Manager manages workers and distributes queue items to them
type Manager struct {
	workerCount int
	processor   ItemProcessor
	log         logger.Logger
}

// NewManager creates a new manager
func NewManager(workerCount int, processor ItemProcessor, log logger.Logger) *Manager {
	if workerCount < 1 {
		workerCount = 1
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Manager{
		workerCount: workerCount,
		processor:   processor,
		log:         log,
	}
}

// ProcessItems distributes items to workers and processes them concurrently. Failures
// are logged and counted; an error is returned only when every item failed or the
// context was cancelled.
func (m *Manager) ProcessItems(ctx context.Context, items []domain.QueueItem) (Summary, error) {
	jobChan := make(chan domain.QueueItem, len(items))
	for _, item := range items {
		jobChan <- item
	}
	close(jobChan)

	type result struct {
		item     domain.QueueItem
		workerID int
		err      error
	}
	resultsChan := make(chan result, len(items))

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < m.workerCount; i++ {
		workerID := i
		g.Go(func() error {
			for item := range jobChan {
				if err := gctx.Err(); err != nil {
					return err
				}
				resultsChan <- result{
					item:     item,
					workerID: workerID,
					err:      m.processor.ProcessItem(gctx, item),
				}
			}
			return nil
		})
	}

	var waitErr error
	go func() {
		waitErr = g.Wait()
		close(resultsChan)
	}()

	// Aggregate on a single goroutine.
	var summary Summary
	for res := range resultsChan {
		if res.err == nil {
			summary.Succeeded++
			summary.Processed = append(summary.Processed, res.item.CID)
			if summary.Succeeded%progressEvery == 0 {
				m.log.Info("Progress",
					logger.Int("succeeded", summary.Succeeded),
					logger.Int("failed", summary.Failed),
					logger.Int("total", len(items)))
			}
			continue
		}
		summary.Failed++
		m.log.Error("Failed to process item",
			logger.Int("worker", res.workerID),
			logger.String("cid", res.item.CID),
			logger.String("key", res.item.Key),
			logger.Error(res.err))
	}

	m.log.Info("Completed",
		logger.Int("succeeded", summary.Succeeded),
		logger.Int("failed", summary.Failed),
		logger.Int("total", len(items)))

	if waitErr != nil {
		return summary, waitErr
	}
	if summary.Failed > 0 && summary.Succeeded == 0 {
		return summary, fmt.Errorf("all %d items failed to process", summary.Failed)
	}
	return summary, nil
}
