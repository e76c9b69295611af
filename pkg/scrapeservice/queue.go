package scrapeservice

import (
	"context"
	"fmt"
	"sort"

	"foolcalls/pkg/domain"
	"foolcalls/pkg/logger"
	"foolcalls/pkg/store"
)

// QueueOptions controls which stored transcripts are queued for scraping.
type QueueOptions struct {
	Version string
	// Overwrite queues transcripts that already have output for Version.
	Overwrite bool
	// Limit caps the queue length; 0 means no limit.
	Limit int
	// Only restricts the queue to these CIDs when non-empty.
	Only []string
}

// BuildQueue lists downloaded transcripts and returns the ones to scrape, sorted by CID.
// When a CID was downloaded on several run dates only the latest download is queued.
func BuildQueue(ctx context.Context, st store.Store, opts QueueOptions, log logger.Logger) ([]domain.QueueItem, error) {
	if log == nil {
		log = logger.NewNop()
	}

	keys, err := st.List(ctx, store.DownloadedPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list downloaded transcripts: %w", err)
	}

	latest := make(map[string]domain.QueueItem)
	for _, key := range keys {
		info, err := store.ParseDownloadedKey(key)
		if err != nil {
			log.Warn("Skipping unrecognized key", logger.String("key", key), logger.Error(err))
			continue
		}
		if cur, ok := latest[info.CID]; ok && cur.RunDate >= info.RunDate {
			continue
		}
		latest[info.CID] = domain.QueueItem{CID: info.CID, Key: key, RunDate: info.RunDate}
	}

	if len(opts.Only) > 0 {
		only := make(map[string]bool, len(opts.Only))
		for _, cid := range opts.Only {
			only[cid] = true
		}
		for cid := range latest {
			if !only[cid] {
				delete(latest, cid)
			}
		}
	}

	if !opts.Overwrite {
		done, err := structuredCIDs(ctx, st, opts.Version)
		if err != nil {
			return nil, err
		}
		for cid := range done {
			delete(latest, cid)
		}
	}

	items := make([]domain.QueueItem, 0, len(latest))
	for _, item := range latest {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CID < items[j].CID })

	if opts.Limit > 0 && len(items) > opts.Limit {
		items = items[:opts.Limit]
	}

	log.Info("Built scrape queue",
		logger.Int("downloaded", len(keys)),
		logger.Int("queued", len(items)),
		logger.String("version", opts.Version),
		logger.Bool("overwrite", opts.Overwrite))
	return items, nil
}

// structuredCIDs returns the CIDs that already have output for version.
func structuredCIDs(ctx context.Context, st store.Store, version string) (map[string]bool, error) {
	keys, err := st.List(ctx, store.StructuredPrefixFor(version))
	if err != nil {
		return nil, fmt.Errorf("failed to list structured transcripts: %w", err)
	}
	done := make(map[string]bool, len(keys))
	for _, key := range keys {
		if _, cid, err := store.ParseStructuredKey(key); err == nil {
			done[cid] = true
		}
	}
	return done, nil
}
