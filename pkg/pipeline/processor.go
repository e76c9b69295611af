package pipeline

import (
	"context"
	"fmt"
	"time"

	"foolcalls/pkg/callid"
	"foolcalls/pkg/domain"
	"foolcalls/pkg/store"
	"foolcalls/pkg/urls"
)

// HTTPContentProcessor implements ContentProcessor by downloading transcript pages.
type HTTPContentProcessor struct {
	client urls.PageFetcher
	runID  string
	now    func() time.Time
}

// NewHTTPContentProcessor creates a processor that tags every download with runID.
func NewHTTPContentProcessor(client urls.PageFetcher, runID string) *HTTPContentProcessor {
	return &HTTPContentProcessor{
		client: client,
		runID:  runID,
		now:    time.Now,
	}
}

// ProcessContent fetches url and wraps the body in a RawTranscript.
func (p *HTTPContentProcessor) ProcessContent(ctx context.Context, url string) (*domain.RawTranscript, error) {
	cid, err := callid.ToCID(url)
	if err != nil {
		return nil, err
	}

	body, err := p.client.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch HTML: %w", err)
	}

	return &domain.RawTranscript{
		CID:          cid,
		CallURL:      url,
		HTML:         body,
		DownloadedAt: p.now().UTC(),
		RunID:        p.runID,
	}, nil
}

// StoreSaver implements ContentSaver by writing gzipped html to a store.Store.
type StoreSaver struct {
	store store.Store
}

// NewStoreSaver creates a new store-backed saver
func NewStoreSaver(s store.Store) *StoreSaver {
	return &StoreSaver{store: s}
}

// SaveRaw stores raw under its downloaded key.
func (s *StoreSaver) SaveRaw(ctx context.Context, raw *domain.RawTranscript) (string, error) {
	packed, err := store.Gzip(raw.HTML)
	if err != nil {
		return "", err
	}

	key := store.DownloadedKey(raw.DownloadedAt, raw.CID)
	err = s.store.Put(ctx, key, packed, store.PutOptions{
		ContentType:     store.ContentTypeHTML,
		ContentEncoding: store.EncodingGzip,
		Metadata: map[string]string{
			store.MetaCID:          raw.CID,
			store.MetaCallURL:      raw.CallURL,
			store.MetaDownloadedAt: raw.DownloadedAt.Format(time.RFC3339),
			store.MetaRunID:        raw.RunID,
		},
	})
	if err != nil {
		return "", err
	}
	return key, nil
}
