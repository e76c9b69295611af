package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foolcalls/pkg/domain"
	"foolcalls/pkg/httpclient"
	"foolcalls/pkg/pipeline"
	"foolcalls/pkg/store"
)

const transcriptsPath = "/earnings/call-transcripts"

// newSite serves two listing pages with three transcripts and a final empty page.
// The "broken" transcript answers 404.
func newSite(t *testing.T) *httptest.Server {
	t.Helper()

	link := func(day int, slug string) string {
		return fmt.Sprintf(`<div class="list-content"><a href="%s/2020/07/%02d/%s.aspx">%s</a></div>`,
			transcriptsPath, day, slug, slug)
	}
	pages := map[string]string{
		"1": link(14, "acme-q2") + link(14, "globex-q2"),
		"2": link(13, "broken-q2") + link(13, "initech-q2"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/earnings-call-transcripts", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body><div class="content-block listed-articles recent-articles m-np">%s</div></body></html>`,
			pages[r.URL.Query().Get("page")])
	})
	mux.HandleFunc(transcriptsPath+"/", func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "broken") {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, "<html><body>%s</body></html>", r.URL.Path)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newPipeline(srv *httptest.Server, s store.Store, known map[string]bool, hook pipeline.SavedHook) *pipeline.Pipeline {
	client := httpclient.NewClient(httpclient.SimpleClient, httpclient.Options{})
	return pipeline.DownloadPipelineBuilder(pipeline.DownloadPipelineConfig{
		RootURL:         srv.URL,
		Listing:         pipeline.ListingCrawlerConfig{ListingURL: srv.URL + "/earnings-call-transcripts"},
		TranscriptsPath: transcriptsPath,
		KnownCIDs:       known,
		Workers:         3,
		RunID:           "run-1",
		OnSaved:         hook,
	}, client, s, nil, nil)
}

func TestDownloadPipeline(t *testing.T) {
	t.Parallel()

	srv := newSite(t)
	fs := store.NewFSStoreOn(afero.NewMemMapFs())

	var (
		mu    sync.Mutex
		hooks []string
	)
	hook := func(ctx context.Context, raw *domain.RawTranscript, item domain.QueueItem) {
		mu.Lock()
		defer mu.Unlock()
		hooks = append(hooks, item.CID)
	}

	known := map[string]bool{"2020-07-14-globex-q2": true}
	result, err := newPipeline(srv, fs, known, hook).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)

	var cids []string
	for _, item := range result.Downloaded {
		cids = append(cids, item.CID)
		info, err := store.ParseDownloadedKey(item.Key)
		require.NoError(t, err)
		assert.Equal(t, item.CID, info.CID)
		assert.Equal(t, item.RunDate, info.RunDate)
	}
	sort.Strings(cids)
	sort.Strings(hooks)
	assert.Equal(t, []string{"2020-07-13-initech-q2", "2020-07-14-acme-q2"}, cids)
	assert.Equal(t, cids, hooks)

	keys, err := fs.List(context.Background(), store.DownloadedPrefix)
	require.NoError(t, err)
	require.Len(t, keys, 2)

	packed, err := fs.Get(context.Background(), keys[0])
	require.NoError(t, err)
	html, err := store.Gunzip(packed)
	require.NoError(t, err)
	assert.Contains(t, string(html), transcriptsPath)

	opts, err := fs.Stat(context.Background(), keys[0])
	require.NoError(t, err)
	assert.Equal(t, store.EncodingGzip, opts.ContentEncoding)
	assert.Equal(t, "run-1", opts.Metadata[store.MetaRunID])
	assert.True(t, strings.HasPrefix(opts.Metadata[store.MetaCallURL], srv.URL+transcriptsPath))
}

type failingStore struct{ store.Store }

func (failingStore) Put(context.Context, string, []byte, store.PutOptions) error {
	return errors.New("disk full")
}

func TestDownloadPipeline_SaveFailuresAreCounted(t *testing.T) {
	t.Parallel()

	srv := newSite(t)
	result, err := newPipeline(srv, failingStore{}, nil, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Downloaded)
	assert.Equal(t, 4, result.Failed)
}

func TestPipeline_RequiresParts(t *testing.T) {
	t.Parallel()

	_, err := pipeline.NewPipeline(nil, pipeline.ContentConsumer{}, nil, nil).Run(context.Background())
	assert.Error(t, err)
}
