package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foolcalls/pkg/metrics"
)

func TestRecord(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.NewWith(reg, reg)

	m.RecordListingPage()
	m.RecordListingPage()
	m.RecordDownload(metrics.ResultSuccess)
	m.RecordDownload(metrics.ResultFailure)
	m.RecordDownload(metrics.ResultSuccess)
	m.RecordScrape(metrics.ResultFailure, "qa", 10*time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(m.ListingPages), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.Downloads.WithLabelValues(metrics.ResultSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Scrapes.WithLabelValues(metrics.ResultFailure, "qa")), 0)
}

func TestNilMetrics(t *testing.T) {
	t.Parallel()

	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.RecordListingPage()
		m.RecordDownload(metrics.ResultSkipped)
		m.RecordScrape(metrics.ResultSuccess, "", time.Millisecond)
	})
}

func TestHandler(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	m.RecordDownload(metrics.ResultSuccess)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `foolcalls_downloads_total{result="success"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
