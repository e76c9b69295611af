package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foolcalls/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "https://www.fool.com", cfg.Crawl.RootURL)
	assert.Equal(t, "/earnings-call-transcripts", cfg.Crawl.ListingPath)
	assert.Equal(t, "/earnings/call-transcripts", cfg.Crawl.TranscriptsPath)
	assert.Equal(t, 1, cfg.Crawl.StartPage)
	assert.Equal(t, 0, cfg.Crawl.MaxPages)
	assert.False(t, cfg.Crawl.TraverseAll)
	assert.Equal(t, 2*time.Second, cfg.HTTP.MinDelay)
	assert.Equal(t, 8*time.Second, cfg.HTTP.MaxDelay)
	assert.Equal(t, 2, cfg.HTTP.Retries)
	assert.Equal(t, config.BackendFS, cfg.Store.Backend)
	assert.Equal(t, "fool-calls", cfg.Store.Bucket)
	assert.Equal(t, "us-west-2", cfg.Store.Region)
	assert.Equal(t, "202007.1", cfg.Scrape.Version)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FOOLCALLS_CRAWL_MAX_PAGES", "5")
	t.Setenv("FOOLCALLS_CRAWL_TRAVERSE_ALL", "true")
	t.Setenv("FOOLCALLS_CRAWL_REDOWNLOAD", "true")
	t.Setenv("FOOLCALLS_HTTP_MIN_DELAY", "100ms")
	t.Setenv("FOOLCALLS_HTTP_MAX_DELAY", "250ms")
	t.Setenv("FOOLCALLS_SCRAPE_VERSION", "202101.2")

	cfg, err := config.Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Crawl.MaxPages)
	assert.True(t, cfg.Crawl.TraverseAll)
	assert.True(t, cfg.Crawl.Redownload)
	assert.Equal(t, 100*time.Millisecond, cfg.HTTP.MinDelay)
	assert.Equal(t, 250*time.Millisecond, cfg.HTTP.MaxDelay)
	assert.Equal(t, "202101.2", cfg.Scrape.Version)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foolcalls.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
crawl:
  root_url: http://localhost:8080/
  start_page: 3
store:
  backend: minio
  endpoint: localhost:9000
scrape:
  workers: 12
  overwrite: true
`), 0o600))

	v := viper.New()
	v.SetConfigFile(path)
	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.Crawl.RootURL)
	assert.Equal(t, 3, cfg.Crawl.StartPage)
	assert.Equal(t, config.BackendMinio, cfg.Store.Backend)
	assert.Equal(t, "localhost:9000", cfg.Store.Endpoint)
	assert.Equal(t, 12, cfg.Scrape.Workers)
	assert.True(t, cfg.Scrape.Overwrite)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*config.Config) {}},
		{name: "minio without endpoint", mutate: func(c *config.Config) { c.Store.Backend = config.BackendMinio }, wantErr: true},
		{name: "unknown backend", mutate: func(c *config.Config) { c.Store.Backend = "gcs" }, wantErr: true},
		{name: "negative max pages", mutate: func(c *config.Config) { c.Crawl.MaxPages = -1 }, wantErr: true},
		{name: "negative limit", mutate: func(c *config.Config) { c.Scrape.Limit = -3 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := config.Default()
			tt.mutate(cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}

func TestWithDefaults_DelayOrdering(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{HTTP: config.HTTPConfig{MinDelay: 5 * time.Second, MaxDelay: time.Second}}
	cfg.WithDefaults()
	assert.Equal(t, 5*time.Second, cfg.HTTP.MaxDelay)
}
