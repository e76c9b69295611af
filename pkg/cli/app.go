package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"foolcalls/pkg/config"
	"foolcalls/pkg/db"
	"foolcalls/pkg/downloadservice"
	"foolcalls/pkg/httpclient"
	"foolcalls/pkg/logger"
	"foolcalls/pkg/metrics"
	"foolcalls/pkg/pipeline"
	"foolcalls/pkg/scrapeservice"
	"foolcalls/pkg/store"
)

// flagKeys maps command flags onto config keys. A flag only overrides the config when
// it is set on the command line.
var flagKeys = map[string]string{
	"metrics-addr":    "metrics.addr",
	"start-page":      "crawl.start_page",
	"max-pages":       "crawl.max_pages",
	"traverse-all":    "crawl.traverse_all",
	"redownload":      "crawl.redownload",
	"scraper-version": "scrape.version",
	"overwrite":       "scrape.overwrite",
	"limit":           "scrape.limit",
	"workers":         "scrape.workers",
	"batch-size":      "postgres.batch_size",
}

// app is the per-invocation state built from configuration.
type app struct {
	cfg     *config.Config
	log     logger.Logger
	metrics *metrics.Metrics
	runID   string
}

func newApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	v := viper.New()
	if opts.cfgFile != "" {
		v.SetConfigFile(opts.cfgFile)
	}
	if err := bindFlags(v, cmd.Flags()); err != nil {
		return nil, err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	if opts.debug {
		cfg.Log.Level = "debug"
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	runID := uuid.NewString()

	a := &app{
		cfg:     cfg,
		log:     log.With(logger.String("command", cmd.Name())),
		metrics: metrics.New(),
		runID:   runID,
	}
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := a.metrics.Serve(cmd.Context(), cfg.Metrics.Addr, a.log); err != nil {
				a.log.Error("Metrics server stopped", logger.Error(err))
			}
		}()
	}
	return a, nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind %s flag: %w", name, err)
		}
	}
	return nil
}

func (a *app) close() {
	_ = a.log.Sync()
}

func (a *app) openStore(ctx context.Context) (store.Store, error) {
	st, err := store.New(ctx, a.cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, nil
}

func (a *app) httpClient() *httpclient.HTTPClient {
	return httpclient.NewClient(httpclient.ClientType(a.cfg.HTTP.ClientType), httpclient.Options{
		MinDelay:   a.cfg.HTTP.MinDelay,
		MaxDelay:   a.cfg.HTTP.MaxDelay,
		Timeout:    a.cfg.HTTP.Timeout,
		Retries:    a.cfg.HTTP.Retries,
		UserAgents: a.cfg.HTTP.UserAgents,
		Logger:     a.log,
	})
}

func (a *app) downloadService(st store.Store, runID string, onSaved pipeline.SavedHook) *downloadservice.Service {
	c := a.cfg.Crawl
	return downloadservice.NewService(downloadservice.Config{
		Store:           st,
		Client:          a.httpClient(),
		RootURL:         c.RootURL,
		ListingPath:     c.ListingPath,
		TranscriptsPath: c.TranscriptsPath,
		StartPage:       c.StartPage,
		MaxPages:        c.MaxPages,
		TraverseAll:     c.TraverseAll,
		Redownload:      c.Redownload,
		Workers:         c.Workers,
		RunID:           runID,
		OnSaved:         onSaved,
		Logger:          a.log.With(logger.String("run_id", runID)),
		Metrics:         a.metrics,
	})
}

// scrapeService builds the scrape service. When a Mongo URI is configured every
// transcript is also upserted there; the returned func closes that connection.
func (a *app) scrapeService(ctx context.Context, st store.Store) (*scrapeservice.Service, func(), error) {
	cfg := scrapeservice.Config{
		Store:           st,
		Version:         a.cfg.Scrape.Version,
		RootURL:         a.cfg.Crawl.RootURL,
		TranscriptsPath: a.cfg.Crawl.TranscriptsPath,
		Workers:         a.cfg.Scrape.Workers,
		Overwrite:       a.cfg.Scrape.Overwrite,
		Limit:           a.cfg.Scrape.Limit,
		Logger:          a.log,
		Metrics:         a.metrics,
	}
	if a.cfg.Mongo.URI == "" {
		return scrapeservice.NewService(cfg), func() {}, nil
	}

	client, err := a.mongoClient(ctx)
	if err != nil {
		return nil, nil, err
	}
	cfg.Sink = client
	return scrapeservice.NewService(cfg), func() { _ = client.Close(context.Background()) }, nil
}

func (a *app) mongoClient(ctx context.Context) (*db.Client, error) {
	m := a.cfg.Mongo
	client, err := db.NewClient(ctx, m.URI, m.Database, m.Collection)
	if err != nil {
		return nil, err
	}
	if err := client.Connect(ctx); err != nil {
		_ = client.Close(ctx)
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	return client, nil
}
