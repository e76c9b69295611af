package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"foolcalls/pkg/logger"
	"foolcalls/pkg/pipeline"
)

func addCrawlFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("start-page", 1, "first listing page to visit")
	f.Int("max-pages", 0, "maximum number of listing pages to visit (0 = unlimited)")
	f.Bool("traverse-all", false, "keep paging past pages that contain only known transcripts")
	f.Bool("redownload", false, "download listed transcripts again even if already stored")
}

func addScrapeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("scraper-version", "", "scraper version that names the structured output prefix")
	f.Bool("overwrite", false, "re-scrape transcripts that already have structured output")
	f.Int("limit", 0, "maximum number of transcripts to scrape (0 = no limit)")
	f.Int("workers", 0, "number of scrape workers")
}

func newDownloadCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download new transcripts into the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			res, err := a.downloadService(st, a.runID, nil).Download(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "downloaded %d transcripts, %d failed\n", len(res.Downloaded), res.Failed)
			return nil
		},
	}
	addCrawlFlags(cmd)
	return cmd
}

func newScrapeCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Extract stored transcripts into structured JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			svc, cleanup, err := a.scrapeService(ctx, st)
			if err != nil {
				return err
			}
			defer cleanup()

			summary, err := svc.Run(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "scraped %d transcripts, %d failed\n", summary.Succeeded, summary.Failed)
			return err
		},
	}
	addScrapeFlags(cmd)
	return cmd
}

func newSyncCommand(opts *rootOptions) *cobra.Command {
	var inline bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Download new transcripts, then scrape them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.close()
			return a.sync(cmd.Context(), a.runID, inline)
		},
	}
	cmd.Flags().BoolVar(&inline, "inline", false, "scrape each transcript right after it is downloaded")
	addCrawlFlags(cmd)
	addScrapeFlags(cmd)
	return cmd
}

// sync downloads new transcripts and scrapes the ones this run stored, either inline
// from the download workers or as a queue pass afterwards.
func (a *app) sync(ctx context.Context, runID string, inline bool) error {
	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	scraper, cleanup, err := a.scrapeService(ctx, st)
	if err != nil {
		return err
	}
	defer cleanup()

	var onSaved pipeline.SavedHook
	if inline {
		onSaved = scraper.ScrapeOnSave()
	}
	res, err := a.downloadService(st, runID, onSaved).Download(ctx)
	if err != nil {
		return err
	}
	if inline || len(res.Downloaded) == 0 {
		a.log.Info("Sync finished",
			logger.String("run_id", runID),
			logger.Int("downloaded", len(res.Downloaded)))
		return nil
	}

	cids := make([]string, len(res.Downloaded))
	for i, item := range res.Downloaded {
		cids[i] = item.CID
	}
	summary, err := scraper.Run(ctx, cids...)
	a.log.Info("Sync finished",
		logger.String("run_id", runID),
		logger.Int("downloaded", len(res.Downloaded)),
		logger.Int("scraped", summary.Succeeded),
		logger.Int("scrape_failed", summary.Failed))
	return err
}
