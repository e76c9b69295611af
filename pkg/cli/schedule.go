package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"foolcalls/pkg/logger"
)

const defaultSchedule = "0 6 * * *"

func newScheduleCommand(opts *rootOptions) *cobra.Command {
	var (
		spec   string
		inline bool
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run sync on a cron schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.close()
			return a.schedule(cmd.Context(), spec, inline)
		},
	}
	cmd.Flags().StringVar(&spec, "cron", defaultSchedule, "cron expression (minute hour day month weekday)")
	cmd.Flags().BoolVar(&inline, "inline", false, "scrape each transcript right after it is downloaded")
	addCrawlFlags(cmd)
	addScrapeFlags(cmd)
	return cmd
}

// schedule runs sync on spec until ctx is done. A run still in progress when the next
// one is due causes that tick to be skipped.
func (a *app) schedule(ctx context.Context, spec string, inline bool) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(spec, func() {
		runID := uuid.NewString()
		a.log.Info("Scheduled sync starting", logger.String("run_id", runID))
		if err := a.sync(ctx, runID, inline); err != nil {
			a.log.Error("Scheduled sync failed", logger.String("run_id", runID), logger.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to parse cron expression %q: %w", spec, err)
	}

	c.Start()
	a.log.Info("Scheduler started", logger.String("cron", spec))
	<-ctx.Done()

	stopped := c.Stop()
	<-stopped.Done()
	a.log.Info("Scheduler stopped")
	return nil
}
