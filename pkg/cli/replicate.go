package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"foolcalls/pkg/db"
	"foolcalls/pkg/replication"
)

func newReplicateCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replicate",
		Short: "Copy structured transcripts from MongoDB into Postgres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.close()

			if a.cfg.Mongo.URI == "" {
				return errors.New("mongo.uri is required")
			}
			if a.cfg.Postgres.DSN == "" {
				return errors.New("postgres.dsn is required")
			}

			ctx := cmd.Context()
			mongo, err := a.mongoClient(ctx)
			if err != nil {
				return err
			}
			defer mongo.Close(context.Background())

			// one connection per batch worker plus the existing-cid lookups
			pg := db.NewPostgresClient(db.PostgresConfig{
				DSN:         a.cfg.Postgres.DSN,
				MaxConns:    a.cfg.Scrape.Workers + 1,
				ConnMaxLife: 30 * time.Minute,
			})
			if err := pg.Connect(ctx); err != nil {
				return err
			}
			defer pg.Close()

			r, err := replication.NewReplicator(replication.Config{
				Source:    mongo,
				Postgres:  pg,
				BatchSize: a.cfg.Postgres.BatchSize,
				Workers:   a.cfg.Scrape.Workers,
				Logger:    a.log,
			})
			if err != nil {
				return err
			}
			res, err := r.Replicate(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "processed %d transcripts, inserted %d\n", res.Processed, res.Inserted)
			return nil
		},
	}
	cmd.Flags().Int("batch-size", 0, "transcripts inserted per transaction")
	return cmd
}
