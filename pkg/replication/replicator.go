// Package replication copies structured transcripts from MongoDB into Postgres tables.
package replication

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"foolcalls/pkg/db"
	"foolcalls/pkg/domain"
	"foolcalls/pkg/logger"
)

const (
	defaultBatchSize = 100
	progressEvery    = 1000
)

// Config wires the replication dependencies.
type Config struct {
	Source   db.TranscriptSource
	Postgres db.DBProvider
	// BatchSize is the number of transcripts inserted per transaction.
	BatchSize int
	// Workers is the number of batches in flight; 1 keeps inserts in cid order.
	Workers int
	Logger  logger.Logger
}

// Result counts one replication run.
type Result struct {
	Processed int
	Inserted  int
}

// Replicator replicates transcripts from MongoDB to Postgres.
type Replicator struct {
	source    db.TranscriptSource
	pg        db.DBProvider
	batchSize int
	workers   int
	log       logger.Logger
}

func NewReplicator(cfg Config) (*Replicator, error) {
	if cfg.Source == nil {
		return nil, errors.New("transcript source is required")
	}
	if cfg.Postgres == nil {
		return nil, errors.New("postgres client is required")
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	return &Replicator{
		source:    cfg.Source,
		pg:        cfg.Postgres,
		batchSize: cfg.BatchSize,
		workers:   cfg.Workers,
		log:       cfg.Logger,
	}, nil
}

// Replicate reads every transcript from the source and inserts the ones Postgres does
// not have yet into call_transcript and call_statement. Existing cids are skipped, so
// the run can be repeated.
func (r *Replicator) Replicate(ctx context.Context) (Result, error) {
	if r.pg.DB() == nil {
		return Result{}, errors.New("postgres DB not connected")
	}
	if err := r.ensureSchema(ctx); err != nil {
		return Result{}, err
	}

	calls, err := r.source.GetAllTranscripts(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("read transcripts: %w", err)
	}
	r.log.Info("Loaded transcripts, processing in batches",
		logger.Int("transcripts", len(calls)),
		logger.Int("batch_size", r.batchSize))

	res, err := r.processBatches(ctx, calls)
	if err != nil {
		return res, err
	}
	r.log.Info("Replication complete",
		logger.Int("processed", res.Processed),
		logger.Int("inserted", res.Inserted))
	return res, nil
}

type batchResult struct {
	processed int
	inserted  int
}

// processBatches inserts calls batch by batch and stops at the first failing batch.
func (r *Replicator) processBatches(ctx context.Context, calls []domain.StructuredCall) (Result, error) {
	jobs := make(chan []domain.StructuredCall)
	results := make(chan batchResult)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for start := 0; start < len(calls); start += r.batchSize {
			end := min(start+r.batchSize, len(calls))
			select {
			case jobs <- calls[start:end]:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	workers, wctx := errgroup.WithContext(gctx)
	for i := 0; i < r.workers; i++ {
		workers.Go(func() error {
			for batch := range jobs {
				if err := wctx.Err(); err != nil {
					return err
				}
				inserted, err := r.processBatch(wctx, batch)
				if err != nil {
					return err
				}
				select {
				case results <- batchResult{processed: len(batch), inserted: inserted}:
				case <-wctx.Done():
					return wctx.Err()
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		defer close(results)
		return workers.Wait()
	})

	var res Result
	for br := range results {
		before := res.Processed
		res.Processed += br.processed
		res.Inserted += br.inserted
		if res.Processed/progressEvery != before/progressEvery {
			r.log.Info("Progress",
				logger.Int("processed", res.Processed),
				logger.Int("total", len(calls)),
				logger.Int("inserted", res.Inserted))
		}
	}
	return res, g.Wait()
}

// processBatch checks which cids exist, then inserts the rest in one transaction.
func (r *Replicator) processBatch(ctx context.Context, batch []domain.StructuredCall) (int, error) {
	existing, err := r.existingCIDs(ctx, batch)
	if err != nil {
		return 0, err
	}

	toInsert := make([]domain.StructuredCall, 0, len(batch))
	for _, call := range batch {
		if call.CID == "" || existing[call.CID] {
			continue
		}
		toInsert = append(toInsert, call)
	}
	if len(toInsert) == 0 {
		r.log.Debug("No new transcripts in batch", logger.Int("size", len(batch)))
		return 0, nil
	}

	if err := r.insertTx(ctx, toInsert); err != nil {
		return 0, fmt.Errorf("insert batch starting at %s: %w", toInsert[0].CID, err)
	}
	r.log.Debug("Inserted batch", logger.Int("inserted", len(toInsert)))
	return len(toInsert), nil
}

func (r *Replicator) ensureSchema(ctx context.Context) error {
	const transcriptDDL = `
CREATE TABLE IF NOT EXISTS call_transcript (
  cid TEXT PRIMARY KEY,
  call_url TEXT NOT NULL DEFAULT '',
  publication_author TEXT NOT NULL DEFAULT '',
  publication_time_published TEXT NOT NULL DEFAULT '',
  publication_time_updated TEXT NOT NULL DEFAULT '',
  call_title TEXT NOT NULL DEFAULT '',
  call_subtitle TEXT NOT NULL DEFAULT '',
  period_end TEXT NOT NULL DEFAULT '',
  ticker TEXT NOT NULL DEFAULT '',
  ticker_exchange TEXT NOT NULL DEFAULT '',
  company_name TEXT NOT NULL DEFAULT '',
  fool_company_id TEXT NOT NULL DEFAULT '',
  fiscal_period_year TEXT NOT NULL DEFAULT '',
  fiscal_period_qtr TEXT NOT NULL DEFAULT '',
  call_short_title TEXT NOT NULL DEFAULT '',
  call_date TEXT NOT NULL DEFAULT '',
  call_time TEXT NOT NULL DEFAULT '',
  duration_minutes TEXT NOT NULL DEFAULT '',
  participants JSONB NOT NULL DEFAULT '{}'
);`

	const statementDDL = `
CREATE TABLE IF NOT EXISTS call_statement (
  cid TEXT NOT NULL REFERENCES call_transcript (cid) ON DELETE CASCADE,
  statement_num INTEGER NOT NULL,
  section TEXT NOT NULL,
  statement_type TEXT NOT NULL,
  speaker TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT '',
  affiliation TEXT NOT NULL DEFAULT '',
  text TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (cid, statement_num)
);`

	if _, err := r.pg.DB().ExecContext(ctx, transcriptDDL); err != nil {
		return fmt.Errorf("create call_transcript table: %w", err)
	}
	if _, err := r.pg.DB().ExecContext(ctx, statementDDL); err != nil {
		return fmt.Errorf("create call_statement table: %w", err)
	}
	return nil
}

// existingCIDs returns which cids of batch are already in call_transcript.
func (r *Replicator) existingCIDs(ctx context.Context, batch []domain.StructuredCall) (map[string]bool, error) {
	args := make([]any, 0, len(batch))
	for _, call := range batch {
		if call.CID != "" {
			args = append(args, call.CID)
		}
	}
	if len(args) == 0 {
		return map[string]bool{}, nil
	}

	var query strings.Builder
	query.WriteString("SELECT cid FROM call_transcript WHERE cid IN (")
	for i := range args {
		if i > 0 {
			query.WriteString(", ")
		}
		fmt.Fprintf(&query, "$%d", i+1)
	}
	query.WriteString(")")

	rows, err := r.pg.DB().QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query existing cids: %w", err)
	}
	defer rows.Close()

	set := make(map[string]bool)
	for rows.Next() {
		var cid string
		if err := rows.Scan(&cid); err != nil {
			return nil, fmt.Errorf("scan cid: %w", err)
		}
		set[cid] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return set, nil
}

const (
	insertTranscript = `
INSERT INTO call_transcript (
  cid, call_url, publication_author, publication_time_published, publication_time_updated,
  call_title, call_subtitle, period_end, ticker, ticker_exchange, company_name,
  fool_company_id, fiscal_period_year, fiscal_period_qtr, call_short_title,
  call_date, call_time, duration_minutes, participants
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
ON CONFLICT (cid) DO NOTHING`

	insertStatement = `
INSERT INTO call_statement (cid, statement_num, section, statement_type, speaker, role, affiliation, text)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (cid, statement_num) DO NOTHING`
)

// insertTx inserts calls and their statements within a transaction.
func (r *Replicator) insertTx(ctx context.Context, calls []domain.StructuredCall) error {
	tx, err := r.pg.DB().BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	transcriptStmt, err := tx.PrepareContext(ctx, insertTranscript)
	if err != nil {
		return fmt.Errorf("prepare transcript insert: %w", err)
	}
	defer transcriptStmt.Close()

	statementStmt, err := tx.PrepareContext(ctx, insertStatement)
	if err != nil {
		return fmt.Errorf("prepare statement insert: %w", err)
	}
	defer statementStmt.Close()

	for i := range calls {
		call := &calls[i]
		participants, err := json.Marshal(call.Participants)
		if err != nil {
			return fmt.Errorf("encode participants of %s: %w", call.CID, err)
		}

		if _, err := transcriptStmt.ExecContext(ctx,
			call.CID, call.CallURL, call.PublicationAuthor, call.PublicationTimePublished,
			call.PublicationTimeUpdated, call.CallTitle, call.CallSubtitle, call.PeriodEnd,
			call.Ticker, call.TickerExchange, call.CompanyName, call.FoolCompanyID,
			call.FiscalPeriodYear, call.FiscalPeriodQtr, call.CallShortTitle, call.CallDate,
			call.CallTime, call.DurationMinutes, string(participants),
		); err != nil {
			return fmt.Errorf("insert transcript cid=%q: %w", call.CID, err)
		}

		for _, s := range call.CallTranscript.CallTranscript {
			if _, err := statementStmt.ExecContext(ctx,
				call.CID, s.StatementNum, s.Section.String(), s.StatementType.String(),
				s.Speaker, s.Role, s.Affiliation, s.Text,
			); err != nil {
				return fmt.Errorf("insert statement %d of %s: %w", s.StatementNum, call.CID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
