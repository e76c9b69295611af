package db

import (
	"context"
	"database/sql"

	"foolcalls/pkg/domain"
)

// DBProvider exposes a sql.DB handle so replication can run against any Postgres client.
type DBProvider interface {
	DB() *sql.DB
}

// TranscriptSource lists structured transcripts for replication.
type TranscriptSource interface {
	GetAllTranscripts(ctx context.Context) ([]domain.StructuredCall, error)
}

var (
	_ DBProvider       = (*PostgresClient)(nil)
	_ TranscriptSource = (*Client)(nil)
)
