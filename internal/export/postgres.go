// Package export writes joined collections into Postgres for downstream
// analysis.
package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/statforge/blsload/internal/dataset"
	"github.com/statforge/blsload/internal/pkg/logger"
)

const exportBatchSize = 500

// Exporter inserts collection rows into one Postgres table. Rows are
// stored as JSONB keyed by collection, so surveys with different column
// sets share a schema.
type Exporter struct {
	db    *sql.DB
	table string
}

// NewExporter wraps an open database handle. table must be a trusted
// identifier from configuration, never user input.
func NewExporter(db *sql.DB, table string) *Exporter {
	return &Exporter{db: db, table: table}
}

// EnsureSchema creates the export table if it does not exist.
func (e *Exporter) EnsureSchema(ctx context.Context) error {
	_, err := e.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			collection_id TEXT NOT NULL,
			dataset       TEXT NOT NULL,
			row_num       INTEGER NOT NULL,
			fields        JSONB NOT NULL,
			fetched_at    TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (collection_id, row_num)
		)`, e.table))
	if err != nil {
		return fmt.Errorf("creating export table %s: %w", e.table, err)
	}
	return nil
}

// Export writes every row of the collection in batched transactions.
// Returns the number of rows inserted.
func (e *Exporter) Export(ctx context.Context, c *dataset.Collection) (int, error) {
	inserted := 0
	for start := 0; start < c.Data.NumRows(); start += exportBatchSize {
		end := start + exportBatchSize
		if end > c.Data.NumRows() {
			end = c.Data.NumRows()
		}
		n, err := e.exportBatch(ctx, c, start, end)
		inserted += n
		if err != nil {
			return inserted, err
		}
	}
	logger.Info("collection exported",
		"dataset", c.Summary.Dataset, "collection", c.ID, "rows", inserted)
	return inserted, nil
}

func (e *Exporter) exportBatch(ctx context.Context, c *dataset.Collection, start, end int) (int, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning export transaction: %w", err)
	}

	stmt := fmt.Sprintf(`
		INSERT INTO %s (collection_id, dataset, row_num, fields, fetched_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (collection_id, row_num) DO NOTHING`, e.table)

	inserted := 0
	for i := start; i < end; i++ {
		fields, err := json.Marshal(c.Data.Row(i))
		if err != nil {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt,
			c.ID, c.Summary.Dataset, i, string(fields), c.Summary.FetchedAt); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("inserting row %d: %w", i, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing export batch: %w", err)
	}
	return inserted, nil
}
