package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/maltedev/listing-scraper/internal/models"
)

const schema = `
	CREATE TABLE IF NOT EXISTS scrape_runs (
		id            UUID PRIMARY KEY,
		url           TEXT NOT NULL,
		started_at    TIMESTAMPTZ NOT NULL,
		finished_at   TIMESTAMPTZ NOT NULL,
		product_count INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS scraped_products (
		run_id       UUID NOT NULL REFERENCES scrape_runs(id) ON DELETE CASCADE,
		position     INTEGER NOT NULL,
		name         TEXT NOT NULL,
		image_url    TEXT NOT NULL,
		new_price    NUMERIC(12, 3),
		old_price    NUMERIC(12, 3),
		colors       TEXT NOT NULL,
		product_link TEXT NOT NULL,
		PRIMARY KEY (run_id, product_link)
	);`

const insertRunQuery = `
	INSERT INTO scrape_runs (id, url, started_at, finished_at, product_count)
	VALUES ($1, $2, $3, $4, $5)`

const insertProductQuery = `
	INSERT INTO scraped_products (run_id, position, name, image_url, new_price, old_price, colors, product_link)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (run_id, product_link) DO NOTHING`

type execer interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// RunStore exports finished runs. Nothing is read back by the scraper.
type RunStore struct {
	db     *DB
	logger *slog.Logger
}

func NewRunStore(db *DB, logger *slog.Logger) *RunStore {
	return &RunStore{
		db:     db,
		logger: logger.With("component", "run_store"),
	}
}

func (s *RunStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveRun stores the run and its products in one transaction.
func (s *RunStore) SaveRun(ctx context.Context, run *models.Run) error {
	err := s.db.Transaction(ctx, func(tx pgx.Tx) error {
		return saveRun(ctx, tx, run)
	})
	if err != nil {
		return err
	}

	s.logger.Info("run exported", "run_id", run.ID, "products", len(run.Products))
	return nil
}

func saveRun(ctx context.Context, tx execer, run *models.Run) error {
	if _, err := tx.Exec(ctx, insertRunQuery,
		run.ID, run.URL, run.StartedAt, run.FinishedAt, len(run.Products),
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for i, p := range run.Products {
		if _, err := tx.Exec(ctx, insertProductQuery,
			run.ID, i, p.Name, p.ImageURL, p.NewPrice, p.OldPrice, p.Colors, p.ProductLink,
		); err != nil {
			return fmt.Errorf("failed to insert product %s: %w", p.ProductLink, err)
		}
	}

	return nil
}
