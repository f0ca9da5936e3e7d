package quality

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/sentiforecast/internal/contracts"
)

// Schema data_quality_snapshots DDL (database.Migrate 입력)
var Schema = []string{
	`CREATE SCHEMA IF NOT EXISTS forecast`,
	`CREATE TABLE IF NOT EXISTS forecast.data_quality_snapshots (
		run_id             TEXT PRIMARY KEY,
		snapshot_date      DATE NOT NULL,
		ticker             TEXT NOT NULL,
		quality_score      DOUBLE PRECISION NOT NULL,
		total_rows         INTEGER NOT NULL,
		valid_rows         INTEGER NOT NULL,
		total_posts        INTEGER NOT NULL,
		valid_posts        INTEGER NOT NULL,
		price_coverage     DOUBLE PRECISION NOT NULL,
		post_coverage      DOUBLE PRECISION NOT NULL,
		sentiment_coverage DOUBLE PRECISION NOT NULL,
		passed             BOOLEAN NOT NULL,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Repository handles data quality snapshot persistence
// ⭐ SSOT: S0 품질 스냅샷 저장/조회
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new quality repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveSnapshot saves a data quality snapshot for a pipeline run
func (r *Repository) SaveSnapshot(ctx context.Context, runID string, snapshot *contracts.DataQualitySnapshot) error {
	query := `
		INSERT INTO forecast.data_quality_snapshots (
			run_id, snapshot_date, ticker, quality_score,
			total_rows, valid_rows, total_posts, valid_posts,
			price_coverage, post_coverage, sentiment_coverage, passed
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (run_id) DO UPDATE SET
			quality_score = EXCLUDED.quality_score,
			total_rows = EXCLUDED.total_rows,
			valid_rows = EXCLUDED.valid_rows,
			total_posts = EXCLUDED.total_posts,
			valid_posts = EXCLUDED.valid_posts,
			price_coverage = EXCLUDED.price_coverage,
			post_coverage = EXCLUDED.post_coverage,
			sentiment_coverage = EXCLUDED.sentiment_coverage,
			passed = EXCLUDED.passed
	`

	_, err := r.pool.Exec(ctx, query,
		runID,
		snapshot.Date,
		snapshot.Ticker,
		snapshot.QualityScore,
		snapshot.TotalRows,
		snapshot.ValidRows,
		snapshot.TotalPosts,
		snapshot.ValidPosts,
		snapshot.Coverage["price"],
		snapshot.Coverage["posts"],
		snapshot.Coverage["sentiment"],
		snapshot.Passed,
	)
	if err != nil {
		return fmt.Errorf("save quality snapshot: %w", err)
	}

	return nil
}

// GetLatest retrieves the most recent quality snapshot of a ticker
func (r *Repository) GetLatest(ctx context.Context, ticker string) (*contracts.DataQualitySnapshot, error) {
	query := `
		SELECT
			snapshot_date, ticker, quality_score,
			total_rows, valid_rows, total_posts, valid_posts,
			price_coverage, post_coverage, sentiment_coverage, passed
		FROM forecast.data_quality_snapshots
		WHERE ticker = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	snapshot := &contracts.DataQualitySnapshot{
		Coverage: make(map[string]float64),
	}

	var priceCov, postCov, sentimentCov float64

	err := r.pool.QueryRow(ctx, query, ticker).Scan(
		&snapshot.Date,
		&snapshot.Ticker,
		&snapshot.QualityScore,
		&snapshot.TotalRows,
		&snapshot.ValidRows,
		&snapshot.TotalPosts,
		&snapshot.ValidPosts,
		&priceCov,
		&postCov,
		&sentimentCov,
		&snapshot.Passed,
	)
	if err != nil {
		return nil, fmt.Errorf("get latest quality snapshot: %w", err)
	}

	snapshot.Coverage["price"] = priceCov
	snapshot.Coverage["posts"] = postCov
	snapshot.Coverage["sentiment"] = sentimentCov

	return snapshot, nil
}
