package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/sentiforecast/internal/contracts"
)

// Run status
const (
	RunSuccess = "success"
	RunFailed  = "failed"
)

// RunRecord 파이프라인 실행 기록
type RunRecord struct {
	RunID        string                     `json:"run_id"`
	Ticker       string                     `json:"ticker"`
	ConfigHash   string                     `json:"config_hash"`
	Mode         contracts.ForecastMode     `json:"mode"`
	Status       string                     `json:"status"`
	Error        string                     `json:"error,omitempty"`
	StartedAt    time.Time                  `json:"started_at"`
	FinishedAt   time.Time                  `json:"finished_at"`
	TrainWindows int                        `json:"train_windows"`
	Epochs       int                        `json:"epochs"`
	BestEpoch    int                        `json:"best_epoch"`
	BestLoss     float64                    `json:"best_loss"`
	Metrics      *contracts.ForecastMetrics `json:"metrics,omitempty"`
}

// Schema forecast 스키마 DDL (database.Migrate 입력)
var Schema = []string{
	`CREATE SCHEMA IF NOT EXISTS forecast`,
	`CREATE TABLE IF NOT EXISTS forecast.runs (
		run_id        TEXT PRIMARY KEY,
		ticker        TEXT NOT NULL,
		config_hash   TEXT NOT NULL,
		mode          TEXT NOT NULL,
		status        TEXT NOT NULL,
		error         TEXT NOT NULL DEFAULT '',
		started_at    TIMESTAMPTZ NOT NULL,
		finished_at   TIMESTAMPTZ NOT NULL,
		train_windows INTEGER NOT NULL DEFAULT 0,
		epochs        INTEGER NOT NULL DEFAULT 0,
		best_epoch    INTEGER NOT NULL DEFAULT 0,
		best_loss     DOUBLE PRECISION,
		eval_count    INTEGER,
		mae           DOUBLE PRECISION,
		rmse          DOUBLE PRECISION,
		mape          DOUBLE PRECISION,
		direction_hit DOUBLE PRECISION
	)`,
	`CREATE INDEX IF NOT EXISTS runs_ticker_started_idx ON forecast.runs (ticker, started_at DESC)`,
	`CREATE TABLE IF NOT EXISTS forecast.points (
		run_id    TEXT NOT NULL REFERENCES forecast.runs (run_id) ON DELETE CASCADE,
		step      INTEGER NOT NULL,
		ticker    TEXT NOT NULL,
		date      DATE NOT NULL,
		predicted DOUBLE PRECISION NOT NULL,
		real      DOUBLE PRECISION,
		PRIMARY KEY (run_id, step)
	)`,
	`CREATE TABLE IF NOT EXISTS forecast.features (
		ticker          TEXT NOT NULL,
		date            DATE NOT NULL,
		open            DOUBLE PRECISION NOT NULL,
		high            DOUBLE PRECISION NOT NULL,
		low             DOUBLE PRECISION NOT NULL,
		close           DOUBLE PRECISION NOT NULL,
		adj_close       DOUBLE PRECISION NOT NULL,
		volume          DOUBLE PRECISION NOT NULL,
		ma7             DOUBLE PRECISION NOT NULL,
		ma20            DOUBLE PRECISION NOT NULL,
		macd            DOUBLE PRECISION NOT NULL,
		sd20            DOUBLE PRECISION NOT NULL,
		upper_band      DOUBLE PRECISION NOT NULL,
		lower_band      DOUBLE PRECISION NOT NULL,
		ema             DOUBLE PRECISION NOT NULL,
		log_momentum    DOUBLE PRECISION NOT NULL,
		sentiment_score DOUBLE PRECISION,
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (ticker, date)
	)`,
}

// Repository forecast 데이터 저장소
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository 새 저장소 생성
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveRun 실행 기록 저장
func (r *Repository) SaveRun(ctx context.Context, run RunRecord) error {
	query := `
		INSERT INTO forecast.runs
			(run_id, ticker, config_hash, mode, status, error, started_at, finished_at,
			 train_windows, epochs, best_epoch, best_loss, eval_count, mae, rmse, mape, direction_hit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (run_id) DO UPDATE SET
			status = EXCLUDED.status,
			error = EXCLUDED.error,
			finished_at = EXCLUDED.finished_at,
			train_windows = EXCLUDED.train_windows,
			epochs = EXCLUDED.epochs,
			best_epoch = EXCLUDED.best_epoch,
			best_loss = EXCLUDED.best_loss,
			eval_count = EXCLUDED.eval_count,
			mae = EXCLUDED.mae,
			rmse = EXCLUDED.rmse,
			mape = EXCLUDED.mape,
			direction_hit = EXCLUDED.direction_hit`

	var count *int
	var mae, rmse, mape, hit *float64
	if m := run.Metrics; m != nil {
		count, mae, rmse, mape, hit = &m.Count, &m.MAE, &m.RMSE, &m.MAPE, &m.DirectionHit
	}
	var bestLoss *float64
	if contracts.IsFinite(run.BestLoss) {
		bestLoss = &run.BestLoss
	}

	_, err := r.pool.Exec(ctx, query,
		run.RunID, run.Ticker, run.ConfigHash, string(run.Mode), run.Status, run.Error,
		run.StartedAt, run.FinishedAt, run.TrainWindows, run.Epochs, run.BestEpoch,
		bestLoss, count, mae, rmse, mape, hit,
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.RunID, err)
	}
	return nil
}

// SavePoints 예측 결과 일괄 저장
func (r *Repository) SavePoints(ctx context.Context, runID, ticker string, points []contracts.ForecastPoint) error {
	if len(points) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO forecast.points (run_id, step, ticker, date, predicted, real)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (run_id, step) DO UPDATE SET
			date = EXCLUDED.date,
			predicted = EXCLUDED.predicted,
			real = EXCLUDED.real`

	for _, p := range points {
		batch.Queue(query, runID, p.Step, ticker, p.Date, p.Predicted, p.Real)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range points {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("save forecast points: %w", err)
		}
	}

	return nil
}

// SaveFeatures 피처 행 일괄 upsert
func (r *Repository) SaveFeatures(ctx context.Context, ticker string, rows []contracts.DailyFeatureRow) error {
	if len(rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO forecast.features
			(ticker, date, open, high, low, close, adj_close, volume, ma7, ma20, macd, sd20,
			 upper_band, lower_band, ema, log_momentum, sentiment_score, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, now())
		ON CONFLICT (ticker, date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			adj_close = EXCLUDED.adj_close,
			volume = EXCLUDED.volume,
			ma7 = EXCLUDED.ma7,
			ma20 = EXCLUDED.ma20,
			macd = EXCLUDED.macd,
			sd20 = EXCLUDED.sd20,
			upper_band = EXCLUDED.upper_band,
			lower_band = EXCLUDED.lower_band,
			ema = EXCLUDED.ema,
			log_momentum = EXCLUDED.log_momentum,
			sentiment_score = EXCLUDED.sentiment_score,
			updated_at = now()`

	for _, f := range rows {
		var sentiment *float64
		if f.HasSentiment {
			v := f.Sentiment
			sentiment = &v
		}
		batch.Queue(query, ticker, f.Date,
			f.Open, f.High, f.Low, f.Close, f.AdjClose, f.Volume,
			f.MA7, f.MA20, f.MACD, f.SD20, f.UpperBand, f.LowerBand, f.EMA, f.LogMomentum,
			sentiment)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range rows {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("save features: %w", err)
		}
	}

	return nil
}

// GetRun 실행 기록 조회
func (r *Repository) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	query := runSelect + ` WHERE run_id = $1`

	run, err := scanRun(r.pool.QueryRow(ctx, query, runID))
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return run, nil
}

// ListRuns 종목별 최근 실행 기록
func (r *Repository) ListRuns(ctx context.Context, ticker string, limit int) ([]RunRecord, error) {
	query := runSelect + ` WHERE ticker = $1 ORDER BY started_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}

	return runs, rows.Err()
}

// GetPoints 실행별 예측 결과 조회
func (r *Repository) GetPoints(ctx context.Context, runID string) ([]contracts.ForecastPoint, error) {
	query := `
		SELECT step, date, predicted, real
		FROM forecast.points
		WHERE run_id = $1
		ORDER BY step`

	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get points: %w", err)
	}
	defer rows.Close()

	var points []contracts.ForecastPoint
	for rows.Next() {
		var p contracts.ForecastPoint
		if err := rows.Scan(&p.Step, &p.Date, &p.Predicted, &p.Real); err != nil {
			return nil, err
		}
		points = append(points, p)
	}

	return points, rows.Err()
}

const runSelect = `
		SELECT run_id, ticker, config_hash, mode, status, error, started_at, finished_at,
			   train_windows, epochs, best_epoch, best_loss, eval_count, mae, rmse, mape, direction_hit
		FROM forecast.runs`

func scanRun(row pgx.Row) (*RunRecord, error) {
	var run RunRecord
	var bestLoss, mae, rmse, mape, hit *float64
	var count *int

	if err := row.Scan(
		&run.RunID, &run.Ticker, &run.ConfigHash, &run.Mode, &run.Status, &run.Error,
		&run.StartedAt, &run.FinishedAt, &run.TrainWindows, &run.Epochs, &run.BestEpoch,
		&bestLoss, &count, &mae, &rmse, &mape, &hit,
	); err != nil {
		return nil, err
	}

	if bestLoss != nil {
		run.BestLoss = *bestLoss
	}
	if count != nil {
		run.Metrics = &contracts.ForecastMetrics{Count: *count}
		if mae != nil {
			run.Metrics.MAE = *mae
		}
		if rmse != nil {
			run.Metrics.RMSE = *rmse
		}
		if mape != nil {
			run.Metrics.MAPE = *mape
		}
		if hit != nil {
			run.Metrics.DirectionHit = *hit
		}
	}
	return &run, nil
}
