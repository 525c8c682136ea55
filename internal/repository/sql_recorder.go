package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"PriceCast/internal/domain/models"
	"PriceCast/internal/domain/repository"
	pkgch "PriceCast/pkg/clickhouse"
	"PriceCast/pkg/util"
)

// Dialect selects DDL and placeholder style for SQLRecorder.
type Dialect string

const (
	DialectSQLite     Dialect = "sqlite"
	DialectPostgres   Dialect = "postgres"
	DialectClickHouse Dialect = "clickhouse"
)

// SQLRecorder stores training and forecast runs in a SQL database.
// Timestamps are unix milliseconds so the schema reads the same in every dialect.
type SQLRecorder struct {
	db      *sql.DB
	dialect Dialect
	closer  func() error
	mu      sync.Mutex
}

// OpenSQLRecorder opens dsn with the sqlite or postgres driver and migrates.
func OpenSQLRecorder(ctx context.Context, dialect Dialect, dsn string) (*SQLRecorder, error) {
	var driver string
	switch dialect {
	case DialectSQLite:
		driver = "sqlite"
	case DialectPostgres:
		driver = "postgres"
	default:
		return nil, fmt.Errorf("recorder: unsupported dialect %q for dsn open", dialect)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("recorder: open %s: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("recorder: wal: %w", err)
		}
	}
	r := &SQLRecorder{db: db, dialect: dialect, closer: db.Close}
	if err := r.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

// NewClickHouseRecorder records into client and takes ownership of it.
func NewClickHouseRecorder(ctx context.Context, client *pkgch.Client) (*SQLRecorder, error) {
	r := &SQLRecorder{db: client.DB(), dialect: DialectClickHouse, closer: client.Close}
	if err := client.InitSchema(ctx, r.schema()); err != nil {
		return nil, fmt.Errorf("recorder: %w", err)
	}
	return r, nil
}

func (r *SQLRecorder) schema() []string {
	if r.dialect == DialectClickHouse {
		return []string{
			`CREATE TABLE IF NOT EXISTS training_runs (
				run_id String,
				started_at Int64,
				finished_at Int64,
				estimator LowCardinality(String),
				row_count UInt32,
				mse Float64,
				r2 Float64,
				trigger_source LowCardinality(String)
			) ENGINE = MergeTree ORDER BY (finished_at, run_id)`,
			`CREATE TABLE IF NOT EXISTS forecast_runs (
				run_id String,
				generated_at Int64,
				estimator LowCardinality(String),
				days UInt16,
				current_price Float64,
				sentiment_score Float64,
				sentiment_degraded UInt8,
				sentiment_source LowCardinality(String)
			) ENGINE = MergeTree ORDER BY (generated_at, run_id)`,
			`CREATE TABLE IF NOT EXISTS forecast_points (
				run_id String,
				step UInt16,
				date String,
				price Float64
			) ENGINE = MergeTree ORDER BY (run_id, step)`,
		}
	}
	text := "TEXT"
	bigint := "INTEGER"
	dbl := "REAL"
	if r.dialect == DialectPostgres {
		bigint = "BIGINT"
		dbl = "DOUBLE PRECISION"
	}
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS training_runs (
			run_id %[1]s PRIMARY KEY,
			started_at %[2]s NOT NULL,
			finished_at %[2]s NOT NULL,
			estimator %[1]s NOT NULL,
			row_count %[2]s NOT NULL,
			mse %[3]s NOT NULL,
			r2 %[3]s NOT NULL,
			trigger_source %[1]s NOT NULL
		)`, text, bigint, dbl),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS forecast_runs (
			run_id %[1]s PRIMARY KEY,
			generated_at %[2]s NOT NULL,
			estimator %[1]s NOT NULL,
			days %[2]s NOT NULL,
			current_price %[3]s NOT NULL,
			sentiment_score %[3]s NOT NULL,
			sentiment_degraded %[2]s NOT NULL,
			sentiment_source %[1]s NOT NULL
		)`, text, bigint, dbl),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS forecast_points (
			run_id %[1]s NOT NULL,
			step %[2]s NOT NULL,
			date %[1]s NOT NULL,
			price %[3]s NOT NULL,
			PRIMARY KEY (run_id, step)
		)`, text, bigint, dbl),
		`CREATE INDEX IF NOT EXISTS idx_forecast_runs_generated ON forecast_runs(generated_at)`,
	}
}

func (r *SQLRecorder) migrate(ctx context.Context) error {
	for _, stmt := range r.schema() {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("recorder: migrate: %w", err)
		}
	}
	return nil
}

// bind rewrites ? placeholders to $n for postgres.
func (r *SQLRecorder) bind(query string) string {
	if r.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func (r *SQLRecorder) RecordTraining(ctx context.Context, run models.TrainingRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.db.ExecContext(ctx, r.bind(`INSERT INTO training_runs
		(run_id, started_at, finished_at, estimator, row_count, mse, r2, trigger_source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		run.RunID,
		run.StartedAt.UnixMilli(),
		run.FinishedAt.UnixMilli(),
		run.Estimator,
		run.Rows,
		run.Metrics.MSE,
		run.Metrics.R2,
		run.Trigger,
	)
	if err != nil {
		return fmt.Errorf("record training %s: %w", run.RunID, err)
	}
	return nil
}

func (r *SQLRecorder) RecordForecast(ctx context.Context, f models.Forecast) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	degraded := 0
	if f.Sentiment.Degraded {
		degraded = 1
	}
	_, err := r.db.ExecContext(ctx, r.bind(`INSERT INTO forecast_runs
		(run_id, generated_at, estimator, days, current_price, sentiment_score, sentiment_degraded, sentiment_source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		f.RunID,
		f.GeneratedAt.UnixMilli(),
		f.Estimator,
		len(f.Points),
		f.CurrentPrice,
		f.Sentiment.Score,
		degraded,
		f.Sentiment.Source,
	)
	if err != nil {
		return fmt.Errorf("record forecast %s: %w", f.RunID, err)
	}
	if len(f.Points) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("INSERT INTO forecast_points (run_id, step, date, price) VALUES ")
	args := make([]interface{}, 0, len(f.Points)*4)
	for i, p := range f.Points {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(?, ?, ?, ?)")
		args = append(args, f.RunID, i+1, util.FormatDate(p.Date), p.Price)
	}
	if _, err := r.db.ExecContext(ctx, r.bind(b.String()), args...); err != nil {
		return fmt.Errorf("record forecast points %s: %w", f.RunID, err)
	}
	return nil
}

// CountRuns returns the number of recorded training and forecast runs.
func (r *SQLRecorder) CountRuns(ctx context.Context) (training, forecasts int, err error) {
	if err = r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM training_runs").Scan(&training); err != nil {
		return 0, 0, fmt.Errorf("count training runs: %w", err)
	}
	if err = r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM forecast_runs").Scan(&forecasts); err != nil {
		return 0, 0, fmt.Errorf("count forecast runs: %w", err)
	}
	return training, forecasts, nil
}

// Close closes the underlying pool.
func (r *SQLRecorder) Close() error {
	return r.closer()
}

var _ repository.Recorder = (*SQLRecorder)(nil)
