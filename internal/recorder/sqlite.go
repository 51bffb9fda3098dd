package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS pipeline_runs (
			id           TEXT PRIMARY KEY,
			pipeline     TEXT NOT NULL,
			started_at   INTEGER NOT NULL,
			finished_at  INTEGER NOT NULL,
			ticker_count INTEGER,
			row_count    INTEGER,
			status       TEXT,
			error        TEXT,
			output_path  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON pipeline_runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS ticker_fetches (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id    TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			ticker    TEXT NOT NULL,
			rows      INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fetches_run ON ticker_fetches(run_id)`,

		`CREATE TABLE IF NOT EXISTS backtest_results (
			run_id                TEXT PRIMARY KEY,
			timestamp             INTEGER NOT NULL,
			days                  INTEGER,
			cumulative_return     REAL,
			annualized_return     REAL,
			annualized_volatility REAL,
			sharpe_ratio          REAL,
			max_drawdown          REAL,
			holdings              TEXT
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(run *RunEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO pipeline_runs
		(id, pipeline, started_at, finished_at, ticker_count, row_count, status, error, output_path)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		run.ID, run.Pipeline, run.StartedAt.Unix(), run.FinishedAt.Unix(),
		run.TickerCount, run.RowCount, run.Status, run.Error, run.OutputPath,
	)
	return err
}

func (r *SQLiteRecorder) RecordTickerFetch(evt *TickerFetchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO ticker_fetches
		(run_id, timestamp, ticker, rows)
		VALUES (?,?,?,?)`,
		evt.RunID, time.Now().Unix(), evt.Ticker, evt.Rows,
	)
	return err
}

func (r *SQLiteRecorder) RecordBacktest(evt *BacktestEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO backtest_results
		(run_id, timestamp, days, cumulative_return, annualized_return, annualized_volatility, sharpe_ratio, max_drawdown, holdings)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		evt.RunID, time.Now().Unix(), evt.Days, evt.CumulativeReturn, evt.AnnualizedReturn,
		evt.AnnualizedVolatility, evt.SharpeRatio, evt.MaxDrawdown, strings.Join(evt.Holdings, ","),
	)
	return err
}

// LastRun returns the most recently started run of pipeline, or nil when none.
func (r *SQLiteRecorder) LastRun(pipeline string) (*RunEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var run RunEvent
	var started, finished int64
	err := r.db.QueryRow(`SELECT id, pipeline, started_at, finished_at, ticker_count, row_count, status, error, output_path
		FROM pipeline_runs WHERE pipeline = ? ORDER BY started_at DESC, rowid DESC LIMIT 1`, pipeline).
		Scan(&run.ID, &run.Pipeline, &started, &finished, &run.TickerCount, &run.RowCount, &run.Status, &run.Error, &run.OutputPath)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	run.StartedAt = time.Unix(started, 0)
	run.FinishedAt = time.Unix(finished, 0)
	return &run, nil
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
