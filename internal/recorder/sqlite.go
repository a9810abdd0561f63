package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"

	_ "modernc.org/sqlite"

	"GapSentinel/internal/model"
)

// SQLiteRecorder persists replay reports to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases alive across statements.
	db.SetMaxOpenConns(1)

	// WAL mode so dashboards can read while replays write.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id       TEXT PRIMARY KEY,
			started_at   INTEGER NOT NULL,
			finished_at  INTEGER NOT NULL,
			source       TEXT,
			timeframe    TEXT,
			symbols      INTEGER,
			signals      INTEGER,
			exits        INTEGER,
			failures     INTEGER,
			total_profit REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS simulations (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id       TEXT NOT NULL,
			symbol       TEXT NOT NULL,
			bars         INTEGER,
			gap_count    INTEGER,
			gap_dir      TEXT,
			gap_lower    REAL,
			gap_upper    REAL,
			gap_time     INTEGER,
			status       TEXT,
			level        INTEGER,
			avg_price    REAL,
			quantity     REAL,
			error        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_simulations_run ON simulations(run_id)`,

		`CREATE TABLE IF NOT EXISTS trades (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL,
			symbol      TEXT NOT NULL,
			avg_entry   REAL,
			exit_price  REAL,
			profit      REAL,
			quantity    REAL,
			exit_time   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_exit ON trades(exit_time)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun writes the run, one row per symbol and one row per trade in a
// single transaction.
func (r *SQLiteRecorder) RecordRun(report *model.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx := context.Background()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO runs
		(run_id, started_at, finished_at, source, timeframe, symbols, signals, exits, failures, total_profit)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		report.RunID, report.StartedAt.Unix(), report.FinishedAt.Unix(),
		report.Source, report.Timeframe, len(report.Symbols), report.Signals(),
		len(report.Trades), len(report.Failures), report.TotalProfit,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i := range report.Results {
		res := &report.Results[i]
		var (
			dir          sql.NullString
			lower, upper sql.NullFloat64
			gapTime      sql.NullInt64
			status       sql.NullString
			level        sql.NullInt64
			avg, qty     sql.NullFloat64
		)
		if g := res.LatestGap; g != nil {
			dir = sql.NullString{String: string(g.Direction), Valid: true}
			lower = sql.NullFloat64{Float64: g.Lower, Valid: true}
			upper = sql.NullFloat64{Float64: g.Upper, Valid: true}
			gapTime = sql.NullInt64{Int64: g.Time.Unix(), Valid: true}
		}
		if p := res.Position; p != nil {
			status = sql.NullString{String: string(p.Status), Valid: true}
			level = sql.NullInt64{Int64: int64(p.Level), Valid: true}
			avg = sql.NullFloat64{Float64: p.AvgPrice, Valid: true}
			qty = sql.NullFloat64{Float64: p.Quantity, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO simulations
			(run_id, symbol, bars, gap_count, gap_dir, gap_lower, gap_upper, gap_time, status, level, avg_price, quantity)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
			report.RunID, res.Symbol, res.Bars, res.GapCount,
			dir, lower, upper, gapTime, status, level, avg, qty,
		); err != nil {
			return fmt.Errorf("insert simulation %s: %w", res.Symbol, err)
		}
	}

	for _, f := range report.Failures {
		if _, err := tx.ExecContext(ctx, `INSERT INTO simulations (run_id, symbol, error) VALUES (?,?,?)`,
			report.RunID, f.Symbol, f.Error,
		); err != nil {
			return fmt.Errorf("insert failure %s: %w", f.Symbol, err)
		}
	}

	for _, t := range report.Trades {
		if _, err := tx.ExecContext(ctx, `INSERT INTO trades
			(run_id, symbol, avg_entry, exit_price, profit, quantity, exit_time)
			VALUES (?,?,?,?,?,?,?)`,
			report.RunID, t.Symbol, t.AvgEntry, t.ExitPrice, t.Profit, t.Quantity, t.ExitTime.Unix(),
		); err != nil {
			return fmt.Errorf("insert trade %s: %w", t.Symbol, err)
		}
	}

	return tx.Commit()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
