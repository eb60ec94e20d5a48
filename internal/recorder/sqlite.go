package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"CycleSentinel/internal/model"
)

// SQLiteRecorder persists analysis runs to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *logrus.Entry
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *logrus.Entry) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the API read while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.WithField("path", dbPath).Info("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cycle_runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL UNIQUE,
			timestamp   INTEGER NOT NULL,
			symbol      TEXT NOT NULL,
			bar_interval TEXT NOT NULL,
			lookback    TEXT,
			bars        INTEGER,
			first_close REAL,
			last_close  REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_symbol_ts ON cycle_runs(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS cycle_peaks (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL REFERENCES cycle_runs(run_id),
			rank        INTEGER NOT NULL,
			period_days REAL NOT NULL,
			power       REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_peaks_run ON cycle_peaks(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordAnalysis stores the run and its ranked cycles in one transaction.
func (r *SQLiteRecorder) RecordAnalysis(a *model.Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var bars int
	var firstClose, lastClose float64
	if a.Series != nil && len(a.Series.Bars) > 0 {
		bars = len(a.Series.Bars)
		firstClose = a.Series.Bars[0].Close
		lastClose = a.Series.Bars[bars-1].Close
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO cycle_runs
		(run_id, timestamp, symbol, bar_interval, lookback, bars, first_close, last_close)
		VALUES (?,?,?,?,?,?,?,?)`,
		a.RunID, a.AnalyzedAt.Unix(), a.Symbol, string(a.Interval), a.Range,
		bars, firstClose, lastClose,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if a.Result != nil {
		for i, c := range a.Result.TopCycles {
			if _, err := tx.Exec(`INSERT INTO cycle_peaks
				(run_id, rank, period_days, power) VALUES (?,?,?,?)`,
				a.RunID, i+1, c.PeriodDays, c.Power,
			); err != nil {
				return fmt.Errorf("insert peak %d: %w", i+1, err)
			}
		}
	}
	return tx.Commit()
}

// RecentAnalyses returns up to limit runs, newest first.
func (r *SQLiteRecorder) RecentAnalyses(symbol string, limit int) ([]AnalysisRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT run_id, timestamp, symbol, bar_interval, lookback, bars, first_close, last_close
		FROM cycle_runs`
	args := []any{}
	if symbol != "" {
		query += ` WHERE symbol = ?`
		args = append(args, symbol)
	}
	query += ` ORDER BY timestamp DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	records := []AnalysisRecord{}
	index := map[string]int{}
	for rows.Next() {
		var rec AnalysisRecord
		var ts int64
		if err := rows.Scan(&rec.RunID, &ts, &rec.Symbol, &rec.Interval, &rec.Range,
			&rec.Bars, &rec.FirstClose, &rec.LastClose); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.AnalyzedAt = time.Unix(ts, 0).UTC()
		rec.Cycles = []model.SpectrumPoint{}
		index[rec.RunID] = len(records)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	if len(records) == 0 {
		return records, nil
	}

	placeholders := make([]string, len(records))
	ids := make([]any, len(records))
	for i, rec := range records {
		placeholders[i] = "?"
		ids[i] = rec.RunID
	}
	peaks, err := r.db.Query(`SELECT run_id, period_days, power FROM cycle_peaks
		WHERE run_id IN (`+strings.Join(placeholders, ",")+`) ORDER BY run_id, rank`, ids...)
	if err != nil {
		return nil, fmt.Errorf("query peaks: %w", err)
	}
	defer peaks.Close()

	for peaks.Next() {
		var runID string
		var p model.SpectrumPoint
		if err := peaks.Scan(&runID, &p.PeriodDays, &p.Power); err != nil {
			return nil, fmt.Errorf("scan peak: %w", err)
		}
		i := index[runID]
		records[i].Cycles = append(records[i].Cycles, p)
	}
	return records, peaks.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}
