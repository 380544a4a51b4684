package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"HalalScreener/internal/batch"
	"HalalScreener/internal/model"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// DefaultHistoryLimit bounds History when limit <= 0.
const DefaultHistoryLimit = 50

// SQLiteRecorder persists screening runs to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log.With().Str("component", "sqlite_recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS screening_runs (
			id            TEXT PRIMARY KEY,
			started_at    INTEGER NOT NULL,
			finished_at   INTEGER NOT NULL,
			standard      TEXT NOT NULL,
			battery       TEXT NOT NULL,
			thresholds    TEXT NOT NULL,
			requested     INTEGER NOT NULL,
			compliant     INTEGER NOT NULL,
			questionable  INTEGER NOT NULL,
			non_compliant INTEGER NOT NULL,
			errors        INTEGER NOT NULL,
			skipped       INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON screening_runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS screening_results (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id           TEXT NOT NULL REFERENCES screening_runs(id),
			ticker           TEXT NOT NULL,
			overall          TEXT NOT NULL,
			methodology      TEXT,
			debt_ratio       REAL,
			secondary_ratio  REAL,
			tertiary_ratio   REAL,
			purification_pct REAL,
			business_reason  TEXT,
			financial_reason TEXT,
			error            TEXT,
			screened_at      INTEGER NOT NULL,
			result_json      TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_ticker ON screening_results(ticker, screened_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun stores the run header and every result in one transaction.
func (r *SQLiteRecorder) RecordRun(ctx context.Context, report *batch.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	thresholds, err := json.Marshal(report.Standard.Thresholds)
	if err != nil {
		return fmt.Errorf("encode thresholds: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	s := report.Summary
	_, err = tx.ExecContext(ctx, `INSERT INTO screening_runs
		(id, started_at, finished_at, standard, battery, thresholds,
		 requested, compliant, questionable, non_compliant, errors, skipped)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		report.RunID, report.StartedAt.Unix(), report.FinishedAt.Unix(),
		string(report.Standard.Standard), string(report.Standard.Battery), string(thresholds),
		len(report.Requested), s.Compliant, s.Questionable, s.NonCompliant, s.Errors, len(report.Skipped),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO screening_results
		(run_id, ticker, overall, methodology, debt_ratio, secondary_ratio, tertiary_ratio,
		 purification_pct, business_reason, financial_reason, error, screened_at, result_json)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare result insert: %w", err)
	}
	defer stmt.Close()

	for i := range report.Results {
		res := &report.Results[i]
		blob, err := json.Marshal(res)
		if err != nil {
			return fmt.Errorf("encode result %s: %w", res.Ticker, err)
		}
		_, err = stmt.ExecContext(ctx,
			report.RunID, res.Ticker, string(res.Overall), res.Methodology,
			nullable(res.Financial.RatioAt(0)), nullable(res.Financial.RatioAt(1)), nullable(res.Financial.RatioAt(2)),
			res.Purification.Pct, res.Business.Reason, res.Financial.Reason, res.Error,
			res.ScreenedAt.Unix(), string(blob),
		)
		if err != nil {
			return fmt.Errorf("insert result %s: %w", res.Ticker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.log.Debug().Str("run_id", report.RunID).Int("results", len(report.Results)).Msg("run recorded")
	return nil
}

// History returns the most recent results for ticker, newest first.
func (r *SQLiteRecorder) History(ctx context.Context, ticker string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	rows, err := r.db.QueryContext(ctx, `SELECT
			res.run_id, res.ticker, res.overall, run.standard, run.battery, res.methodology,
			res.debt_ratio, res.secondary_ratio, res.tertiary_ratio, res.purification_pct,
			res.business_reason, res.financial_reason, res.error, res.screened_at
		FROM screening_results res
		JOIN screening_runs run ON run.id = res.run_id
		WHERE res.ticker = ?
		ORDER BY res.screened_at DESC, res.id DESC
		LIMIT ?`, strings.ToUpper(strings.TrimSpace(ticker)), limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := []HistoryEntry{}
	for rows.Next() {
		var (
			e                      HistoryEntry
			overall                string
			methodology, errText   sql.NullString
			bizReason, finReason   sql.NullString
			debt, secondary, third sql.NullFloat64
			purification           sql.NullFloat64
			screenedAt             int64
		)
		if err := rows.Scan(&e.RunID, &e.Ticker, &overall, &e.Standard, &e.Battery, &methodology,
			&debt, &secondary, &third, &purification,
			&bizReason, &finReason, &errText, &screenedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.Overall = model.Overall(overall)
		e.Methodology = methodology.String
		e.DebtRatio = nullFloat(debt)
		e.SecondaryRatio = nullFloat(secondary)
		e.TertiaryRatio = nullFloat(third)
		e.PurificationPct = purification.Float64
		e.BusinessReason = bizReason.String
		e.FinancialReason = finReason.String
		e.Error = errText.String
		e.ScreenedAt = time.Unix(screenedAt, 0).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
