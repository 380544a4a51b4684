// Package recorder keeps an audit trail of screening runs.
package recorder

import (
	"context"
	"time"

	"HalalScreener/internal/batch"
	"HalalScreener/internal/model"
)

// HistoryEntry is one stored screening result of a ticker.
type HistoryEntry struct {
	RunID       string        `json:"run_id"`
	Ticker      string        `json:"ticker"`
	Overall     model.Overall `json:"overall"`
	Standard    string        `json:"standard"`
	Battery     string        `json:"battery"`
	Methodology string        `json:"methodology"`

	// Ratios in battery order: debt, then securities or interest income, then revenue or receivables.
	DebtRatio       *float64  `json:"debt_ratio_pct"`
	SecondaryRatio  *float64  `json:"secondary_ratio_pct"`
	TertiaryRatio   *float64  `json:"tertiary_ratio_pct"`
	PurificationPct float64   `json:"purification_pct"`
	BusinessReason  string    `json:"business_reason"`
	FinancialReason string    `json:"financial_reason"`
	Error           string    `json:"error,omitempty"`
	ScreenedAt      time.Time `json:"screened_at"`
}

// Recorder persists screening runs.
type Recorder interface {
	RecordRun(ctx context.Context, report *batch.Report) error
	History(ctx context.Context, ticker string, limit int) ([]HistoryEntry, error)
	Close() error
}
