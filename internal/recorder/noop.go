package recorder

import (
	"context"

	"HalalScreener/internal/batch"
)

// NoopRecorder is used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ context.Context, _ *batch.Report) error { return nil }
func (n *NoopRecorder) History(_ context.Context, _ string, _ int) ([]HistoryEntry, error) {
	return []HistoryEntry{}, nil
}
func (n *NoopRecorder) Close() error { return nil }
