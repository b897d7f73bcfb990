// Package audit provides AuditSink implementations for the append-only
// history of hierarchy code changes: a structured-log sink, an append-only
// JSONL file sink, and an in-memory sink for tests.
package audit

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/codetree-io/codetree/types"
)

// LogSink writes audit records through a structured logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink over the given logger; nil falls back to the
// default logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Record implements types.AuditSink.
func (s *LogSink) Record(rec types.AuditRecord) error {
	s.logger.Info("hierarchy code changed",
		"item_id", rec.ItemID,
		"view", string(rec.View),
		"old_code", rec.OldCode,
		"new_code", rec.NewCode,
		"change_type", rec.ChangeType,
		"triggered_by", rec.TriggeredBy,
		"reason", rec.Reason)
	return nil
}

// FileSink appends audit records to a JSONL file, one record per line.
type FileSink struct {
	mu   sync.Mutex
	file *os.File
}

// OpenFileSink opens (creating if needed) an append-only audit log file.
func OpenFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	return &FileSink{file: f}, nil
}

// Record implements types.AuditSink.
func (s *FileSink) Record(rec types.AuditRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal audit record: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.file.Write(append(raw, '\n')); err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// MemorySink collects records in memory, for tests.
type MemorySink struct {
	mu      sync.Mutex
	records []types.AuditRecord

	// Err, when set, is returned from Record to simulate sink failure.
	Err error
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Record implements types.AuditSink.
func (s *MemorySink) Record(rec types.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.records = append(s.records, rec)
	return nil
}

// Records returns a copy of everything recorded so far.
func (s *MemorySink) Records() []types.AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.AuditRecord, len(s.records))
	copy(out, s.records)
	return out
}
