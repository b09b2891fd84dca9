package activitylog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	appordering "github.com/shop/backend/internal/application/ordering"
	"github.com/shop/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// CSVSink appends activity entries to a CSV file from a single background
// goroutine. Record never blocks the caller: entries go through a buffered
// channel and are dropped (with a counter) when the buffer is full.
type CSVSink struct {
	entries chan appordering.ActivityEntry
	done    chan struct{}
	logger  *zap.Logger

	mu      sync.Mutex
	closed  bool
	dropped int64
}

var _ appordering.ActivityLogger = (*CSVSink)(nil)

var csvHeader = []string{"timestamp", "username", "role", "action", "detail"}

// NewCSVSink opens (or creates) the activity file and starts the writer
// goroutine. A header row is written only when the file is new.
func NewCSVSink(cfg config.ActivityLogConfig, logger *zap.Logger) (*CSVSink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create activity log directory: %w", err)
		}
	}

	file, err := os.OpenFile(cfg.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open activity log: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat activity log: %w", err)
	}

	writer := csv.NewWriter(file)
	if info.Size() == 0 {
		if err := writer.Write(csvHeader); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write activity log header: %w", err)
		}
		writer.Flush()
	}

	bufferSize := cfg.BufferSize
	if bufferSize < 1 {
		bufferSize = 256
	}

	sink := &CSVSink{
		entries: make(chan appordering.ActivityEntry, bufferSize),
		done:    make(chan struct{}),
		logger:  logger,
	}

	go sink.run(file, writer)
	return sink, nil
}

// Record enqueues the entry for writing. It never blocks and never fails;
// when the buffer is full the entry is dropped.
func (s *CSVSink) Record(entry appordering.ActivityEntry) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	select {
	case s.entries <- entry:
	default:
		s.dropped++
		s.logger.Warn("Activity entry dropped, buffer full",
			zap.String("action", entry.Action),
			zap.Int64("dropped_total", s.dropped))
	}
	s.mu.Unlock()
}

// Dropped returns how many entries were discarded because the buffer was full
func (s *CSVSink) Dropped() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close drains the buffer, flushes the writer and closes the file
func (s *CSVSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.entries)
	<-s.done
	return nil
}

func (s *CSVSink) run(file *os.File, writer *csv.Writer) {
	defer close(s.done)
	defer file.Close()

	for entry := range s.entries {
		record := []string{
			entry.Timestamp.Format(time.RFC3339),
			entry.Username,
			entry.Role,
			entry.Action,
			entry.Detail,
		}
		if err := writer.Write(record); err != nil {
			s.logger.Error("Failed to write activity entry", zap.Error(err))
			continue
		}
		// Flush per entry so the trail survives a crash
		writer.Flush()
		if err := writer.Error(); err != nil {
			s.logger.Error("Failed to flush activity log", zap.Error(err))
		}
	}
}
