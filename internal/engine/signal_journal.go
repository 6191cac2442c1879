package engine

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"smacross/internal/strategy"
)

type SignalEvent struct {
	RunID      string          `json:"run_id"`
	Timestamp  time.Time       `json:"timestamp"`
	BarTime    time.Time       `json:"bar_time"`
	Symbol     string          `json:"symbol,omitempty"`
	Close      float64         `json:"close"`
	ShortMA    float64         `json:"short_ma"`
	LongMA     float64         `json:"long_ma"`
	FastPeriod int             `json:"fast_period"`
	SlowPeriod int             `json:"slow_period"`
	Signal     strategy.Signal `json:"signal"`
	Action     strategy.Action `json:"action"`
}

// SignalJournal appends one JSON line per emitted signal.
type SignalJournal struct {
	runID  string
	file   *os.File
	writer *bufio.Writer
	mu     sync.Mutex
}

func NewSignalJournal(path string, runID string) (*SignalJournal, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &SignalJournal{
		runID:  runID,
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

func (j *SignalJournal) RunID() string {
	return j.runID
}

func (j *SignalJournal) Append(event SignalEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	event.RunID = j.runID
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal signal event: %w", err)
	}
	if _, err := j.writer.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("write signal event: %w", err)
	}
	return nil
}

func (j *SignalJournal) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.writer.Flush()
}

func (j *SignalJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.writer.Flush(); err != nil {
		_ = j.file.Close()
		return err
	}
	return j.file.Close()
}
