package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"smacross/internal/config"
	"smacross/internal/md"
	"smacross/internal/strategy"
)

type fakeSource struct {
	bars []md.Bar
	err  error
}

func (f fakeSource) Bars(ctx context.Context) ([]md.Bar, error) {
	return f.bars, f.err
}

func swingBars() []md.Bar {
	closes := []float64{10, 10, 10, 10, 10, 12, 14, 16, 14, 12, 10, 8, 8, 10, 13}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]md.Bar, len(closes))
	for i, c := range closes {
		bars[i] = md.Bar{Symbol: "SPY", Timestamp: start.AddDate(0, 0, i), Close: c}
	}
	return bars
}

func testConfig(fast, slow int) config.Config {
	return config.Config{Source: config.SourceCSV, FastPeriod: fast, SlowPeriod: slow}
}

func TestEngineRunWritesSummaryAndJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signals.ndjson")
	journal, err := NewSignalJournal(path, "run-1")
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}

	var out bytes.Buffer
	eng := New(testConfig(2, 4), fakeSource{bars: swingBars()}, journal, &out)
	summary, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := journal.Close(); err != nil {
		t.Fatalf("close journal: %v", err)
	}

	if summary.TotalPeriods != 11 || summary.BuySignals != 2 || summary.SellSignals != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if !strings.Contains(out.String(), "First buy signal: 2024-01-06") || !strings.Contains(out.String(), "Last buy signal: 2024-01-15") {
		t.Fatalf("unexpected summary output %q", out.String())
	}

	events := readEvents(t, path)
	if len(events) != 3 {
		t.Fatalf("expected 3 journal events, got %d", len(events))
	}
	wantActions := []strategy.Action{strategy.Buy, strategy.Sell, strategy.Buy}
	for i, event := range events {
		if event.RunID != "run-1" || event.Symbol != "SPY" {
			t.Fatalf("unexpected event %+v", event)
		}
		if event.Action != wantActions[i] {
			t.Fatalf("event %d: expected %s, got %s", i, wantActions[i], event.Action)
		}
	}
	if events[1].Signal != strategy.SignalSell || events[1].ShortMA != 13 || events[1].LongMA != 14 {
		t.Fatalf("unexpected sell event %+v", events[1])
	}
}

func TestEngineRunWithoutJournal(t *testing.T) {
	var out bytes.Buffer
	eng := New(testConfig(2, 40), fakeSource{bars: swingBars()}, nil, &out)

	summary, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.TotalPeriods != 0 {
		t.Fatalf("expected no periods, got %d", summary.TotalPeriods)
	}
	if strings.Contains(out.String(), "First buy signal") {
		t.Fatalf("expected buy dates to be omitted, got %q", out.String())
	}
}

func TestEngineRunSourceError(t *testing.T) {
	missing := &md.MissingFieldError{Field: "Close"}
	eng := New(testConfig(2, 4), fakeSource{err: missing}, nil, &bytes.Buffer{})

	_, err := eng.Run(context.Background())
	var target *md.MissingFieldError
	if !errors.As(err, &target) {
		t.Fatalf("expected MissingFieldError, got %v", err)
	}
}

func TestNewSource(t *testing.T) {
	cfg := testConfig(2, 4)
	cfg.CSVPath = "prices.csv"
	if src, ok := NewSource(cfg).(md.CSVSource); !ok || src.Path != "prices.csv" {
		t.Fatalf("expected csv source, got %#v", NewSource(cfg))
	}

	cfg.Source = config.SourceAlpaca
	cfg.Symbol = "AAPL"
	if _, ok := NewSource(cfg).(*md.AlpacaSource); !ok {
		t.Fatalf("expected alpaca source")
	}
}

func TestSignalJournalAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signals.ndjson")
	for _, runID := range []string{"a", "b"} {
		journal, err := NewSignalJournal(path, runID)
		if err != nil {
			t.Fatalf("open journal: %v", err)
		}
		if journal.RunID() != runID {
			t.Fatalf("expected run id %q, got %q", runID, journal.RunID())
		}
		if err := journal.Append(SignalEvent{Signal: strategy.SignalBuy, Action: strategy.Buy}); err != nil {
			t.Fatalf("append: %v", err)
		}
		if err := journal.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}

	events := readEvents(t, path)
	if len(events) != 2 || events[0].RunID != "a" || events[1].RunID != "b" {
		t.Fatalf("unexpected events %+v", events)
	}
}

func readEvents(t *testing.T, path string) []SignalEvent {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open journal file: %v", err)
	}
	defer file.Close()

	var events []SignalEvent
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var event SignalEvent
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan journal: %v", err)
	}
	return events
}
