package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"smacross/internal/config"
	"smacross/internal/md"
	"smacross/internal/report"
	"smacross/internal/strategy"
)

// Engine runs one pass of the crossover strategy over a price series.
type Engine struct {
	cfg     config.Config
	source  md.Source
	journal *SignalJournal
	out     io.Writer
}

// New returns an Engine writing its summary to out. journal may be nil.
func New(cfg config.Config, source md.Source, journal *SignalJournal, out io.Writer) *Engine {
	return &Engine{
		cfg:     cfg,
		source:  source,
		journal: journal,
		out:     out,
	}
}

func (e *Engine) Run(ctx context.Context) (report.Summary, error) {
	bars, err := e.source.Bars(ctx)
	if err != nil {
		return report.Summary{}, fmt.Errorf("load price series: %w", err)
	}

	for _, warning := range e.cfg.Warnings() {
		slog.Warn("suspicious configuration", "warning", warning)
	}

	augmented := strategy.CalculateSignals(bars, e.cfg.FastPeriod, e.cfg.SlowPeriod)
	slog.Debug("signals calculated", "bars", len(bars), "rows", len(augmented), "fast", e.cfg.FastPeriod, "slow", e.cfg.SlowPeriod)
	if len(augmented) == 0 {
		slog.Warn("no periods with a full slow window", "bars", len(bars), "slow", e.cfg.SlowPeriod)
	}

	summary := report.Summarize(augmented, e.cfg.FastPeriod, e.cfg.SlowPeriod)
	if _, err := summary.WriteTo(e.out); err != nil {
		return summary, fmt.Errorf("write summary: %w", err)
	}
	summary.Log(slog.Default())

	if e.journal != nil {
		if err := e.record(augmented); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

func (e *Engine) record(rows []strategy.AugmentedBar) error {
	now := time.Now().UTC()
	for _, row := range rows {
		if row.Signal == strategy.SignalFlat {
			continue
		}
		slog.Debug("signal", "bar_time", row.Timestamp.Format(time.RFC3339), "action", row.Signal.Action(), "short_ma", row.ShortMA, "long_ma", row.LongMA)
		if err := e.journal.Append(SignalEvent{
			Timestamp:  now,
			BarTime:    row.Timestamp,
			Symbol:     row.Symbol,
			Close:      row.Close,
			ShortMA:    row.ShortMA,
			LongMA:     row.LongMA,
			FastPeriod: e.cfg.FastPeriod,
			SlowPeriod: e.cfg.SlowPeriod,
			Signal:     row.Signal,
			Action:     row.Signal.Action(),
		}); err != nil {
			return err
		}
	}
	return e.journal.Flush()
}

// NewSource builds the price source selected by cfg.
func NewSource(cfg config.Config) md.Source {
	if cfg.Source == config.SourceAlpaca {
		return md.NewAlpacaSource(cfg.APIKey, cfg.APISecret, md.AlpacaOptions{
			Symbol:     cfg.Symbol,
			Feed:       cfg.Feed,
			Adjustment: cfg.Adjustment,
			Start:      cfg.StartTime(),
			End:        cfg.EndTime(),
		})
	}
	return md.CSVSource{Path: cfg.CSVPath, Symbol: cfg.Symbol}
}
