// Package report turns calculated signals into a human-readable summary.
package report

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"smacross/internal/strategy"
)

const dateLayout = "2006-01-02"

// Summary holds the counts reported after a run. FirstBuy and LastBuy are
// zero unless BuySignals > 0.
type Summary struct {
	FastPeriod   int
	SlowPeriod   int
	TotalPeriods int
	BuySignals   int
	SellSignals  int
	FirstBuy     time.Time
	LastBuy      time.Time
}

func Summarize(bars []strategy.AugmentedBar, fastPeriod, slowPeriod int) Summary {
	summary := Summary{
		FastPeriod:   fastPeriod,
		SlowPeriod:   slowPeriod,
		TotalPeriods: len(bars),
	}
	for _, bar := range bars {
		switch bar.Signal {
		case strategy.SignalBuy:
			if summary.BuySignals == 0 {
				summary.FirstBuy = bar.Timestamp
			}
			summary.LastBuy = bar.Timestamp
			summary.BuySignals++
		case strategy.SignalSell:
			summary.SellSignals++
		}
	}
	return summary
}

func (s Summary) HasBuys() bool {
	return s.BuySignals > 0
}

func (s Summary) String() string {
	var b strings.Builder
	b.WriteString("\nStrategy Summary:\n")
	fmt.Fprintf(&b, "Short-term MA period: %d days\n", s.FastPeriod)
	fmt.Fprintf(&b, "Long-term MA period: %d days\n", s.SlowPeriod)
	fmt.Fprintf(&b, "Total days analyzed: %d\n", s.TotalPeriods)
	fmt.Fprintf(&b, "Number of buy signals: %d\n", s.BuySignals)
	fmt.Fprintf(&b, "Number of sell signals: %d\n", s.SellSignals)
	if s.HasBuys() {
		fmt.Fprintf(&b, "\nFirst buy signal: %s\n", s.FirstBuy.Format(dateLayout))
		fmt.Fprintf(&b, "Last buy signal: %s\n", s.LastBuy.Format(dateLayout))
	}
	return b.String()
}

func (s Summary) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, s.String())
	return int64(n), err
}

func (s Summary) Log(logger *slog.Logger) {
	attrs := []any{
		"fast_period", s.FastPeriod,
		"slow_period", s.SlowPeriod,
		"periods", s.TotalPeriods,
		"buy_signals", s.BuySignals,
		"sell_signals", s.SellSignals,
	}
	if s.HasBuys() {
		attrs = append(attrs,
			"first_buy", s.FirstBuy.Format(dateLayout),
			"last_buy", s.LastBuy.Format(dateLayout),
		)
	}
	logger.Info("strategy summary", attrs...)
}
