package strategy

import (
	"github.com/shopspring/decimal"

	"smacross/internal/md"
)

// Crossover folds bars one at a time into fast and slow simple moving
// averages and reports a signal whenever the fast average crosses the slow
// one. Bars are emitted only once both averages and their previous values are
// defined.
type Crossover struct {
	fastPeriod int
	slowPeriod int
	fast       *md.RingBuffer
	slow       *md.RingBuffer
	prevShort  decimal.Decimal
	prevLong   decimal.Decimal
	hasPrev    bool
}

// NewCrossover returns a Crossover for the given windows. With a non-positive
// window it never emits a bar.
func NewCrossover(fastPeriod, slowPeriod int) *Crossover {
	c := &Crossover{fastPeriod: fastPeriod, slowPeriod: slowPeriod}
	if ValidatePeriods(fastPeriod, slowPeriod) == nil {
		c.fast = md.NewRingBuffer(fastPeriod)
		c.slow = md.NewRingBuffer(slowPeriod)
	}
	return c
}

func (c *Crossover) OnBar(bar md.Bar) (AugmentedBar, bool) {
	if c.fast == nil {
		return AugmentedBar{}, false
	}

	c.fast.Add(bar.Close)
	c.slow.Add(bar.Close)
	short, shortOK := c.fast.Mean()
	long, longOK := c.slow.Mean()

	prevShort, prevLong, hadPrev := c.prevShort, c.prevLong, c.hasPrev
	c.prevShort, c.prevLong, c.hasPrev = short, long, shortOK && longOK

	if !shortOK || !longOK || !hadPrev {
		return AugmentedBar{}, false
	}

	return AugmentedBar{
		Bar:         bar,
		ShortMA:     toFloat(short),
		LongMA:      toFloat(long),
		ShortMAPrev: toFloat(prevShort),
		LongMAPrev:  toFloat(prevLong),
		Signal:      crossSignal(short, long, prevShort, prevLong),
	}, true
}

func crossSignal(short, long, prevShort, prevLong decimal.Decimal) Signal {
	switch {
	case short.GreaterThan(long) && prevShort.LessThanOrEqual(prevLong):
		return SignalBuy
	case short.LessThan(long) && prevShort.GreaterThanOrEqual(prevLong):
		return SignalSell
	default:
		return SignalFlat
	}
}

// CalculateSignals derives both moving averages and the crossover signal for
// every bar that has a full slow window and a previous period. The input is
// not modified and the result is a new slice in the input's order; invalid or
// oversized windows yield an empty result.
func CalculateSignals(bars []md.Bar, fastPeriod, slowPeriod int) []AugmentedBar {
	out := make([]AugmentedBar, 0, expectedRows(len(bars), fastPeriod, slowPeriod))
	c := NewCrossover(fastPeriod, slowPeriod)
	for _, bar := range bars {
		if row, ok := c.OnBar(bar); ok {
			out = append(out, row)
		}
	}
	return out
}

func expectedRows(n, fastPeriod, slowPeriod int) int {
	warmup := max(fastPeriod, slowPeriod)
	if ValidatePeriods(fastPeriod, slowPeriod) != nil || n <= warmup {
		return 0
	}
	return n - warmup
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
