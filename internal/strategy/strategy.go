package strategy

import (
	"errors"
	"fmt"

	"smacross/internal/md"
)

type Action string

const (
	Hold Action = "HOLD"
	Buy  Action = "BUY"
	Sell Action = "SELL"
)

// Signal marks a crossover at a period: +1 upward, -1 downward, 0 none.
type Signal int

const (
	SignalSell Signal = -1
	SignalFlat Signal = 0
	SignalBuy  Signal = 1
)

func (s Signal) Action() Action {
	switch s {
	case SignalBuy:
		return Buy
	case SignalSell:
		return Sell
	default:
		return Hold
	}
}

func (s Signal) String() string {
	return string(s.Action())
}

// AugmentedBar is a bar extended with both moving averages, their values at
// the previous period and the crossover signal.
type AugmentedBar struct {
	md.Bar
	ShortMA     float64
	LongMA      float64
	ShortMAPrev float64
	LongMAPrev  float64
	Signal      Signal
}

var ErrInvalidConfiguration = errors.New("invalid window configuration")

// ValidatePeriods rejects non-positive windows. A fast window that is not
// shorter than the slow one is allowed; it inverts the trend-following
// reading of the signals.
func ValidatePeriods(fast, slow int) error {
	if fast <= 0 {
		return fmt.Errorf("%w: fast period must be > 0, got %d", ErrInvalidConfiguration, fast)
	}
	if slow <= 0 {
		return fmt.Errorf("%w: slow period must be > 0, got %d", ErrInvalidConfiguration, slow)
	}
	return nil
}
