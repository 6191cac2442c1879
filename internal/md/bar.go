package md

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrUnordered = errors.New("bars are not in chronological order")

// Bar is one period of a price series. A NaN Close marks a missing observation.
type Bar struct {
	Symbol    string
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

type Source interface {
	Bars(ctx context.Context) ([]Bar, error)
}

// MissingFieldError reports a required field that the input does not carry.
// Row is 1-based and zero when the field is absent for the whole input.
type MissingFieldError struct {
	Field string
	Row   int
}

func (e *MissingFieldError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: missing field %s", e.Row, e.Field)
	}
	return fmt.Sprintf("missing field %s", e.Field)
}

func checkOrder(bars []Bar) error {
	for i := 1; i < len(bars); i++ {
		if bars[i].Timestamp.Before(bars[i-1].Timestamp) {
			return fmt.Errorf("%w: %s precedes %s at index %d", ErrUnordered,
				bars[i].Timestamp.Format(time.RFC3339), bars[i-1].Timestamp.Format(time.RFC3339), i)
		}
	}
	return nil
}
