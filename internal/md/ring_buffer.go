package md

import (
	"math"

	"github.com/shopspring/decimal"
)

// RingBuffer keeps the trailing size closes and their running decimal sum.
// A missing close (NaN or Inf) occupies a slot but leaves the window mean
// undefined until it is evicted.
type RingBuffer struct {
	values  []decimal.Decimal
	missing []bool
	size    int
	index   int
	filled  bool
	sum     decimal.Decimal
	gaps    int
}

func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{
		values:  make([]decimal.Decimal, size),
		missing: make([]bool, size),
		size:    size,
	}
}

func (r *RingBuffer) Add(value float64) {
	if r.filled {
		if r.missing[r.index] {
			r.gaps--
		} else {
			r.sum = r.sum.Sub(r.values[r.index])
		}
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		r.values[r.index] = decimal.Zero
		r.missing[r.index] = true
		r.gaps++
	} else {
		d := decimal.NewFromFloat(value)
		r.values[r.index] = d
		r.missing[r.index] = false
		r.sum = r.sum.Add(d)
	}

	r.index = (r.index + 1) % r.size
	if r.index == 0 {
		r.filled = true
	}
}

func (r *RingBuffer) Len() int {
	if r.filled {
		return r.size
	}
	return r.index
}

// Mean returns the average of a full window. ok is false while the window is
// still filling or holds a missing close.
func (r *RingBuffer) Mean() (mean decimal.Decimal, ok bool) {
	if !r.filled || r.gaps > 0 {
		return decimal.Zero, false
	}
	return r.sum.Div(decimal.NewFromInt(int64(r.size))), true
}
