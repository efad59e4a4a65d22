package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MovingAverageKind 指标类型（simple: 简单移动平均, exponential: 指数移动平均）
type MovingAverageKind string

const (
	MovingAverageSimple      MovingAverageKind = "simple"
	MovingAverageExponential MovingAverageKind = "exponential"
)

// ParseMovingAverageKind validates a kind coming from the outside (HTTP payloads,
// replayed events).
func ParseMovingAverageKind(s string) (MovingAverageKind, error) {
	switch MovingAverageKind(s) {
	case MovingAverageSimple, MovingAverageExponential:
		return MovingAverageKind(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMovingAverageKind, s)
	}
}

// movingAverageScale is the fixed scale shared by every division the engine
// performs. Replayed histories must reproduce recorded values digit for digit,
// so all divisions round once, with banker's rounding, at this scale.
const movingAverageScale = 16

// MovingAverage maintains one streaming indicator over closing prices. The engine
// knows nothing about the owning account; its only state is the window and the
// running value.
type MovingAverage struct {
	kind   MovingAverageKind
	period int

	window []decimal.Decimal // oldest first; retained after warm-up for simple only
	value  decimal.Decimal
	ready  bool
}

// NewMovingAverage creates an engine of the given kind and period.
func NewMovingAverage(kind MovingAverageKind, period int) (*MovingAverage, error) {
	if _, err := ParseMovingAverageKind(string(kind)); err != nil {
		return nil, err
	}
	if period <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPeriod, period)
	}
	return &MovingAverage{
		kind:   kind,
		period: period,
		window: make([]decimal.Decimal, 0, period),
	}, nil
}

// Kind returns the engine kind.
func (m *MovingAverage) Kind() MovingAverageKind { return m.kind }

// Period returns the configured period.
func (m *MovingAverage) Period() int { return m.period }

// Value returns the current value; ok is false until period observations have
// been seen.
func (m *MovingAverage) Value() (decimal.Decimal, bool) {
	return m.value, m.ready
}

// Update feeds one observation. During warm-up it returns ok=false; from the
// period-th observation on it returns the new value.
func (m *MovingAverage) Update(observation decimal.Decimal) (decimal.Decimal, bool) {
	if !m.ready {
		m.window = append(m.window, observation)
		if len(m.window) < m.period {
			return decimal.Decimal{}, false
		}
		// Both kinds seed with the arithmetic mean: the exponential recurrence
		// has no defined value before the window first fills.
		sum := decimal.Zero
		for _, o := range m.window {
			sum = sum.Add(o)
		}
		m.value = divideHalfEven(sum, decimal.NewFromInt(int64(m.period)))
		m.ready = true
		if m.kind == MovingAverageExponential {
			m.window = nil // no window needed past warm-up
		}
		return m.value, true
	}

	switch m.kind {
	case MovingAverageSimple:
		expiring := m.window[0]
		copy(m.window, m.window[1:])
		m.window[len(m.window)-1] = observation
		p := decimal.NewFromInt(int64(m.period))
		m.value = divideHalfEven(m.value.Mul(p).Sub(expiring).Add(observation), p)
	case MovingAverageExponential:
		// obs*k + value*(1-k) with k = 2/(period+1), folded into a single
		// division so rounding happens exactly once:
		// (2*obs + (period-1)*value) / (period+1)
		two := decimal.NewFromInt(2)
		num := observation.Mul(two).Add(m.value.Mul(decimal.NewFromInt(int64(m.period - 1))))
		m.value = divideHalfEven(num, decimal.NewFromInt(int64(m.period+1)))
	}
	return m.value, true
}

// divideHalfEven computes a/b rounded half-to-even at movingAverageScale in a
// single rounding step. Rounding an intermediate higher-precision quotient
// first can manufacture a tie that is not one (…49 + remainder becoming …50),
// so the decision is made on the exact remainder instead.
func divideHalfEven(a, b decimal.Decimal) decimal.Decimal {
	q, r := a.QuoRem(b, movingAverageScale)
	if r.IsZero() {
		return q
	}

	step := decimal.New(1, -movingAverageScale)
	if a.Sign() != b.Sign() {
		step = step.Neg()
	}

	// the true quotient sits q + r/b past the truncation point; the half-way
	// mark in the last place is |b|/2 * 10^-scale
	twice := r.Abs().Mul(decimal.NewFromInt(2))
	half := b.Abs().Mul(decimal.New(1, -movingAverageScale))
	switch twice.Cmp(half) {
	case -1:
		return q
	case 1:
		return q.Add(step)
	default:
		if q.Shift(movingAverageScale).BigInt().Bit(0) == 0 {
			return q // last digit already even
		}
		return q.Add(step)
	}
}
