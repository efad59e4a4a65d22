package domain

import "github.com/shopspring/decimal"

// orderQuantityFactor sizes an order from the normalized slope.
var orderQuantityFactor = decimal.NewFromInt(10)

// DecisionInput carries everything the crossover rule needs: the moving average
// values before and after the candle, the account's threshold and balances, and
// the triggering candle.
type DecisionInput struct {
	PreviousShort decimal.Decimal
	PreviousLong  decimal.Decimal
	UpdatedShort  decimal.Decimal
	UpdatedLong   decimal.Decimal

	Threshold    decimal.Decimal
	BaseBalance  decimal.Decimal
	QuoteBalance decimal.Decimal

	ExchangeRate decimal.Decimal
	Time         int64
}

// Decide applies the crossover rule and proposes an order, or nothing. It never
// mutates account state; turning the proposal into an event is the aggregate's
// job.
//
// The normalized spread diff(a,b) = (a-b)/a divides by its first argument, so a
// zero short MA (or a zero updated spread) yields no signal rather than an
// undefined quotient.
func Decide(in DecisionInput) (Order, bool) {
	currentDiff, ok := normalizedDiff(in.PreviousShort, in.PreviousLong)
	if !ok {
		return Order{}, false
	}
	updatedDiff, ok := normalizedDiff(in.UpdatedShort, in.UpdatedLong)
	if !ok {
		return Order{}, false
	}

	orderType := OrderTypeSell
	if updatedDiff.IsPositive() {
		orderType = OrderTypeBuy
	}

	slope, ok := normalizedDiff(updatedDiff, currentDiff)
	if !ok {
		return Order{}, false
	}
	slope = slope.Abs()

	if !slope.GreaterThan(in.Threshold) {
		return Order{}, false
	}

	quantity := orderQuantityFactor.Mul(slope)

	// Strict inequality: exact equality of funds does not qualify.
	switch orderType {
	case OrderTypeBuy:
		if !in.QuoteBalance.GreaterThan(quantity) {
			return Order{}, false
		}
	case OrderTypeSell:
		if !in.BaseBalance.GreaterThan(quantity) {
			return Order{}, false
		}
	}

	return Order{
		Type:         orderType,
		Quantity:     quantity,
		ExchangeRate: in.ExchangeRate,
		Time:         in.Time,
	}, true
}

func normalizedDiff(a, b decimal.Decimal) (decimal.Decimal, bool) {
	if a.IsZero() {
		return decimal.Decimal{}, false
	}
	return divideHalfEven(a.Sub(b), a), true
}
