package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decisionInput() DecisionInput {
	return DecisionInput{
		PreviousShort: d("10"),
		PreviousLong:  d("10"),
		UpdatedShort:  d("10"),
		UpdatedLong:   d("5"),
		Threshold:     d("0.5"),
		BaseBalance:   d("100"),
		QuoteBalance:  d("100"),
		ExchangeRate:  d("2"),
		Time:          1700000000000,
	}
}

func TestDecideBuyOnRisingSpread(t *testing.T) {
	// spread moved from 0 to (10-5)/10 = 0.5; slope = |(0.5-0)/0.5| = 1
	order, ok := Decide(decisionInput())
	require.True(t, ok)
	assert.Equal(t, OrderTypeBuy, order.Type)
	assert.True(t, order.Quantity.Equal(d("10")), "got %s", order.Quantity)
	assert.True(t, order.ExchangeRate.Equal(d("2")))
	assert.Equal(t, int64(1700000000000), order.Time)
}

func TestDecideSellOnFallingSpread(t *testing.T) {
	in := decisionInput()
	in.UpdatedShort = d("8")
	in.UpdatedLong = d("10") // spread (8-10)/8 = -0.25, slope 1
	order, ok := Decide(in)
	require.True(t, ok)
	assert.Equal(t, OrderTypeSell, order.Type)
	assert.True(t, order.Quantity.Equal(d("10")))
}

func TestDecideThresholdIsStrict(t *testing.T) {
	in := decisionInput()
	in.Threshold = d("1") // slope == 1 exactly
	_, ok := Decide(in)
	assert.False(t, ok, "slope equal to the threshold does not qualify")

	in.Threshold = d("0.99")
	_, ok = Decide(in)
	assert.True(t, ok)
}

func TestDecideFundsCheckIsStrict(t *testing.T) {
	in := decisionInput()
	in.QuoteBalance = d("10") // quantity == 10, not strictly greater
	_, ok := Decide(in)
	assert.False(t, ok)

	in.QuoteBalance = d("10.000000000000000001")
	_, ok = Decide(in)
	assert.True(t, ok)

	// sell side checks the base balance
	in = decisionInput()
	in.UpdatedShort = d("8")
	in.UpdatedLong = d("10")
	in.BaseBalance = d("10")
	_, ok = Decide(in)
	assert.False(t, ok)
}

func TestDecideZeroDivisorsYieldNoSignal(t *testing.T) {
	in := decisionInput()
	in.PreviousShort = d("0")
	_, ok := Decide(in)
	assert.False(t, ok, "zero previous short MA")

	in = decisionInput()
	in.UpdatedShort = d("0")
	_, ok = Decide(in)
	assert.False(t, ok, "zero updated short MA")

	// equal updated MAs make the updated spread itself zero
	in = decisionInput()
	in.UpdatedShort = d("7")
	in.UpdatedLong = d("7")
	_, ok = Decide(in)
	assert.False(t, ok, "zero updated spread")
}

func TestDecideQuantityScalesWithSlope(t *testing.T) {
	in := decisionInput()
	in.PreviousShort = d("10")
	in.PreviousLong = d("5") // current spread 0.5
	in.UpdatedShort = d("10")
	in.UpdatedLong = d("2.5") // updated spread 0.75, slope = 0.25/0.75 = 1/3
	in.Threshold = d("0.1")

	order, ok := Decide(in)
	require.True(t, ok)
	assert.Equal(t, OrderTypeBuy, order.Type)
	assert.True(t, order.Quantity.Equal(d("3.333333333333333")), "got %s", order.Quantity)
}
