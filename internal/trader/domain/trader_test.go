package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeTrader(t *testing.T) *Trader {
	t.Helper()
	trader := NewTrader("TRD-TEST")
	trader.Create(TraderAccount{
		TraderID:       "TRD-TEST",
		BaseAsset:      "BTC",
		QuoteAsset:     "USD",
		BaseBalance:    d("1000"),
		QuoteBalance:   d("1000"),
		MAKind:         MovingAverageSimple,
		ShortPeriod:    2,
		LongPeriod:     3,
		OrderThreshold: d("0"),
	}, 1)
	require.Equal(t, TraderActive, trader.State())
	return trader
}

func candle(price string, at int64) CandleStick {
	return CandleStick{Time: at, ClosingPrice: d(price)}
}

func TestCreateIsIdempotent(t *testing.T) {
	trader := activeTrader(t)
	require.Len(t, trader.UncommittedEvents(), 1)

	trader.Create(TraderAccount{BaseAsset: "ETH"}, 2)
	assert.Len(t, trader.UncommittedEvents(), 1, "second create raises nothing")

	account, ok := trader.Account()
	require.True(t, ok)
	assert.Equal(t, "BTC", account.BaseAsset)
}

func TestCandleBeforeCreationIsIgnored(t *testing.T) {
	trader := NewTrader("TRD-TEST")
	trader.AddCandle(candle("42", 1))
	assert.Empty(t, trader.UncommittedEvents())
	assert.Equal(t, TraderUninitialized, trader.State())
}

func TestAddCandleEmitsIndicatorsAsTheyWarmUp(t *testing.T) {
	trader := activeTrader(t)
	trader.MarkCommitted()

	trader.AddCandle(candle("1", 10))
	events := trader.UncommittedEvents()
	require.Len(t, events, 1, "first candle: nothing ready yet")
	assert.IsType(t, &CandleAddedEvent{}, events[0])

	trader.MarkCommitted()
	trader.AddCandle(candle("2", 20))
	events = trader.UncommittedEvents()
	require.Len(t, events, 2, "short engine just became ready")
	short, ok := events[1].(*MovingAverageUpdatedEvent)
	require.True(t, ok)
	assert.Equal(t, 2, short.Period)
	assert.True(t, short.Value.Equal(d("1.5")))

	trader.MarkCommitted()
	trader.AddCandle(candle("3", 30))
	events = trader.UncommittedEvents()
	require.Len(t, events, 3, "both engines ready, no decision without previous values")

	account, _ := trader.Account()
	require.NotNil(t, account.ShortMAValue)
	require.NotNil(t, account.LongMAValue)
	assert.True(t, account.ShortMAValue.Equal(d("2.5")))
	assert.True(t, account.LongMAValue.Equal(d("2")))
}

func TestAddCandlePlacesOrderAndSettlesBalances(t *testing.T) {
	trader := activeTrader(t)
	for i, price := range []string{"1", "2", "3"} {
		trader.AddCandle(candle(price, int64(i+1)*10))
	}
	trader.MarkCommitted()

	// the spread widens upward, so the rule proposes a buy
	trader.AddCandle(candle("10", 40))

	var placed *OrderPlacedEvent
	for _, event := range trader.UncommittedEvents() {
		if e, ok := event.(*OrderPlacedEvent); ok {
			placed = e
		}
	}
	require.NotNil(t, placed, "expected an order")
	assert.Equal(t, OrderTypeBuy, placed.Type)
	assert.True(t, placed.Quantity.IsPositive())
	assert.True(t, placed.ExchangeRate.Equal(d("10")))

	account, _ := trader.Account()
	cost := placed.ExchangeRate.Mul(placed.Quantity)
	assert.True(t, account.BaseBalance.Equal(d("1000").Add(placed.Quantity)),
		"base settled: got %s", account.BaseBalance)
	assert.True(t, account.QuoteBalance.Equal(d("1000").Sub(cost)),
		"quote settled: got %s", account.QuoteBalance)
}

func TestReplayRebuildsIdenticalState(t *testing.T) {
	live := activeTrader(t)
	for i, price := range []string{"1", "2", "3", "10", "4"} {
		live.AddCandle(candle(price, int64(i+1)*10))
	}
	history := live.UncommittedEvents()

	replica := NewTrader("TRD-TEST")
	replica.Replay(history)

	liveAccount, ok := live.Account()
	require.True(t, ok)
	replicaAccount, ok := replica.Account()
	require.True(t, ok)

	assert.True(t, liveAccount.BaseBalance.Equal(replicaAccount.BaseBalance))
	assert.True(t, liveAccount.QuoteBalance.Equal(replicaAccount.QuoteBalance))
	require.NotNil(t, replicaAccount.ShortMAValue)
	require.NotNil(t, replicaAccount.LongMAValue)
	assert.True(t, liveAccount.ShortMAValue.Equal(*replicaAccount.ShortMAValue))
	assert.True(t, liveAccount.LongMAValue.Equal(*replicaAccount.LongMAValue))

	// the engines must carry identical windows too: the same next candle has
	// to raise the same events on both sides
	live.MarkCommitted()
	live.AddCandle(candle("6.25", 60))
	replica.AddCandle(candle("6.25", 60))
	assert.Equal(t, live.UncommittedEvents(), replica.UncommittedEvents())
}

func TestReplaySurvivesUnknownCreationKind(t *testing.T) {
	trader := NewTrader("TRD-TEST")
	trader.Replay([]TraderEvent{
		&TraderCreatedEvent{TraderID: "TRD-TEST", MAKind: "weighted", ShortPeriod: 2, LongPeriod: 3},
		&CandleAddedEvent{TraderID: "TRD-TEST", ClosingPrice: d("1"), Time: 1},
	})
	assert.Equal(t, TraderUninitialized, trader.State())

	_, ok := trader.Account()
	assert.False(t, ok)
}

func TestSettlementSkipsWhenFundsInsufficient(t *testing.T) {
	trader := activeTrader(t)

	trader.Apply(&OrderPlacedEvent{
		TraderID:     "TRD-TEST",
		Type:         OrderTypeSell,
		Quantity:     d("5000"), // more base than the account holds
		ExchangeRate: d("2"),
		Time:         50,
	})

	account, _ := trader.Account()
	assert.True(t, account.BaseBalance.Equal(d("1000")), "balances untouched")
	assert.True(t, account.QuoteBalance.Equal(d("1000")))

	trader.Apply(&OrderPlacedEvent{
		TraderID:     "TRD-TEST",
		Type:         OrderTypeBuy,
		Quantity:     d("600"),
		ExchangeRate: d("2"), // cost 1200 > 1000 quote
		Time:         51,
	})

	account, _ = trader.Account()
	assert.True(t, account.BaseBalance.Equal(d("1000")))
	assert.True(t, account.QuoteBalance.Equal(d("1000")))
}

func TestBalancesNeverGoNegative(t *testing.T) {
	trader := activeTrader(t)
	for i := 0; i < 200; i++ {
		price := decimal.NewFromInt(int64(i%23 + 1))
		trader.AddCandle(CandleStick{Time: int64(i + 1), ClosingPrice: price})

		account, _ := trader.Account()
		require.False(t, account.BaseBalance.IsNegative(), "candle %d", i)
		require.False(t, account.QuoteBalance.IsNegative(), "candle %d", i)
	}
}
