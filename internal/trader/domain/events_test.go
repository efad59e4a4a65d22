package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventCodecRoundTrip(t *testing.T) {
	events := []TraderEvent{
		&TraderCreatedEvent{
			TraderID:       "TRD-1",
			BaseAsset:      "BTC",
			QuoteAsset:     "USD",
			BaseBalance:    d("10"),
			QuoteBalance:   d("5000"),
			MAKind:         MovingAverageExponential,
			ShortPeriod:    5,
			LongPeriod:     20,
			OrderThreshold: d("0.002"),
			Time:           100,
		},
		&CandleAddedEvent{TraderID: "TRD-1", ClosingPrice: d("43000.5"), Time: 200},
		&MovingAverageUpdatedEvent{TraderID: "TRD-1", Period: 5, Kind: MovingAverageExponential, Value: d("42999.1"), Time: 200},
		&OrderPlacedEvent{TraderID: "TRD-1", Type: OrderTypeSell, Quantity: d("0.25"), ExchangeRate: d("43000.5"), Time: 200},
	}

	for _, event := range events {
		record, err := EncodeEvent(event)
		require.NoError(t, err)
		assert.Equal(t, "TRD-1", record.TraderID)
		assert.Equal(t, event.EventType(), record.EventType)
		assert.Equal(t, event.OccurredAt(), record.OccurredAt)

		decoded, err := DecodeEvent(record)
		require.NoError(t, err)
		assert.Equal(t, event, decoded)
	}
}

func TestDecodeEventRejectsUnknownType(t *testing.T) {
	_, err := DecodeEvent(EventRecord{TraderID: "TRD-1", EventType: "trader.liquidated"})
	assert.ErrorIs(t, err, ErrUnknownEventType)
}
