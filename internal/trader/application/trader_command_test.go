package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/cryptotrading/internal/trader/domain"
	"github.com/wyfcoding/cryptotrading/pkg/metrics"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fakeEventStore keeps per-trader event logs in memory.
type fakeEventStore struct {
	mu      sync.Mutex
	logs    map[string][]domain.TraderEvent
	failing bool
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{logs: make(map[string][]domain.TraderEvent)}
}

func (s *fakeEventStore) Append(ctx context.Context, traderID string, events []domain.TraderEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return errors.New("append failed")
	}
	s.logs[traderID] = append(s.logs[traderID], events...)
	return nil
}

func (s *fakeEventStore) Load(ctx context.Context, traderID string) ([]domain.TraderEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := make([]domain.TraderEvent, len(s.logs[traderID]))
	copy(history, s.logs[traderID])
	return history, nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []domain.TraderEvent
}

func (p *fakePublisher) Publish(ctx context.Context, events []domain.TraderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, events...)
	return nil
}

func newCommandService() (*TraderCommandService, *fakeEventStore, *fakePublisher) {
	store := newFakeEventStore()
	publisher := &fakePublisher{}
	return NewTraderCommandService(store, publisher, metrics.New("trader_test")), store, publisher
}

func createCommand() CreateTraderCommand {
	return CreateTraderCommand{
		BaseAsset:      "BTC",
		QuoteAsset:     "USD",
		BaseBalance:    d("1000"),
		QuoteBalance:   d("1000"),
		MAKind:         "simple",
		ShortPeriod:    2,
		LongPeriod:     3,
		OrderThreshold: d("0"),
	}
}

func TestCreateTrader(t *testing.T) {
	svc, store, publisher := newCommandService()

	dto, err := svc.CreateTrader(context.Background(), createCommand())
	require.NoError(t, err)
	assert.NotEmpty(t, dto.TraderID)
	assert.Equal(t, "BTC", dto.BaseAsset)
	assert.Nil(t, dto.ShortMAValue, "indicators start in warm-up")

	require.Len(t, store.logs[dto.TraderID], 1)
	assert.IsType(t, &domain.TraderCreatedEvent{}, store.logs[dto.TraderID][0])
	assert.Len(t, publisher.published, 1)
}

func TestCreateTraderValidation(t *testing.T) {
	svc, _, _ := newCommandService()
	ctx := context.Background()

	cmd := createCommand()
	cmd.MAKind = "weighted"
	_, err := svc.CreateTrader(ctx, cmd)
	assert.ErrorIs(t, err, domain.ErrUnsupportedMovingAverageKind)

	cmd = createCommand()
	cmd.ShortPeriod = 0
	_, err = svc.CreateTrader(ctx, cmd)
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)

	cmd = createCommand()
	cmd.ShortPeriod = 3
	cmd.LongPeriod = 3
	_, err = svc.CreateTrader(ctx, cmd)
	assert.ErrorIs(t, err, domain.ErrInvalidPeriodOrder)

	cmd = createCommand()
	cmd.BaseBalance = d("-1")
	_, err = svc.CreateTrader(ctx, cmd)
	assert.ErrorIs(t, err, domain.ErrNegativeBalance)
}

func TestAddCandleUnknownTrader(t *testing.T) {
	svc, _, _ := newCommandService()
	_, err := svc.AddCandle(context.Background(), AddCandleCommand{
		TraderID:     "TRD-MISSING",
		ClosingPrice: d("42"),
	})
	assert.ErrorIs(t, err, domain.ErrTraderNotFound)
}

func TestAddCandleReportsPlacedOrder(t *testing.T) {
	svc, store, _ := newCommandService()
	ctx := context.Background()

	dto, err := svc.CreateTrader(ctx, createCommand())
	require.NoError(t, err)

	prices := []string{"1", "2", "3"}
	for i, price := range prices {
		result, err := svc.AddCandle(ctx, AddCandleCommand{
			TraderID:     dto.TraderID,
			ClosingPrice: d(price),
			Time:         int64(i+1) * 10,
		})
		require.NoError(t, err)
		assert.False(t, result.OrderPlaced, "candle %d cannot trade yet", i)
	}

	// the widening upward spread triggers a buy
	result, err := svc.AddCandle(ctx, AddCandleCommand{
		TraderID:     dto.TraderID,
		ClosingPrice: d("10"),
		Time:         40,
	})
	require.NoError(t, err)
	require.True(t, result.OrderPlaced)
	require.NotNil(t, result.Order)
	assert.Equal(t, "BUY", result.Order.Type)
	assert.True(t, result.Order.Quantity.IsPositive())
	assert.True(t, result.Order.ExchangeRate.Equal(d("10")))

	// every event the candle raised is on the durable log
	var placed int
	for _, event := range store.logs[dto.TraderID] {
		if _, ok := event.(*domain.OrderPlacedEvent); ok {
			placed++
		}
	}
	assert.Equal(t, 1, placed)
}

func TestAddCandleRehydratesFromStore(t *testing.T) {
	first, store, _ := newCommandService()
	ctx := context.Background()

	dto, err := first.CreateTrader(ctx, createCommand())
	require.NoError(t, err)
	for i, price := range []string{"1", "2", "3"} {
		_, err := first.AddCandle(ctx, AddCandleCommand{
			TraderID: dto.TraderID, ClosingPrice: d(price), Time: int64(i+1) * 10,
		})
		require.NoError(t, err)
	}

	// a second service instance sharing the log must pick up where the
	// first left off, engine windows included
	second := NewTraderCommandService(store, &fakePublisher{}, metrics.New("trader_test2"))
	result, err := second.AddCandle(ctx, AddCandleCommand{
		TraderID: dto.TraderID, ClosingPrice: d("10"), Time: 40,
	})
	require.NoError(t, err)
	assert.True(t, result.OrderPlaced)
}

func TestAddCandleAppendFailureForcesReload(t *testing.T) {
	svc, store, _ := newCommandService()
	ctx := context.Background()

	dto, err := svc.CreateTrader(ctx, createCommand())
	require.NoError(t, err)

	store.mu.Lock()
	store.failing = true
	store.mu.Unlock()
	_, err = svc.AddCandle(ctx, AddCandleCommand{TraderID: dto.TraderID, ClosingPrice: d("1"), Time: 10})
	require.Error(t, err)

	// the failed candle must not survive in memory either
	store.mu.Lock()
	store.failing = false
	store.mu.Unlock()
	result, err := svc.AddCandle(ctx, AddCandleCommand{TraderID: dto.TraderID, ClosingPrice: d("2"), Time: 20})
	require.NoError(t, err)
	assert.False(t, result.OrderPlaced)

	history, err := store.Load(ctx, dto.TraderID)
	require.NoError(t, err)
	require.Len(t, history, 2, "created + one accepted candle")
	candle, ok := history[1].(*domain.CandleAddedEvent)
	require.True(t, ok)
	assert.True(t, candle.ClosingPrice.Equal(d("2")))
}
