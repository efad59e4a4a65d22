package application

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/cryptotrading/internal/trader/domain"
	"github.com/wyfcoding/cryptotrading/internal/trader/views"
)

type fakeBalanceRepo struct {
	data map[string]*views.BalanceByPairView
}

func (r *fakeBalanceRepo) Get(ctx context.Context, traderID string) (*views.BalanceByPairView, error) {
	return r.data[traderID], nil
}

func (r *fakeBalanceRepo) Save(ctx context.Context, view *views.BalanceByPairView) error {
	r.data[view.TraderID] = view
	return nil
}

func TestBalanceProjectionFoldsEventStream(t *testing.T) {
	repo := &fakeBalanceRepo{data: make(map[string]*views.BalanceByPairView)}
	svc := NewBalanceProjectionService(repo, slog.Default())
	ctx := context.Background()

	require.NoError(t, svc.Handle(ctx, &domain.TraderCreatedEvent{
		TraderID:     "TRD-1",
		BaseAsset:    "BTC",
		QuoteAsset:   "USD",
		BaseBalance:  d("1000"),
		QuoteBalance: d("1000"),
		MAKind:       domain.MovingAverageSimple,
		ShortPeriod:  2,
		LongPeriod:   3,
		Time:         1,
	}, 0))
	require.NoError(t, svc.Handle(ctx, &domain.OrderPlacedEvent{
		TraderID:     "TRD-1",
		Type:         domain.OrderTypeBuy,
		Quantity:     d("2"),
		ExchangeRate: d("100"),
		Time:         10,
	}, 1))

	view := repo.data["TRD-1"]
	require.NotNil(t, view)
	assert.True(t, view.BaseBalance.Equal(d("1002")))
	assert.True(t, view.QuoteBalance.Equal(d("800")))
	assert.Equal(t, int64(1), view.BuyOrders)
	assert.Equal(t, int64(1), view.LastOffset)
}

func TestProjectionDropsEventsBeforeCreation(t *testing.T) {
	repo := &fakeBalanceRepo{data: make(map[string]*views.BalanceByPairView)}
	svc := NewBalanceProjectionService(repo, slog.Default())

	// an order for a trader whose creation event never arrived folds into
	// the zero view and is not persisted
	err := svc.Handle(context.Background(), &domain.OrderPlacedEvent{
		TraderID: "TRD-GHOST", Type: domain.OrderTypeBuy, Quantity: d("1"), ExchangeRate: d("1"), Time: 1,
	}, 0)
	require.NoError(t, err)
	assert.Empty(t, repo.data)
}

func TestProjectionSkipsRedeliveredMessages(t *testing.T) {
	repo := &fakeBalanceRepo{data: make(map[string]*views.BalanceByPairView)}
	svc := NewBalanceProjectionService(repo, slog.Default())
	ctx := context.Background()

	require.NoError(t, svc.Handle(ctx, &domain.TraderCreatedEvent{
		TraderID:     "TRD-1",
		BaseAsset:    "BTC",
		QuoteAsset:   "USD",
		BaseBalance:  d("1000"),
		QuoteBalance: d("1000"),
		Time:         1,
	}, 3))

	order := &domain.OrderPlacedEvent{
		TraderID:     "TRD-1",
		Type:         domain.OrderTypeBuy,
		Quantity:     d("2"),
		ExchangeRate: d("100"),
		Time:         10,
	}
	require.NoError(t, svc.Handle(ctx, order, 4))
	// the broker delivered the same message again
	require.NoError(t, svc.Handle(ctx, order, 4))

	view := repo.data["TRD-1"]
	require.NotNil(t, view)
	assert.Equal(t, int64(1), view.BuyOrders, "redelivery must not double count")
	assert.True(t, view.BaseBalance.Equal(d("1002")), "redelivery must not settle twice")
	assert.True(t, view.QuoteBalance.Equal(d("800")))
}
