package application

import (
	"context"
	"fmt"

	"github.com/wyfcoding/cryptotrading/internal/trader/domain"
	"github.com/wyfcoding/cryptotrading/internal/trader/views"
)

// TraderQueryService 读路径：聚合状态从事件日志重放，视图直接读各自的读模型。
type TraderQueryService struct {
	store          domain.EventStore
	balances       views.BalanceRepository
	byAsset        views.TraderByAssetRepository
	movingAverages views.MovingAverageRepository
}

func NewTraderQueryService(
	store domain.EventStore,
	balances views.BalanceRepository,
	byAsset views.TraderByAssetRepository,
	movingAverages views.MovingAverageRepository,
) *TraderQueryService {
	return &TraderQueryService{
		store:          store,
		balances:       balances,
		byAsset:        byAsset,
		movingAverages: movingAverages,
	}
}

// GetTrader rebuilds the authoritative account state by folding the full event
// history.
func (s *TraderQueryService) GetTrader(ctx context.Context, traderID string) (*TraderDTO, error) {
	history, err := s.store.Load(ctx, traderID)
	if err != nil {
		return nil, fmt.Errorf("load history for %s: %w", traderID, err)
	}
	trader := domain.NewTrader(traderID)
	trader.Replay(history)
	account, ok := trader.Account()
	if !ok {
		return nil, domain.ErrTraderNotFound
	}
	return newTraderDTO(account), nil
}

// GetBalance returns the balance-by-pair view.
func (s *TraderQueryService) GetBalance(ctx context.Context, traderID string) (*views.BalanceByPairView, error) {
	view, err := s.balances.Get(ctx, traderID)
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, domain.ErrTraderNotFound
	}
	return view, nil
}

// ListTradersByBaseAsset returns the trader-by-asset views for one base asset.
func (s *TraderQueryService) ListTradersByBaseAsset(ctx context.Context, baseAsset string) ([]*views.TraderByAssetView, error) {
	return s.byAsset.ListByBaseAsset(ctx, baseAsset)
}

// GetMovingAverages returns the moving-average-by-period view.
func (s *TraderQueryService) GetMovingAverages(ctx context.Context, traderID string) (*views.MovingAverageByPeriodView, error) {
	view, err := s.movingAverages.Get(ctx, traderID)
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, domain.ErrTraderNotFound
	}
	return view, nil
}
