package application

import (
	"context"
	"log/slog"

	"github.com/wyfcoding/cryptotrading/internal/trader/domain"
	"github.com/wyfcoding/cryptotrading/internal/trader/views"
)

// 三个投影服务把各自的纯折叠绑定到读模型仓储上。它们互相独立，
// 可以并发消费，只要求单个交易者的事件按发出顺序到达。
// 尚未建仓的交易者折叠出零值视图（TraderID 为空），直接丢弃。
//
// offset 是事件在流分区内的位点。同一交易者的事件都在同一分区，
// 位点对每个视图行单调递增；重投递的消息（offset 不大于行内水位）
// 直接跳过，折叠因此在 at-least-once 投递下幂等。

// BalanceProjectionService 余额视图投影
type BalanceProjectionService struct {
	repo   views.BalanceRepository
	logger *slog.Logger
}

func NewBalanceProjectionService(repo views.BalanceRepository, logger *slog.Logger) *BalanceProjectionService {
	return &BalanceProjectionService{repo: repo, logger: logger}
}

func (s *BalanceProjectionService) Handle(ctx context.Context, event domain.TraderEvent, offset int64) error {
	current, err := s.repo.Get(ctx, event.AggregateID())
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load balance view", "trader_id", event.AggregateID(), "error", err)
		return err
	}
	var view views.BalanceByPairView
	if current != nil {
		if offset <= current.LastOffset {
			return nil
		}
		view = *current
	}
	next := view.Apply(event)
	if next.TraderID == "" {
		return nil
	}
	next.LastOffset = offset
	return s.repo.Save(ctx, &next)
}

// TraderByAssetProjectionService 资产维度视图投影
type TraderByAssetProjectionService struct {
	repo   views.TraderByAssetRepository
	logger *slog.Logger
}

func NewTraderByAssetProjectionService(repo views.TraderByAssetRepository, logger *slog.Logger) *TraderByAssetProjectionService {
	return &TraderByAssetProjectionService{repo: repo, logger: logger}
}

func (s *TraderByAssetProjectionService) Handle(ctx context.Context, event domain.TraderEvent, offset int64) error {
	current, err := s.repo.Get(ctx, event.AggregateID())
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load trader-by-asset view", "trader_id", event.AggregateID(), "error", err)
		return err
	}
	var view views.TraderByAssetView
	if current != nil {
		if offset <= current.LastOffset {
			return nil
		}
		view = *current
	}
	next := view.Apply(event)
	if next.TraderID == "" {
		return nil
	}
	next.LastOffset = offset
	return s.repo.Save(ctx, &next)
}

// MovingAverageProjectionService 移动平均视图投影
type MovingAverageProjectionService struct {
	repo   views.MovingAverageRepository
	logger *slog.Logger
}

func NewMovingAverageProjectionService(repo views.MovingAverageRepository, logger *slog.Logger) *MovingAverageProjectionService {
	return &MovingAverageProjectionService{repo: repo, logger: logger}
}

func (s *MovingAverageProjectionService) Handle(ctx context.Context, event domain.TraderEvent, offset int64) error {
	current, err := s.repo.Get(ctx, event.AggregateID())
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load moving-average view", "trader_id", event.AggregateID(), "error", err)
		return err
	}
	var view views.MovingAverageByPeriodView
	if current != nil {
		if offset <= current.LastOffset {
			return nil
		}
		view = *current
	}
	next := view.Apply(event)
	if next.TraderID == "" {
		return nil
	}
	next.LastOffset = offset
	return s.repo.Save(ctx, &next)
}
