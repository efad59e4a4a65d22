package views

import "context"

// Get 返回 nil, nil 表示该交易者还没有对应视图（折叠从零值开始）。

// BalanceRepository 余额视图仓储接口
type BalanceRepository interface {
	Get(ctx context.Context, traderID string) (*BalanceByPairView, error)
	Save(ctx context.Context, view *BalanceByPairView) error
}

// TraderByAssetRepository 资产维度视图仓储接口
type TraderByAssetRepository interface {
	Get(ctx context.Context, traderID string) (*TraderByAssetView, error)
	ListByBaseAsset(ctx context.Context, baseAsset string) ([]*TraderByAssetView, error)
	Save(ctx context.Context, view *TraderByAssetView) error
}

// MovingAverageRepository 移动平均视图仓储接口
type MovingAverageRepository interface {
	Get(ctx context.Context, traderID string) (*MovingAverageByPeriodView, error)
	Save(ctx context.Context, view *MovingAverageByPeriodView) error
}
