package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/cryptotrading/internal/trader/views"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 视图仓储：按主键 upsert，整行覆盖。折叠结果就是整行，没有部分更新。

// BalanceViewRepository 余额视图仓储
type BalanceViewRepository struct {
	db *gorm.DB
}

func NewBalanceViewRepository(db *gorm.DB) *BalanceViewRepository {
	return &BalanceViewRepository{db: db}
}

func (r *BalanceViewRepository) Get(ctx context.Context, traderID string) (*views.BalanceByPairView, error) {
	var view views.BalanceByPairView
	err := r.db.WithContext(ctx).Where("trader_id = ?", traderID).First(&view).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (r *BalanceViewRepository) Save(ctx context.Context, view *views.BalanceByPairView) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(view).Error
}

// TraderByAssetViewRepository 资产维度视图仓储
type TraderByAssetViewRepository struct {
	db *gorm.DB
}

func NewTraderByAssetViewRepository(db *gorm.DB) *TraderByAssetViewRepository {
	return &TraderByAssetViewRepository{db: db}
}

func (r *TraderByAssetViewRepository) Get(ctx context.Context, traderID string) (*views.TraderByAssetView, error) {
	var view views.TraderByAssetView
	err := r.db.WithContext(ctx).Where("trader_id = ?", traderID).First(&view).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (r *TraderByAssetViewRepository) ListByBaseAsset(ctx context.Context, baseAsset string) ([]*views.TraderByAssetView, error) {
	var list []*views.TraderByAssetView
	err := r.db.WithContext(ctx).Where("base_asset = ?", baseAsset).Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *TraderByAssetViewRepository) Save(ctx context.Context, view *views.TraderByAssetView) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(view).Error
}

// MovingAverageViewRepository 移动平均视图仓储
type MovingAverageViewRepository struct {
	db *gorm.DB
}

func NewMovingAverageViewRepository(db *gorm.DB) *MovingAverageViewRepository {
	return &MovingAverageViewRepository{db: db}
}

func (r *MovingAverageViewRepository) Get(ctx context.Context, traderID string) (*views.MovingAverageByPeriodView, error) {
	var view views.MovingAverageByPeriodView
	err := r.db.WithContext(ctx).Where("trader_id = ?", traderID).First(&view).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (r *MovingAverageViewRepository) Save(ctx context.Context, view *views.MovingAverageByPeriodView) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(view).Error
}
