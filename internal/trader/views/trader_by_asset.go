package views

import (
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/cryptotrading/internal/trader/domain"
)

// TraderByAssetView 按基础资产镜像账户配置，供资产维度查询
type TraderByAssetView struct {
	TraderID       string                   `gorm:"column:trader_id;type:varchar(64);primaryKey" json:"trader_id"`
	BaseAsset      string                   `gorm:"column:base_asset;type:varchar(16);index" json:"base_asset"`
	QuoteAsset     string                   `gorm:"column:quote_asset;type:varchar(16)" json:"quote_asset"`
	BaseBalance    decimal.Decimal          `gorm:"column:base_balance;type:decimal(32,18);not null" json:"base_balance"`
	QuoteBalance   decimal.Decimal          `gorm:"column:quote_balance;type:decimal(32,18);not null" json:"quote_balance"`
	MAKind         domain.MovingAverageKind `gorm:"column:ma_kind;type:varchar(16)" json:"ma_kind"`
	ShortPeriod    int                      `gorm:"column:short_period;not null;default:0" json:"short_period"`
	LongPeriod     int                      `gorm:"column:long_period;not null;default:0" json:"long_period"`
	ShortMAValue   *decimal.Decimal         `gorm:"column:short_ma_value;type:decimal(32,18)" json:"short_ma_value"`
	LongMAValue    *decimal.Decimal         `gorm:"column:long_ma_value;type:decimal(32,18)" json:"long_ma_value"`
	OrderThreshold decimal.Decimal          `gorm:"column:order_threshold;type:decimal(32,18)" json:"order_threshold"`
	UpdatedAt      int64                    `gorm:"column:updated_at;not null;default:0" json:"updated_at"`

	// LastOffset mirrors BalanceByPairView.LastOffset.
	LastOffset int64 `gorm:"column:last_offset;not null;default:0" json:"-"`
}

func (TraderByAssetView) TableName() string { return "trader_by_asset_views" }

// Apply folds one event into the view and returns the next view state.
// Order settlement is out of scope here: the seeded balances stay as created,
// the balance view owns the settled numbers.
func (v TraderByAssetView) Apply(event domain.TraderEvent) TraderByAssetView {
	switch e := event.(type) {
	case *domain.TraderCreatedEvent:
		if v.TraderID != "" {
			return v
		}
		return TraderByAssetView{
			TraderID:       e.TraderID,
			BaseAsset:      e.BaseAsset,
			QuoteAsset:     e.QuoteAsset,
			BaseBalance:    e.BaseBalance,
			QuoteBalance:   e.QuoteBalance,
			MAKind:         e.MAKind,
			ShortPeriod:    e.ShortPeriod,
			LongPeriod:     e.LongPeriod,
			OrderThreshold: e.OrderThreshold,
			UpdatedAt:      e.Time,
		}
	case *domain.MovingAverageUpdatedEvent:
		value := e.Value
		switch e.Period {
		case v.ShortPeriod:
			v.ShortMAValue = &value
			v.UpdatedAt = e.Time
		case v.LongPeriod:
			v.LongMAValue = &value
			v.UpdatedAt = e.Time
		}
		return v
	default:
		return v
	}
}
