package views

import (
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/cryptotrading/internal/trader/domain"
)

// MovingAverageByPeriodView 按周期跟踪两条移动平均的最新值
type MovingAverageByPeriodView struct {
	TraderID     string                   `gorm:"column:trader_id;type:varchar(64);primaryKey" json:"trader_id"`
	BaseAsset    string                   `gorm:"column:base_asset;type:varchar(16)" json:"base_asset"`
	QuoteAsset   string                   `gorm:"column:quote_asset;type:varchar(16)" json:"quote_asset"`
	MAKind       domain.MovingAverageKind `gorm:"column:ma_kind;type:varchar(16);index" json:"ma_kind"`
	ShortPeriod  int                      `gorm:"column:short_period;not null;default:0" json:"short_period"`
	LongPeriod   int                      `gorm:"column:long_period;not null;default:0" json:"long_period"`
	ShortMAValue *decimal.Decimal         `gorm:"column:short_ma_value;type:decimal(32,18)" json:"short_ma_value"`
	LongMAValue  *decimal.Decimal         `gorm:"column:long_ma_value;type:decimal(32,18)" json:"long_ma_value"`
	UpdatedAt    int64                    `gorm:"column:updated_at;not null;default:0" json:"updated_at"`

	// LastOffset mirrors BalanceByPairView.LastOffset.
	LastOffset int64 `gorm:"column:last_offset;not null;default:0" json:"-"`
}

func (MovingAverageByPeriodView) TableName() string { return "moving_average_by_period_views" }

// Apply folds one event into the view and returns the next view state. Updates
// whose recorded kind differs from the view's kind are dropped, so a stray
// event from another trader's stream can never corrupt the view.
func (v MovingAverageByPeriodView) Apply(event domain.TraderEvent) MovingAverageByPeriodView {
	switch e := event.(type) {
	case *domain.TraderCreatedEvent:
		if v.TraderID != "" {
			return v
		}
		return MovingAverageByPeriodView{
			TraderID:    e.TraderID,
			BaseAsset:   e.BaseAsset,
			QuoteAsset:  e.QuoteAsset,
			MAKind:      e.MAKind,
			ShortPeriod: e.ShortPeriod,
			LongPeriod:  e.LongPeriod,
			UpdatedAt:   e.Time,
		}
	case *domain.MovingAverageUpdatedEvent:
		if e.Kind != v.MAKind {
			return v
		}
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
