// Package views 读模型：对同一交易者事件流的三个独立纯折叠。
// 视图从不重跑业务逻辑，只对既成事实重新成形。
package views

import (
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/cryptotrading/internal/trader/domain"
)

// BalanceByPairView 按资产对跟踪余额与订单计数
type BalanceByPairView struct {
	TraderID     string          `gorm:"column:trader_id;type:varchar(64);primaryKey" json:"trader_id"`
	BaseAsset    string          `gorm:"column:base_asset;type:varchar(16);index:idx_balance_pair" json:"base_asset"`
	QuoteAsset   string          `gorm:"column:quote_asset;type:varchar(16);index:idx_balance_pair" json:"quote_asset"`
	BaseBalance  decimal.Decimal `gorm:"column:base_balance;type:decimal(32,18);not null" json:"base_balance"`
	QuoteBalance decimal.Decimal `gorm:"column:quote_balance;type:decimal(32,18);not null" json:"quote_balance"`
	LastRate     decimal.Decimal `gorm:"column:last_rate;type:decimal(32,18)" json:"last_rate"`
	BuyOrders    int64           `gorm:"column:buy_orders;not null;default:0" json:"buy_orders"`
	SellOrders   int64           `gorm:"column:sell_orders;not null;default:0" json:"sell_orders"`
	UpdatedAt    int64           `gorm:"column:updated_at;not null;default:0" json:"updated_at"`

	// LastOffset is the stream offset of the last folded event. A trader's
	// events all live on one partition, so it is monotonic per row and lets a
	// redelivered message be recognized and skipped.
	LastOffset int64 `gorm:"column:last_offset;not null;default:0" json:"-"`
}

func (BalanceByPairView) TableName() string { return "balance_by_pair_views" }

// Apply folds one event into the view and returns the next view state. The
// zero value is the implicit default for a trader's first event.
func (v BalanceByPairView) Apply(event domain.TraderEvent) BalanceByPairView {
	switch e := event.(type) {
	case *domain.TraderCreatedEvent:
		if v.TraderID != "" { // seed at most once
			return v
		}
		return BalanceByPairView{
			TraderID:     e.TraderID,
			BaseAsset:    e.BaseAsset,
			QuoteAsset:   e.QuoteAsset,
			BaseBalance:  e.BaseBalance,
			QuoteBalance: e.QuoteBalance,
			UpdatedAt:    e.Time,
		}
	case *domain.OrderPlacedEvent:
		v.LastRate = e.ExchangeRate
		v.UpdatedAt = e.Time
		cost := e.ExchangeRate.Mul(e.Quantity)
		switch e.Type {
		case domain.OrderTypeBuy:
			v.BuyOrders++
			if !v.QuoteBalance.LessThan(cost) {
				v.BaseBalance = v.BaseBalance.Add(e.Quantity)
				v.QuoteBalance = v.QuoteBalance.Sub(cost)
			}
		case domain.OrderTypeSell:
			v.SellOrders++
			if !v.BaseBalance.LessThan(e.Quantity) {
				v.BaseBalance = v.BaseBalance.Sub(e.Quantity)
				v.QuoteBalance = v.QuoteBalance.Add(cost)
			}
		default:
			slog.Warn("unknown order type in balance view", "trader_id", e.TraderID, "type", string(e.Type))
		}
		return v
	default:
		// moving average and candle events do not touch balances
		return v
	}
}
