package application

import (
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/cryptotrading/internal/trader/domain"
)

// TraderDTO 聚合状态的对外形态
type TraderDTO struct {
	TraderID       string           `json:"trader_id"`
	BaseAsset      string           `json:"base_asset"`
	QuoteAsset     string           `json:"quote_asset"`
	BaseBalance    decimal.Decimal  `json:"base_balance"`
	QuoteBalance   decimal.Decimal  `json:"quote_balance"`
	MAKind         string           `json:"ma_kind"`
	ShortPeriod    int              `json:"short_period"`
	LongPeriod     int              `json:"long_period"`
	ShortMAValue   *decimal.Decimal `json:"short_ma_value"`
	LongMAValue    *decimal.Decimal `json:"long_ma_value"`
	OrderThreshold decimal.Decimal  `json:"order_threshold"`
}

// OrderDTO 已下订单的对外形态
type OrderDTO struct {
	Type         string          `json:"type"`
	Quantity     decimal.Decimal `json:"quantity"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
	Time         int64           `json:"time"`
}

func newTraderDTO(account domain.TraderAccount) *TraderDTO {
	return &TraderDTO{
		TraderID:       account.TraderID,
		BaseAsset:      account.BaseAsset,
		QuoteAsset:     account.QuoteAsset,
		BaseBalance:    account.BaseBalance,
		QuoteBalance:   account.QuoteBalance,
		MAKind:         string(account.MAKind),
		ShortPeriod:    account.ShortPeriod,
		LongPeriod:     account.LongPeriod,
		ShortMAValue:   account.ShortMAValue,
		LongMAValue:    account.LongMAValue,
		OrderThreshold: account.OrderThreshold,
	}
}
