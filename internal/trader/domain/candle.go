package domain

import "github.com/shopspring/decimal"

// OrderType 订单方向
type OrderType string

const (
	OrderTypeBuy  OrderType = "BUY"
	OrderTypeSell OrderType = "SELL"
)

// CandleStick is one periodic price sample. Only the closing price drives the
// indicators; timestamps are unix milliseconds.
type CandleStick struct {
	Time         int64           `json:"time"`
	ClosingPrice decimal.Decimal `json:"closing_price"`
}

// Order is the payload of an OrderPlacedEvent. It is never stored on its own:
// settlement happens when the event folds into the account.
type Order struct {
	Type         OrderType       `json:"type"`
	Quantity     decimal.Decimal `json:"quantity"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
	Time         int64           `json:"time"`
}
