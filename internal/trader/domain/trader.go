package domain

import (
	"log/slog"

	"github.com/shopspring/decimal"
)

// TraderState 聚合生命周期：未初始化 -> 激活，无终态
type TraderState int8

const (
	TraderUninitialized TraderState = iota
	TraderActive
)

// TraderAccount 交易者账户状态。余额只会被已结算订单修改，其余字段创建后不可变。
// ShortMAValue/LongMAValue 为 nil 表示指标尚在预热期。
type TraderAccount struct {
	TraderID       string            `json:"trader_id"`
	BaseAsset      string            `json:"base_asset"`
	QuoteAsset     string            `json:"quote_asset"`
	BaseBalance    decimal.Decimal   `json:"base_balance"`
	QuoteBalance   decimal.Decimal   `json:"quote_balance"`
	MAKind         MovingAverageKind `json:"ma_kind"`
	ShortPeriod    int               `json:"short_period"`
	LongPeriod     int               `json:"long_period"`
	ShortMAValue   *decimal.Decimal  `json:"short_ma_value"`
	LongMAValue    *decimal.Decimal  `json:"long_ma_value"`
	OrderThreshold decimal.Decimal   `json:"order_threshold"`
}

func (a TraderAccount) clone() TraderAccount {
	c := a
	if a.ShortMAValue != nil {
		v := *a.ShortMAValue
		c.ShortMAValue = &v
	}
	if a.LongMAValue != nil {
		v := *a.LongMAValue
		c.LongMAValue = &v
	}
	return c
}

// Trader 事件溯源聚合根。命令处理只通过 raise -> Apply 修改状态，
// 因此实时路径与冷启动回放共享同一条折叠路径。
//
// 两个移动平均引擎是派生状态：不随账户快照持久化，完全由回放
// CandleAddedEvent 重建。
type Trader struct {
	id      string
	state   TraderState
	account TraderAccount

	shortMA *MovingAverage
	longMA  *MovingAverage

	pending []TraderEvent
}

// NewTrader returns an Uninitialized aggregate for the given identity.
func NewTrader(id string) *Trader {
	return &Trader{id: id}
}

func (t *Trader) ID() string { return t.id }

func (t *Trader) State() TraderState { return t.state }

// Account returns a copy of the account state; ok is false while the aggregate
// is Uninitialized.
func (t *Trader) Account() (TraderAccount, bool) {
	if t.state != TraderActive {
		return TraderAccount{}, false
	}
	return t.account.clone(), true
}

// Create handles the creation command. Creating an already active trader is an
// idempotent no-op.
func (t *Trader) Create(account TraderAccount, at int64) {
	if t.state == TraderActive {
		return
	}
	t.raise(&TraderCreatedEvent{
		TraderID:       t.id,
		BaseAsset:      account.BaseAsset,
		QuoteAsset:     account.QuoteAsset,
		BaseBalance:    account.BaseBalance,
		QuoteBalance:   account.QuoteBalance,
		MAKind:         account.MAKind,
		ShortPeriod:    account.ShortPeriod,
		LongPeriod:     account.LongPeriod,
		OrderThreshold: account.OrderThreshold,
		Time:           at,
	})
}

// AddCandle handles one price candle: both engines observe the closing price,
// fresh indicator values are recorded, and the crossover rule may place an
// order. Candles arriving before creation are a no-op.
func (t *Trader) AddCandle(candle CandleStick) {
	if t.state != TraderActive {
		return
	}

	prevShort := t.account.ShortMAValue
	prevLong := t.account.LongMAValue

	t.raise(&CandleAddedEvent{
		TraderID:     t.id,
		ClosingPrice: candle.ClosingPrice,
		Time:         candle.Time,
	})

	newShort, shortReady := t.shortMA.Value()
	newLong, longReady := t.longMA.Value()
	if shortReady {
		t.raise(&MovingAverageUpdatedEvent{
			TraderID: t.id,
			Period:   t.shortMA.Period(),
			Kind:     t.account.MAKind,
			Value:    newShort,
			Time:     candle.Time,
		})
	}
	if longReady {
		t.raise(&MovingAverageUpdatedEvent{
			TraderID: t.id,
			Period:   t.longMA.Period(),
			Kind:     t.account.MAKind,
			Value:    newLong,
			Time:     candle.Time,
		})
	}

	// The decision compares the spread before and after this candle, so it
	// needs all four values.
	if prevShort == nil || prevLong == nil || !shortReady || !longReady {
		return
	}
	order, ok := Decide(DecisionInput{
		PreviousShort: *prevShort,
		PreviousLong:  *prevLong,
		UpdatedShort:  newShort,
		UpdatedLong:   newLong,
		Threshold:     t.account.OrderThreshold,
		BaseBalance:   t.account.BaseBalance,
		QuoteBalance:  t.account.QuoteBalance,
		ExchangeRate:  candle.ClosingPrice,
		Time:          candle.Time,
	})
	if !ok {
		return
	}
	t.raise(&OrderPlacedEvent{
		TraderID:     t.id,
		Type:         order.Type,
		Quantity:     order.Quantity,
		ExchangeRate: order.ExchangeRate,
		Time:         order.Time,
	})
}

// Apply folds one event into the aggregate. Anything the current state cannot
// make sense of is ignored, so a replay always runs to completion.
func (t *Trader) Apply(event TraderEvent) {
	switch e := event.(type) {
	case *TraderCreatedEvent:
		t.applyCreated(e)
	case *CandleAddedEvent:
		if t.state != TraderActive {
			return
		}
		t.shortMA.Update(e.ClosingPrice)
		t.longMA.Update(e.ClosingPrice)
	case *MovingAverageUpdatedEvent:
		t.applyMovingAverageUpdated(e)
	case *OrderPlacedEvent:
		t.applyOrderPlaced(e)
	}
}

// Replay rebuilds the aggregate from its ordered event history.
func (t *Trader) Replay(events []TraderEvent) {
	for _, event := range events {
		t.Apply(event)
	}
}

// UncommittedEvents returns the events raised since the last MarkCommitted, in
// emission order.
func (t *Trader) UncommittedEvents() []TraderEvent {
	return t.pending
}

// MarkCommitted drops the uncommitted events after the runtime has persisted
// them.
func (t *Trader) MarkCommitted() {
	t.pending = nil
}

func (t *Trader) raise(event TraderEvent) {
	t.Apply(event)
	t.pending = append(t.pending, event)
}

func (t *Trader) applyCreated(e *TraderCreatedEvent) {
	if t.state == TraderActive { // at-most-once creation
		return
	}
	shortMA, err := NewMovingAverage(e.MAKind, e.ShortPeriod)
	if err != nil {
		slog.Warn("ignoring trader created event", "trader_id", e.TraderID, "error", err)
		return
	}
	longMA, err := NewMovingAverage(e.MAKind, e.LongPeriod)
	if err != nil {
		slog.Warn("ignoring trader created event", "trader_id", e.TraderID, "error", err)
		return
	}
	t.account = TraderAccount{
		TraderID:       e.TraderID,
		BaseAsset:      e.BaseAsset,
		QuoteAsset:     e.QuoteAsset,
		BaseBalance:    e.BaseBalance,
		QuoteBalance:   e.QuoteBalance,
		MAKind:         e.MAKind,
		ShortPeriod:    e.ShortPeriod,
		LongPeriod:     e.LongPeriod,
		OrderThreshold: e.OrderThreshold,
	}
	t.shortMA = shortMA
	t.longMA = longMA
	t.state = TraderActive
}

func (t *Trader) applyMovingAverageUpdated(e *MovingAverageUpdatedEvent) {
	if t.state != TraderActive {
		return
	}
	value := e.Value
	switch e.Period {
	case t.account.ShortPeriod:
		t.account.ShortMAValue = &value
	case t.account.LongPeriod:
		t.account.LongMAValue = &value
	default:
		// not one of this trader's periods
	}
}

func (t *Trader) applyOrderPlaced(e *OrderPlacedEvent) {
	if t.state != TraderActive {
		return
	}
	cost := e.ExchangeRate.Mul(e.Quantity)
	switch e.Type {
	case OrderTypeBuy:
		if t.account.QuoteBalance.LessThan(cost) {
			// would drive the quote balance negative; leave balances untouched
			return
		}
		t.account.BaseBalance = t.account.BaseBalance.Add(e.Quantity)
		t.account.QuoteBalance = t.account.QuoteBalance.Sub(cost)
	case OrderTypeSell:
		if t.account.BaseBalance.LessThan(e.Quantity) {
			return
		}
		t.account.BaseBalance = t.account.BaseBalance.Sub(e.Quantity)
		t.account.QuoteBalance = t.account.QuoteBalance.Add(cost)
	default:
		slog.Warn("unknown order type in event", "trader_id", e.TraderID, "type", string(e.Type))
	}
}
