// Package domain 交易者聚合的领域模型：事件溯源状态机、移动平均引擎、交叉决策
package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Event type identifiers double as message routing keys.
const (
	TraderCreatedEventType        = "trader.created"
	CandleAddedEventType          = "trader.candle_added"
	MovingAverageUpdatedEventType = "trader.ma_updated"
	OrderPlacedEventType          = "trader.order_placed"
)

// TraderEvent 交易者领域事件接口
type TraderEvent interface {
	EventType() string
	AggregateID() string
	// OccurredAt is the event time in unix milliseconds.
	OccurredAt() int64
}

// TraderCreatedEvent 建仓事件：账户字段在创建后不可变
type TraderCreatedEvent struct {
	TraderID       string            `json:"trader_id"`
	BaseAsset      string            `json:"base_asset"`
	QuoteAsset     string            `json:"quote_asset"`
	BaseBalance    decimal.Decimal   `json:"base_balance"`
	QuoteBalance   decimal.Decimal   `json:"quote_balance"`
	MAKind         MovingAverageKind `json:"ma_kind"`
	ShortPeriod    int               `json:"short_period"`
	LongPeriod     int               `json:"long_period"`
	OrderThreshold decimal.Decimal   `json:"order_threshold"`
	Time           int64             `json:"time"`
}

func (e *TraderCreatedEvent) EventType() string   { return TraderCreatedEventType }
func (e *TraderCreatedEvent) AggregateID() string { return e.TraderID }
func (e *TraderCreatedEvent) OccurredAt() int64   { return e.Time }

// CandleAddedEvent 记录每一根被接受的蜡烛。回放该事件驱动移动平均引擎，
// 因此预热期内的观测值也能从事件日志完整重建。
type CandleAddedEvent struct {
	TraderID     string          `json:"trader_id"`
	ClosingPrice decimal.Decimal `json:"closing_price"`
	Time         int64           `json:"time"`
}

func (e *CandleAddedEvent) EventType() string   { return CandleAddedEventType }
func (e *CandleAddedEvent) AggregateID() string { return e.TraderID }
func (e *CandleAddedEvent) OccurredAt() int64   { return e.Time }

// MovingAverageUpdatedEvent 移动平均更新事件
type MovingAverageUpdatedEvent struct {
	TraderID string            `json:"trader_id"`
	Period   int               `json:"period"`
	Kind     MovingAverageKind `json:"kind"`
	Value    decimal.Decimal   `json:"value"`
	Time     int64             `json:"time"`
}

func (e *MovingAverageUpdatedEvent) EventType() string   { return MovingAverageUpdatedEventType }
func (e *MovingAverageUpdatedEvent) AggregateID() string { return e.TraderID }
func (e *MovingAverageUpdatedEvent) OccurredAt() int64   { return e.Time }

// OrderPlacedEvent 下单事件；结算发生在事件折叠进账户时
type OrderPlacedEvent struct {
	TraderID     string          `json:"trader_id"`
	Type         OrderType       `json:"type"`
	Quantity     decimal.Decimal `json:"quantity"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
	Time         int64           `json:"time"`
}

func (e *OrderPlacedEvent) EventType() string   { return OrderPlacedEventType }
func (e *OrderPlacedEvent) AggregateID() string { return e.TraderID }
func (e *OrderPlacedEvent) OccurredAt() int64   { return e.Time }

// EventRecord is the serialized form shared by the event store and the message
// stream. One codec keeps the durable log and the projection feed identical.
type EventRecord struct {
	TraderID   string          `json:"trader_id"`
	EventType  string          `json:"event_type"`
	OccurredAt int64           `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// EncodeEvent serializes a domain event into its record form.
func EncodeEvent(event TraderEvent) (EventRecord, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return EventRecord{}, fmt.Errorf("marshal %s: %w", event.EventType(), err)
	}
	return EventRecord{
		TraderID:   event.AggregateID(),
		EventType:  event.EventType(),
		OccurredAt: event.OccurredAt(),
		Payload:    payload,
	}, nil
}

// DecodeEvent deserializes a record back into a domain event.
func DecodeEvent(record EventRecord) (TraderEvent, error) {
	var event TraderEvent
	switch record.EventType {
	case TraderCreatedEventType:
		event = &TraderCreatedEvent{}
	case CandleAddedEventType:
		event = &CandleAddedEvent{}
	case MovingAverageUpdatedEventType:
		event = &MovingAverageUpdatedEvent{}
	case OrderPlacedEventType:
		event = &OrderPlacedEvent{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, record.EventType)
	}
	if err := json.Unmarshal(record.Payload, event); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", record.EventType, err)
	}
	return event, nil
}
