// Package application 交易者服务应用层：命令编排、查询与事件投影
package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/cryptotrading/internal/trader/domain"
	"github.com/wyfcoding/cryptotrading/pkg/metrics"
)

// CreateTraderCommand 建仓命令
type CreateTraderCommand struct {
	BaseAsset      string
	QuoteAsset     string
	BaseBalance    decimal.Decimal
	QuoteBalance   decimal.Decimal
	MAKind         string
	ShortPeriod    int
	LongPeriod     int
	OrderThreshold decimal.Decimal
}

// AddCandleCommand 喂入一根蜡烛
type AddCandleCommand struct {
	TraderID     string
	ClosingPrice decimal.Decimal
	Time         int64
}

// AddCandleResult reports what a candle produced. An insufficient-funds or
// below-threshold decision is not an error: the command succeeds and
// OrderPlaced stays false.
type AddCandleResult struct {
	OrderPlaced bool
	Order       *OrderDTO
}

// TraderCommandService 是聚合的命令/事件运行时：按身份串行化命令、
// 冷启动时从事件日志回放、提交后把事件发布给投影流。
type TraderCommandService struct {
	store     domain.EventStore
	publisher domain.EventPublisher
	metrics   *metrics.Metrics

	mu      sync.Mutex
	traders map[string]*traderEntry
}

// traderEntry serializes all commands for one identity; the aggregate itself
// does no locking.
type traderEntry struct {
	mu     sync.Mutex
	trader *domain.Trader
}

func NewTraderCommandService(store domain.EventStore, publisher domain.EventPublisher, m *metrics.Metrics) *TraderCommandService {
	return &TraderCommandService{
		store:     store,
		publisher: publisher,
		metrics:   m,
		traders:   make(map[string]*traderEntry),
	}
}

// CreateTrader validates the account parameters, assigns an identity and
// records the creation event.
func (s *TraderCommandService) CreateTrader(ctx context.Context, cmd CreateTraderCommand) (*TraderDTO, error) {
	kind, err := domain.ParseMovingAverageKind(cmd.MAKind)
	if err != nil {
		return nil, err
	}
	if cmd.ShortPeriod <= 0 || cmd.LongPeriod <= 0 {
		return nil, fmt.Errorf("%w: short=%d long=%d", domain.ErrInvalidPeriod, cmd.ShortPeriod, cmd.LongPeriod)
	}
	if cmd.ShortPeriod >= cmd.LongPeriod {
		return nil, fmt.Errorf("%w: short=%d long=%d", domain.ErrInvalidPeriodOrder, cmd.ShortPeriod, cmd.LongPeriod)
	}
	if cmd.BaseBalance.IsNegative() || cmd.QuoteBalance.IsNegative() {
		return nil, domain.ErrNegativeBalance
	}

	traderID := fmt.Sprintf("TRD-%s", ulid.Make())
	entry := s.entry(traderID)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	trader := domain.NewTrader(traderID)
	trader.Create(domain.TraderAccount{
		TraderID:       traderID,
		BaseAsset:      cmd.BaseAsset,
		QuoteAsset:     cmd.QuoteAsset,
		BaseBalance:    cmd.BaseBalance,
		QuoteBalance:   cmd.QuoteBalance,
		MAKind:         kind,
		ShortPeriod:    cmd.ShortPeriod,
		LongPeriod:     cmd.LongPeriod,
		OrderThreshold: cmd.OrderThreshold,
	}, time.Now().UnixMilli())

	if _, err := s.commit(ctx, entry, trader); err != nil {
		return nil, err
	}
	entry.trader = trader
	s.metrics.TradersCreated.Inc()

	account, _ := trader.Account()
	return newTraderDTO(account), nil
}

// AddCandle delivers one candle to the aggregate.
func (s *TraderCommandService) AddCandle(ctx context.Context, cmd AddCandleCommand) (*AddCandleResult, error) {
	entry := s.entry(cmd.TraderID)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	trader, err := s.rehydrate(ctx, entry, cmd.TraderID)
	if err != nil {
		return nil, err
	}

	at := cmd.Time
	if at == 0 {
		at = time.Now().UnixMilli()
	}
	trader.AddCandle(domain.CandleStick{Time: at, ClosingPrice: cmd.ClosingPrice})

	events, err := s.commit(ctx, entry, trader)
	if err != nil {
		return nil, err
	}
	s.metrics.CandlesIngested.Inc()

	result := &AddCandleResult{}
	for _, event := range events {
		if placed, ok := event.(*domain.OrderPlacedEvent); ok {
			result.OrderPlaced = true
			result.Order = &OrderDTO{
				Type:         string(placed.Type),
				Quantity:     placed.Quantity,
				ExchangeRate: placed.ExchangeRate,
				Time:         placed.Time,
			}
			s.metrics.OrdersPlaced.WithLabelValues(string(placed.Type)).Inc()
		}
	}
	return result, nil
}

func (s *TraderCommandService) entry(traderID string) *traderEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.traders[traderID]
	if !ok {
		entry = &traderEntry{}
		s.traders[traderID] = entry
	}
	return entry
}

// rehydrate returns the live aggregate, replaying the full history on a cold
// start. Caller holds the entry lock.
func (s *TraderCommandService) rehydrate(ctx context.Context, entry *traderEntry, traderID string) (*domain.Trader, error) {
	if entry.trader != nil {
		return entry.trader, nil
	}
	history, err := s.store.Load(ctx, traderID)
	if err != nil {
		return nil, fmt.Errorf("load history for %s: %w", traderID, err)
	}
	trader := domain.NewTrader(traderID)
	trader.Replay(history)
	if trader.State() != domain.TraderActive {
		return nil, domain.ErrTraderNotFound
	}
	entry.trader = trader
	return trader, nil
}

// commit appends the uncommitted events and hands them to the projection
// stream. Publish failures are logged, not returned: the durable log is the
// source of truth and the projections catch up from it.
func (s *TraderCommandService) commit(ctx context.Context, entry *traderEntry, trader *domain.Trader) ([]domain.TraderEvent, error) {
	events := trader.UncommittedEvents()
	if len(events) == 0 {
		return nil, nil
	}
	start := time.Now()
	if err := s.store.Append(ctx, trader.ID(), events); err != nil {
		// in-memory state now runs ahead of the log; force a reload next time
		entry.trader = nil
		return nil, fmt.Errorf("append events for %s: %w", trader.ID(), err)
	}
	s.metrics.EventAppendLatency.Observe(time.Since(start).Seconds())
	s.metrics.EventsAppended.Add(float64(len(events)))
	trader.MarkCommitted()

	if err := s.publisher.Publish(ctx, events); err != nil {
		slog.ErrorContext(ctx, "failed to publish trader events",
			"trader_id", trader.ID(), "count", len(events), "error", err)
	}
	return events, nil
}
