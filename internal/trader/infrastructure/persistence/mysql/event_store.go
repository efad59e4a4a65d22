// Package mysql 交易者服务的 MySQL 持久化：追加式事件日志与视图读模型
package mysql

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/wyfcoding/cryptotrading/internal/trader/domain"
	"gorm.io/gorm"
)

// EventPO 事件日志持久化对象。只追加，自增主键即全局写入顺序。
type EventPO struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	AggregateID string `gorm:"column:aggregate_id;type:varchar(64);index;not null"`
	EventType   string `gorm:"column:event_type;type:varchar(64);not null"`
	Payload     string `gorm:"column:payload;type:json;not null"`
	OccurredAt  int64  `gorm:"column:occurred_at;not null"`
}

func (EventPO) TableName() string { return "trader_events" }

// EventStore 基于 GORM 的事件日志实现
type EventStore struct {
	db *gorm.DB
}

func NewEventStore(db *gorm.DB) *EventStore {
	return &EventStore{db: db}
}

// Append writes the events in emission order inside one transaction.
func (s *EventStore) Append(ctx context.Context, traderID string, events []domain.TraderEvent) error {
	if len(events) == 0 {
		return nil
	}
	pos := make([]*EventPO, 0, len(events))
	for _, event := range events {
		record, err := domain.EncodeEvent(event)
		if err != nil {
			return err
		}
		pos = append(pos, &EventPO{
			AggregateID: traderID,
			EventType:   record.EventType,
			Payload:     string(record.Payload),
			OccurredAt:  record.OccurredAt,
		})
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&pos).Error
	})
}

// Load returns the trader's full history in write order. Rows the current code
// base cannot decode are skipped with a warning so a replay always completes.
func (s *EventStore) Load(ctx context.Context, traderID string) ([]domain.TraderEvent, error) {
	var pos []EventPO
	err := s.db.WithContext(ctx).
		Where("aggregate_id = ?", traderID).
		Order("id ASC").
		Find(&pos).Error
	if err != nil {
		return nil, err
	}

	events := make([]domain.TraderEvent, 0, len(pos))
	for _, po := range pos {
		event, err := domain.DecodeEvent(domain.EventRecord{
			TraderID:   po.AggregateID,
			EventType:  po.EventType,
			OccurredAt: po.OccurredAt,
			Payload:    json.RawMessage(po.Payload),
		})
		if err != nil {
			slog.WarnContext(ctx, "skipping undecodable event row",
				"aggregate_id", po.AggregateID, "event_id", po.ID, "error", err)
			continue
		}
		events = append(events, event)
	}
	return events, nil
}
