// Package messaging 事件流出口：把已提交事件送上 Kafka
package messaging

import (
	"context"

	"github.com/wyfcoding/cryptotrading/internal/trader/domain"
	"github.com/wyfcoding/cryptotrading/pkg/mq"
)

// TraderEventsTopic 承载全部交易者事件的单一主题。用 trader_id 作消息键，
// 同一交易者的事件落在同一分区，消费端拿到的就是发出顺序。
const TraderEventsTopic = "trader.events"

// KafkaEventPublisher domain.EventPublisher 的 Kafka 实现
type KafkaEventPublisher struct {
	producer *mq.KafkaProducer
}

func NewKafkaEventPublisher(producer *mq.KafkaProducer) domain.EventPublisher {
	return &KafkaEventPublisher{producer: producer}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, events []domain.TraderEvent) error {
	for _, event := range events {
		record, err := domain.EncodeEvent(event)
		if err != nil {
			return err
		}
		if err := p.producer.SendMessage(ctx, TraderEventsTopic, record.TraderID, record); err != nil {
			return err
		}
	}
	return nil
}
