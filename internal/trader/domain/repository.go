package domain

import "context"

// EventStore 追加式事件日志。Append 保序写入，Load 按写入顺序返回全量历史。
type EventStore interface {
	Append(ctx context.Context, traderID string, events []TraderEvent) error
	Load(ctx context.Context, traderID string) ([]TraderEvent, error)
}

// EventPublisher 将已提交事件按发出顺序投递给投影流。
type EventPublisher interface {
	Publish(ctx context.Context, events []TraderEvent) error
}
