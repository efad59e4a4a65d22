// Package consumer 投影消费端：把事件流按序喂给每个读模型折叠
package consumer

import (
	"context"
	"log/slog"
	"time"

	"github.com/wyfcoding/cryptotrading/internal/trader/application"
	"github.com/wyfcoding/cryptotrading/internal/trader/domain"
	"github.com/wyfcoding/cryptotrading/pkg/metrics"
	"github.com/wyfcoding/cryptotrading/pkg/mq"
)

// MessageSource 抽象 kafka 消费端：取消息与提交位点分离，
// 位点只在消息完全处理后提交。
type MessageSource interface {
	FetchMessage(ctx context.Context) (*mq.Message, error)
	CommitMessages(ctx context.Context, msgs ...*mq.Message) error
}

// ProjectionHandler 将一条消息投递给全部三个投影。投影彼此独立，
// 但单个交易者的消息必须按序处理，这由分区键保证。
type ProjectionHandler struct {
	balances       *application.BalanceProjectionService
	byAsset        *application.TraderByAssetProjectionService
	movingAverages *application.MovingAverageProjectionService
	metrics        *metrics.Metrics
	logger         *slog.Logger

	retryBackoff time.Duration
}

func NewProjectionHandler(
	balances *application.BalanceProjectionService,
	byAsset *application.TraderByAssetProjectionService,
	movingAverages *application.MovingAverageProjectionService,
	m *metrics.Metrics,
	logger *slog.Logger,
) *ProjectionHandler {
	return &ProjectionHandler{
		balances:       balances,
		byAsset:        byAsset,
		movingAverages: movingAverages,
		metrics:        m,
		logger:         logger,
		retryBackoff:   time.Second,
	}
}

// Handle decodes one message and folds it into every view. Messages that do
// not decode are logged and dropped; a malformed event must not wedge the
// stream. A repository error is returned so the caller retries the message
// instead of committing past it; the per-row offset watermark makes the
// partially applied retry idempotent.
func (h *ProjectionHandler) Handle(ctx context.Context, msg *mq.Message) error {
	var record domain.EventRecord
	if err := msg.UnmarshalPayload(&record); err != nil {
		h.logger.WarnContext(ctx, "dropping malformed trader event message", "error", err)
		return nil
	}
	event, err := domain.DecodeEvent(record)
	if err != nil {
		h.logger.WarnContext(ctx, "dropping unknown trader event",
			"event_type", record.EventType, "trader_id", record.TraderID, "error", err)
		return nil
	}
	h.metrics.ProjectionEvents.Inc()

	if err := h.balances.Handle(ctx, event, msg.Offset); err != nil {
		return err
	}
	if err := h.byAsset.Handle(ctx, event, msg.Offset); err != nil {
		return err
	}
	return h.movingAverages.Handle(ctx, event, msg.Offset)
}

// Run consumes the stream until the context is done. Each message is retried
// until every fold lands, and its offset is committed only after that, so a
// transient repository failure stalls the partition rather than losing the
// event.
func (h *ProjectionHandler) Run(ctx context.Context, source MessageSource) error {
	for {
		msg, err := source.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			h.logger.ErrorContext(ctx, "failed to fetch trader event message", "error", err)
			if err := h.pause(ctx); err != nil {
				return err
			}
			continue
		}

		for {
			if err := h.Handle(ctx, msg); err == nil {
				break
			} else {
				h.metrics.ProjectionErrors.Inc()
				h.logger.ErrorContext(ctx, "failed to project trader event, retrying",
					"partition", msg.Partition, "offset", msg.Offset, "error", err)
			}
			if err := h.pause(ctx); err != nil {
				return err
			}
		}

		if err := source.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// redelivery after a missed commit is absorbed by the watermark
			h.logger.ErrorContext(ctx, "failed to commit offset",
				"partition", msg.Partition, "offset", msg.Offset, "error", err)
		}
	}
}

func (h *ProjectionHandler) pause(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(h.retryBackoff):
		return nil
	}
}
