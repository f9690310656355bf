// internal/service/checkout/infrastructure/notify.go
package infrastructure

import (
	"context"

	"savor/internal/pkg/logger"
	"savor/internal/service/checkout/domain"
	"savor/internal/service/checkout/domain/port"
)

// CompositeNotifier 把一个结账事件扇出给多个订阅方（例如 Kafka + websocket 推送）。
// 任一订阅方失败只记录日志，不阻断其余订阅方。
type CompositeNotifier []port.CheckoutNotifier

// Publish 实现 port.CheckoutNotifier。
func (c CompositeNotifier) Publish(ctx context.Context, event *domain.CheckoutEvent) error {
	for _, n := range c {
		if n == nil {
			continue
		}
		if err := n.Publish(ctx, event); err != nil {
			logger.Ctx(ctx).Warn().Err(err).
				Str("order_id", event.OrderID).
				Msg("checkout event subscriber failed")
		}
	}
	return nil
}
