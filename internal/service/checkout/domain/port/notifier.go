// internal/service/checkout/domain/port/notifier.go
package port

import (
	"context"

	"savor/internal/service/checkout/domain"
)

// CheckoutNotifier 是结账事件的出站端口。
// 实现可以是 Kafka 生产者、websocket 推送，或二者的组合。
type CheckoutNotifier interface {
	Publish(ctx context.Context, event *domain.CheckoutEvent) error
}
