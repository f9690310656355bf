// internal/service/checkout/infrastructure/adapter/notification_kafka_adapter.go
package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"savor/internal/pkg/mq"
	"savor/internal/service/checkout/domain"
)

// NotificationKafkaAdapter 实现了 port.CheckoutNotifier 接口，
// 把结账事件发布到消息队列，供通知/对账等下游消费。
type NotificationKafkaAdapter struct {
	writer *kafka.Writer
}

// NewNotificationKafkaAdapter 创建一个新的通知生产者适配器。
func NewNotificationKafkaAdapter(writer *kafka.Writer) *NotificationKafkaAdapter {
	return &NotificationKafkaAdapter{writer: writer}
}

// Publish 实现 port.CheckoutNotifier。
func (a *NotificationKafkaAdapter) Publish(ctx context.Context, event *domain.CheckoutEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal checkout event: %w", err)
	}
	// mq.ProduceMessage 会自动把链路上下文注入消息头
	return mq.ProduceMessage(ctx, a.writer, []byte(event.UserID), eventBytes)
}

// Close 关闭底层的 Kafka writer。
func (a *NotificationKafkaAdapter) Close() error {
	return a.writer.Close()
}
