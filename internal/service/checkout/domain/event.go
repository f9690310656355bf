// internal/service/checkout/domain/event.go
package domain

import "time"

// CheckoutEvent 是对外广播的结账事件。
// 由编排器发布，展示层（websocket 推送、消息消费者）各自订阅，
// 核心不感知任何呈现细节。
type CheckoutEvent struct {
	UserID        string      `json:"userId"`
	OrderID       string      `json:"orderId"`
	Kind          OutcomeKind `json:"kind"`
	TransactionID string      `json:"transactionId,omitempty"`
	Message       string      `json:"message"`
	At            time.Time   `json:"at"`
}
