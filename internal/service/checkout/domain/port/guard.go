// internal/service/checkout/domain/port/guard.go
package port

import (
	"context"
	"errors"
)

// ErrCheckoutInFlight 表示同一订单已有结账流程在进行中。
var ErrCheckoutInFlight = errors.New("a checkout is already in flight for this order")

// InflightGuard 是以 orderID 为键的幂等闸：
// 同一订单同一时刻只允许一个 Process 调用在途。
// 实现可以是进程内的、Redis 的或 ZooKeeper 的。
type InflightGuard interface {
	// Acquire 占用闸位；已被占用时返回 ErrCheckoutInFlight，从不排队等待。
	Acquire(ctx context.Context, orderID string) error

	// Release 释放闸位。释放失败只应记录，不应影响主流程。
	Release(ctx context.Context, orderID string) error
}
