// internal/service/checkout/infrastructure/adapter/inflight_redis_adapter.go
package adapter

import (
	"context"
	"fmt"
	"time"

	pkgredis "savor/internal/pkg/redis"
	"savor/internal/service/checkout/domain/port"
)

// defaultInflightTTL 兜底过期时间：进程崩溃后闸位不会永久卡死订单。
const defaultInflightTTL = 2 * time.Minute

// RedisInflightGuard 是 port.InflightGuard 的 Redis 实现，
// 用 SET NX + TTL 在多实例部署下保证同一订单只有一次结账在途。
type RedisInflightGuard struct {
	client *pkgredis.Client
	ttl    time.Duration
}

// NewRedisInflightGuard 创建一个 Redis 幂等闸。ttl 为零时使用默认值。
func NewRedisInflightGuard(client *pkgredis.Client, ttl time.Duration) *RedisInflightGuard {
	if ttl == 0 {
		ttl = defaultInflightTTL
	}
	return &RedisInflightGuard{client: client, ttl: ttl}
}

func inflightKey(orderID string) string {
	return fmt.Sprintf("checkout:inflight:{%s}", orderID)
}

// Acquire 实现 port.InflightGuard。
func (g *RedisInflightGuard) Acquire(ctx context.Context, orderID string) error {
	ok, err := g.client.SetNX(ctx, inflightKey(orderID), "1", g.ttl)
	if err != nil {
		return fmt.Errorf("inflight guard failed to acquire: %w", err)
	}
	if !ok {
		return port.ErrCheckoutInFlight
	}
	return nil
}

// Release 实现 port.InflightGuard。
func (g *RedisInflightGuard) Release(ctx context.Context, orderID string) error {
	return g.client.Del(ctx, inflightKey(orderID))
}
