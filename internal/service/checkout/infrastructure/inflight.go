// internal/service/checkout/infrastructure/inflight.go
package infrastructure

import (
	"context"
	"sync"

	"savor/internal/service/checkout/domain/port"
)

// MemoryInflightGuard 是进程内的幂等闸实现，单实例部署的默认选择。
type MemoryInflightGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemoryInflightGuard() *MemoryInflightGuard {
	return &MemoryInflightGuard{held: make(map[string]struct{})}
}

// Acquire 实现 port.InflightGuard。
func (g *MemoryInflightGuard) Acquire(_ context.Context, orderID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.held[orderID]; ok {
		return port.ErrCheckoutInFlight
	}
	g.held[orderID] = struct{}{}
	return nil
}

// Release 实现 port.InflightGuard。
func (g *MemoryInflightGuard) Release(_ context.Context, orderID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.held, orderID)
	return nil
}
