// internal/service/checkout/infrastructure/adapter/inflight_zk_adapter.go
package adapter

import (
	"context"
	"fmt"

	"github.com/go-zookeeper/zk"

	"savor/internal/service/checkout/domain/port"
)

const inflightRoot = "/checkout_inflight" // 所有在途闸位的根节点

// ZkInflightGuard 是 port.InflightGuard 的 ZooKeeper 实现。
// 每个订单对应一个临时节点：节点已存在即判定在途，从不排队等待；
// 会话断开时临时节点自动清理，天然具备崩溃兜底。
type ZkInflightGuard struct {
	conn *zk.Conn
}

// NewZkInflightGuard 创建一个 ZooKeeper 幂等闸，并确保根节点存在。
func NewZkInflightGuard(conn *zk.Conn) (*ZkInflightGuard, error) {
	exists, _, err := conn.Exists(inflightRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to check inflight root node: %w", err)
	}
	if !exists {
		_, err := conn.Create(inflightRoot, []byte(""), 0, zk.WorldACL(zk.PermAll))
		if err != nil && err != zk.ErrNodeExists {
			return nil, fmt.Errorf("failed to create inflight root node: %w", err)
		}
	}
	return &ZkInflightGuard{conn: conn}, nil
}

func (g *ZkInflightGuard) nodePath(orderID string) string {
	return inflightRoot + "/" + orderID
}

// Acquire 实现 port.InflightGuard。
func (g *ZkInflightGuard) Acquire(_ context.Context, orderID string) error {
	_, err := g.conn.Create(g.nodePath(orderID), []byte(""), zk.FlagEphemeral, zk.WorldACL(zk.PermAll))
	if err == zk.ErrNodeExists {
		return port.ErrCheckoutInFlight
	}
	if err != nil {
		return fmt.Errorf("inflight guard failed to acquire: %w", err)
	}
	return nil
}

// Release 实现 port.InflightGuard。
func (g *ZkInflightGuard) Release(_ context.Context, orderID string) error {
	err := g.conn.Delete(g.nodePath(orderID), -1)
	if err != nil && err != zk.ErrNoNode {
		return fmt.Errorf("inflight guard failed to release: %w", err)
	}
	return nil
}
