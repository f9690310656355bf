// internal/service/payment/gateway/outcome.go
package gateway

import (
	"context"
	"math/rand"
	"sync"

	"savor/internal/service/payment/domain"
)

// OutcomeSource 决定一笔处理中交易的模拟结果。
// 把结果策略抽成接口，测试可以注入确定性的实现，
// 生产环境则注入真正的随机源。
type OutcomeSource interface {
	// Approve 返回 true 表示放行（SUCCESS），false 表示拒绝（FAILED）。
	// 返回 error 表示策略自身不可用，网关会按服务不可用处理。
	Approve(ctx context.Context, tx *domain.Transaction) (bool, error)
}

// RandomOutcome 以固定概率放行交易，是生产环境的默认实现。
type RandomOutcome struct {
	rate float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomOutcome 创建一个成功率为 rate 的随机结果源。
func NewRandomOutcome(rate float64, seed int64) *RandomOutcome {
	return &RandomOutcome{
		rate: rate,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

func (r *RandomOutcome) Approve(_ context.Context, _ *domain.Transaction) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64() < r.rate, nil
}

// staticOutcome 恒定放行或恒定拒绝，测试与沙箱用。
type staticOutcome bool

func (s staticOutcome) Approve(_ context.Context, _ *domain.Transaction) (bool, error) {
	return bool(s), nil
}

// AlwaysApprove 恒定放行。
func AlwaysApprove() OutcomeSource { return staticOutcome(true) }

// AlwaysDecline 恒定拒绝。
func AlwaysDecline() OutcomeSource { return staticOutcome(false) }
