// internal/service/payment/domain/status.go
package domain

// Status 定义了一笔交易的生命周期状态。
type Status string

const (
	StatusInitialized Status = "INITIALIZED" // 已初始化，等待处理
	StatusProcessing  Status = "PROCESSING"  // 网关处理中
	StatusSuccess     Status = "SUCCESS"     // 终态：支付成功
	StatusFailed      Status = "FAILED"      // 终态：支付失败（业务拒绝或服务不可用）
	StatusCancelled   Status = "CANCELLED"   // 终态：用户取消
)

// Terminal 返回该状态是否为终态。
// 终态没有前向迁移；唯一的例外是调用方显式重试（FAILED -> INITIALIZED），
// 由 Transaction.Reinitialize 承载。
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusCancelled
}

// 前向迁移表。状态只能沿此表推进。
var transitions = map[Status][]Status{
	StatusInitialized: {StatusProcessing, StatusCancelled},
	StatusProcessing:  {StatusSuccess, StatusFailed, StatusCancelled},
}

func (s Status) canMoveTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
