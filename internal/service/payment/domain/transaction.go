// internal/service/payment/domain/transaction.go
package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTerminalState 表示交易已处于终态，无法再推进。
	ErrTerminalState = errors.New("transaction is in a terminal state")
	// ErrNotRetryable 表示交易不处于可重试状态（只有 FAILED 可以重试）。
	ErrNotRetryable = errors.New("only failed transactions can be retried")
)

// Transaction 是一次支付尝试的聚合根。
// 金额、币种、订单号在初始化后不可变；状态只沿生命周期图前向推进。
// 原始卡片要素永远不会出现在这个结构上，成功时只保留掩码摘要。
type Transaction struct {
	ID          string
	OrderID     string
	Amount      float64
	Currency    string
	Method      Method
	Status      Status
	CreatedAt   time.Time
	CompletedAt time.Time // 进入终态的时间
	// ErrorMessage 只在 FAILED 终态出现，取值来自固定的拒绝原因集合。
	ErrorMessage string
	// Summary 只在 SUCCESS 终态出现。
	Summary *Summary
	// PickupTime 由编排器在支付成功后附加，用于收据展示。
	PickupTime time.Time
}

// NewTransaction 创建一笔新交易。
// 缺少订单号或金额非正数属于调用方错误，直接返回 error。
func NewTransaction(id, orderID string, amount float64, currency string, method Method) (*Transaction, error) {
	if orderID == "" {
		return nil, errors.New("cannot initialize transaction without an order id")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("cannot initialize transaction with non-positive amount %.2f", amount)
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Transaction{
		ID:        id,
		OrderID:   orderID,
		Amount:    amount,
		Currency:  currency,
		Method:    method,
		Status:    StatusInitialized,
		CreatedAt: time.Now(),
	}, nil
}

// DefaultCurrency 是描述符未指定币种时的默认值。
const DefaultCurrency = "INR"

// MarkProcessing 将交易置为处理中。
func (t *Transaction) MarkProcessing() error {
	return t.moveTo(StatusProcessing)
}

// MarkSucceeded 将交易置为成功终态，并记录掩码摘要。
func (t *Transaction) MarkSucceeded(summary *Summary) error {
	if err := t.moveTo(StatusSuccess); err != nil {
		return err
	}
	t.Summary = summary
	t.CompletedAt = time.Now()
	return nil
}

// MarkFailed 将交易置为失败终态，并附加拒绝原因。
func (t *Transaction) MarkFailed(reason string) error {
	if err := t.moveTo(StatusFailed); err != nil {
		return err
	}
	t.ErrorMessage = reason
	t.CompletedAt = time.Now()
	return nil
}

// MarkCancelled 将交易置为取消终态。
// 只有 INITIALIZED 或 PROCESSING 的交易可以取消。
func (t *Transaction) MarkCancelled() error {
	if err := t.moveTo(StatusCancelled); err != nil {
		return err
	}
	t.CompletedAt = time.Now()
	return nil
}

// Reinitialize 是调用方显式重试的入口：在同一笔交易身份上开启新的生命周期。
// 只允许从 FAILED 重入 INITIALIZED；交易号保持不变。
func (t *Transaction) Reinitialize() error {
	if t.Status != StatusFailed {
		return ErrNotRetryable
	}
	t.Status = StatusInitialized
	t.ErrorMessage = ""
	t.Summary = nil
	t.CompletedAt = time.Time{}
	return nil
}

func (t *Transaction) moveTo(next Status) error {
	if t.Status.Terminal() {
		return fmt.Errorf("%w: %s", ErrTerminalState, t.Status)
	}
	if !t.Status.canMoveTo(next) {
		return fmt.Errorf("illegal transition %s -> %s", t.Status, next)
	}
	t.Status = next
	return nil
}
