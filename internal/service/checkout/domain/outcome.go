// internal/service/checkout/domain/outcome.go
package domain

import (
	"time"

	payment "savor/internal/service/payment/domain"
)

// OutcomeKind 标记结账流程的最终形态。
// 每种形态只携带对它有效的字段（见各构造函数）。
type OutcomeKind string

const (
	// OutcomeCompleted 支付成功且订单已落库。
	OutcomeCompleted OutcomeKind = "COMPLETED"
	// OutcomePaymentOnly 支付成功但订单未能落库。
	// 支付凭证绝不因此丢失——这是刻意的不对称设计。
	OutcomePaymentOnly OutcomeKind = "PAYMENT_ONLY"
	// OutcomePaymentFailed 网关拒绝了这次支付尝试。
	OutcomePaymentFailed OutcomeKind = "PAYMENT_FAILED"
	// OutcomeCancelled 用户取消了结账。
	OutcomeCancelled OutcomeKind = "CANCELLED"
	// OutcomeValidationFailed 前置校验失败，未触达网关。
	OutcomeValidationFailed OutcomeKind = "VALIDATION_FAILED"
)

// CheckoutOutcome 是编排器的最终产物。
type CheckoutOutcome struct {
	Kind OutcomeKind

	// OrderRef 是后端分配的订单号，仅 Completed 形态有值。
	OrderRef string
	// InvoiceRef 是后端分配的发票号，仅 Completed 形态可能有值。
	InvoiceRef string

	Transaction *payment.Transaction
	Descriptor  *OrderDescriptor
	PickupTime  time.Time

	// FieldErrors 仅 ValidationFailed 形态有值，以字段名为键。
	FieldErrors map[string]string
	// PersistError 仅 PaymentOnly 形态有值，记录落库失败的原因。
	PersistError string
}

// PaymentSucceeded 返回这次结账是否拿到了成功的支付。
func (o *CheckoutOutcome) PaymentSucceeded() bool {
	return o.Kind == OutcomeCompleted || o.Kind == OutcomePaymentOnly
}

// OrderPersisted 返回订单是否已成功落库。
func (o *CheckoutOutcome) OrderPersisted() bool {
	return o.Kind == OutcomeCompleted
}

func NewCompletedOutcome(orderRef, invoiceRef string, tx *payment.Transaction, desc *OrderDescriptor, pickup time.Time) *CheckoutOutcome {
	return &CheckoutOutcome{
		Kind:        OutcomeCompleted,
		OrderRef:    orderRef,
		InvoiceRef:  invoiceRef,
		Transaction: tx,
		Descriptor:  desc,
		PickupTime:  pickup,
	}
}

func NewPaymentOnlyOutcome(tx *payment.Transaction, desc *OrderDescriptor, pickup time.Time, persistErr error) *CheckoutOutcome {
	o := &CheckoutOutcome{
		Kind:        OutcomePaymentOnly,
		Transaction: tx,
		Descriptor:  desc,
		PickupTime:  pickup,
	}
	if persistErr != nil {
		o.PersistError = persistErr.Error()
	}
	return o
}

func NewPaymentFailedOutcome(tx *payment.Transaction) *CheckoutOutcome {
	return &CheckoutOutcome{Kind: OutcomePaymentFailed, Transaction: tx}
}

func NewCancelledOutcome(tx *payment.Transaction) *CheckoutOutcome {
	return &CheckoutOutcome{Kind: OutcomeCancelled, Transaction: tx}
}

func NewValidationFailedOutcome(fieldErrors map[string]string) *CheckoutOutcome {
	return &CheckoutOutcome{Kind: OutcomeValidationFailed, FieldErrors: fieldErrors}
}
