// internal/service/checkout/application/dto.go
package application

import (
	"time"

	"savor/internal/service/checkout/domain"
	payment "savor/internal/service/payment/domain"
)

// CheckoutRequest 是结账用例的输入数据。
type CheckoutRequest struct {
	Order         domain.OrderDescriptor `json:"order"`
	PaymentMethod string                 `json:"paymentMethod"`
	Card          payment.CardDetails    `json:"card"`
	PickupTime    time.Time              `json:"pickupTime"`
}

// RetryRequest 是重试用例的输入数据。
type RetryRequest struct {
	OrderID string              `json:"orderId"`
	Card    payment.CardDetails `json:"card"`
}

// CancelRequest 是取消用例的输入数据。
type CancelRequest struct {
	OrderID string `json:"orderId"`
}

// ReceiptView 是渲染收据所需的全部数据。
type ReceiptView struct {
	OrderID       string             `json:"orderId"`
	InvoiceID     string             `json:"invoiceId,omitempty"`
	Items         []domain.OrderItem `json:"items"`
	Subtotal      float64            `json:"subtotal"`
	Tax           float64            `json:"tax"`
	DeliveryFee   float64            `json:"deliveryFee"`
	TotalAmount   float64            `json:"totalAmount"`
	Currency      string             `json:"currency"`
	Payment       *payment.Summary   `json:"payment,omitempty"`
	TransactionID string             `json:"transactionId"`
	CompletedAt   time.Time          `json:"completedAt"`
	PickupTime    time.Time          `json:"pickupTime"`
}

// CheckoutResponse 是结账用例的输出数据。
type CheckoutResponse struct {
	Category         string             `json:"category"`
	Message          string             `json:"message"`
	Kind             domain.OutcomeKind `json:"kind"`
	PaymentSucceeded bool               `json:"paymentSucceeded"`
	OrderPersisted   bool               `json:"orderPersisted"`
	TransactionID    string             `json:"transactionId,omitempty"`
	Errors           map[string]string  `json:"errors,omitempty"`
	Receipt          *ReceiptView       `json:"receipt,omitempty"`
}

// ToCheckoutResponse 把编排器产物转换为对外响应。
func ToCheckoutResponse(outcome *domain.CheckoutOutcome) *CheckoutResponse {
	view := Classify(outcome)
	resp := &CheckoutResponse{
		Category: view.Category,
		Message:  view.Message,
	}
	if outcome == nil {
		return resp
	}

	resp.Kind = outcome.Kind
	resp.PaymentSucceeded = outcome.PaymentSucceeded()
	resp.OrderPersisted = outcome.OrderPersisted()
	resp.Errors = outcome.FieldErrors
	if outcome.Transaction != nil {
		resp.TransactionID = outcome.Transaction.ID
	}

	// 支付成功的两种形态都要能渲染收据，哪怕订单还没落库
	if outcome.PaymentSucceeded() && outcome.Descriptor != nil && outcome.Transaction != nil {
		tx := outcome.Transaction
		desc := outcome.Descriptor
		orderRef := outcome.OrderRef
		if orderRef == "" {
			orderRef = desc.OrderID
		}
		resp.Receipt = &ReceiptView{
			OrderID:       orderRef,
			InvoiceID:     outcome.InvoiceRef,
			Items:         desc.Items,
			Subtotal:      desc.Subtotal,
			Tax:           desc.Tax,
			DeliveryFee:   desc.DeliveryFee,
			TotalAmount:   desc.TotalAmount,
			Currency:      tx.Currency,
			Payment:       tx.Summary,
			TransactionID: tx.ID,
			CompletedAt:   tx.CompletedAt,
			PickupTime:    outcome.PickupTime,
		}
	}
	return resp
}
