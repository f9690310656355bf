package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"savor/internal/service/checkout/domain"
	payment "savor/internal/service/payment/domain"
)

func TestClassify(t *testing.T) {
	failedTx := &payment.Transaction{
		ID:           "TXN_ABC123DEF",
		Status:       payment.StatusFailed,
		ErrorMessage: "Your card has insufficient funds.",
	}

	cases := []struct {
		name        string
		outcome     *domain.CheckoutOutcome
		category    string
		wantMessage string
	}{
		{
			name:     "completed maps to success",
			outcome:  domain.NewCompletedOutcome("o-1", "inv-1", nil, nil, time.Time{}),
			category: CategorySuccess,
		},
		{
			name:     "payment only maps to pending, never success",
			outcome:  domain.NewPaymentOnlyOutcome(nil, nil, time.Time{}, nil),
			category: CategoryPending,
		},
		{
			name:        "declined surfaces the gateway reason",
			outcome:     domain.NewPaymentFailedOutcome(failedTx),
			category:    CategoryDeclined,
			wantMessage: "Your card has insufficient funds.",
		},
		{
			name:        "declined without a reason falls back to a generic message",
			outcome:     domain.NewPaymentFailedOutcome(nil),
			category:    CategoryDeclined,
			wantMessage: "There was an issue processing your payment. Please try again.",
		},
		{
			name:     "cancelled maps to declined",
			outcome:  domain.NewCancelledOutcome(nil),
			category: CategoryDeclined,
		},
		{
			name:     "validation failure",
			outcome:  domain.NewValidationFailedOutcome(map[string]string{"cvv": "CVV is required"}),
			category: CategoryValidationError,
		},
		{
			name:     "nil outcome is a system error",
			outcome:  nil,
			category: CategorySystemError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			view := Classify(tc.outcome)
			assert.Equal(t, tc.category, view.Category)
			assert.NotEmpty(t, view.Message)
			if tc.wantMessage != "" {
				assert.Equal(t, tc.wantMessage, view.Message)
			}
		})
	}
}

func TestToCheckoutResponse_ReceiptOnPaymentOnly(t *testing.T) {
	tx := &payment.Transaction{
		ID:       "TXN_ABC123DEF",
		Status:   payment.StatusSuccess,
		Currency: "INR",
		Summary:  &payment.Summary{Method: payment.MethodCreditCard, Brand: payment.BrandVisa, Last4: "1111"},
	}
	desc := &domain.OrderDescriptor{OrderID: "order-1", UserID: "user-1", TotalAmount: 499}

	// 落库失败时收据仍然可渲染，订单号退回到上游描述符
	resp := ToCheckoutResponse(domain.NewPaymentOnlyOutcome(tx, desc, time.Now(), nil))
	assert.True(t, resp.PaymentSucceeded)
	assert.False(t, resp.OrderPersisted)
	if assert.NotNil(t, resp.Receipt) {
		assert.Equal(t, "order-1", resp.Receipt.OrderID)
		assert.Equal(t, "TXN_ABC123DEF", resp.Receipt.TransactionID)
		assert.Equal(t, "1111", resp.Receipt.Payment.Last4)
	}

	// 完整成功时使用后端分配的订单号
	resp = ToCheckoutResponse(domain.NewCompletedOutcome("backend-order-42", "INV-42", tx, desc, time.Now()))
	assert.True(t, resp.OrderPersisted)
	if assert.NotNil(t, resp.Receipt) {
		assert.Equal(t, "backend-order-42", resp.Receipt.OrderID)
		assert.Equal(t, "INV-42", resp.Receipt.InvoiceID)
	}

	// 校验失败没有收据，只有字段错误
	resp = ToCheckoutResponse(domain.NewValidationFailedOutcome(map[string]string{"cvv": "CVV is required"}))
	assert.Nil(t, resp.Receipt)
	assert.Equal(t, "CVV is required", resp.Errors["cvv"])
}
