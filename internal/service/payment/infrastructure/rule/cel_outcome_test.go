package rule

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"savor/internal/service/payment/domain"
	"savor/internal/service/payment/gateway"
)

func ruleTx(amount float64) *domain.Transaction {
	return &domain.Transaction{
		ID:      "TXN_RULETEST1",
		OrderID: "order-1",
		Amount:  amount,
		Method:  domain.MethodCreditCard,
	}
}

func TestCELOutcomeAdapter_AmountRule(t *testing.T) {
	adapter, err := NewCELOutcomeAdapter("amount < 1000.0", nil)
	require.NoError(t, err)

	approved, err := adapter.Approve(context.Background(), ruleTx(499.0))
	require.NoError(t, err)
	assert.True(t, approved)

	approved, err = adapter.Approve(context.Background(), ruleTx(2500.0))
	require.NoError(t, err)
	assert.False(t, approved)
}

func TestCELOutcomeAdapter_MethodRule(t *testing.T) {
	adapter, err := NewCELOutcomeAdapter(`method != "CASH_ON_DELIVERY"`, nil)
	require.NoError(t, err)

	tx := ruleTx(499.0)
	tx.Method = domain.MethodCashOnDelivery
	approved, err := adapter.Approve(context.Background(), tx)
	require.NoError(t, err)
	assert.False(t, approved)
}

func TestCELOutcomeAdapter_ChainsToNextSource(t *testing.T) {
	// 规则放行后交给下一级策略裁决
	adapter, err := NewCELOutcomeAdapter("amount < 1000.0", gateway.AlwaysDecline())
	require.NoError(t, err)

	approved, err := adapter.Approve(context.Background(), ruleTx(499.0))
	require.NoError(t, err)
	assert.False(t, approved, "next source should have the final say")

	// 规则拒绝时短路，不再咨询下一级
	adapter, err = NewCELOutcomeAdapter("amount < 1000.0", gateway.AlwaysApprove())
	require.NoError(t, err)
	approved, err = adapter.Approve(context.Background(), ruleTx(2500.0))
	require.NoError(t, err)
	assert.False(t, approved)
}

func TestNewCELOutcomeAdapter_RejectsBadRules(t *testing.T) {
	_, err := NewCELOutcomeAdapter("amount <<< 1.0", nil)
	assert.Error(t, err, "syntax errors must surface at compile time")

	_, err = NewCELOutcomeAdapter("amount + 1.0", nil)
	assert.Error(t, err, "non-boolean rules must be rejected")

	_, err = NewCELOutcomeAdapter("unknown_var == 1", nil)
	assert.Error(t, err)
}
