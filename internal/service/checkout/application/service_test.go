package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"savor/internal/service/checkout/domain"
	"savor/internal/service/checkout/domain/port"
	"savor/internal/service/checkout/infrastructure"
	payment "savor/internal/service/payment/domain"
	"savor/internal/service/payment/gateway"
)

var testTracer = otel.Tracer("checkout-test")

// fakeCartBackend 用函数字段脚本化持久化边界的行为。
type fakeCartBackend struct {
	findFn   func(ctx context.Context, userID string) (*domain.Cart, error)
	commitFn func(ctx context.Context, cartID string, commit port.CheckoutCommit) (*port.CommitResult, error)

	mu      sync.Mutex
	commits []port.CheckoutCommit
}

func (f *fakeCartBackend) FindActiveCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if f.findFn != nil {
		return f.findFn(ctx, userID)
	}
	return &domain.Cart{ID: "7", UserID: userID}, nil
}

func (f *fakeCartBackend) CommitCheckout(ctx context.Context, cartID string, commit port.CheckoutCommit) (*port.CommitResult, error) {
	f.mu.Lock()
	f.commits = append(f.commits, commit)
	f.mu.Unlock()
	if f.commitFn != nil {
		return f.commitFn(ctx, cartID, commit)
	}
	return &port.CommitResult{OrderID: "backend-order-42", InvoiceID: "INV-42"}, nil
}

func (f *fakeCartBackend) commitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.commits)
}

// scriptedOutcome 按脚本依次裁决，脚本耗尽后恒放行。
type scriptedOutcome struct {
	mu      sync.Mutex
	results []bool
}

func (s *scriptedOutcome) Approve(context.Context, *payment.Transaction) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.results) == 0 {
		return true, nil
	}
	next := s.results[0]
	s.results = s.results[1:]
	return next, nil
}

// recordingNotifier 收集发布出去的结账事件。
type recordingNotifier struct {
	mu     sync.Mutex
	events []*domain.CheckoutEvent
}

func (r *recordingNotifier) Publish(_ context.Context, event *domain.CheckoutEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func newTestService(cfg gateway.Config, outcomes gateway.OutcomeSource, cart port.CartBackend, notifier port.CheckoutNotifier) *CheckoutApplicationService {
	if cfg.ProcessTimeout == 0 {
		cfg.ProcessTimeout = time.Second
	}
	sim := gateway.NewSimulator(cfg, outcomes, testTracer)
	return NewCheckoutApplicationService(sim, cart, infrastructure.NewMemoryInflightGuard(), notifier, testTracer)
}

func validRequest() *CheckoutRequest {
	return &CheckoutRequest{
		Order: domain.OrderDescriptor{
			OrderID:     "order-1",
			UserID:      "user-1",
			Items:       []domain.OrderItem{{ID: "i1", Name: "Paneer Tikka", Price: 220, Quantity: 2}},
			Subtotal:    440,
			Tax:         22,
			DeliveryFee: 37,
			TotalAmount: 499,
		},
		PaymentMethod: "credit_card",
		Card:          payment.TestCard,
		PickupTime:    time.Now().Add(time.Hour),
	}
}

func TestCheckout_Completed(t *testing.T) {
	cart := &fakeCartBackend{}
	notifier := &recordingNotifier{}
	svc := newTestService(gateway.Config{}, gateway.AlwaysApprove(), cart, notifier)

	outcome, err := svc.Checkout(context.Background(), validRequest())
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeCompleted, outcome.Kind)

	assert.True(t, outcome.PaymentSucceeded())
	assert.True(t, outcome.OrderPersisted())
	assert.Equal(t, "backend-order-42", outcome.OrderRef)
	assert.Equal(t, "INV-42", outcome.InvoiceRef)
	require.NotNil(t, outcome.Transaction)
	assert.Equal(t, payment.StatusSuccess, outcome.Transaction.Status)
	assert.Equal(t, "1111", outcome.Transaction.Summary.Last4)

	// 落库载荷携带交易号与支付状态
	require.Equal(t, 1, cart.commitCount())
	commit := cart.commits[0]
	assert.Equal(t, outcome.Transaction.ID, commit.PaymentID)
	assert.Equal(t, string(payment.StatusSuccess), commit.PaymentStatus)
	assert.Equal(t, 499.0, commit.TotalAmount)

	// 成功后会话即结束，重试无处可去
	_, err = svc.Retry(context.Background(), "order-1", payment.TestCard)
	assert.ErrorIs(t, err, ErrNoSuchCheckout)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, domain.OutcomeCompleted, notifier.events[0].Kind)
	assert.Equal(t, "user-1", notifier.events[0].UserID)
}

func TestCheckout_PaymentOnlyOnCommitFailure(t *testing.T) {
	cart := &fakeCartBackend{
		commitFn: func(context.Context, string, port.CheckoutCommit) (*port.CommitResult, error) {
			return nil, errors.New("order backend is down")
		},
	}
	svc := newTestService(gateway.Config{}, gateway.AlwaysApprove(), cart, nil)

	outcome, err := svc.Checkout(context.Background(), validRequest())
	require.NoError(t, err)
	require.Equal(t, domain.OutcomePaymentOnly, outcome.Kind)

	// 支付凭证完整保留，但绝不能谎称订单已落库
	assert.True(t, outcome.PaymentSucceeded())
	assert.False(t, outcome.OrderPersisted())
	assert.Equal(t, "order backend is down", outcome.PersistError)
	require.NotNil(t, outcome.Transaction)
	assert.Equal(t, payment.StatusSuccess, outcome.Transaction.Status)
	assert.NotEmpty(t, outcome.Transaction.ID)
	require.NotNil(t, outcome.Descriptor)
	assert.Equal(t, "order-1", outcome.Descriptor.OrderID)
}

func TestCheckout_PaymentOnlyWhenNoCart(t *testing.T) {
	cart := &fakeCartBackend{
		findFn: func(context.Context, string) (*domain.Cart, error) {
			return nil, domain.ErrNoActiveCart
		},
	}
	svc := newTestService(gateway.Config{}, gateway.AlwaysApprove(), cart, nil)

	outcome, err := svc.Checkout(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomePaymentOnly, outcome.Kind)
	assert.Equal(t, 0, cart.commitCount())
}

func TestCheckout_PickupTimeValidation(t *testing.T) {
	cart := &fakeCartBackend{}
	svc := newTestService(gateway.Config{}, gateway.AlwaysApprove(), cart, nil)

	req := validRequest()
	req.PickupTime = time.Time{}
	outcome, err := svc.Checkout(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeValidationFailed, outcome.Kind)
	assert.Equal(t, "Please select a pickup time", outcome.FieldErrors["pickupTime"])

	req = validRequest()
	req.PickupTime = time.Now().Add(-time.Hour)
	outcome, err = svc.Checkout(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeValidationFailed, outcome.Kind)
	assert.Equal(t, "Pickup time cannot be in the past", outcome.FieldErrors["pickupTime"])

	// 前置校验失败不触达网关，也不触达持久化边界
	assert.Nil(t, outcome.Transaction)
	assert.Equal(t, 0, cart.commitCount())
}

func TestCheckout_InstrumentValidation(t *testing.T) {
	svc := newTestService(gateway.Config{}, gateway.AlwaysApprove(), &fakeCartBackend{}, nil)

	req := validRequest()
	req.Card = payment.CardDetails{CardNumber: "123", ExpiryDate: "13/20", CVV: "12"}
	outcome, err := svc.Checkout(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeValidationFailed, outcome.Kind)
	assert.Len(t, outcome.FieldErrors, 4)
	assert.Nil(t, outcome.Transaction)
}

func TestCheckout_RejectsBadCallerInput(t *testing.T) {
	svc := newTestService(gateway.Config{}, gateway.AlwaysApprove(), &fakeCartBackend{}, nil)

	req := validRequest()
	req.PaymentMethod = "BARTER"
	_, err := svc.Checkout(context.Background(), req)
	assert.Error(t, err)

	req = validRequest()
	req.Order.OrderID = ""
	_, err = svc.Checkout(context.Background(), req)
	assert.Error(t, err)

	req = validRequest()
	req.Order.TotalAmount = 0
	_, err = svc.Checkout(context.Background(), req)
	assert.Error(t, err)
}

func TestRetry_ReusesTransactionIdentity(t *testing.T) {
	cart := &fakeCartBackend{}
	outcomes := &scriptedOutcome{results: []bool{false, true}}
	svc := newTestService(gateway.Config{}, outcomes, cart, nil)

	outcome, err := svc.Checkout(context.Background(), validRequest())
	require.NoError(t, err)
	require.Equal(t, domain.OutcomePaymentFailed, outcome.Kind)
	require.NotNil(t, outcome.Transaction)
	firstID := outcome.Transaction.ID
	assert.NotEmpty(t, outcome.Transaction.ErrorMessage)
	assert.Equal(t, 0, cart.commitCount())

	retried, err := svc.Retry(context.Background(), "order-1", payment.TestCard)
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeCompleted, retried.Kind)
	assert.Equal(t, firstID, retried.Transaction.ID, "retry must reuse the same transaction identity")
	assert.Equal(t, 1, cart.commitCount())
}

func TestRetry_UnknownOrder(t *testing.T) {
	svc := newTestService(gateway.Config{}, gateway.AlwaysApprove(), &fakeCartBackend{}, nil)

	_, err := svc.Retry(context.Background(), "never-seen", payment.TestCard)
	assert.ErrorIs(t, err, ErrNoSuchCheckout)
}

func TestRetry_ValidatesInstrumentAgain(t *testing.T) {
	svc := newTestService(gateway.Config{}, gateway.AlwaysDecline(), &fakeCartBackend{}, nil)

	outcome, err := svc.Checkout(context.Background(), validRequest())
	require.NoError(t, err)
	require.Equal(t, domain.OutcomePaymentFailed, outcome.Kind)

	retried, err := svc.Retry(context.Background(), "order-1", payment.CardDetails{})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeValidationFailed, retried.Kind)
}

func TestCheckout_ConcurrentDuplicateRejected(t *testing.T) {
	cfg := gateway.Config{ProcessDelay: 150 * time.Millisecond, ProcessTimeout: time.Second}
	svc := newTestService(cfg, gateway.AlwaysApprove(), &fakeCartBackend{}, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		outcome, err := svc.Checkout(context.Background(), validRequest())
		assert.NoError(t, err)
		assert.Equal(t, domain.OutcomeCompleted, outcome.Kind)
	}()

	time.Sleep(30 * time.Millisecond)
	_, err := svc.Checkout(context.Background(), validRequest())
	assert.ErrorIs(t, err, port.ErrCheckoutInFlight)
	<-done
}

func TestRequestCancel_Idle(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := newTestService(gateway.Config{}, gateway.AlwaysDecline(), &fakeCartBackend{}, notifier)

	outcome, err := svc.Checkout(context.Background(), validRequest())
	require.NoError(t, err)
	require.Equal(t, domain.OutcomePaymentFailed, outcome.Kind)

	cancelled, err := svc.RequestCancel(context.Background(), "order-1")
	require.NoError(t, err)
	require.NotNil(t, cancelled)
	assert.Equal(t, domain.OutcomeCancelled, cancelled.Kind)

	// 取消后会话结束
	_, err = svc.Retry(context.Background(), "order-1", payment.TestCard)
	assert.ErrorIs(t, err, ErrNoSuchCheckout)
}

func TestRequestCancel_UnknownOrder(t *testing.T) {
	svc := newTestService(gateway.Config{}, gateway.AlwaysApprove(), &fakeCartBackend{}, nil)

	_, err := svc.RequestCancel(context.Background(), "never-seen")
	assert.ErrorIs(t, err, ErrNoSuchCheckout)
}

// 取消赶上在途支付：即便网关解析出 SUCCESS，结果也必须是 CANCELLED，
// 订单绝不落库。
func TestRequestCancel_DuringProcessing(t *testing.T) {
	cart := &fakeCartBackend{}
	cfg := gateway.Config{ProcessDelay: 150 * time.Millisecond, ProcessTimeout: time.Second}
	svc := newTestService(cfg, gateway.AlwaysApprove(), cart, nil)

	type result struct {
		outcome *domain.CheckoutOutcome
		err     error
	}
	resCh := make(chan result, 1)
	go func() {
		outcome, err := svc.Checkout(context.Background(), validRequest())
		resCh <- result{outcome, err}
	}()

	time.Sleep(30 * time.Millisecond)
	deferred, err := svc.RequestCancel(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Nil(t, deferred, "cancel against an in-flight payment is deferred")

	res := <-resCh
	require.NoError(t, res.err)
	assert.Equal(t, domain.OutcomeCancelled, res.outcome.Kind)
	assert.Equal(t, 0, cart.commitCount(), "a cancelled checkout must never persist the order")
}
