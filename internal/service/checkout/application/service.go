// internal/service/checkout/application/service.go
package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"savor/internal/pkg/logger"
	"savor/internal/service/checkout/domain"
	"savor/internal/service/checkout/domain/port"
	payment "savor/internal/service/payment/domain"
	"savor/internal/service/payment/gateway"
)

// ErrNoSuchCheckout 表示该订单没有可操作的结账会话。
var ErrNoSuchCheckout = errors.New("no checkout session found for this order")

// CheckoutApplicationService 是结账流程的编排器。
// 它串起校验 -> 网关 -> 持久化边界，并独占会话内 Transaction 的所有权。
// 重试与取消都是调用方可见的显式动作，从不自动发生。
type CheckoutApplicationService struct {
	gateway     *gateway.Simulator
	cartBackend port.CartBackend
	guard       port.InflightGuard
	notifier    port.CheckoutNotifier // 可为 nil
	tracer      trace.Tracer

	mu sync.Mutex
	// sessions 按 orderID 保存进行中的结账会话。
	// 成功、仅支付、取消都会清掉会话；只有 FAILED 留下来等待重试。
	sessions map[string]*session
}

// session 是单个订单的结账会话，由创建它的那次结账流程独占。
type session struct {
	descriptor domain.OrderDescriptor
	pickupTime time.Time
	method     payment.Method
	tx         *payment.Transaction

	// cancelRequested 承载协作式取消：在途的 Process 结束后检查它，
	// 绝不在迟到的 SUCCESS 上继续走持久化。
	cancelRequested atomic.Bool
}

func NewCheckoutApplicationService(gw *gateway.Simulator, cartBackend port.CartBackend, guard port.InflightGuard, notifier port.CheckoutNotifier, tracer trace.Tracer) *CheckoutApplicationService {
	return &CheckoutApplicationService{
		gateway:     gw,
		cartBackend: cartBackend,
		guard:       guard,
		notifier:    notifier,
		tracer:      tracer,
		sessions:    make(map[string]*session),
	}
}

// Checkout 执行一次完整的结账。
// 业务失败（校验不过、支付被拒、落库失败）以类型化的 CheckoutOutcome 返回；
// 只有调用方缺陷（描述符不完整、重复提交、畸形状态）走 error 通道。
func (s *CheckoutApplicationService) Checkout(ctx context.Context, req *CheckoutRequest) (*domain.CheckoutOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "app.Checkout")
	defer span.End()

	method, err := payment.ParseMethod(req.PaymentMethod)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := req.Order.Validate(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	orderID := req.Order.OrderID
	span.SetAttributes(
		attribute.String("order.id", orderID),
		attribute.String("payment.method", string(method)),
	)

	// 幂等闸：同一订单同一时刻只允许一次结账在途
	if err := s.guard.Acquire(ctx, orderID); err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer s.releaseGuard(ctx, orderID)

	// 1. 取餐时间：缺失或已过去时快速失败，不触达网关
	if fieldErrs := validatePickupTime(req.PickupTime, time.Now()); fieldErrs != nil {
		span.AddEvent("Pickup time validation failed.")
		return domain.NewValidationFailedOutcome(fieldErrs), nil
	}

	// 2. 支付要素校验；不通过同样不触达网关
	if vr := payment.Validate(method, req.Card); !vr.Valid {
		span.AddEvent("Instrument validation failed.")
		return domain.NewValidationFailedOutcome(vr.Errors), nil
	}

	sess, err := s.obtainSession(req, method)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	// 3. 初始化或复用交易。对失败后重新发起的结账，
	//    在同一交易身份上重入生命周期（与显式 Retry 等价）。
	if sess.tx == nil {
		tx, err := s.gateway.Initialize(ctx, orderID, req.Order.TotalAmount, req.Order.Currency, method)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to initialize transaction")
			s.dropSession(orderID)
			return nil, err
		}
		sess.tx = tx
	} else if err := sess.tx.Reinitialize(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	return s.processAttempt(ctx, sess, req.Card)
}

// Retry 是显式的重试入口：在保留的描述符与同一交易身份上重跑支付及后续步骤。
func (s *CheckoutApplicationService) Retry(ctx context.Context, orderID string, card payment.CardDetails) (*domain.CheckoutOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "app.Retry")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))

	if err := s.guard.Acquire(ctx, orderID); err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer s.releaseGuard(ctx, orderID)

	sess := s.getSession(orderID)
	if sess == nil {
		return nil, ErrNoSuchCheckout
	}

	if vr := payment.Validate(sess.method, card); !vr.Valid {
		return domain.NewValidationFailedOutcome(vr.Errors), nil
	}
	if err := sess.tx.Reinitialize(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	logger.Ctx(ctx).Info().
		Str("order_id", orderID).
		Str("transaction_id", sess.tx.ID).
		Msg("retrying payment on existing transaction")
	return s.processAttempt(ctx, sess, card)
}

// RequestCancel 请求取消结账。
// 没有在途支付时立即生效并返回 CANCELLED 结果；
// 有在途支付时只做标记（协作式），由在途流程在 Process 返回后落实，
// 此时返回 (nil, nil) 表示取消已受理。
func (s *CheckoutApplicationService) RequestCancel(ctx context.Context, orderID string) (*domain.CheckoutOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "app.RequestCancel")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))

	sess := s.getSession(orderID)
	if sess == nil {
		return nil, ErrNoSuchCheckout
	}
	sess.cancelRequested.Store(true)

	// 用幂等闸区分是否有在途流程：拿不到闸说明 Process 在途，
	// 只能协作式等待它结束后检查取消标记。
	if err := s.guard.Acquire(ctx, orderID); err != nil {
		if errors.Is(err, port.ErrCheckoutInFlight) {
			span.AddEvent("Cancel requested while payment in flight; deferred to the active attempt.")
			logger.Ctx(ctx).Info().Str("order_id", orderID).Msg("cancel requested, payment in flight")
			return nil, nil
		}
		span.RecordError(err)
		return nil, err
	}
	defer s.releaseGuard(ctx, orderID)

	tx := sess.tx
	if tx != nil && !tx.Status.Terminal() {
		cancelled, err := s.gateway.Cancel(ctx, tx)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		tx = cancelled
	}

	s.dropSession(orderID)
	outcome := domain.NewCancelledOutcome(tx)
	s.publishEvent(ctx, sess.descriptor.UserID, orderID, outcome)
	logger.Ctx(ctx).Info().Str("order_id", orderID).Msg("checkout cancelled")
	return outcome, nil
}

// processAttempt 执行一次支付尝试并处理其终态。调用方必须已持有幂等闸。
func (s *CheckoutApplicationService) processAttempt(ctx context.Context, sess *session, card payment.CardDetails) (*domain.CheckoutOutcome, error) {
	orderID := sess.descriptor.OrderID

	tx, err := s.gateway.Process(ctx, sess.tx, card)
	if err != nil {
		return nil, fmt.Errorf("payment processing failed: %w", err)
	}

	// 在途期间用户请求过取消：即便网关解析出 SUCCESS 也绝不落库，
	// 做一次尽力而为的补偿取消后以 CANCELLED 收尾。
	if sess.cancelRequested.Load() {
		if _, cerr := s.gateway.Cancel(ctx, tx); cerr != nil {
			logger.Ctx(ctx).Warn().Err(cerr).
				Str("order_id", orderID).
				Str("transaction_id", tx.ID).
				Msg("compensating cancel on terminal transaction was a no-op")
		}
		s.dropSession(orderID)
		outcome := domain.NewCancelledOutcome(tx)
		s.publishEvent(ctx, sess.descriptor.UserID, orderID, outcome)
		return outcome, nil
	}

	switch tx.Status {
	case payment.StatusFailed:
		// 会话保留，等待调用方显式重试
		outcome := domain.NewPaymentFailedOutcome(tx)
		s.publishEvent(ctx, sess.descriptor.UserID, orderID, outcome)
		return outcome, nil

	case payment.StatusSuccess:
		tx.PickupTime = sess.pickupTime
		outcome := s.finalizeOrder(ctx, sess, tx)
		s.dropSession(orderID)
		s.publishEvent(ctx, sess.descriptor.UserID, orderID, outcome)
		return outcome, nil

	default:
		return nil, fmt.Errorf("unexpected transaction status %s after process", tx.Status)
	}
}

// finalizeOrder 在支付成功后对持久化边界落库。
// 落库的任何失败都不回滚支付结果：返回 PAYMENT_ONLY，
// 收据数据完整保留，订单确认走带外对账。
func (s *CheckoutApplicationService) finalizeOrder(ctx context.Context, sess *session, tx *payment.Transaction) *domain.CheckoutOutcome {
	ctx, span := s.tracer.Start(ctx, "app.FinalizeOrder")
	defer span.End()

	desc := sess.descriptor

	cart, err := s.cartBackend.FindActiveCart(ctx, desc.UserID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to resolve active cart")
		logger.Ctx(ctx).Error().Err(err).
			Str("order_id", desc.OrderID).
			Str("transaction_id", tx.ID).
			Msg("payment succeeded but no cart could be resolved")
		return domain.NewPaymentOnlyOutcome(tx, &desc, sess.pickupTime, err)
	}

	result, err := s.cartBackend.CommitCheckout(ctx, cart.ID, port.CheckoutCommit{
		PaymentMethod:   string(tx.Method),
		PaymentID:       tx.ID,
		Subtotal:        desc.Subtotal,
		Tax:             desc.Tax,
		DeliveryFee:     desc.DeliveryFee,
		TotalAmount:     desc.TotalAmount,
		PickupTime:      sess.pickupTime,
		CustomerName:    desc.CustomerName,
		DeliveryAddress: desc.DeliveryAddress,
		PhoneNumber:     desc.PhoneNumber,
		PaymentStatus:   string(tx.Status),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Checkout commit failed after successful payment")
		logger.Ctx(ctx).Error().Err(err).
			Str("order_id", desc.OrderID).
			Str("transaction_id", tx.ID).
			Msg("payment succeeded but order recording failed")
		return domain.NewPaymentOnlyOutcome(tx, &desc, sess.pickupTime, err)
	}

	span.AddEvent("Order committed and cart cleared.")
	logger.Ctx(ctx).Info().
		Str("order_id", desc.OrderID).
		Str("backend_order_id", result.OrderID).
		Str("transaction_id", tx.ID).
		Msg("checkout completed")
	return domain.NewCompletedOutcome(result.OrderID, result.InvoiceID, tx, &desc, sess.pickupTime)
}

// obtainSession 取出或创建订单的结账会话。
// 留存的会话只可能停在 FAILED（等待重试）；其他状态说明调用序列有误。
func (s *CheckoutApplicationService) obtainSession(req *CheckoutRequest, method payment.Method) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[req.Order.OrderID]
	if !ok {
		sess = &session{}
		s.sessions[req.Order.OrderID] = sess
	} else if sess.tx != nil && sess.tx.Status != payment.StatusFailed {
		return nil, fmt.Errorf("order %s already has a transaction in state %s", req.Order.OrderID, sess.tx.Status)
	}

	sess.descriptor = req.Order
	sess.pickupTime = req.PickupTime
	sess.method = method
	sess.cancelRequested.Store(false)
	return sess, nil
}

func (s *CheckoutApplicationService) getSession(orderID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[orderID]
}

func (s *CheckoutApplicationService) dropSession(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, orderID)
}

func (s *CheckoutApplicationService) releaseGuard(ctx context.Context, orderID string) {
	if err := s.guard.Release(ctx, orderID); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("order_id", orderID).Msg("failed to release inflight guard")
	}
}

// publishEvent 把结账结果广播给展示层协作方。发布失败不影响主流程。
func (s *CheckoutApplicationService) publishEvent(ctx context.Context, userID, orderID string, outcome *domain.CheckoutOutcome) {
	if s.notifier == nil {
		return
	}
	event := &domain.CheckoutEvent{
		UserID:  userID,
		OrderID: orderID,
		Kind:    outcome.Kind,
		Message: Classify(outcome).Message,
		At:      time.Now(),
	}
	if outcome.Transaction != nil {
		event.TransactionID = outcome.Transaction.ID
	}
	if err := s.notifier.Publish(ctx, event); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("order_id", orderID).Msg("failed to publish checkout event")
	}
}

// validatePickupTime 校验取餐时间：必须存在且不在过去。
func validatePickupTime(pickup time.Time, now time.Time) map[string]string {
	if pickup.IsZero() {
		return map[string]string{"pickupTime": "Please select a pickup time"}
	}
	if pickup.Before(now) {
		return map[string]string{"pickupTime": "Pickup time cannot be in the past"}
	}
	return nil
}
