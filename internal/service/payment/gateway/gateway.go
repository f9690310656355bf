// internal/service/payment/gateway/gateway.go
package gateway

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"savor/internal/pkg/logger"
	"savor/internal/service/payment/domain"
)

// ErrMalformedTransaction 表示传入的交易对象没有交易号，属于调用方缺陷，
// 走错误通道而不是业务结果。
var ErrMalformedTransaction = errors.New("invalid transaction details")

// 固定的拒绝原因集合，业务拒绝从中随机选取。
// 最后一条同时用作处理超时的原因。
var declineReasons = []string{
	"Your card was declined. Please try a different payment method.",
	"There was an issue processing your payment. Please try again.",
	"Your card has insufficient funds.",
	"The payment service is temporarily unavailable.",
}

const reasonServiceUnavailable = "The payment service is temporarily unavailable."

// Config 控制模拟网关的延迟与超时。
type Config struct {
	InitDelay    time.Duration // Initialize 前的模拟网络延迟
	ProcessDelay time.Duration // Process 的模拟处理延迟
	CancelDelay  time.Duration // Cancel 前的模拟网络延迟
	// ProcessTimeout 是 Process 的兜底上限。到期后交易以
	// 服务不可用原因进入 FAILED，而不是无限挂起。
	ProcessTimeout time.Duration
}

// Simulator 是模拟支付网关，独占交易生命周期的前向推进：
// Initialize -> Process -> 终态。取消与重试都由调用方驱动。
type Simulator struct {
	cfg      Config
	outcomes OutcomeSource
	tracer   trace.Tracer

	mu  sync.Mutex
	rng *rand.Rand // 仅用于挑选拒绝原因
}

// NewSimulator 创建一个模拟网关。outcomes 决定每笔交易的放行与否。
func NewSimulator(cfg Config, outcomes OutcomeSource, tracer trace.Tracer) *Simulator {
	if cfg.ProcessTimeout == 0 {
		cfg.ProcessTimeout = 5 * time.Second
	}
	return &Simulator{
		cfg:      cfg,
		outcomes: outcomes,
		tracer:   tracer,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Initialize 初始化一笔交易。
// 只有缺少订单号或金额非正数会失败，这类问题是调用方缺陷。
func (s *Simulator) Initialize(ctx context.Context, orderID string, amount float64, currency string, method domain.Method) (*domain.Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "gateway.Initialize")
	defer span.End()

	tx, err := domain.NewTransaction(newTransactionID(), orderID, amount, currency, method)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("transaction.id", tx.ID),
		attribute.String("order.id", orderID),
		attribute.Float64("transaction.amount", amount),
	)

	// 模拟网络往返
	if err := sleep(ctx, s.cfg.InitDelay); err != nil {
		span.RecordError(err)
		return nil, err
	}

	logger.Ctx(ctx).Info().
		Str("transaction_id", tx.ID).
		Str("order_id", orderID).
		Msg("transaction initialized")
	return tx, nil
}

// Process 处理一笔已初始化的交易，总是把它推进到终态（SUCCESS/FAILED）。
// 业务拒绝（卡被拒、余额不足等）是被解析出的结果而不是 error；
// 只有没有交易号的畸形输入会返回 error。
// 掩码摘要只在成功路径上构造，原始卡片要素不会出现在返回对象上。
func (s *Simulator) Process(ctx context.Context, tx *domain.Transaction, card domain.CardDetails) (*domain.Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "gateway.Process")
	defer span.End()

	if tx == nil || tx.ID == "" {
		span.RecordError(ErrMalformedTransaction)
		return nil, ErrMalformedTransaction
	}
	if err := tx.MarkProcessing(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	started := time.Now()
	defer func() { processDuration.Observe(time.Since(started).Seconds()) }()

	procCtx, cancel := context.WithTimeout(ctx, s.cfg.ProcessTimeout)
	defer cancel()

	if err := sleep(procCtx, s.cfg.ProcessDelay); err != nil {
		// 超时（或外层取消）一律按服务不可用解析为 FAILED，绝不挂起
		return s.resolveFailed(ctx, span, tx, reasonServiceUnavailable)
	}

	approved, err := s.outcomes.Approve(procCtx, tx)
	if err != nil {
		// 结果策略自身不可用属于系统问题，但对调用方仍是一次失败的支付
		logger.Ctx(ctx).Warn().Err(err).
			Str("transaction_id", tx.ID).
			Msg("outcome source failed, resolving transaction as failed")
		return s.resolveFailed(ctx, span, tx, reasonServiceUnavailable)
	}

	if !approved {
		return s.resolveFailed(ctx, span, tx, s.pickDeclineReason())
	}

	// 成功路径：构造掩码摘要，随后原始要素即被丢弃
	if err := tx.MarkSucceeded(card.MaskedSummary(tx.Method)); err != nil {
		span.RecordError(err)
		return nil, err
	}
	txResolved.WithLabelValues(string(tx.Method), string(tx.Status)).Inc()
	span.SetAttributes(attribute.String("transaction.status", string(tx.Status)))

	logger.Ctx(ctx).Info().
		Str("transaction_id", tx.ID).
		Str("order_id", tx.OrderID).
		Msg("payment succeeded")
	return tx, nil
}

// Cancel 取消一笔交易；只对 INITIALIZED 或 PROCESSING 的交易有意义。
func (s *Simulator) Cancel(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "gateway.Cancel")
	defer span.End()

	if tx == nil || tx.ID == "" {
		return nil, ErrMalformedTransaction
	}

	if err := sleep(ctx, s.cfg.CancelDelay); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := tx.MarkCancelled(); err != nil {
		span.RecordError(err)
		return tx, err
	}
	txResolved.WithLabelValues(string(tx.Method), string(tx.Status)).Inc()

	logger.Ctx(ctx).Info().
		Str("transaction_id", tx.ID).
		Msg("transaction cancelled")
	return tx, nil
}

func (s *Simulator) resolveFailed(ctx context.Context, span trace.Span, tx *domain.Transaction, reason string) (*domain.Transaction, error) {
	if err := tx.MarkFailed(reason); err != nil {
		span.RecordError(err)
		return nil, err
	}
	txResolved.WithLabelValues(string(tx.Method), string(tx.Status)).Inc()
	span.SetAttributes(
		attribute.String("transaction.status", string(tx.Status)),
		attribute.String("transaction.decline_reason", reason),
	)

	logger.Ctx(ctx).Info().
		Str("transaction_id", tx.ID).
		Str("order_id", tx.OrderID).
		Str("reason", reason).
		Msg("payment failed")
	return tx, nil
}

func (s *Simulator) pickDeclineReason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return declineReasons[s.rng.Intn(len(declineReasons))]
}

// newTransactionID 生成 TXN_ 前缀的不透明交易号。
func newTransactionID() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return "TXN_" + raw[:9]
}

// sleep 模拟一段可被 ctx 打断的延迟。
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		// 即便零延迟也检查一次取消，保持语义一致
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
