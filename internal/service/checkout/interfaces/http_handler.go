// internal/service/checkout/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"

	"savor/internal/pkg/logger"
	"savor/internal/service/checkout/application"
	"savor/internal/service/checkout/domain/port"
)

const serviceName = "checkout-service"

// CheckoutHandler 封装了 checkout 服务的 HTTP 处理器
type CheckoutHandler struct {
	service *application.CheckoutApplicationService
	hub     *Hub // 可为 nil，此时不提供 /ws 推送
}

// NewCheckoutHandler 创建一个新的 HTTP 处理器实例
func NewCheckoutHandler(service *application.CheckoutApplicationService, hub *Hub) *CheckoutHandler {
	return &CheckoutHandler{service: service, hub: hub}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *CheckoutHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/checkout", h.checkoutHandler)
	mux.HandleFunc("/checkout/retry", h.retryHandler)
	mux.HandleFunc("/checkout/cancel", h.cancelHandler)
	if h.hub != nil {
		mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
			h.hub.ServeWS(w, r)
		})
	}
}

func (h *CheckoutHandler) checkoutHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	tracer := otel.Tracer(serviceName)
	ctx, span := tracer.Start(ctx, "api.CheckoutHandler")
	defer span.End()

	var req application.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	span.SetAttributes(
		attribute.String("order.id", req.Order.OrderID),
		attribute.String("payment.method", req.PaymentMethod),
	)

	outcome, err := h.service.Checkout(ctx, &req)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, application.ToCheckoutResponse(outcome))
}

func (h *CheckoutHandler) retryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	tracer := otel.Tracer(serviceName)
	ctx, span := tracer.Start(ctx, "api.RetryHandler")
	defer span.End()

	var req application.RetryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("order.id", req.OrderID))

	outcome, err := h.service.Retry(ctx, req.OrderID, req.Card)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, application.ToCheckoutResponse(outcome))
}

func (h *CheckoutHandler) cancelHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	tracer := otel.Tracer(serviceName)
	ctx, span := tracer.Start(ctx, "api.CancelHandler")
	defer span.End()

	var req application.CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("order.id", req.OrderID))

	outcome, err := h.service.RequestCancel(ctx, req.OrderID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	if outcome == nil {
		// 支付在途，取消已登记，由在途流程落实
		writeJSON(w, http.StatusAccepted, map[string]string{
			"message": "Cancellation requested. The payment in progress will be cancelled when it settles.",
		})
		return
	}
	writeJSON(w, http.StatusOK, application.ToCheckoutResponse(outcome))
}

// writeServiceError 把编排器的 error 通道映射到 HTTP 状态码。
// 业务结果（含支付被拒）不走这里，它们以 200 + 类型化响应返回。
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, port.ErrCheckoutInFlight):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, application.ErrNoSuchCheckout):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		logger.Ctx(ctx).Error().Err(err).Msg("checkout request failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
