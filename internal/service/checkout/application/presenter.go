// internal/service/checkout/application/presenter.go
package application

import "savor/internal/service/checkout/domain"

// 面向展示层的结果类别。映射本身不负责渲染。
const (
	CategorySuccess         = "success"
	CategoryPending         = "pending"
	CategoryDeclined        = "declined"
	CategoryValidationError = "validation-error"
	CategorySystemError     = "system-error"
)

// StatusView 是展示层消费的状态视图。
type StatusView struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Classify 把结账结果映射为少量面向用户的状态。纯映射，无副作用。
// 注意 PAYMENT_ONLY 归入 pending 而不是 success：
// 订单落库失败不允许被包装成完全成功。
func Classify(outcome *domain.CheckoutOutcome) StatusView {
	if outcome == nil {
		return StatusView{
			Category: CategorySystemError,
			Message:  "Something went wrong. Please try again.",
		}
	}

	switch outcome.Kind {
	case domain.OutcomeCompleted:
		return StatusView{
			Category: CategorySuccess,
			Message:  "Payment successful! Your order is now being prepared.",
		}
	case domain.OutcomePaymentOnly:
		return StatusView{
			Category: CategoryPending,
			Message:  "Payment received. Order confirmation may be delayed; we are recording your order.",
		}
	case domain.OutcomePaymentFailed:
		msg := "There was an issue processing your payment. Please try again."
		if outcome.Transaction != nil && outcome.Transaction.ErrorMessage != "" {
			msg = outcome.Transaction.ErrorMessage
		}
		return StatusView{Category: CategoryDeclined, Message: msg}
	case domain.OutcomeCancelled:
		return StatusView{
			Category: CategoryDeclined,
			Message:  "Your checkout was cancelled.",
		}
	case domain.OutcomeValidationFailed:
		return StatusView{
			Category: CategoryValidationError,
			Message:  "Please correct the highlighted fields and try again.",
		}
	default:
		return StatusView{
			Category: CategorySystemError,
			Message:  "Something went wrong. Please try again.",
		}
	}
}
