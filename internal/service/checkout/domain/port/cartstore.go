// internal/service/checkout/domain/port/cartstore.go
package port

import (
	"context"
	"time"

	"savor/internal/service/checkout/domain"
)

// CheckoutCommit 是提交给持久化边界的载荷。
// 字段名是边界约定的一部分，必须保持 snake_case 兼容。
type CheckoutCommit struct {
	PaymentMethod   string    `json:"payment_method"`
	PaymentID       string    `json:"payment_id"`
	Subtotal        float64   `json:"subtotal"`
	Tax             float64   `json:"tax"`
	DeliveryFee     float64   `json:"delivery_fee"`
	TotalAmount     float64   `json:"total_amount"`
	PickupTime      time.Time `json:"pickup_time"`
	CustomerName    string    `json:"customer_name"`
	DeliveryAddress string    `json:"delivery_address"`
	PhoneNumber     string    `json:"phone_number"`
	PaymentStatus   string    `json:"payment_status"`
}

// CommitResult 是提交成功后边界返回的引用信息。
type CommitResult struct {
	OrderID   string
	InvoiceID string
}

// CartBackend 是订单/购物车持久化边界的出站端口。
type CartBackend interface {
	// FindActiveCart 解析用户的活跃购物车；不存在时返回 domain.ErrNoActiveCart。
	FindActiveCart(ctx context.Context, userID string) (*domain.Cart, error)

	// CommitCheckout 以一次调用完成下单与清空购物车（从客户端视角是原子的）。
	CommitCheckout(ctx context.Context, cartID string, commit CheckoutCommit) (*CommitResult, error)
}
