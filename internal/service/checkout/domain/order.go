// internal/service/checkout/domain/order.go
package domain

import (
	"errors"
	"time"
)

// OrderItem 是订单中的一个条目。
type OrderItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"` // 单价
	Quantity int     `json:"quantity"`
}

// OrderDescriptor 由上游（购物车/菜单页面）提供的订单描述。
// 小计、税费、配送费、总额都是输入——核心流程从不自己计算金额。
type OrderDescriptor struct {
	OrderID         string      `json:"orderId"`
	UserID          string      `json:"userId"`
	Items           []OrderItem `json:"items"`
	Subtotal        float64     `json:"subtotal"`
	Tax             float64     `json:"tax"`
	DeliveryFee     float64     `json:"deliveryFee"`
	TotalAmount     float64     `json:"totalAmount"`
	Currency        string      `json:"currency,omitempty"`
	CustomerName    string      `json:"customerName"`
	DeliveryAddress string      `json:"deliveryAddress"`
	PhoneNumber     string      `json:"phoneNumber"`
}

// Validate 检查描述符是否携带了发起支付所必需的字段。
// 这类缺失是上游集成缺陷，走错误通道。
func (d *OrderDescriptor) Validate() error {
	if d.OrderID == "" {
		return errors.New("order descriptor is missing an order id")
	}
	if d.UserID == "" {
		return errors.New("order descriptor is missing a user id")
	}
	if d.TotalAmount <= 0 {
		return errors.New("order descriptor has a non-positive total amount")
	}
	return nil
}

// Cart 是持久化边界解析出的活跃购物车。
type Cart struct {
	ID     string
	UserID string
}

// ErrNoActiveCart 表示用户没有可结算的购物车。
// 支付成功后遇到它属于持久化失败，而不是支付失败。
var ErrNoActiveCart = errors.New("no active cart found")

// DefaultPickupTime 返回默认的取餐时间建议（now + 30 分钟）。
func DefaultPickupTime(now time.Time) time.Time {
	return now.Add(30 * time.Minute)
}
