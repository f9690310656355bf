// internal/service/checkout/infrastructure/adapter/cart_gorm_adapter.go
package adapter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"savor/internal/service/checkout/domain"
	"savor/internal/service/checkout/domain/port"
)

// CartGormAdapter 是 port.CartBackend 的 GORM 实现，
// 面向内嵌订单库的部署形态（表结构与订单后台一致）。
// HTTP 适配器仍是默认的持久化边界；二者实现同一个端口，可互换。
type CartGormAdapter struct {
	db *gorm.DB
}

func NewCartGormAdapter(db *gorm.DB) *CartGormAdapter {
	return &CartGormAdapter{db: db}
}

// CartModel 对应 carts 表。
type CartModel struct {
	ID     uint   `gorm:"primaryKey"`
	UserID string `gorm:"index"`
}

func (CartModel) TableName() string { return "carts" }

// CartItemModel 对应 cart_items 表。
type CartItemModel struct {
	ID         uint `gorm:"primaryKey"`
	CartID     uint `gorm:"index"`
	FoodItemID uint
	Name       string
	Price      float64 `gorm:"type:decimal(10,2)"`
	Quantity   int
}

func (CartItemModel) TableName() string { return "cart_items" }

// OrderModel 对应 orders 表。
type OrderModel struct {
	ID              uint   `gorm:"primaryKey"`
	OrderID         string `gorm:"uniqueIndex"` // 对外暴露的 UUID
	UserID          string `gorm:"index"`
	Subtotal        float64 `gorm:"type:decimal(10,2)"`
	Tax             float64 `gorm:"type:decimal(10,2)"`
	DeliveryFee     float64 `gorm:"type:decimal(10,2)"`
	TotalAmount     float64 `gorm:"type:decimal(10,2)"`
	CustomerName    string
	DeliveryAddress string
	PhoneNumber     string
	PickupTime      *time.Time
	PaymentMethod   string
	PaymentID       string
	PaymentStatus   string
	Status          string
	CreatedAt       time.Time
}

func (OrderModel) TableName() string { return "orders" }

// OrderItemModel 对应 order_items 表。
type OrderItemModel struct {
	ID         uint `gorm:"primaryKey"`
	OrderID    uint `gorm:"index"`
	FoodItemID uint
	Name       string
	Price      float64 `gorm:"type:decimal(10,2)"`
	Quantity   int
}

func (OrderItemModel) TableName() string { return "order_items" }

// FindActiveCart 实现 port.CartBackend。
func (a *CartGormAdapter) FindActiveCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var model CartModel
	err := a.db.WithContext(ctx).Where("user_id = ?", userID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNoActiveCart
		}
		return nil, err
	}
	return &domain.Cart{ID: strconv.FormatUint(uint64(model.ID), 10), UserID: model.UserID}, nil
}

// CommitCheckout 实现 port.CartBackend。
// 建单、搬运购物车条目、清空购物车放在同一个数据库事务里完成。
func (a *CartGormAdapter) CommitCheckout(ctx context.Context, cartID string, commit port.CheckoutCommit) (*port.CommitResult, error) {
	id, err := strconv.ParseUint(cartID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid cart id %q: %w", cartID, err)
	}

	orderRef := uuid.New().String()
	err = a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart CartModel
		if err := tx.First(&cart, uint(id)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNoActiveCart
			}
			return err
		}

		var items []CartItemModel
		if err := tx.Where("cart_id = ?", cart.ID).Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return errors.New("cart is empty")
		}

		pickup := commit.PickupTime
		order := OrderModel{
			OrderID:         orderRef,
			UserID:          cart.UserID,
			Subtotal:        commit.Subtotal,
			Tax:             commit.Tax,
			DeliveryFee:     commit.DeliveryFee,
			TotalAmount:     commit.TotalAmount,
			CustomerName:    commit.CustomerName,
			DeliveryAddress: commit.DeliveryAddress,
			PhoneNumber:     commit.PhoneNumber,
			PickupTime:      &pickup,
			PaymentMethod:   commit.PaymentMethod,
			PaymentID:       commit.PaymentID,
			PaymentStatus:   commit.PaymentStatus,
			Status:          "pending",
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		orderItems := make([]OrderItemModel, 0, len(items))
		for _, item := range items {
			orderItems = append(orderItems, OrderItemModel{
				OrderID:    order.ID,
				FoodItemID: item.FoodItemID,
				Name:       item.Name,
				Price:      item.Price,
				Quantity:   item.Quantity,
			})
		}
		if err := tx.Create(&orderItems).Error; err != nil {
			return err
		}

		// 清空购物车
		return tx.Where("cart_id = ?", cart.ID).Delete(&CartItemModel{}).Error
	})
	if err != nil {
		return nil, err
	}
	return &port.CommitResult{OrderID: orderRef}, nil
}
