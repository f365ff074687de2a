package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// ParseOrderStatus maps user input onto a known status.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(s); st {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled:
		return st, nil
	}
	return "", ValidationError("invalid order status: " + s)
}

// CanTransition reports whether an admin may move an order from s to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return next == OrderStatusProcessing || next == OrderStatusCancelled
	case OrderStatusProcessing:
		return next == OrderStatusCompleted || next == OrderStatusCancelled
	}
	return false
}

// Order represents a placed order. UserID is nil for guest checkouts.
type Order struct {
	ID             uint            `gorm:"primaryKey" bson:"_id" json:"id"`
	UserID         *uint           `gorm:"index" bson:"user_id,omitempty" json:"user_id,omitempty"`
	CustomerName   string          `gorm:"size:255;not null" bson:"customer_name" json:"customer_name"`
	CustomerEmail  string          `gorm:"size:255" bson:"customer_email" json:"customer_email"`
	CustomerPhone  string          `gorm:"size:64;not null" bson:"customer_phone" json:"customer_phone"`
	Address        string          `gorm:"type:text;not null" bson:"address" json:"address"`
	PaymentMethod  PaymentMethod   `gorm:"size:32;not null" bson:"payment_method" json:"payment_method"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" bson:"total_amount" json:"total_amount"`
	Status         OrderStatus     `gorm:"size:20;not null;default:'pending';index" bson:"status" json:"status"`
	DeliveryDate   string          `gorm:"size:10" bson:"delivery_date" json:"delivery_date,omitempty"`
	IdempotencyKey *string         `gorm:"size:64;uniqueIndex" bson:"idempotency_key,omitempty" json:"-"`
	// RequestHash fingerprints the checkout that claimed IdempotencyKey.
	RequestHash string `gorm:"size:64" bson:"request_hash,omitempty" json:"-"`
	Items          []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" bson:"items" json:"items"`
	CreatedAt      time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `bson:"updated_at" json:"updated_at"`
}

// OrderItem is one line of an order. Price is the unit price at the time the
// order was placed and never follows later product edits.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey" bson:"id" json:"id"`
	OrderID   uint            `gorm:"index;not null" bson:"-" json:"order_id"`
	ProductID uint            `gorm:"index;not null" bson:"product_id" json:"product_id"`
	Product   *Product        `gorm:"foreignKey:ProductID" bson:"-" json:"product,omitempty"`
	Quantity  int             `gorm:"not null" bson:"quantity" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" bson:"price" json:"price"`
}

// Subtotal is Price times Quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OwnedBy reports whether the order belongs to the given user.
func (o *Order) OwnedBy(userID uint) bool {
	return o.UserID != nil && *o.UserID == userID
}
