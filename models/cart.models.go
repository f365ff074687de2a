package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxIdempotencyKeyLen matches the size of the stored key column.
const MaxIdempotencyKeyLen = 64

// CartItem is one checkout line as submitted by the client. Price is what the
// client displayed; the stored snapshot comes from the product when it exists.
type CartItem struct {
	ProductID uint            `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// NewOrder is the normalized checkout request handed to the store.
type NewOrder struct {
	UserID         *uint
	CustomerName   string
	CustomerEmail  string
	CustomerPhone  string
	Address        string
	PaymentMethod  PaymentMethod
	TotalAmount    decimal.Decimal
	IdempotencyKey string
	Items          []CartItem
}

// Validate checks header fields and item quantities. An empty item list is
// reported separately by the store so no write happens.
func (n *NewOrder) Validate() error {
	if n.CustomerName == "" {
		return ValidationError("customer name is required")
	}
	if n.CustomerPhone == "" {
		return ValidationError("customer phone is required")
	}
	if n.Address == "" {
		return ValidationError("address is required")
	}
	if len(n.IdempotencyKey) > MaxIdempotencyKeyLen {
		return ValidationError(fmt.Sprintf("idempotency key must be at most %d characters", MaxIdempotencyKeyLen))
	}
	if n.PaymentMethod == "" {
		n.PaymentMethod = PaymentBankTransfer
	}
	if !n.PaymentMethod.Valid() {
		return ValidationError("unsupported payment method: " + string(n.PaymentMethod))
	}
	for _, it := range n.Items {
		if it.ProductID == 0 {
			return ValidationError("item is missing product_id")
		}
		if it.Quantity < 1 {
			return ValidationError("item quantity must be at least 1")
		}
		if it.Price.IsNegative() {
			return ValidationError("item price must not be negative")
		}
	}
	return nil
}

// Fingerprint hashes the customer fields and lines of the request. A retried
// checkout produces the same value; a different cart or customer does not.
func (n *NewOrder) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "%q|%q|%q|%q|%q\n", n.CustomerName, n.CustomerEmail, n.CustomerPhone, n.Address, n.PaymentMethod)
	for _, it := range n.Items {
		fmt.Fprintf(h, "%d:%d\n", it.ProductID, it.Quantity)
	}
	return hex.EncodeToString(h.Sum(nil))
}
