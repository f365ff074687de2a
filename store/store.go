// Package store persists catalog, orders and delivery configuration.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Gantuuu/Elbeg-sub001/models"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrEmptyOrder        = models.ValidationError("order has no items")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrProductMissing    = errors.New("product no longer exists")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrDuplicate         = errors.New("already exists")
)

// MissingProductPolicy decides what happens when an order line references a
// product that was deleted after the customer filled their cart.
type MissingProductPolicy string

const (
	// MissingProductSkip stores the line with the client price and leaves
	// stock untouched.
	MissingProductSkip MissingProductPolicy = "skip"
	// MissingProductFail rejects the whole order.
	MissingProductFail MissingProductPolicy = "fail"
)

// OrderOptions tune CreateOrder.
type OrderOptions struct {
	MissingProduct    MissingProductPolicy
	IdempotencyWindow time.Duration
	// DeliveryDate is the estimate shown to the customer, stored as-is.
	DeliveryDate string
}

// CreateResult is returned by CreateOrder. Replayed is set when an earlier
// order with the same idempotency key was returned instead of a new one.
type CreateResult struct {
	Order    *models.Order
	Replayed bool
	// Skipped lists product IDs whose stock was not decremented because the
	// product no longer exists.
	Skipped []uint
}

// OrderFilter narrows ListOrders. Zero values match everything.
type OrderFilter struct {
	UserID *uint
	Status models.OrderStatus
}

type ProductStore interface {
	ListProducts(ctx context.Context, category string) ([]models.Product, error)
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
}

type OrderStore interface {
	CreateOrder(ctx context.Context, in models.NewOrder, opts OrderOptions) (*CreateResult, error)
	GetOrder(ctx context.Context, id uint) (*models.Order, error)
	ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id uint, status models.OrderStatus, restoreStock bool) (*models.Order, error)
}

type DeliveryStore interface {
	GetDeliverySetting(ctx context.Context) (*models.DeliverySetting, error)
	SaveDeliverySetting(ctx context.Context, s *models.DeliverySetting) error
	ListNonDeliveryDays(ctx context.Context) ([]models.NonDeliveryDay, error)
	CreateNonDeliveryDay(ctx context.Context, d *models.NonDeliveryDay) error
	DeleteNonDeliveryDay(ctx context.Context, id uint) error
}

type BankAccountStore interface {
	ListBankAccounts(ctx context.Context) ([]models.BankAccount, error)
	DefaultBankAccount(ctx context.Context) (*models.BankAccount, error)
	CreateBankAccount(ctx context.Context, b *models.BankAccount) error
	UpdateBankAccount(ctx context.Context, b *models.BankAccount) error
	DeleteBankAccount(ctx context.Context, id uint) error
}

type UserStore interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	// UpsertExternalUser finds the user by external subject, then by email,
	// creating it when neither matches. An existing email account is linked
	// only when the provider verified the address and the account has no
	// other subject; otherwise ErrDuplicate.
	UpsertExternalUser(ctx context.Context, subject, email, name string, emailVerified bool) (*models.User, error)
}

// Store is everything the HTTP layer needs.
type Store interface {
	ProductStore
	OrderStore
	DeliveryStore
	BankAccountStore
	UserStore
	Close(ctx context.Context) error
}

// defaultDeliverySetting is served while no row exists.
func defaultDeliverySetting() *models.DeliverySetting {
	return &models.DeliverySetting{ID: 1, CutoffHour: 18, CutoffMinute: 0, ProcessingDays: 1}
}

func (o OrderOptions) window() time.Duration {
	if o.IdempotencyWindow <= 0 {
		return 24 * time.Hour
	}
	return o.IdempotencyWindow
}

var (
	_ Store = (*GormStore)(nil)
	_ Store = (*MongoStore)(nil)
)

// replay returns prior for a retried checkout. A key presented by another
// caller or with a different cart is reported as ErrDuplicate.
func replay(prior *models.Order, in models.NewOrder) (*CreateResult, error) {
	sameUser := (prior.UserID == nil && in.UserID == nil) ||
		(prior.UserID != nil && in.UserID != nil && *prior.UserID == *in.UserID)
	if !sameUser || prior.RequestHash != in.Fingerprint() {
		return nil, fmt.Errorf("%w: idempotency key was used for a different order", ErrDuplicate)
	}
	return &CreateResult{Order: prior, Replayed: true}, nil
}

// linkable reports whether the account found by email may be bound to subject.
func linkable(u *models.User, subject string, emailVerified bool) error {
	if !emailVerified {
		return fmt.Errorf("%w: email belongs to an existing account and is not verified", ErrDuplicate)
	}
	if u.ExternalID != nil && *u.ExternalID != subject {
		return fmt.Errorf("%w: email is linked to another sign-in", ErrDuplicate)
	}
	return nil
}
