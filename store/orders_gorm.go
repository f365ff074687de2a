package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Gantuuu/Elbeg-sub001/models"
)

// CreateOrder writes the order, its lines and the stock decrements in one
// transaction. Nothing is written when any line fails.
func (s *GormStore) CreateOrder(ctx context.Context, in models.NewOrder, opts OrderOptions) (*CreateResult, error) {
	if len(in.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var res *CreateResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = createOrderTx(tx, in, opts)
		return err
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) && in.IdempotencyKey != "" {
		// lost the race against a concurrent request carrying the same key
		prior, lookupErr := s.orderByKey(s.db.WithContext(ctx), in.IdempotencyKey)
		if lookupErr != nil {
			return nil, lookupErr
		}
		return replay(prior, in)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func createOrderTx(tx *gorm.DB, in models.NewOrder, opts OrderOptions) (*CreateResult, error) {
	res := &CreateResult{}

	var (
		key  *string
		hash string
	)
	if in.IdempotencyKey != "" {
		key = &in.IdempotencyKey
		hash = in.Fingerprint()
		var prior models.Order
		err := tx.Preload("Items").Where("idempotency_key = ?", in.IdempotencyKey).First(&prior).Error
		switch {
		case err == nil && time.Since(prior.CreatedAt) <= opts.window():
			return replay(&prior, in)
		case err == nil:
			// expired, free the key for this order
			if err := tx.Model(&prior).Update("idempotency_key", nil).Error; err != nil {
				return nil, err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}
	}

	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		line := models.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price}

		var p models.Product
		err := tx.First(&p, it.ProductID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if opts.MissingProduct == MissingProductFail {
				return nil, fmt.Errorf("%w: product %d", ErrProductMissing, it.ProductID)
			}
			slog.Warn("order line references missing product, stock not adjusted", "product_id", it.ProductID)
			res.Skipped = append(res.Skipped, it.ProductID)
		case err != nil:
			return nil, err
		default:
			if it.Quantity < p.MinOrderQuantity {
				return nil, models.ValidationError(fmt.Sprintf("%s requires at least %d per order", p.Name, p.MinOrderQuantity))
			}
			line.Price = p.Price
			upd := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", p.ID, it.Quantity).
				Update("stock", gorm.Expr("stock - ?", it.Quantity))
			if upd.Error != nil {
				return nil, upd.Error
			}
			if upd.RowsAffected == 0 {
				return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, p.Name)
			}
		}
		total = total.Add(line.Subtotal())
		items = append(items, line)
	}

	if !in.TotalAmount.IsZero() && !in.TotalAmount.Equal(total) {
		slog.Warn("client total differs from computed total", "client", in.TotalAmount.String(), "computed", total.String())
	}

	order := &models.Order{
		UserID:         in.UserID,
		CustomerName:   in.CustomerName,
		CustomerEmail:  in.CustomerEmail,
		CustomerPhone:  in.CustomerPhone,
		Address:        in.Address,
		PaymentMethod:  in.PaymentMethod,
		TotalAmount:    total,
		Status:         models.OrderStatusPending,
		DeliveryDate:   opts.DeliveryDate,
		IdempotencyKey: key,
		RequestHash:    hash,
		Items:          items,
	}
	if err := tx.Create(order).Error; err != nil {
		return nil, err
	}
	res.Order = order
	return res, nil
}

func (s *GormStore) orderByKey(db *gorm.DB, key string) (*models.Order, error) {
	var o models.Order
	if err := db.Preload("Items").Where("idempotency_key = ?", key).First(&o).Error; err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

// GetOrder returns the order with its lines and their products. Lines whose
// product was deleted have a nil Product.
func (s *GormStore) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		First(&o, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (s *GormStore) ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	q := s.db.WithContext(ctx).Preload("Items").Preload("Items.Product").Order("created_at DESC, id DESC")
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	orders := []models.Order{}
	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrderStatus moves the order along its lifecycle. Cancelling returns
// the ordered quantities to stock when restoreStock is set.
func (s *GormStore) UpdateOrderStatus(ctx context.Context, id uint, status models.OrderStatus, restoreStock bool) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&order, id).Error; err != nil {
			return notFound(err)
		}
		if order.Status == status {
			return nil
		}
		if !order.Status.CanTransition(status) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, order.Status, status)
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", id, order.Status).
			Update("status", status)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: order %d changed concurrently", ErrInvalidTransition, id)
		}
		order.Status = status

		if status != models.OrderStatusCancelled || !restoreStock {
			return nil
		}
		for _, it := range order.Items {
			err := tx.Model(&models.Product{}).
				Where("id = ?", it.ProductID).
				Update("stock", gorm.Expr("stock + ?", it.Quantity)).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}
