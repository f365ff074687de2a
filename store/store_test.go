package store

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Gantuuu/Elbeg-sub001/models"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := OpenGorm("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func seedProduct(t *testing.T, s *GormStore, name string, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:             name,
		Category:         "beef",
		Price:            decimal.RequireFromString(price),
		Stock:            stock,
		MinOrderQuantity: 1,
	}
	require.NoError(t, s.CreateProduct(context.Background(), p))
	return p
}

func newOrder(items ...models.CartItem) models.NewOrder {
	return models.NewOrder{
		CustomerName:  "Бат",
		CustomerEmail: "bat@example.mn",
		CustomerPhone: "99119911",
		Address:       "Sukhbaatar district",
		PaymentMethod: models.PaymentBankTransfer,
		Items:         items,
	}
}

func stockOf(t *testing.T, s *GormStore, id uint) int {
	t.Helper()
	p, err := s.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func countRows(t *testing.T, s *GormStore, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.db.Model(model).Count(&n).Error)
	return n
}

func TestCreateOrder_EmptyItems(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateOrder(context.Background(), newOrder(), OrderOptions{})
	require.ErrorIs(t, err, ErrEmptyOrder)

	var verr models.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Zero(t, countRows(t, s, &models.Order{}))
	assert.Zero(t, countRows(t, s, &models.OrderItem{}))
}

func TestCreateOrder_WritesOrderItemsAndStock(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ribs := seedProduct(t, s, "Ribs", "25000", 10)
	mince := seedProduct(t, s, "Mince", "18000.50", 5)

	in := newOrder(
		models.CartItem{ProductID: ribs.ID, Quantity: 3, Price: decimal.NewFromInt(1)},
		models.CartItem{ProductID: mince.ID, Quantity: 2, Price: decimal.RequireFromString("18000.50")},
	)
	res, err := s.CreateOrder(ctx, in, OrderOptions{DeliveryDate: "2024-03-11"})
	require.NoError(t, err)
	assert.False(t, res.Replayed)

	o := res.Order
	assert.NotZero(t, o.ID)
	assert.Equal(t, models.OrderStatusPending, o.Status)
	assert.Equal(t, "2024-03-11", o.DeliveryDate)
	assert.True(t, decimal.RequireFromString("111001").Equal(o.TotalAmount), o.TotalAmount.String())

	assert.EqualValues(t, 1, countRows(t, s, &models.Order{}))
	assert.EqualValues(t, 2, countRows(t, s, &models.OrderItem{}))
	assert.Equal(t, 7, stockOf(t, s, ribs.ID))
	assert.Equal(t, 3, stockOf(t, s, mince.ID))

	got, err := s.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	for _, it := range got.Items {
		require.NotNil(t, it.Product)
		assert.Equal(t, it.ProductID, it.Product.ID)
	}
	// price snapshot comes from the product, not the client
	assert.True(t, decimal.NewFromInt(25000).Equal(got.Items[0].Price))
}

func TestCreateOrder_PriceSnapshotSurvivesProductEdit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := seedProduct(t, s, "Brisket", "30000", 5)

	res, err := s.CreateOrder(ctx, newOrder(models.CartItem{ProductID: p.ID, Quantity: 1}), OrderOptions{})
	require.NoError(t, err)

	p.Price = decimal.NewFromInt(99999)
	require.NoError(t, s.UpdateProduct(ctx, p))

	got, err := s.GetOrder(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(30000).Equal(got.Items[0].Price))
}

func TestCreateOrder_InsufficientStockRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := seedProduct(t, s, "Sirloin", "40000", 5)
	b := seedProduct(t, s, "Liver", "9000", 1)

	in := newOrder(
		models.CartItem{ProductID: a.ID, Quantity: 2},
		models.CartItem{ProductID: b.ID, Quantity: 2},
	)
	_, err := s.CreateOrder(ctx, in, OrderOptions{})
	require.ErrorIs(t, err, ErrInsufficientStock)

	assert.Equal(t, 5, stockOf(t, s, a.ID), "first decrement must be rolled back")
	assert.Equal(t, 1, stockOf(t, s, b.ID))
	assert.Zero(t, countRows(t, s, &models.Order{}))
	assert.Zero(t, countRows(t, s, &models.OrderItem{}))
}

func TestCreateOrder_StockNeverNegative(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := seedProduct(t, s, "Tongue", "15000", 3)

	ok := 0
	for i := 0; i < 5; i++ {
		if _, err := s.CreateOrder(ctx, newOrder(models.CartItem{ProductID: p.ID, Quantity: 1}), OrderOptions{}); err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, ErrInsufficientStock)
		}
	}
	assert.Equal(t, 3, ok)
	assert.Equal(t, 0, stockOf(t, s, p.ID))
}

func TestCreateOrder_MissingProductPolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("skip", func(t *testing.T) {
		s := newTestStore(t)
		p := seedProduct(t, s, "Ribs", "25000", 4)
		in := newOrder(
			models.CartItem{ProductID: p.ID, Quantity: 1},
			models.CartItem{ProductID: 999, Quantity: 2, Price: decimal.NewFromInt(5000)},
		)
		res, err := s.CreateOrder(ctx, in, OrderOptions{MissingProduct: MissingProductSkip})
		require.NoError(t, err)
		assert.Equal(t, []uint{999}, res.Skipped)
		assert.Len(t, res.Order.Items, 2)
		assert.True(t, decimal.NewFromInt(35000).Equal(res.Order.TotalAmount))
		assert.Equal(t, 3, stockOf(t, s, p.ID))
	})

	t.Run("fail", func(t *testing.T) {
		s := newTestStore(t)
		p := seedProduct(t, s, "Ribs", "25000", 4)
		in := newOrder(
			models.CartItem{ProductID: p.ID, Quantity: 1},
			models.CartItem{ProductID: 999, Quantity: 2},
		)
		_, err := s.CreateOrder(ctx, in, OrderOptions{MissingProduct: MissingProductFail})
		require.ErrorIs(t, err, ErrProductMissing)
		assert.Equal(t, 4, stockOf(t, s, p.ID))
		assert.Zero(t, countRows(t, s, &models.Order{}))
	})
}

func TestCreateOrder_BelowMinimumQuantity(t *testing.T) {
	s := newTestStore(t)
	p := &models.Product{Name: "Whole lamb", Price: decimal.NewFromInt(300000), Stock: 10, MinOrderQuantity: 2}
	require.NoError(t, s.CreateProduct(context.Background(), p))

	_, err := s.CreateOrder(context.Background(), newOrder(models.CartItem{ProductID: p.ID, Quantity: 1}), OrderOptions{})
	var verr models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 10, stockOf(t, s, p.ID))
}

func TestCreateOrder_ForcesPendingStatus(t *testing.T) {
	s := newTestStore(t)
	p := seedProduct(t, s, "Ribs", "25000", 4)

	res, err := s.CreateOrder(context.Background(), newOrder(models.CartItem{ProductID: p.ID, Quantity: 1}), OrderOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, res.Order.Status)
}

func TestCreateOrder_Idempotency(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := seedProduct(t, s, "Ribs", "25000", 10)

	in := newOrder(models.CartItem{ProductID: p.ID, Quantity: 2})
	in.IdempotencyKey = "checkout-1"

	first, err := s.CreateOrder(ctx, in, OrderOptions{})
	require.NoError(t, err)
	second, err := s.CreateOrder(ctx, in, OrderOptions{})
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.Order.ID, second.Order.ID)
	assert.EqualValues(t, 1, countRows(t, s, &models.Order{}))
	assert.Equal(t, 8, stockOf(t, s, p.ID))
}

func TestCreateOrder_IdempotencyKeyBoundToRequest(t *testing.T) {
	ctx := context.Background()
	owner := uint(7)

	setup := func(t *testing.T) (*GormStore, *models.Product, models.NewOrder) {
		s := newTestStore(t)
		p := seedProduct(t, s, "Ribs", "25000", 10)
		in := newOrder(models.CartItem{ProductID: p.ID, Quantity: 1})
		in.UserID = &owner
		in.IdempotencyKey = "k1"
		_, err := s.CreateOrder(ctx, in, OrderOptions{})
		require.NoError(t, err)
		return s, p, in
	}

	t.Run("guest reusing a customer's key", func(t *testing.T) {
		s, p, in := setup(t)
		in.UserID = nil
		res, err := s.CreateOrder(ctx, in, OrderOptions{})
		assert.ErrorIs(t, err, ErrDuplicate)
		assert.Nil(t, res)
		assert.Equal(t, 9, stockOf(t, s, p.ID))
	})

	t.Run("other customer", func(t *testing.T) {
		s, _, in := setup(t)
		other := uint(8)
		in.UserID = &other
		_, err := s.CreateOrder(ctx, in, OrderOptions{})
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("same customer with a different cart", func(t *testing.T) {
		s, p, in := setup(t)
		in.Items = []models.CartItem{{ProductID: p.ID, Quantity: 3}}
		_, err := s.CreateOrder(ctx, in, OrderOptions{})
		assert.ErrorIs(t, err, ErrDuplicate)
		assert.EqualValues(t, 1, countRows(t, s, &models.Order{}))
		assert.Equal(t, 9, stockOf(t, s, p.ID))
	})

	t.Run("same customer retrying", func(t *testing.T) {
		s, _, in := setup(t)
		res, err := s.CreateOrder(ctx, in, OrderOptions{})
		require.NoError(t, err)
		assert.True(t, res.Replayed)
	})
}

func TestCreateOrder_IdempotencyKeyTooLong(t *testing.T) {
	s := newTestStore(t)
	p := seedProduct(t, s, "Ribs", "25000", 10)
	in := newOrder(models.CartItem{ProductID: p.ID, Quantity: 1})
	in.IdempotencyKey = strings.Repeat("x", models.MaxIdempotencyKeyLen+1)

	_, err := s.CreateOrder(context.Background(), in, OrderOptions{})
	var verr models.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.EqualValues(t, 0, countRows(t, s, &models.Order{}))
}

func TestCreateOrder_IdempotencyWindowExpired(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := seedProduct(t, s, "Ribs", "25000", 10)

	in := newOrder(models.CartItem{ProductID: p.ID, Quantity: 1})
	in.IdempotencyKey = "checkout-2"
	first, err := s.CreateOrder(ctx, in, OrderOptions{})
	require.NoError(t, err)

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, s.db.Model(&models.Order{}).Where("id = ?", first.Order.ID).UpdateColumn("created_at", old).Error)

	second, err := s.CreateOrder(ctx, in, OrderOptions{IdempotencyWindow: time.Hour})
	require.NoError(t, err)
	assert.False(t, second.Replayed)
	assert.NotEqual(t, first.Order.ID, second.Order.ID)
	assert.Equal(t, 8, stockOf(t, s, p.ID))
}

func TestUpdateOrderStatus(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*GormStore, *models.Product, *models.Order) {
		s := newTestStore(t)
		p := seedProduct(t, s, "Ribs", "25000", 10)
		res, err := s.CreateOrder(ctx, newOrder(models.CartItem{ProductID: p.ID, Quantity: 4}), OrderOptions{})
		require.NoError(t, err)
		return s, p, res.Order
	}

	t.Run("lifecycle", func(t *testing.T) {
		s, _, o := setup(t)
		got, err := s.UpdateOrderStatus(ctx, o.ID, models.OrderStatusProcessing, true)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusProcessing, got.Status)

		got, err = s.UpdateOrderStatus(ctx, o.ID, models.OrderStatusCompleted, true)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusCompleted, got.Status)

		_, err = s.UpdateOrderStatus(ctx, o.ID, models.OrderStatusCancelled, true)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("cancel restores stock", func(t *testing.T) {
		s, p, o := setup(t)
		require.Equal(t, 6, stockOf(t, s, p.ID))

		_, err := s.UpdateOrderStatus(ctx, o.ID, models.OrderStatusCancelled, true)
		require.NoError(t, err)
		assert.Equal(t, 10, stockOf(t, s, p.ID))

		// repeating the same status is a no-op and must not restore twice
		_, err = s.UpdateOrderStatus(ctx, o.ID, models.OrderStatusCancelled, true)
		require.NoError(t, err)
		assert.Equal(t, 10, stockOf(t, s, p.ID))
	})

	t.Run("cancel without restore", func(t *testing.T) {
		s, p, o := setup(t)
		_, err := s.UpdateOrderStatus(ctx, o.ID, models.OrderStatusCancelled, false)
		require.NoError(t, err)
		assert.Equal(t, 6, stockOf(t, s, p.ID))
	})

	t.Run("back to pending rejected", func(t *testing.T) {
		s, _, o := setup(t)
		_, err := s.UpdateOrderStatus(ctx, o.ID, models.OrderStatusProcessing, true)
		require.NoError(t, err)
		_, err = s.UpdateOrderStatus(ctx, o.ID, models.OrderStatusPending, true)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("unknown order", func(t *testing.T) {
		s, _, _ := setup(t)
		_, err := s.UpdateOrderStatus(ctx, 4242, models.OrderStatusProcessing, true)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestListOrders_Filter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := seedProduct(t, s, "Ribs", "25000", 10)

	uid := uint(7)
	mine := newOrder(models.CartItem{ProductID: p.ID, Quantity: 1})
	mine.UserID = &uid
	_, err := s.CreateOrder(ctx, mine, OrderOptions{})
	require.NoError(t, err)
	_, err = s.CreateOrder(ctx, newOrder(models.CartItem{ProductID: p.ID, Quantity: 1}), OrderOptions{})
	require.NoError(t, err)

	all, err := s.ListOrders(ctx, OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := s.ListOrders(ctx, OrderFilter{UserID: &uid})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.True(t, own[0].OwnedBy(uid))

	none, err := s.ListOrders(ctx, OrderFilter{Status: models.OrderStatusCompleted})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestProducts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedProduct(t, s, "Ribs", "25000", 10)
	lamb := &models.Product{Name: "Lamb leg", Category: "lamb", Price: decimal.NewFromInt(40000), Stock: 3}
	require.NoError(t, s.CreateProduct(ctx, lamb))

	all, err := s.ListProducts(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyLamb, err := s.ListProducts(ctx, "lamb")
	require.NoError(t, err)
	require.Len(t, onlyLamb, 1)
	assert.Equal(t, "Lamb leg", onlyLamb[0].Name)

	none, err := s.ListProducts(ctx, "Lamb")
	require.NoError(t, err)
	assert.Empty(t, none, "category match is exact")

	require.NoError(t, s.DeleteProduct(ctx, lamb.ID))
	_, err = s.GetProduct(ctx, lamb.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteProduct(ctx, lamb.ID), ErrNotFound)
	assert.ErrorIs(t, s.UpdateProduct(ctx, lamb), ErrNotFound)
}

func TestDeliverySetting_DefaultsAndUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ds, err := s.GetDeliverySetting(ctx)
	require.NoError(t, err)
	assert.Equal(t, 18, ds.CutoffHour)
	assert.Equal(t, 1, ds.ProcessingDays)

	require.NoError(t, s.SaveDeliverySetting(ctx, &models.DeliverySetting{CutoffHour: 14, CutoffMinute: 30, ProcessingDays: 2}))
	require.NoError(t, s.SaveDeliverySetting(ctx, &models.DeliverySetting{CutoffHour: 15, CutoffMinute: 45, ProcessingDays: 3}))

	ds, err = s.GetDeliverySetting(ctx)
	require.NoError(t, err)
	assert.Equal(t, 15, ds.CutoffHour)
	assert.Equal(t, 45, ds.CutoffMinute)
	assert.Equal(t, 3, ds.ProcessingDays)
	assert.EqualValues(t, 1, countRows(t, s, &models.DeliverySetting{}))
}

func TestNonDeliveryDays(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tsagaan := &models.NonDeliveryDay{Date: "2024-02-10", Reason: "Tsagaan Sar", IsRecurringYearly: true}
	require.NoError(t, s.CreateNonDeliveryDay(ctx, tsagaan))
	require.NoError(t, s.CreateNonDeliveryDay(ctx, &models.NonDeliveryDay{Date: "2024-01-01", Reason: "New year"}))
	assert.ErrorIs(t, s.CreateNonDeliveryDay(ctx, &models.NonDeliveryDay{Date: "2024-02-10"}), ErrDuplicate)

	days, err := s.ListNonDeliveryDays(ctx)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "2024-01-01", days[0].Date)
	assert.True(t, days[1].IsRecurringYearly)

	require.NoError(t, s.DeleteNonDeliveryDay(ctx, tsagaan.ID))
	assert.ErrorIs(t, s.DeleteNonDeliveryDay(ctx, tsagaan.ID), ErrNotFound)
}

func TestBankAccounts_SingleDefault(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.DefaultBankAccount(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	khan := &models.BankAccount{BankName: "Khan Bank", AccountNumber: "5000123456", AccountHolder: "Elbeg LLC"}
	golomt := &models.BankAccount{BankName: "Golomt", AccountNumber: "1105000000", AccountHolder: "Elbeg LLC", IsDefault: true}
	require.NoError(t, s.CreateBankAccount(ctx, khan))
	require.NoError(t, s.CreateBankAccount(ctx, golomt))

	def, err := s.DefaultBankAccount(ctx)
	require.NoError(t, err)
	assert.Equal(t, golomt.ID, def.ID)

	khan.IsDefault = true
	require.NoError(t, s.UpdateBankAccount(ctx, khan))

	accounts, err := s.ListBankAccounts(ctx)
	require.NoError(t, err)
	defaults := 0
	for _, a := range accounts {
		if a.IsDefault {
			defaults++
			assert.Equal(t, khan.ID, a.ID)
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestUsers_UpsertExternalRefusesTakeover(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	admin := &models.User{Email: "admin@elbeg.mn", Name: "Admin", IsAdmin: true}
	require.NoError(t, s.CreateUser(ctx, admin))
	local := &models.User{Email: "shop@elbeg.mn", Name: "Shop"}
	require.NoError(t, s.CreateUser(ctx, local))

	_, err := s.UpsertExternalUser(ctx, "sub-admin", "admin@elbeg.mn", "Admin", true)
	require.NoError(t, err)

	tests := []struct {
		name     string
		subject  string
		email    string
		verified bool
	}{
		{name: "other subject for linked email", subject: "sub-attacker", email: "admin@elbeg.mn", verified: true},
		{name: "unverified email for linked account", subject: "sub-attacker", email: "admin@elbeg.mn"},
		{name: "unverified email for local account", subject: "sub-attacker", email: "shop@elbeg.mn"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.UpsertExternalUser(ctx, tt.subject, tt.email, "Mallory", tt.verified)
			assert.ErrorIs(t, err, ErrDuplicate)
		})
	}

	got, err := s.GetUserByEmail(ctx, "admin@elbeg.mn")
	require.NoError(t, err)
	require.NotNil(t, got.ExternalID)
	assert.Equal(t, "sub-admin", *got.ExternalID)

	got, err = s.GetUserByEmail(ctx, "shop@elbeg.mn")
	require.NoError(t, err)
	assert.Nil(t, got.ExternalID)

	again, err := s.UpsertExternalUser(ctx, "sub-admin", "admin@elbeg.mn", "Admin", false)
	require.NoError(t, err, "a known subject signs in regardless of the email claim")
	assert.Equal(t, admin.ID, again.ID)
}

func TestUsers_UpsertExternal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	local := &models.User{Email: "admin@elbeg.mn", Name: "Admin", IsAdmin: true}
	require.NoError(t, s.CreateUser(ctx, local))
	assert.ErrorIs(t, s.CreateUser(ctx, &models.User{Email: "admin@elbeg.mn"}), ErrDuplicate)

	linked, err := s.UpsertExternalUser(ctx, "sub-1", "admin@elbeg.mn", "Admin", true)
	require.NoError(t, err)
	assert.Equal(t, local.ID, linked.ID)
	assert.True(t, linked.IsAdmin)

	again, err := s.UpsertExternalUser(ctx, "sub-1", "changed@elbeg.mn", "Admin", true)
	require.NoError(t, err)
	assert.Equal(t, local.ID, again.ID)

	fresh, err := s.UpsertExternalUser(ctx, "sub-2", "guest@elbeg.mn", "Guest", false)
	require.NoError(t, err)
	assert.NotEqual(t, local.ID, fresh.ID)
	assert.False(t, fresh.IsAdmin)

	got, err := s.GetUserByEmail(ctx, "guest@elbeg.mn")
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, got.ID)
}

func TestGormLogger_SkipsRecordNotFound(t *testing.T) {
	base := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		run     func(s *GormStore) error
		wantLog bool
	}{
		{
			name: "missing product",
			run: func(s *GormStore) error {
				_, err := s.GetProduct(ctx, 404)
				return err
			},
		},
		{
			name: "broken query",
			run: func(s *GormStore) error {
				return s.db.WithContext(ctx).Exec("SELECT * FROM no_such_table").Error
			},
			wantLog: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf strings.Builder
			s := &GormStore{db: base.db.Session(&gorm.Session{Logger: newGormLogger(&buf)})}
			require.Error(t, tt.run(s))
			if tt.wantLog {
				assert.NotEmpty(t, buf.String())
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}
