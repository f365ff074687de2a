// controllers/order.go
package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Gantuuu/Elbeg-sub001/middleware"
	"github.com/Gantuuu/Elbeg-sub001/models"
	"github.com/Gantuuu/Elbeg-sub001/store"
	"github.com/Gantuuu/Elbeg-sub001/utils"
)

const maxCheckoutBody = 1 << 20

// IdempotencyHeader carries the client token that deduplicates retried checkouts.
const IdempotencyHeader = "Idempotency-Key"

type orderStore interface {
	store.OrderStore
	store.BankAccountStore
}

// OrderController handles checkout, order history and the admin status flow.
type OrderController struct {
	Store        orderStore
	Delivery     *DeliveryController
	EmailService *utils.EmailService
	Feed         *OrderFeed
	Options      store.OrderOptions
	RestoreStock bool
	Debug        bool

	// async runs notification work off the request path.
	async func(func())
}

// NewOrderController creates a new OrderController
func NewOrderController(s orderStore, dc *DeliveryController, es *utils.EmailService, feed *OrderFeed, opts store.OrderOptions, restoreStock, debug bool) *OrderController {
	return &OrderController{
		Store:        s,
		Delivery:     dc,
		EmailService: es,
		Feed:         feed,
		Options:      opts,
		RestoreStock: restoreStock,
		Debug:        debug,
		async:        func(f func()) { go f() },
	}
}

type createOrderResponse struct {
	Order    *models.Order    `json:"order"`
	Delivery estimateResponse `json:"delivery"`
	Replayed bool             `json:"replayed,omitempty"`
	Skipped  []uint           `json:"skipped_products,omitempty"`
}

// CreateOrder handles POST /api/orders. Guests may order; a signed-in
// customer gets the order attached to their account.
func (oc *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCheckoutBody))
	if err != nil {
		writeError(w, models.ValidationError("request body too large or unreadable"), oc.Debug)
		return
	}
	in, err := parseCheckout(body)
	if err != nil {
		writeError(w, err, oc.Debug)
		return
	}
	in.UserID = middleware.PrincipalFrom(r.Context()).UserID()
	in.IdempotencyKey = strings.TrimSpace(r.Header.Get(IdempotencyHeader))

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	est, err := oc.Delivery.Estimate(ctx)
	if err != nil {
		writeError(w, err, oc.Debug)
		return
	}

	opts := oc.Options
	opts.DeliveryDate = est.Date.Format(models.DateLayout)
	res, err := oc.Store.CreateOrder(ctx, in, opts)
	if err != nil {
		writeError(w, err, oc.Debug)
		return
	}

	lang := r.URL.Query().Get("lang")
	resp := createOrderResponse{
		Order:    res.Order,
		Delivery: newEstimateResponse(est, lang),
		Replayed: res.Replayed,
		Skipped:  res.Skipped,
	}
	if res.Replayed {
		slog.Info("Replayed order for idempotency key", "order_id", res.Order.ID)
		utils.WriteJSON(w, http.StatusOK, resp)
		return
	}

	slog.Info("Order created", "order_id", res.Order.ID, "items", len(res.Order.Items), "total", res.Order.TotalAmount.String())
	order := res.Order
	oc.async(func() {
		oc.Feed.Publish(EventOrderCreated, order)
		oc.sendConfirmation(order, est.MessageFor(lang))
	})
	utils.WriteJSON(w, http.StatusCreated, resp)
}

func (oc *OrderController) sendConfirmation(order *models.Order, deliveryMessage string) {
	if oc.EmailService == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	account, err := oc.Store.DefaultBankAccount(ctx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		slog.Warn("Could not load bank account for confirmation", "error", err)
	}
	if err := oc.EmailService.SendOrderConfirmationEmail(order, account, deliveryMessage); err != nil {
		slog.Error("Failed to send order confirmation", "order_id", order.ID, "error", err)
	}
}

// GetOrder handles GET /api/orders/{id}. Only the owner or an admin may read it.
func (oc *OrderController) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err, oc.Debug)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, err := oc.Store.GetOrder(ctx, id)
	if err != nil {
		writeError(w, err, oc.Debug)
		return
	}

	p := middleware.PrincipalFrom(r.Context())
	if !p.IsAdmin() && (p.User == nil || !order.OwnedBy(p.User.ID)) {
		utils.WriteError(w, http.StatusForbidden, "Forbidden")
		return
	}
	utils.WriteJSON(w, http.StatusOK, order)
}

// GetOrders handles GET /api/orders. Customers see their own orders, admins
// see everything and may filter by ?status=.
func (oc *OrderController) GetOrders(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFrom(r.Context())
	f := store.OrderFilter{}
	if !p.IsAdmin() {
		f.UserID = p.UserID()
	}
	if s := strings.TrimSpace(r.URL.Query().Get("status")); s != "" {
		status, err := models.ParseOrderStatus(s)
		if err != nil {
			writeError(w, err, oc.Debug)
			return
		}
		f.Status = status
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	orders, err := oc.Store.ListOrders(ctx, f)
	if err != nil {
		writeError(w, err, oc.Debug)
		return
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}

// UpdateOrderStatus handles PATCH /api/orders/{id}/status (Admin only)
func (oc *OrderController) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err, oc.Debug)
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, models.ValidationError("invalid input"), oc.Debug)
		return
	}
	status, err := models.ParseOrderStatus(strings.TrimSpace(req.Status))
	if err != nil {
		writeError(w, err, oc.Debug)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	before, err := oc.Store.GetOrder(ctx, id)
	if err != nil {
		writeError(w, err, oc.Debug)
		return
	}
	order, err := oc.Store.UpdateOrderStatus(ctx, id, status, oc.RestoreStock)
	if err != nil {
		writeError(w, err, oc.Debug)
		return
	}

	if before.Status != order.Status {
		slog.Info("Order status changed", "order_id", order.ID, "from", before.Status, "to", order.Status)
		oc.async(func() {
			oc.Feed.Publish(EventOrderStatus, order)
			if oc.EmailService != nil {
				if err := oc.EmailService.SendStatusUpdateEmail(order); err != nil {
					slog.Error("Failed to send status update", "order_id", order.ID, "error", err)
				}
			}
		})
	}
	utils.WriteJSON(w, http.StatusOK, order)
}

