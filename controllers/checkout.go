package controllers

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/Gantuuu/Elbeg-sub001/models"
)

// Checkout requests arrive in two shapes:
//
//	{"orderData": {...header}, "cartItems": [...]}
//	{...header, "items": [...]}
//
// parseCheckout settles which one it is and returns a single models.NewOrder.

type checkoutHeader struct {
	CustomerName    string          `json:"customerName"`
	CustomerEmail   string          `json:"customerEmail"`
	CustomerPhone   string          `json:"customerPhone"`
	Address         string          `json:"address"`
	CustomerAddress string          `json:"customerAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	// Status is accepted and ignored; new orders are always pending.
	Status string `json:"status"`
}

type checkoutItem struct {
	ProductID  uint            `json:"productId"`
	ProductID2 uint            `json:"product_id"`
	ID         uint            `json:"id"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
}

func (it checkoutItem) productID() uint {
	switch {
	case it.ProductID != 0:
		return it.ProductID
	case it.ProductID2 != 0:
		return it.ProductID2
	}
	return it.ID
}

type wrappedCheckout struct {
	OrderData *checkoutHeader `json:"orderData"`
	CartItems []checkoutItem  `json:"cartItems"`
}

type flatCheckout struct {
	checkoutHeader
	Items []checkoutItem `json:"items"`
}

func parseCheckout(body []byte) (models.NewOrder, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return models.NewOrder{}, models.ValidationError("invalid JSON body")
	}
	_, hasWrapped := fields["orderData"]
	_, hasFlat := fields["items"]

	var (
		header checkoutHeader
		items  []checkoutItem
	)
	switch {
	case hasWrapped && hasFlat:
		return models.NewOrder{}, models.ValidationError("body must use either orderData/cartItems or items, not both")
	case hasWrapped:
		var w wrappedCheckout
		if err := decodeCheckout(body, &w); err != nil {
			return models.NewOrder{}, err
		}
		if w.OrderData == nil {
			return models.NewOrder{}, models.ValidationError("orderData must be an object")
		}
		header, items = *w.OrderData, w.CartItems
	case hasFlat:
		var f flatCheckout
		if err := decodeCheckout(body, &f); err != nil {
			return models.NewOrder{}, err
		}
		header, items = f.checkoutHeader, f.Items
	default:
		return models.NewOrder{}, models.ValidationError("order has no items")
	}

	in := models.NewOrder{
		CustomerName:  header.CustomerName,
		CustomerEmail: header.CustomerEmail,
		CustomerPhone: header.CustomerPhone,
		Address:       header.Address,
		PaymentMethod: models.PaymentMethod(header.PaymentMethod),
		TotalAmount:   header.TotalAmount,
		Items:         make([]models.CartItem, 0, len(items)),
	}
	if in.Address == "" {
		in.Address = header.CustomerAddress
	}
	for _, it := range items {
		in.Items = append(in.Items, models.CartItem{
			ProductID: it.productID(),
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	return in, nil
}

func decodeCheckout(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(v); err != nil {
		return models.ValidationError("invalid order payload: " + err.Error())
	}
	return nil
}
