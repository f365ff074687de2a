package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/tealeg/xlsx"

	"github.com/Gantuuu/Elbeg-sub001/models"
	"github.com/Gantuuu/Elbeg-sub001/store"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportController serves spreadsheet downloads for the back office.
type ExportController struct {
	Store store.Store
	Debug bool
}

func NewExportController(s store.Store, debug bool) *ExportController {
	return &ExportController{Store: s, Debug: debug}
}

func addRow(sheet *xlsx.Sheet, values ...interface{}) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetValue(v)
	}
}

// ordersWorkbook lays out one row per order line.
func ordersWorkbook(orders []models.Order) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return nil, err
	}
	addRow(sheet, "OrderID", "CreatedAt", "Status", "Customer", "Phone", "Email", "Address",
		"DeliveryDate", "ProductID", "Product", "Quantity", "UnitPrice", "Subtotal", "OrderTotal")

	for _, o := range orders {
		created := o.CreatedAt.Format("2006-01-02 15:04:05")
		for _, it := range o.Items {
			name := ""
			if it.Product != nil {
				name = it.Product.Name
			}
			addRow(sheet, o.ID, created, string(o.Status), o.CustomerName, o.CustomerPhone, o.CustomerEmail,
				o.Address, o.DeliveryDate, it.ProductID, name, it.Quantity,
				it.Price.StringFixed(2), it.Subtotal().StringFixed(2), o.TotalAmount.StringFixed(2))
		}
	}
	return file, nil
}

func productsWorkbook(products []models.Product) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return nil, err
	}
	addRow(sheet, "ID", "Name", "NameEn", "Category", "Price", "Stock", "MinOrderQuantity", "Image", "UpdatedAt")
	for _, p := range products {
		addRow(sheet, p.ID, p.Name, p.NameEn, p.Category, p.Price.StringFixed(2), p.Stock,
			p.MinOrderQuantity, p.ImageURL, p.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return file, nil
}

func writeWorkbook(w http.ResponseWriter, name string, file *xlsx.File) error {
	w.Header().Set("Content-Disposition", "attachment; filename="+name)
	w.Header().Set("Content-Type", xlsxContentType)
	return file.Write(w)
}

// ExportOrders handles GET /api/admin/orders/export?status= (Admin only)
func (ec *ExportController) ExportOrders(w http.ResponseWriter, r *http.Request) {
	f := store.OrderFilter{}
	if s := strings.TrimSpace(r.URL.Query().Get("status")); s != "" {
		status, err := models.ParseOrderStatus(s)
		if err != nil {
			writeError(w, err, ec.Debug)
			return
		}
		f.Status = status
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	orders, err := ec.Store.ListOrders(ctx, f)
	if err != nil {
		writeError(w, err, ec.Debug)
		return
	}
	file, err := ordersWorkbook(orders)
	if err != nil {
		writeError(w, err, ec.Debug)
		return
	}
	if err := writeWorkbook(w, "orders.xlsx", file); err != nil {
		writeError(w, err, ec.Debug)
	}
}

// ExportProducts handles GET /api/admin/products/export (Admin only)
func (ec *ExportController) ExportProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	products, err := ec.Store.ListProducts(ctx, "")
	if err != nil {
		writeError(w, err, ec.Debug)
		return
	}
	file, err := productsWorkbook(products)
	if err != nil {
		writeError(w, err, ec.Debug)
		return
	}
	if err := writeWorkbook(w, "products.xlsx", file); err != nil {
		writeError(w, err, ec.Debug)
	}
}
