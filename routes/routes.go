// routes/routes.go
package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Gantuuu/Elbeg-sub001/controllers"
	"github.com/Gantuuu/Elbeg-sub001/middleware"
)

// Controllers groups everything RegisterRoutes wires.
type Controllers struct {
	Users        *controllers.UserController
	Products     *controllers.ProductController
	Orders       *controllers.OrderController
	Delivery     *controllers.DeliveryController
	BankAccounts *controllers.BankAccountController
	Media        *controllers.MediaController
	Exports      *controllers.ExportController
	Feed         *controllers.OrderFeed
}

// RegisterRoutes sets up all the routes for the application. mediaDir is
// served read-only under /uploads/.
func RegisterRoutes(router *mux.Router, sessions *middleware.Sessions, c Controllers, mediaDir string) {
	router.PathPrefix("/uploads/").
		Handler(http.StripPrefix("/uploads/", http.FileServer(http.Dir(mediaDir)))).
		Methods("GET", "HEAD")

	api := router.PathPrefix("/api").Subrouter()
	api.Use(sessions.Authenticate)

	// Public routes
	api.HandleFunc("/auth/login", c.Users.Login).Methods("POST")
	api.HandleFunc("/auth/token", c.Users.ExchangeToken).Methods("POST")
	api.HandleFunc("/auth/logout", c.Users.Logout).Methods("POST")

	api.HandleFunc("/products", c.Products.GetProducts).Methods("GET")
	api.HandleFunc("/products/{id:[0-9]+}", c.Products.GetProductByID).Methods("GET")

	api.HandleFunc("/orders", c.Orders.CreateOrder).Methods("POST")

	api.HandleFunc("/delivery-settings", c.Delivery.GetSettings).Methods("GET")
	api.HandleFunc("/delivery-estimate", c.Delivery.GetEstimate).Methods("GET")
	api.HandleFunc("/non-delivery-days", c.Delivery.ListNonDeliveryDays).Methods("GET")

	api.HandleFunc("/bank-accounts", c.BankAccounts.GetBankAccounts).Methods("GET")
	api.HandleFunc("/bank-accounts/default", c.BankAccounts.GetDefaultBankAccount).Methods("GET")

	// Protected routes
	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.RequireAuth)
	protected.HandleFunc("/auth/me", c.Users.Me).Methods("GET")
	protected.HandleFunc("/orders", c.Orders.GetOrders).Methods("GET")
	protected.HandleFunc("/orders/{id:[0-9]+}", c.Orders.GetOrder).Methods("GET")

	// Admin routes
	admin := api.NewRoute().Subrouter()
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/products", c.Products.CreateProduct).Methods("POST")
	admin.HandleFunc("/products/{id:[0-9]+}", c.Products.UpdateProduct).Methods("PUT")
	admin.HandleFunc("/products/{id:[0-9]+}", c.Products.DeleteProduct).Methods("DELETE")

	admin.HandleFunc("/orders/{id:[0-9]+}/status", c.Orders.UpdateOrderStatus).Methods("PATCH")

	admin.HandleFunc("/delivery-settings", c.Delivery.UpdateSettings).Methods("PUT")
	admin.HandleFunc("/non-delivery-days", c.Delivery.CreateNonDeliveryDay).Methods("POST")
	admin.HandleFunc("/non-delivery-days/{id:[0-9]+}", c.Delivery.DeleteNonDeliveryDay).Methods("DELETE")

	admin.HandleFunc("/bank-accounts", c.BankAccounts.CreateBankAccount).Methods("POST")
	admin.HandleFunc("/bank-accounts/{id:[0-9]+}", c.BankAccounts.UpdateBankAccount).Methods("PUT")
	admin.HandleFunc("/bank-accounts/{id:[0-9]+}", c.BankAccounts.DeleteBankAccount).Methods("DELETE")

	admin.HandleFunc("/media", c.Media.Upload).Methods("POST")

	admin.HandleFunc("/admin/orders/feed", c.Feed.Subscribe).Methods("GET")
	admin.HandleFunc("/admin/orders/export", c.Exports.ExportOrders).Methods("GET")
	admin.HandleFunc("/admin/products/export", c.Exports.ExportProducts).Methods("GET")
}
