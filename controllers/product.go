package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/Gantuuu/Elbeg-sub001/media"
	"github.com/Gantuuu/Elbeg-sub001/models"
	"github.com/Gantuuu/Elbeg-sub001/store"
	"github.com/Gantuuu/Elbeg-sub001/utils"
)

// ProductController handles product-related requests
type ProductController struct {
	Store store.ProductStore
	Media media.Storage
	Debug bool
}

// NewProductController creates a new ProductController
func NewProductController(s store.ProductStore, m media.Storage, debug bool) *ProductController {
	return &ProductController{Store: s, Media: m, Debug: debug}
}

// GetProducts lists the catalog, optionally restricted to ?category=
func (pc *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	products, err := pc.Store.ListProducts(ctx, r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, err, pc.Debug)
		return
	}
	utils.WriteJSON(w, http.StatusOK, products)
}

// GetProductByID retrieves a single product by ID
func (pc *ProductController) GetProductByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err, pc.Debug)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	product, err := pc.Store.GetProduct(ctx, id)
	if err != nil {
		writeError(w, err, pc.Debug)
		return
	}
	utils.WriteJSON(w, http.StatusOK, product)
}

// CreateProduct handles adding a new product (Admin only)
func (pc *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var product models.Product
	if err := pc.decodeProduct(ctx, r, &product); err != nil {
		writeError(w, err, pc.Debug)
		return
	}
	if err := product.Validate(); err != nil {
		writeError(w, err, pc.Debug)
		return
	}
	if err := pc.Store.CreateProduct(ctx, &product); err != nil {
		writeError(w, err, pc.Debug)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, product)
}

// UpdateProduct replaces a product's fields (Admin only). A multipart request
// without an image keeps the current one.
func (pc *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err, pc.Debug)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	current, err := pc.Store.GetProduct(ctx, id)
	if err != nil {
		writeError(w, err, pc.Debug)
		return
	}

	product := *current
	if err := pc.decodeProduct(ctx, r, &product); err != nil {
		writeError(w, err, pc.Debug)
		return
	}
	product.ID = id
	if err := product.Validate(); err != nil {
		writeError(w, err, pc.Debug)
		return
	}
	if err := pc.Store.UpdateProduct(ctx, &product); err != nil {
		writeError(w, err, pc.Debug)
		return
	}
	utils.WriteJSON(w, http.StatusOK, product)
}

// DeleteProduct handles deleting a product (Admin only)
func (pc *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err, pc.Debug)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := pc.Store.DeleteProduct(ctx, id); err != nil {
		writeError(w, err, pc.Debug)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Product deleted"})
}

// decodeProduct reads either a JSON body or a multipart form carrying a
// productData JSON field and an optional image file.
func (pc *ProductController) decodeProduct(ctx context.Context, r *http.Request, p *models.Product) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := json.NewDecoder(r.Body).Decode(p); err != nil {
			return models.ValidationError("invalid product JSON")
		}
		return nil
	}

	if err := r.ParseMultipartForm(media.MaxUploadSize); err != nil {
		return models.ValidationError("failed to parse multipart form")
	}
	if raw := r.FormValue("productData"); raw != "" {
		if err := json.Unmarshal([]byte(raw), p); err != nil {
			return models.ValidationError("invalid productData JSON")
		}
	}

	file, header, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		return nil
	}
	if err != nil {
		return models.ValidationError("failed to read image")
	}
	defer file.Close()

	url, err := pc.Media.Put(ctx, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		return err
	}
	p.ImageURL = url
	return nil
}
