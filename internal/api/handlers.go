package api

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"sort"

	"github.com/maltedev/listing-scraper/internal/models"
	"github.com/maltedev/listing-scraper/internal/storage"
)

const (
	SortPriceAsc  = "priceAsc"
	SortPriceDesc = "priceDesc"
)

type Handlers struct {
	file   string
	logger *slog.Logger
}

func NewHandlers(file string, logger *slog.Logger) *Handlers {
	return &Handlers{
		file:   file,
		logger: logger.With("component", "api"),
	}
}

// ProductsResponse represents the product list response
type ProductsResponse struct {
	Count    int               `json:"count"`
	Products []*models.Product `json:"products"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListProducts serves the last export, optionally sorted by new price.
func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	order := r.URL.Query().Get("sort")
	switch order {
	case "", SortPriceAsc, SortPriceDesc:
	default:
		h.respondError(w, http.StatusBadRequest, "sort must be priceAsc or priceDesc")
		return
	}

	products, err := storage.ReadProducts(h.file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			h.respondError(w, http.StatusServiceUnavailable, "no scrape results available yet")
			return
		}
		h.logger.Error("failed to read products", "error", err, "file", h.file)
		h.respondError(w, http.StatusInternalServerError, "failed to read products")
		return
	}
	if products == nil {
		products = []*models.Product{}
	}

	SortProducts(products, order)

	h.respondJSON(w, http.StatusOK, ProductsResponse{
		Count:    len(products),
		Products: products,
	})
}

// SortProducts orders products by new price in place. Products without a
// price keep their relative order after all priced ones.
func SortProducts(products []*models.Product, order string) {
	if order != SortPriceAsc && order != SortPriceDesc {
		return
	}

	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i].NewPrice, products[j].NewPrice
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		case order == SortPriceDesc:
			return *a > *b
		default:
			return *a < *b
		}
	})
}

// Helper methods
func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
