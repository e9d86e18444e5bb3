package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/maltedev/listing-scraper/internal/models"
	"github.com/maltedev/listing-scraper/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(name string, price *float64) *models.Product {
	p := models.NewProduct(name, "https://example.com/"+name+".jpg", "https://example.com/p/"+name)
	p.NewPrice = price
	return p
}

func newTestRouter(t *testing.T, products []*models.Product) http.Handler {
	t.Helper()

	file := filepath.Join(t.TempDir(), "products.json")
	if products != nil {
		require.NoError(t, storage.WriteProducts(file, products))
	}

	h := NewHandlers(file, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewRouter(h, []string{"http://localhost:*"})
}

func get(t *testing.T, router http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func names(products []*models.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Name
	}
	return out
}

func fixture() []*models.Product {
	return []*models.Product{
		product("b", models.Float(20)),
		product("none1", nil),
		product("a", models.Float(10)),
		product("c", models.Float(30)),
		product("none2", nil),
	}
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestRouter(t, nil), "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestListProducts(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "file order", query: "", want: []string{"b", "none1", "a", "c", "none2"}},
		{name: "ascending", query: "?sort=priceAsc", want: []string{"a", "b", "c", "none1", "none2"}},
		{name: "descending", query: "?sort=priceDesc", want: []string{"c", "b", "a", "none1", "none2"}},
	}

	router := newTestRouter(t, fixture())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, router, "/api/v1/products"+tt.query)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var resp ProductsResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, len(tt.want), resp.Count)
			assert.Equal(t, tt.want, names(resp.Products))
		})
	}
}

func TestListProductsUnknownSort(t *testing.T) {
	rec := get(t, newTestRouter(t, fixture()), "/api/v1/products?sort=name")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "sort must be")
}

func TestListProductsNoExport(t *testing.T) {
	rec := get(t, newTestRouter(t, nil), "/api/v1/products")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestListProductsCorruptExport(t *testing.T) {
	file := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(file, []byte("{not json"), 0644))

	h := NewHandlers(file, slog.New(slog.NewTextHandler(io.Discard, nil)))
	rec := get(t, NewRouter(h, nil), "/api/v1/products")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestListProductsEmptyExport(t *testing.T) {
	rec := get(t, newTestRouter(t, []*models.Product{}), "/api/v1/products")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":0,"products":[]}`, rec.Body.String())
}

func TestSortProductsIgnoresUnknownOrder(t *testing.T) {
	products := fixture()
	SortProducts(products, "")
	assert.Equal(t, []string{"b", "none1", "a", "c", "none2"}, names(products))
}
