package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func oracleServer(t *testing.T, status int, payload string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/products/compatibility/sequential", r.URL.Path)

		var req struct {
			SelectedProducts []string `json:"selectedProducts"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.SelectedProducts)

		w.WriteHeader(status)
		w.Write([]byte(payload))
	}))
}

func TestCompatibleProductsBareArrayResponse(t *testing.T) {
	srv := oracleServer(t, http.StatusOK, `[
		{"id": "p2", "name": "DDR4 16GB", "category": {"id": "c2", "name": "Memory"}},
		{"_id": "p3", "name": "B550 Board", "category": "Motherboard"}
	]`)
	defer srv.Close()

	svc := NewCompatibilityClient(srv.URL)
	products, err := svc.CompatibleProducts(context.Background(), []string{"p1"})
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "p2", products[0].ID)
	assert.Equal(t, "Memory", products[0].Category.Name)
	assert.Equal(t, "p3", products[1].ID)
	assert.Equal(t, "Motherboard", products[1].Category.Name)
}

func TestCompatibleProductsWrappedResponses(t *testing.T) {
	payloads := map[string]string{
		"compatibleProducts": `{"compatibleProducts": [{"id": "p2", "name": "RAM"}]}`,
		"data":               `{"data": [{"id": "p2", "name": "RAM"}]}`,
		"products":           `{"success": true, "products": [{"id": "p2", "name": "RAM"}]}`,
	}
	for name, payload := range payloads {
		t.Run(name, func(t *testing.T) {
			srv := oracleServer(t, http.StatusOK, payload)
			defer srv.Close()

			svc := NewCompatibilityClient(srv.URL)
			products, err := svc.CompatibleProducts(context.Background(), []string{"p1"})
			require.NoError(t, err)
			require.Len(t, products, 1)
			assert.Equal(t, "p2", products[0].ID)
		})
	}
}

func TestCompatibleProductsSkipsRecordsWithoutID(t *testing.T) {
	srv := oracleServer(t, http.StatusOK, `[{"name": "nameless"}, {"id": "p2"}]`)
	defer srv.Close()

	svc := NewCompatibilityClient(srv.URL)
	products, err := svc.CompatibleProducts(context.Background(), []string{"p1"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "p2", products[0].ID)
}

func TestCompatibleProductsErrorStatus(t *testing.T) {
	srv := oracleServer(t, http.StatusBadGateway, `oops`)
	defer srv.Close()

	svc := NewCompatibilityClient(srv.URL)
	_, err := svc.CompatibleProducts(context.Background(), []string{"p1"})
	assert.Error(t, err)
}

func TestCompatibleProductsUnrecognizedShape(t *testing.T) {
	srv := oracleServer(t, http.StatusOK, `{"success": true}`)
	defer srv.Close()

	svc := NewCompatibilityClient(srv.URL)
	_, err := svc.CompatibleProducts(context.Background(), []string{"p1"})
	assert.Error(t, err)
}

func TestCompatibleProductsEmptySelection(t *testing.T) {
	svc := NewCompatibilityClient("http://unused.invalid")
	products, err := svc.CompatibleProducts(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, products)
}

func TestCacheKeyIsOrderInsensitive(t *testing.T) {
	assert.Equal(t, cacheKey([]string{"b", "a", "c"}), cacheKey([]string{"c", "b", "a"}))
	assert.NotEqual(t, cacheKey([]string{"a"}), cacheKey([]string{"a", "b"}))
}
