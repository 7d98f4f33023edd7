package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend/composer"
	"backend/models"
)

type stubCatalog struct {
	categories []composer.Category
	products   []composer.Product
	compatFn   func(ids []string) ([]composer.Product, error)
}

func (s *stubCatalog) ListCategories(ctx context.Context) ([]composer.Category, error) {
	return s.categories, nil
}

func (s *stubCatalog) ListProducts(ctx context.Context, filter composer.ProductFilter) (composer.ProductPage, error) {
	return composer.ProductPage{Items: s.products, Total: len(s.products), TotalPages: 1}, nil
}

func (s *stubCatalog) CompatibleProducts(ctx context.Context, ids []string) ([]composer.Product, error) {
	if s.compatFn != nil {
		return s.compatFn(ids)
	}
	return nil, nil
}

type stubSubmitter struct {
	created []composer.OrderPayload
	fail    error
}

func (s *stubSubmitter) CreateOrder(ctx context.Context, payload composer.OrderPayload) (composer.Order, error) {
	if s.fail != nil {
		return composer.Order{}, s.fail
	}
	s.created = append(s.created, payload)
	return composer.Order{ID: "order-1", TotalAmount: payload.TotalAmount, Type: payload.Type}, nil
}

func (s *stubSubmitter) UpdateOrder(ctx context.Context, id string, payload composer.OrderPayload) (composer.Order, error) {
	return composer.Order{ID: id, TotalAmount: payload.TotalAmount, Type: payload.Type}, nil
}

func draftTestRouter(deps DraftDeps) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/drafts", CreateDraft(deps))
	r.GET("/api/drafts/:id", GetDraft(deps))
	r.DELETE("/api/drafts/:id", DeleteDraft(deps))
	r.PUT("/api/drafts/:id/customer", SetDraftCustomer(deps))
	r.PUT("/api/drafts/:id/slots", SetDraftSlot(deps))
	r.POST("/api/drafts/:id/items", AddDraftItem(deps))
	r.POST("/api/drafts/:id/items/confirm", ConfirmDraftItem(deps))
	r.POST("/api/drafts/:id/items/cancel", CancelDraftItem(deps))
	r.PUT("/api/drafts/:id/items/:productId", UpdateDraftQuantity(deps))
	r.DELETE("/api/drafts/:id/items/:productId", RemoveDraftItem(deps))
	r.GET("/api/drafts/:id/compatible", GetDraftCompatibility(deps))
	r.POST("/api/drafts/:id/submit", SubmitDraft(deps))
	return r
}

func testDeps() (DraftDeps, *stubSubmitter) {
	catalog := &stubCatalog{
		categories: []composer.Category{
			{ID: "c1", Name: "Processor"},
			{ID: "c2", Name: "Memory"},
		},
		products: []composer.Product{
			{ID: "p1", Name: "Ryzen 5 5600", Category: composer.Category{ID: "c1", Name: "Processor"}, Quantity: 5, SellingRate: 13499},
			{ID: "p2", Name: "DDR4 16GB", Category: composer.Category{ID: "c2", Name: "Memory"}, Quantity: 10, SellingRate: 4200},
			{ID: "p3", Name: "Empty Shelf CPU", Category: composer.Category{ID: "c1", Name: "Processor"}, Quantity: 0, SellingRate: 9000},
		},
	}
	submitter := &stubSubmitter{}
	return DraftDeps{
		Store:     composer.NewStore(),
		Catalog:   catalog,
		Submitter: submitter,
	}, submitter
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createDraft(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/drafts", models.CreateDraftRequest{})
	require.Equal(t, http.StatusCreated, w.Code)
	var resp models.DraftResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Data)
	return resp.Data.ID
}

func TestDraftLifecycleAddAndTotal(t *testing.T) {
	deps, _ := testDeps()
	r := draftTestRouter(deps)
	id := createDraft(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/drafts/"+id+"/items",
		models.DraftItemRequest{ProductID: "p1", Delta: 2})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.DraftResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Items, 1)
	assert.Equal(t, 2, resp.Data.Items[0].Quantity)
	assert.Equal(t, float64(2*13499), resp.Data.TotalAmount)
}

func TestDraftAddRejectsOverStock(t *testing.T) {
	deps, _ := testDeps()
	r := draftTestRouter(deps)
	id := createDraft(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/drafts/"+id+"/items",
		models.DraftItemRequest{ProductID: "p1", Delta: 6})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/drafts/"+id+"/items",
		models.DraftItemRequest{ProductID: "p3", Delta: 1})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDraftTwoPhaseAdd(t *testing.T) {
	deps, _ := testDeps()
	r := draftTestRouter(deps)
	id := createDraft(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/drafts/"+id+"/items",
		models.DraftItemRequest{ProductID: "p2", Delta: 1, ConfirmRequired: true})
	require.Equal(t, http.StatusOK, w.Code)

	// Second add of the same product is staged, not applied.
	w = doJSON(t, r, http.MethodPost, "/api/drafts/"+id+"/items",
		models.DraftItemRequest{ProductID: "p2", Delta: 1, ConfirmRequired: true})
	require.Equal(t, http.StatusAccepted, w.Code)
	var resp models.DraftResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "p2", resp.Data.PendingProduct)
	assert.Equal(t, 1, resp.Data.Items[0].Quantity)

	w = doJSON(t, r, http.MethodPost, "/api/drafts/"+id+"/items/confirm", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = models.DraftResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data.PendingProduct)
	assert.Equal(t, 2, resp.Data.Items[0].Quantity)

	// Nothing staged anymore.
	w = doJSON(t, r, http.MethodPost, "/api/drafts/"+id+"/items/confirm", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDraftSlotAssignmentReplaces(t *testing.T) {
	deps, _ := testDeps()
	r := draftTestRouter(deps)
	id := createDraft(t, r)

	w := doJSON(t, r, http.MethodPut, "/api/drafts/"+id+"/slots",
		models.DraftSlotRequest{CategoryID: "c1", ProductID: "p1"})
	require.Equal(t, http.StatusOK, w.Code)

	// Same slot, different product: the cart swaps, never holds both.
	w = doJSON(t, r, http.MethodPut, "/api/drafts/"+id+"/slots",
		models.DraftSlotRequest{CategoryID: "c1", ProductID: "p2"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp models.DraftResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Items, 1)
	assert.Equal(t, "p2", resp.Data.Items[0].Product.ID)

	// Empty product id clears the slot.
	w = doJSON(t, r, http.MethodPut, "/api/drafts/"+id+"/slots",
		models.DraftSlotRequest{CategoryID: "c1"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data.Items)
}

func TestDraftQuantityZeroRemoves(t *testing.T) {
	deps, _ := testDeps()
	r := draftTestRouter(deps)
	id := createDraft(t, r)

	doJSON(t, r, http.MethodPost, "/api/drafts/"+id+"/items",
		models.DraftItemRequest{ProductID: "p1", Delta: 1})

	w := doJSON(t, r, http.MethodPut, "/api/drafts/"+id+"/items/p1",
		models.DraftQuantityRequest{Quantity: 0})
	require.Equal(t, http.StatusOK, w.Code)
	var resp models.DraftResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data.Items)
}

func TestDraftSubmitValidatesCustomer(t *testing.T) {
	deps, _ := testDeps()
	r := draftTestRouter(deps)
	id := createDraft(t, r)

	doJSON(t, r, http.MethodPost, "/api/drafts/"+id+"/items",
		models.DraftItemRequest{ProductID: "p1", Delta: 1})

	w := doJSON(t, r, http.MethodPost, "/api/drafts/"+id+"/submit",
		models.DraftSubmitRequest{Type: composer.TypeOrder})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "name")
}

func TestDraftSubmitHappyPath(t *testing.T) {
	deps, submitter := testDeps()
	r := draftTestRouter(deps)
	id := createDraft(t, r)

	doJSON(t, r, http.MethodPost, "/api/drafts/"+id+"/items",
		models.DraftItemRequest{ProductID: "p1", Delta: 2})
	doJSON(t, r, http.MethodPut, "/api/drafts/"+id+"/customer",
		models.DraftCustomerRequest{Name: "Asha Rao", Email: "asha@example.com", Phone: "9876543210"})

	w := doJSON(t, r, http.MethodPost, "/api/drafts/"+id+"/submit",
		models.DraftSubmitRequest{Type: composer.TypeOrder})
	require.Equal(t, http.StatusCreated, w.Code)

	require.Len(t, submitter.created, 1)
	assert.Equal(t, float64(2*13499), submitter.created[0].TotalAmount)

	// Session is closed after a successful submit.
	assert.Equal(t, 0, deps.Store.Len())
}

func TestDraftSubmitFailureKeepsSession(t *testing.T) {
	deps, submitter := testDeps()
	submitter.fail = fmt.Errorf("downstream unavailable")
	r := draftTestRouter(deps)
	id := createDraft(t, r)

	doJSON(t, r, http.MethodPost, "/api/drafts/"+id+"/items",
		models.DraftItemRequest{ProductID: "p1", Delta: 1})
	doJSON(t, r, http.MethodPut, "/api/drafts/"+id+"/customer",
		models.DraftCustomerRequest{Name: "Asha Rao", Email: "asha@example.com"})

	w := doJSON(t, r, http.MethodPost, "/api/drafts/"+id+"/submit",
		models.DraftSubmitRequest{Type: composer.TypeOrder})
	require.Equal(t, http.StatusBadGateway, w.Code)

	// Draft and cart survive for a retry.
	assert.Equal(t, 1, deps.Store.Len())
	w = doJSON(t, r, http.MethodGet, "/api/drafts/"+id, nil)
	var resp models.DraftResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.Items, 1)
}

func TestDraftCompatibilityEndpoint(t *testing.T) {
	deps, _ := testDeps()
	catalog := deps.Catalog.(*stubCatalog)
	catalog.compatFn = func(ids []string) ([]composer.Product, error) {
		return []composer.Product{{ID: "p2"}}, nil
	}
	r := draftTestRouter(deps)
	id := createDraft(t, r)

	// Empty cart: nothing restricted.
	w := doJSON(t, r, http.MethodGet, "/api/drafts/"+id+"/compatible", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp models.CompatibilityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Restricted)

	doJSON(t, r, http.MethodPost, "/api/drafts/"+id+"/items",
		models.DraftItemRequest{ProductID: "p1", Delta: 1})

	w = doJSON(t, r, http.MethodGet, "/api/drafts/"+id+"/compatible", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Restricted)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "p2", resp.Data[0].ID)
	assert.Equal(t, "DDR4 16GB", resp.Data[0].Name)
}

func TestDraftUnknownID(t *testing.T) {
	deps, _ := testDeps()
	r := draftTestRouter(deps)

	w := doJSON(t, r, http.MethodGet, "/api/drafts/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
