package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"backend/composer"
	"backend/models"
)

// OrderLoader fetches a persisted order so a draft can be opened in edit mode.
type OrderLoader interface {
	GetOrder(ctx context.Context, id string) (composer.Order, error)
}

// DraftDeps carries the collaborators of the draft-session endpoints.
type DraftDeps struct {
	Store     *composer.Store
	Catalog   composer.CatalogProvider
	Submitter composer.OrderSubmitter
	Loader    OrderLoader
}

// ==================== DRAFT ORDER SESSIONS ====================

// CreateDraft opens a new draft-order session
// @Summary Create draft
// @Description Open a draft cart session. Pass an order_id to edit an existing order.
// @Tags Drafts
// @Accept json
// @Produce json
// @Param request body models.CreateDraftRequest true "Draft creation request"
// @Success 201 {object} models.DraftResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /api/drafts [post]
func CreateDraft(deps DraftDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CreateDraftRequest
		if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		comp := composer.New(deps.Catalog, deps.Submitter)
		if err := comp.Refresh(c.Request.Context()); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load catalog", "details": err.Error()})
			return
		}

		if req.OrderID != "" {
			order, err := deps.Loader.GetOrder(c.Request.Context(), req.OrderID)
			if err != nil {
				if err == sql.ErrNoRows {
					c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
					return
				}
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load order"})
				return
			}
			comp.LoadOrder(order)
		}

		draft := deps.Store.Create(comp)
		c.JSON(http.StatusCreated, models.DraftResponse{
			Success: true,
			Message: "Draft created successfully",
			Data:    draftView(draft),
		})
	}
}

// GetDraft returns the current cart state
// @Summary Get draft
// @Description Get a draft session's cart state
// @Tags Drafts
// @Produce json
// @Param id path string true "Draft ID"
// @Success 200 {object} models.DraftResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/drafts/{id} [get]
func GetDraft(deps DraftDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		draft, ok := lookupDraft(c, deps)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, models.DraftResponse{
			Success: true,
			Message: "Success",
			Data:    draftView(draft),
		})
	}
}

// DeleteDraft discards a draft session
// @Summary Delete draft
// @Description Discard a draft session without submitting
// @Tags Drafts
// @Produce json
// @Param id path string true "Draft ID"
// @Success 200 {object} models.MessageResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/drafts/{id} [delete]
func DeleteDraft(deps DraftDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := lookupDraft(c, deps); !ok {
			return
		}
		deps.Store.Delete(c.Param("id"))
		c.JSON(http.StatusOK, models.MessageResponse{
			Success: true,
			Message: "Draft discarded",
		})
	}
}

// SetDraftCustomer replaces the draft's customer info
// @Summary Set draft customer
// @Description Replace the customer details on a draft
// @Tags Drafts
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param request body models.DraftCustomerRequest true "Customer details"
// @Success 200 {object} models.DraftResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/drafts/{id}/customer [put]
func SetDraftCustomer(deps DraftDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		draft, ok := lookupDraft(c, deps)
		if !ok {
			return
		}
		var req models.DraftCustomerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		draft.Composer.SetCustomer(composer.CustomerInfo{
			Name:    req.Name,
			Email:   req.Email,
			Phone:   req.Phone,
			Address: req.Address,
		})
		c.JSON(http.StatusOK, models.DraftResponse{
			Success: true,
			Message: "Customer updated",
			Data:    draftView(draft),
		})
	}
}

// SetDraftSlot assigns a product to a category slot
// @Summary Assign slot
// @Description Pick a product for a category slot. An empty product_id clears the slot. Picking over a filled slot replaces it.
// @Tags Drafts
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param request body models.DraftSlotRequest true "Slot assignment"
// @Success 200 {object} models.DraftResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/drafts/{id}/slots [put]
func SetDraftSlot(deps DraftDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		draft, ok := lookupDraft(c, deps)
		if !ok {
			return
		}
		var req models.DraftSlotRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if _, err := draft.Composer.SelectForSlot(req.CategoryID, req.ProductID); err != nil {
			draftError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.DraftResponse{
			Success: true,
			Message: "Slot updated",
			Data:    draftView(draft),
		})
	}
}

// AddDraftItem adds a product to the cart
// @Summary Add item
// @Description Add a product. With confirm_required set, adding a product already in the cart stages the increment until confirmed.
// @Tags Drafts
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param request body models.DraftItemRequest true "Item to add"
// @Success 200 {object} models.DraftResponse
// @Success 202 {object} models.DraftResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/drafts/{id}/items [post]
func AddDraftItem(deps DraftDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		draft, ok := lookupDraft(c, deps)
		if !ok {
			return
		}
		var req models.DraftItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		delta := req.Delta
		if delta == 0 {
			delta = 1
		}
		staged, _, err := draft.Composer.AddProduct(req.ProductID, delta, req.ConfirmRequired)
		if err != nil {
			draftError(c, err)
			return
		}
		status := http.StatusOK
		message := "Item added"
		if staged {
			status = http.StatusAccepted
			message = "Add staged, confirmation required"
		}
		c.JSON(status, models.DraftResponse{
			Success: true,
			Message: message,
			Data:    draftView(draft),
		})
	}
}

// ConfirmDraftItem applies a staged add
// @Summary Confirm staged add
// @Description Apply the pending increment staged by a previous add
// @Tags Drafts
// @Produce json
// @Param id path string true "Draft ID"
// @Success 200 {object} models.DraftResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/drafts/{id}/items/confirm [post]
func ConfirmDraftItem(deps DraftDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		draft, ok := lookupDraft(c, deps)
		if !ok {
			return
		}
		if err := draft.Composer.ConfirmAdd(); err != nil {
			draftError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.DraftResponse{
			Success: true,
			Message: "Item added",
			Data:    draftView(draft),
		})
	}
}

// CancelDraftItem discards a staged add
// @Summary Cancel staged add
// @Description Discard the pending increment without changing the cart
// @Tags Drafts
// @Produce json
// @Param id path string true "Draft ID"
// @Success 200 {object} models.DraftResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/drafts/{id}/items/cancel [post]
func CancelDraftItem(deps DraftDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		draft, ok := lookupDraft(c, deps)
		if !ok {
			return
		}
		draft.Composer.CancelAdd()
		c.JSON(http.StatusOK, models.DraftResponse{
			Success: true,
			Message: "Staged add discarded",
			Data:    draftView(draft),
		})
	}
}

// UpdateDraftQuantity sets a line item's quantity
// @Summary Update item quantity
// @Description Set a line item's quantity. Zero removes the item; more than the stock ceiling is rejected.
// @Tags Drafts
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param productId path string true "Product ID"
// @Param request body models.DraftQuantityRequest true "New quantity"
// @Success 200 {object} models.DraftResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/drafts/{id}/items/{productId} [put]
func UpdateDraftQuantity(deps DraftDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		draft, ok := lookupDraft(c, deps)
		if !ok {
			return
		}
		var req models.DraftQuantityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if _, err := draft.Composer.UpdateQuantity(c.Param("productId"), req.Quantity); err != nil {
			draftError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.DraftResponse{
			Success: true,
			Message: "Quantity updated",
			Data:    draftView(draft),
		})
	}
}

// RemoveDraftItem removes a line item
// @Summary Remove item
// @Description Remove a product from the cart
// @Tags Drafts
// @Produce json
// @Param id path string true "Draft ID"
// @Param productId path string true "Product ID"
// @Success 200 {object} models.DraftResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/drafts/{id}/items/{productId} [delete]
func RemoveDraftItem(deps DraftDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		draft, ok := lookupDraft(c, deps)
		if !ok {
			return
		}
		if !draft.Composer.RemoveItem(c.Param("productId")) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not in cart"})
			return
		}
		c.JSON(http.StatusOK, models.DraftResponse{
			Success: true,
			Message: "Item removed",
			Data:    draftView(draft),
		})
	}
}

// GetDraftCompatibility returns products compatible with the cart
// @Summary Get compatible products
// @Description Get the products usable with the current cart, grouped by category. Recomputes when the cart changed since the last lookup.
// @Tags Drafts
// @Produce json
// @Param id path string true "Draft ID"
// @Success 200 {object} models.CompatibilityResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /api/drafts/{id}/compatible [get]
func GetDraftCompatibility(deps DraftDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		draft, ok := lookupDraft(c, deps)
		if !ok {
			return
		}
		set := draft.Composer.Compatibility()
		if draft.Composer.CompatibilityDirty() {
			var err error
			set, err = draft.Composer.RecomputeCompatibility(c.Request.Context())
			if err != nil {
				draftError(c, err)
				return
			}
		}
		resp := models.CompatibilityResponse{
			Success: true,
			Message: "Success",
		}
		if set != nil {
			resp.Restricted = true
			resp.Data = set.Products
			resp.ByCategory = set.ByCategory
		}
		c.JSON(http.StatusOK, resp)
	}
}

// SubmitDraft finalizes a draft
// @Summary Submit draft
// @Description Persist the draft as an order or quotation. The draft session is closed on success.
// @Tags Drafts
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param request body models.DraftSubmitRequest true "Submission type"
// @Success 201 {object} models.OrderResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /api/drafts/{id}/submit [post]
func SubmitDraft(deps DraftDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		draft, ok := lookupDraft(c, deps)
		if !ok {
			return
		}
		var req models.DraftSubmitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Type != composer.TypeOrder && req.Type != composer.TypeQuotation {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Type must be Order or Quotation"})
			return
		}

		order, err := draft.Composer.Submit(c.Request.Context(), req.Type)
		if err != nil {
			draftError(c, err)
			return
		}
		deps.Store.Delete(draft.ID)
		c.JSON(http.StatusCreated, models.OrderResponse{
			Success: true,
			Message: "Submitted successfully",
			Data:    &order,
		})
	}
}

func lookupDraft(c *gin.Context, deps DraftDeps) (*composer.Draft, bool) {
	draft := deps.Store.Get(c.Param("id"))
	if draft == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Draft not found"})
		return nil, false
	}
	return draft, true
}

func draftView(d *composer.Draft) *models.DraftView {
	view := &models.DraftView{
		ID:          d.ID,
		OrderID:     d.Composer.OrderID(),
		Customer:    d.Composer.Customer(),
		Items:       d.Composer.Items(),
		TotalAmount: d.Composer.Total(),
	}
	if productID, delta, ok := d.Composer.PendingAdd(); ok {
		view.PendingProduct = productID
		view.PendingDelta = delta
	}
	return view
}

// draftError maps composer errors onto HTTP statuses.
func draftError(c *gin.Context, err error) {
	var vErr *composer.ValidationError
	var oosErr *composer.OutOfStockError
	var insErr *composer.InsufficientStockError
	var subErr *composer.SubmitError

	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error(), "field": vErr.Field})
	case errors.As(err, &oosErr):
		c.JSON(http.StatusConflict, gin.H{"error": oosErr.Error()})
	case errors.As(err, &insErr):
		c.JSON(http.StatusConflict, gin.H{"error": insErr.Error(), "available": insErr.Available})
	case errors.Is(err, composer.ErrSubmitInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, composer.ErrUnknownProduct):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, composer.ErrNoPendingAdd):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, composer.ErrCompatibilityFetch):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.As(err, &subErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": subErr.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
