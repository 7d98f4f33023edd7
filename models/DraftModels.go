package models

import (
	"backend/composer"
)

// CreateDraftRequest opens a new draft session. Passing an order id loads the
// persisted order into the cart (edit mode).
type CreateDraftRequest struct {
	OrderID string `json:"order_id" example:""`
}

// DraftCustomerRequest replaces the draft's customer info
type DraftCustomerRequest struct {
	Name    string `json:"name" example:"Asha Rao"`
	Email   string `json:"email" example:"asha@example.com"`
	Phone   string `json:"phone" example:"9876543210"`
	Address string `json:"address" example:"14 MG Road, Pune"`
}

// DraftSlotRequest assigns a product to a category slot. An empty product id
// clears the slot.
type DraftSlotRequest struct {
	CategoryID string `json:"category_id" binding:"required" example:"c9f1a2b3"`
	ProductID  string `json:"product_id" example:"p7d1e4f2"`
}

// DraftItemRequest adds a product to the cart
type DraftItemRequest struct {
	ProductID       string `json:"product_id" binding:"required" example:"p7d1e4f2"`
	Delta           int    `json:"delta" example:"1"`
	ConfirmRequired bool   `json:"confirm_required" example:"false"`
}

// DraftQuantityRequest sets a line item's quantity
type DraftQuantityRequest struct {
	Quantity int `json:"quantity" example:"2"`
}

// DraftSubmitRequest finalizes a draft as an order or quotation
type DraftSubmitRequest struct {
	Type string `json:"type" binding:"required" example:"Order"`
}

// DraftView is the cart state rendered to clients
type DraftView struct {
	ID             string                `json:"id"`
	OrderID        string                `json:"order_id,omitempty"`
	Customer       composer.CustomerInfo `json:"customer"`
	Items          []composer.LineItem   `json:"items"`
	TotalAmount    float64               `json:"total_amount"`
	PendingProduct string                `json:"pending_product,omitempty"`
	PendingDelta   int                   `json:"pending_delta,omitempty"`
}

// DraftResponse represents the response for draft operations
type DraftResponse struct {
	Success bool       `json:"success" example:"true"`
	Message string     `json:"message" example:"Success"`
	Data    *DraftView `json:"data,omitempty"`
	Error   string     `json:"error,omitempty" example:""`
}

// CompatibilityResponse returns the draft's current compatibility set
type CompatibilityResponse struct {
	Success    bool                          `json:"success" example:"true"`
	Message    string                        `json:"message" example:"Success"`
	Restricted bool                          `json:"restricted" example:"true"`
	Data       []composer.Product            `json:"data,omitempty"`
	ByCategory map[string][]composer.Product `json:"by_category,omitempty"`
	Error      string                        `json:"error,omitempty" example:""`
}
