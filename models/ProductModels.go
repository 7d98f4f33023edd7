package models

import (
	"backend/composer"
)

// ProductRequest is the create/update request body for a product
type ProductRequest struct {
	Name        string            `json:"name" binding:"required" example:"Ryzen 5 5600"`
	CategoryID  string            `json:"category_id" binding:"required" example:"c9f1a2b3"`
	Brand       string            `json:"brand" example:"AMD"`
	Model       string            `json:"model" example:"100-100000927BOX"`
	Quantity    int               `json:"quantity" example:"12"`
	SellingRate float64           `json:"selling_rate" example:"13499"`
	CostRate    float64           `json:"cost_rate" example:"11800"`
	Status      string            `json:"status" example:"active"`
	Attributes  map[string]string `json:"attributes"`
}

// ProductResponse represents the response for single product operations
type ProductResponse struct {
	Success bool              `json:"success" example:"true"`
	Message string            `json:"message" example:"Success"`
	Data    *composer.Product `json:"data,omitempty"`
	Error   string            `json:"error,omitempty" example:""`
}

// ProductListResponse represents a paginated product listing
type ProductListResponse struct {
	Success    bool               `json:"success" example:"true"`
	Message    string             `json:"message" example:"Success"`
	Data       []composer.Product `json:"data,omitempty"`
	Total      int                `json:"total" example:"120"`
	TotalPages int                `json:"total_pages" example:"12"`
	Page       int                `json:"page" example:"1"`
	Error      string             `json:"error,omitempty" example:""`
}
