package models

import (
	"time"

	"backend/composer"
)

// OrderGorm represents the orders table with GORM tags. Orders and quotations
// share the table, distinguished by the type column.
type OrderGorm struct {
	ID            string    `gorm:"primaryKey;column:id" json:"id"`
	CustomerName  string    `gorm:"column:customer_name;not null" json:"customer_name"`
	CustomerEmail string    `gorm:"column:customer_email;not null" json:"customer_email"`
	CustomerPhone string    `gorm:"column:customer_phone" json:"customer_phone"`
	Address       string    `gorm:"column:address" json:"address"`
	TotalAmount   float64   `gorm:"column:total_amount" json:"total_amount"`
	Type          string    `gorm:"column:type;not null" json:"type"`
	Status        string    `gorm:"column:status" json:"status"`
	ShareToken    string    `gorm:"column:share_token" json:"share_token"`
	CreatedAt     time.Time `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

// TableName specifies the table name for OrderGorm
func (OrderGorm) TableName() string {
	return "orders"
}

// QuotationStatusRequest updates a quotation's status
type QuotationStatusRequest struct {
	Status string `json:"status" binding:"required" example:"Confirmed"`
}

// OrderResponse represents the response for single order operations
type OrderResponse struct {
	Success bool            `json:"success" example:"true"`
	Message string          `json:"message" example:"Success"`
	Data    *composer.Order `json:"data,omitempty"`
	Error   string          `json:"error,omitempty" example:""`
}

// OrderListResponse represents a paginated order listing
type OrderListResponse struct {
	Success    bool             `json:"success" example:"true"`
	Message    string           `json:"message" example:"Success"`
	Data       []composer.Order `json:"data,omitempty"`
	Total      int              `json:"total" example:"42"`
	TotalPages int              `json:"total_pages" example:"5"`
	Page       int              `json:"page" example:"1"`
	Error      string           `json:"error,omitempty" example:""`
}
