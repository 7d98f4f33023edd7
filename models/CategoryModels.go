package models

import (
	"time"

	"backend/composer"

	"gorm.io/gorm"
)

// CategoryGorm represents the categories table with GORM tags
type CategoryGorm struct {
	ID          string         `gorm:"primaryKey;column:id" json:"id" example:"c9f1a2b3"`
	Name        string         `gorm:"column:name;not null" json:"name" example:"Processor"`
	Description string         `gorm:"column:description" json:"description" example:"CPUs for desktop builds"`
	CreatedAt   time.Time      `gorm:"column:created_at;not null" json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;not null" json:"updated_at" example:"2024-01-15T10:30:00Z"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for CategoryGorm
func (CategoryGorm) TableName() string {
	return "categories"
}

// CategoryRequest is the create/update request body for a category
type CategoryRequest struct {
	Name        string `json:"name" binding:"required" example:"Processor"`
	Description string `json:"description" example:"CPUs for desktop builds"`
}

// CategoryResponse represents the response for category operations
type CategoryResponse struct {
	Success bool               `json:"success" example:"true"`
	Message string             `json:"message" example:"Success"`
	Data    *composer.Category `json:"data,omitempty"`
	Error   string             `json:"error,omitempty" example:""`
}

// CategoryListResponse represents the response for category list operations
type CategoryListResponse struct {
	Success bool                `json:"success" example:"true"`
	Message string              `json:"message" example:"Success"`
	Data    []composer.Category `json:"data,omitempty"`
	Error   string              `json:"error,omitempty" example:""`
}
