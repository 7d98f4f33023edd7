package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"backend/models"
	"backend/repository"
)

// ==================== CATEGORY CRUD OPERATIONS ====================

// CreateCategory creates a new category
// @Summary Create category
// @Description Create a new product category
// @Tags Categories
// @Accept json
// @Produce json
// @Param request body models.CategoryRequest true "Category creation request"
// @Success 201 {object} models.CategoryResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/categories [post]
func CreateCategory(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		id := uuid.NewString()
		_, err := db.ExecContext(c.Request.Context(), `
			INSERT INTO categories (id, name, description, created_at, updated_at)
			VALUES ($1, $2, $3, NOW(), NOW())
		`, id, req.Name, req.Description)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				c.JSON(http.StatusConflict, gin.H{"error": "Category with this name already exists"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
			return
		}

		catalog := repository.NewCatalog(db, nil)
		category, err := catalog.GetCategory(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load created category"})
			return
		}

		c.JSON(http.StatusCreated, models.CategoryResponse{
			Success: true,
			Message: "Category created successfully",
			Data:    &category,
		})
	}
}

// GetCategories lists all categories
// @Summary List categories
// @Description Get all product categories
// @Tags Categories
// @Produce json
// @Success 200 {object} models.CategoryListResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/categories [get]
func GetCategories(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		catalog := repository.NewCatalog(db, nil)
		categories, err := catalog.ListCategories(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
			return
		}
		c.JSON(http.StatusOK, models.CategoryListResponse{
			Success: true,
			Message: "Success",
			Data:    categories,
		})
	}
}

// UpdateCategory updates a category
// @Summary Update category
// @Description Update a category's name or description
// @Tags Categories
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Param request body models.CategoryRequest true "Category update request"
// @Success 200 {object} models.CategoryResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/categories/{id} [put]
func UpdateCategory(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		var req models.CategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		res, err := db.ExecContext(c.Request.Context(), `
			UPDATE categories SET name = $1, description = $2, updated_at = NOW()
			WHERE id = $3 AND deleted_at IS NULL
		`, req.Name, req.Description, id)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				c.JSON(http.StatusConflict, gin.H{"error": "Category with this name already exists"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update category"})
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}

		catalog := repository.NewCatalog(db, nil)
		category, err := catalog.GetCategory(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load updated category"})
			return
		}
		c.JSON(http.StatusOK, models.CategoryResponse{
			Success: true,
			Message: "Category updated successfully",
			Data:    &category,
		})
	}
}

// DeleteCategory soft-deletes a category
// @Summary Delete category
// @Description Soft-delete a category. Products keep their reference.
// @Tags Categories
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} models.MessageResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/categories/{id} [delete]
func DeleteCategory(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		res, err := db.ExecContext(c.Request.Context(), `
			UPDATE categories SET deleted_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND deleted_at IS NULL
		`, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete category"})
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}
		c.JSON(http.StatusOK, models.MessageResponse{
			Success: true,
			Message: "Category deleted successfully",
		})
	}
}
