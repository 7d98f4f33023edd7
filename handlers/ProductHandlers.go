package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"backend/composer"
	"backend/models"
	"backend/repository"
	"backend/storage"
)

// LowStockThreshold is the quantity at or below which a product raises a
// low-stock notification.
const LowStockThreshold = 3

// ==================== PRODUCT CRUD OPERATIONS ====================

// CreateProduct creates a new product
// @Summary Create product
// @Description Create a new product in a category
// @Tags Products
// @Accept json
// @Produce json
// @Param request body models.ProductRequest true "Product creation request"
// @Success 201 {object} models.ProductResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /api/products [post]
func CreateProduct(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Quantity < 0 || req.SellingRate < 0 || req.CostRate < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity and rates must not be negative"})
			return
		}

		catalog := repository.NewCatalog(db, nil)
		if _, err := catalog.GetCategory(c.Request.Context(), req.CategoryID); err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Category does not exist"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}

		status := req.Status
		if status == "" {
			status = "active"
		}
		attrs, err := json.Marshal(req.Attributes)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid attributes"})
			return
		}

		id := uuid.NewString()
		_, err = db.ExecContext(c.Request.Context(), `
			INSERT INTO products (id, name, category_id, brand, model, quantity,
				selling_rate, cost_rate, status, attributes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		`, id, req.Name, req.CategoryID, req.Brand, req.Model, req.Quantity,
			req.SellingRate, req.CostRate, status, attrs)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
			return
		}

		product, err := catalog.GetProduct(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load created product"})
			return
		}
		c.JSON(http.StatusCreated, models.ProductResponse{
			Success: true,
			Message: "Product created successfully",
			Data:    &product,
		})
	}
}

// GetProducts lists products with search, category filter and pagination
// @Summary List products
// @Description Get products, optionally filtered by search text and category. Omit page_size to fetch everything.
// @Tags Products
// @Produce json
// @Param search query string false "Search in name, brand and model"
// @Param category_id query string false "Filter by category"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} models.ProductListResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/products [get]
func GetProducts(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := composer.ProductFilter{
			Search:     c.Query("search"),
			CategoryID: c.Query("category_id"),
		}
		filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
		if raw, ok := c.GetQuery("page_size"); ok {
			filter.PageSize, _ = strconv.Atoi(raw)
		} else {
			filter.PageSize = repository.DefaultPageSize
		}

		catalog := repository.NewCatalog(db, nil)
		page, err := catalog.ListProducts(c.Request.Context(), filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
			return
		}
		c.JSON(http.StatusOK, models.ProductListResponse{
			Success:    true,
			Message:    "Success",
			Data:       page.Items,
			Total:      page.Total,
			TotalPages: page.TotalPages,
			Page:       filter.Page,
		})
	}
}

// GetProduct fetches one product
// @Summary Get product
// @Description Get a single product by id
// @Tags Products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} models.ProductResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/products/{id} [get]
func GetProduct(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		catalog := repository.NewCatalog(db, nil)
		product, err := catalog.GetProduct(c.Request.Context(), c.Param("id"))
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
			return
		}
		c.JSON(http.StatusOK, models.ProductResponse{
			Success: true,
			Message: "Success",
			Data:    &product,
		})
	}
}

// UpdateProduct updates a product
// @Summary Update product
// @Description Update a product's details and stock
// @Tags Products
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param request body models.ProductRequest true "Product update request"
// @Success 200 {object} models.ProductResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/products/{id} [put]
func UpdateProduct(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		var req models.ProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Quantity < 0 || req.SellingRate < 0 || req.CostRate < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity and rates must not be negative"})
			return
		}
		attrs, err := json.Marshal(req.Attributes)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid attributes"})
			return
		}

		res, err := db.ExecContext(c.Request.Context(), `
			UPDATE products
			SET name = $1, category_id = $2, brand = $3, model = $4, quantity = $5,
			    selling_rate = $6, cost_rate = $7, status = $8, attributes = $9,
			    updated_at = NOW()
			WHERE id = $10
		`, req.Name, req.CategoryID, req.Brand, req.Model, req.Quantity,
			req.SellingRate, req.CostRate, req.Status, attrs, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}

		CheckLowStock(db, id)

		catalog := repository.NewCatalog(db, nil)
		product, err := catalog.GetProduct(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load updated product"})
			return
		}
		c.JSON(http.StatusOK, models.ProductResponse{
			Success: true,
			Message: "Product updated successfully",
			Data:    &product,
		})
	}
}

// DeleteProduct removes a product
// @Summary Delete product
// @Description Delete a product. Fails while order items still reference it.
// @Tags Products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} models.MessageResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/products/{id} [delete]
func DeleteProduct(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		var referenced bool
		err := db.QueryRowContext(c.Request.Context(),
			`SELECT EXISTS(SELECT 1 FROM order_items WHERE product_id = $1)`, id).Scan(&referenced)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		if referenced {
			c.JSON(http.StatusConflict, gin.H{"error": "Product is referenced by existing orders"})
			return
		}

		res, err := db.ExecContext(c.Request.Context(), `DELETE FROM products WHERE id = $1`, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusOK, models.MessageResponse{
			Success: true,
			Message: "Product deleted successfully",
		})
	}
}

// CheckLowStock raises a notification when a product's stock falls to the
// threshold. Failures only log.
func CheckLowStock(db *sql.DB, productID string) {
	var name string
	var quantity int
	err := db.QueryRow(`SELECT name, quantity FROM products WHERE id = $1`, productID).
		Scan(&name, &quantity)
	if err != nil {
		log.Printf("Low stock check failed for %s: %v", productID, err)
		return
	}
	if quantity > LowStockThreshold {
		return
	}
	msg := fmt.Sprintf("Low stock: %s (%d left)", name, quantity)
	if err := storage.InsertNotification(db, msg, "/products"); err != nil {
		log.Printf("Failed to record low stock notification: %v", err)
	}
}
