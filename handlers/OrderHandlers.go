package handlers

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"backend/composer"
	"backend/models"
	"backend/repository"
)

// ==================== ORDER OPERATIONS ====================

// GetOrders lists orders, newest first
// @Summary List orders
// @Description Get confirmed orders with pagination
// @Tags Orders
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} models.OrderListResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/orders [get]
func GetOrders(db *sql.DB) gin.HandlerFunc {
	return listOrdersByType(db, composer.TypeOrder)
}

// GetQuotations lists quotations, newest first
// @Summary List quotations
// @Description Get quotations with pagination
// @Tags Quotations
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} models.OrderListResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/quotations [get]
func GetQuotations(db *sql.DB) gin.HandlerFunc {
	return listOrdersByType(db, composer.TypeQuotation)
}

func listOrdersByType(db *sql.DB, orderType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "0"))

		orders := repository.NewOrders(db)
		list, total, totalPages, err := orders.ListOrders(c.Request.Context(), orderType, page, pageSize)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
			return
		}
		c.JSON(http.StatusOK, models.OrderListResponse{
			Success:    true,
			Message:    "Success",
			Data:       list,
			Total:      total,
			TotalPages: totalPages,
			Page:       page,
		})
	}
}

// GetOrder fetches one order or quotation
// @Summary Get order
// @Description Get a single order or quotation with its items
// @Tags Orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} models.OrderResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/orders/{id} [get]
func GetOrder(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders := repository.NewOrders(db)
		order, err := orders.GetOrder(c.Request.Context(), c.Param("id"))
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
			return
		}
		c.JSON(http.StatusOK, models.OrderResponse{
			Success: true,
			Message: "Success",
			Data:    &order,
		})
	}
}

// GetSharedOrder resolves a public share token
// @Summary Get shared order
// @Description Get an order or quotation through its public share token
// @Tags Orders
// @Produce json
// @Param token path string true "Share token"
// @Success 200 {object} models.OrderResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/shared/{token} [get]
func GetSharedOrder(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders := repository.NewOrders(db)
		order, err := orders.GetOrderByShareToken(c.Request.Context(), c.Param("token"))
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Shared order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
			return
		}
		c.JSON(http.StatusOK, models.OrderResponse{
			Success: true,
			Message: "Success",
			Data:    &order,
		})
	}
}

// DeleteOrder removes an order and releases its stock
// @Summary Delete order
// @Description Delete an order or quotation. Reserved stock is returned to the catalog.
// @Tags Orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} models.MessageResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/orders/{id} [delete]
func DeleteOrder(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders := repository.NewOrders(db)
		if err := orders.DeleteOrder(c.Request.Context(), c.Param("id")); err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete order"})
			return
		}
		c.JSON(http.StatusOK, models.MessageResponse{
			Success: true,
			Message: "Order deleted successfully",
		})
	}
}

// UpdateQuotationStatus moves a quotation between Pending and Confirmed
// @Summary Update quotation status
// @Description Set a quotation's status to Pending or Confirmed
// @Tags Quotations
// @Accept json
// @Produce json
// @Param id path string true "Quotation ID"
// @Param request body models.QuotationStatusRequest true "Status update request"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/quotations/{id}/status [put]
func UpdateQuotationStatus(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.QuotationStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Status != composer.StatusPending && req.Status != composer.StatusConfirmed {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Status must be Pending or Confirmed"})
			return
		}

		orders := repository.NewOrders(db)
		if err := orders.UpdateQuotationStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Quotation not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update quotation status"})
			return
		}
		c.JSON(http.StatusOK, models.MessageResponse{
			Success: true,
			Message: "Quotation status updated successfully",
		})
	}
}
