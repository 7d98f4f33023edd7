package handlers

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"backend/composer"
	"backend/repository"
)

// ==================== CSV EXPORT ====================

// ExportOrdersCSV streams orders of one type as CSV
// @Summary Export orders as CSV
// @Description Download all orders or quotations as a CSV file, one row per line item
// @Tags Export
// @Produce text/csv
// @Param type query string false "Order or Quotation (default Order)"
// @Success 200 {file} file "CSV file"
// @Failure 400 {object} models.ErrorResponse
// @Router /api/orders/export [get]
func ExportOrdersCSV(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderType := c.DefaultQuery("type", composer.TypeOrder)
		if orderType != composer.TypeOrder && orderType != composer.TypeQuotation {
			c.JSON(http.StatusBadRequest, gin.H{"error": "type must be Order or Quotation"})
			return
		}

		orders := repository.NewOrders(db)
		list, _, _, err := orders.ListOrders(c.Request.Context(), orderType, 1, 1<<30)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
			return
		}

		catalog := repository.NewCatalog(db, nil)
		names := make(map[string]string)
		productName := func(id string) string {
			if name, ok := names[id]; ok {
				return name
			}
			name := id
			if product, err := catalog.GetProduct(c.Request.Context(), id); err == nil {
				name = product.Name
			}
			names[id] = name
			return name
		}

		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition",
			fmt.Sprintf("attachment;filename=%s_export.csv", orderType))

		writer := csv.NewWriter(c.Writer)
		defer writer.Flush()

		header := []string{"OrderID", "Customer", "Email", "Phone", "Status",
			"Product", "Quantity", "Price", "LineTotal", "OrderTotal", "CreatedAt"}
		if err := writer.Write(header); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error writing CSV header"})
			return
		}

		for _, order := range list {
			for _, item := range order.Items {
				row := []string{
					order.ID,
					order.CustomerName,
					order.CustomerEmail,
					order.CustomerPhone,
					order.Status,
					productName(item.ProductID),
					strconv.Itoa(item.Quantity),
					fmt.Sprintf("%.2f", item.Price),
					fmt.Sprintf("%.2f", item.Price*float64(item.Quantity)),
					fmt.Sprintf("%.2f", order.TotalAmount),
					order.CreatedAt.Format("2006-01-02 15:04:05"),
				}
				if err := writer.Write(row); err != nil {
					return
				}
			}
		}
	}
}
