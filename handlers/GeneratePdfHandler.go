package handlers

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jung-kurt/gofpdf"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"backend/composer"
	"backend/repository"
	"backend/utils"
)

// ==================== INVOICE PDF ====================

// GenerateInvoicePDF renders an order as a PDF invoice
// @Summary Generate invoice PDF
// @Description Render an order or quotation as a downloadable PDF
// @Tags Orders
// @Produce application/pdf
// @Param id path string true "Order ID"
// @Success 200 {file} file "PDF invoice"
// @Failure 404 {object} models.ErrorResponse
// @Router /api/orders/{id}/pdf [get]
func GenerateInvoicePDF(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		titleCaser := cases.Title(language.Und)

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

		catalog := repository.NewCatalog(db, nil)
		names := make(map[string]string, len(order.Items))
		for _, item := range order.Items {
			product, err := catalog.GetProduct(c.Request.Context(), item.ProductID)
			if err != nil {
				names[item.ProductID] = item.ProductID
				continue
			}
			names[item.ProductID] = product.Name
		}

		heading := "INVOICE"
		if order.Type == composer.TypeQuotation {
			heading = "QUOTATION"
		}

		// --- Generate PDF ---
		pdf := gofpdf.New("P", "mm", "A4", "")
		pdf.AddPage()
		pdf.SetMargins(10, 10, 10)
		pdf.SetFont("Arial", "", 10)

		// --- Header ---
		pdf.SetFont("Arial", "B", 18)
		pdf.Cell(190, 10, heading)
		pdf.Ln(12)

		// --- Customer ---
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(190, 8, "Customer")
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(190, 6, fmt.Sprintf("%s\n%s\n%s\n%s",
			titleCaser.String(order.CustomerName), order.CustomerEmail,
			order.CustomerPhone, order.Address), "", "", false)
		pdf.Ln(4)

		// --- Order Info ---
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(95, 6, fmt.Sprintf("%s No: %s", titleCaser.String(order.Type), order.ID))
		pdf.Cell(95, 6, fmt.Sprintf("Date: %s", order.CreatedAt.Format("02-Jan-2006")))
		pdf.Ln(10)

		// --- Table Header ---
		pdf.SetFont("Arial", "B", 11)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(85, 8, "Item", "1", 0, "L", true, 0, "")
		pdf.CellFormat(25, 8, "Qty", "1", 0, "C", true, 0, "")
		pdf.CellFormat(35, 8, "Rate", "1", 0, "C", true, 0, "")
		pdf.CellFormat(45, 8, "Subtotal", "1", 1, "C", true, 0, "")

		pdf.SetFont("Arial", "", 10)
		for _, item := range order.Items {
			subtotal := item.Price * float64(item.Quantity)
			pdf.CellFormat(85, 8, names[item.ProductID], "1", 0, "L", false, 0, "")
			pdf.CellFormat(25, 8, fmt.Sprintf("%d", item.Quantity), "1", 0, "C", false, 0, "")
			pdf.CellFormat(35, 8, utils.FormatINR(item.Price), "1", 0, "R", false, 0, "")
			pdf.CellFormat(45, 8, utils.FormatINR(subtotal), "1", 1, "R", false, 0, "")
		}

		pdf.Ln(5)

		// --- Total ---
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(145, 8, "Total Amount")
		pdf.CellFormat(45, 8, utils.FormatINR(order.TotalAmount), "1", 1, "R", false, 0, "")

		if order.Type == composer.TypeQuotation && order.Status != "" {
			pdf.Ln(6)
			pdf.SetFont("Arial", "", 10)
			pdf.Cell(190, 8, fmt.Sprintf("Status: %s", order.Status))
		}

		c.Header("Content-Type", "application/pdf")
		c.Header("Content-Disposition",
			fmt.Sprintf("attachment;filename=%s_%s.pdf", order.Type, order.ID))
		if err := pdf.Output(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render PDF"})
		}
	}
}
