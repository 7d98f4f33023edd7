package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"backend/models"
	"backend/storage"
)

// Spreadsheet layout shared by the template and the parser. Columns after
// CostRate are treated as free-form attributes, header = key.
var importHeader = []string{"Name", "Brand", "Model", "Quantity", "SellingRate", "CostRate"}

// ==================== BULK PRODUCT IMPORT ====================

// DownloadProductTemplate serves an empty spreadsheet for bulk imports
// @Summary Download import template
// @Description Download an XLSX template for bulk product import
// @Tags Import
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file "XLSX template"
// @Router /api/products/import/template [get]
func DownloadProductTemplate(c *gin.Context) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, col := range importHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, col)
	}
	sample := []interface{}{"Ryzen 5 5600", "AMD", "100-100000927BOX", 12, 13499, 11800}
	for i, val := range sample {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		f.SetCellValue(sheet, cell, val)
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment;filename=product_import_template.xlsx")
	if err := f.Write(c.Writer); err != nil {
		log.Printf("Failed to write import template: %v", err)
	}
}

// ParseProductImport validates an uploaded spreadsheet
// @Summary Parse import file
// @Description Upload an XLSX file and get back valid and rejected rows. Nothing is persisted yet.
// @Tags Import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "XLSX file"
// @Success 200 {object} models.BulkImportResult
// @Failure 400 {object} models.ErrorResponse
// @Router /api/products/import/parse [post]
func ParseProductImport(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 10<<20) // 10 MB

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File upload failed"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open uploaded file"})
		return
	}
	defer file.Close()

	f, err := excelize.OpenReader(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is not a valid XLSX spreadsheet"})
		return
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil || len(rows) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Spreadsheet has no rows"})
		return
	}

	header := rows[0]
	for i, want := range importHeader {
		if i >= len(header) || !strings.EqualFold(strings.TrimSpace(header[i]), want) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("Unexpected header, expected column %d to be %s", i+1, want),
			})
			return
		}
	}
	attrKeys := header[len(importHeader):]

	result := models.BulkImportResult{Success: true}
	for i, row := range rows[1:] {
		parsed := parseImportRow(i+2, row, attrKeys)
		if parsed.Error != "" {
			result.Failed = append(result.Failed, parsed)
		} else {
			result.Valid = append(result.Valid, parsed)
		}
	}
	result.Message = fmt.Sprintf("Parsed %d rows: %d valid, %d failed",
		len(result.Valid)+len(result.Failed), len(result.Valid), len(result.Failed))
	c.JSON(http.StatusOK, result)
}

func parseImportRow(rowNo int, row []string, attrKeys []string) models.BulkImportRow {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	parsed := models.BulkImportRow{
		Row:   rowNo,
		Name:  cell(0),
		Brand: cell(1),
		Model: cell(2),
	}
	if parsed.Name == "" {
		parsed.Error = "Name is required"
		return parsed
	}

	var err error
	if raw := cell(3); raw != "" {
		if parsed.Quantity, err = strconv.Atoi(raw); err != nil || parsed.Quantity < 0 {
			parsed.Error = "Quantity must be a non-negative whole number"
			return parsed
		}
	}
	if raw := cell(4); raw != "" {
		if parsed.SellingRate, err = strconv.ParseFloat(raw, 64); err != nil || parsed.SellingRate < 0 {
			parsed.Error = "SellingRate must be a non-negative number"
			return parsed
		}
	}
	if raw := cell(5); raw != "" {
		if parsed.CostRate, err = strconv.ParseFloat(raw, 64); err != nil || parsed.CostRate < 0 {
			parsed.Error = "CostRate must be a non-negative number"
			return parsed
		}
	}

	for i, key := range attrKeys {
		if val := cell(len(importHeader) + i); val != "" {
			if parsed.Attributes == nil {
				parsed.Attributes = make(map[string]string)
			}
			parsed.Attributes[strings.TrimSpace(key)] = val
		}
	}
	return parsed
}

// CreateImportedProducts persists previously parsed rows
// @Summary Create imported products
// @Description Insert parsed spreadsheet rows as products of one category
// @Tags Import
// @Accept json
// @Produce json
// @Param request body models.BulkImportCreateRequest true "Rows to persist"
// @Success 201 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /api/products/import [post]
func CreateImportedProducts(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.BulkImportCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if len(req.Products) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No products to import"})
			return
		}

		var categoryName string
		err := db.QueryRowContext(c.Request.Context(),
			`SELECT name FROM categories WHERE id = $1 AND deleted_at IS NULL`, req.CategoryID).
			Scan(&categoryName)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Category does not exist"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}

		tx, err := db.BeginTx(c.Request.Context(), nil)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to begin transaction"})
			return
		}
		defer tx.Rollback()

		for _, row := range req.Products {
			attrs, err := json.Marshal(row.Attributes)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid attributes in row %d", row.Row)})
				return
			}
			_, err = tx.ExecContext(c.Request.Context(), `
				INSERT INTO products (id, name, category_id, brand, model, quantity,
					selling_rate, cost_rate, status, attributes, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'active', $9, NOW(), NOW())
			`, uuid.NewString(), row.Name, req.CategoryID, row.Brand, row.Model,
				row.Quantity, row.SellingRate, row.CostRate, attrs)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": fmt.Sprintf("Failed to insert row %d", row.Row),
				})
				return
			}
		}
		if err := tx.Commit(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit import"})
			return
		}

		msg := fmt.Sprintf("Imported %d products into %s", len(req.Products), categoryName)
		if err := storage.InsertNotification(db, msg, "/products"); err != nil {
			log.Printf("Failed to record import notification: %v", err)
		}
		c.JSON(http.StatusCreated, models.MessageResponse{
			Success: true,
			Message: msg,
		})
	}
}
