package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"backend/composer"
	"backend/models"
)

// ==================== DASHBOARD ====================

// GetDashboardStats aggregates the dashboard figures
// @Summary Dashboard stats
// @Description Get product, order and sales aggregates for the dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} models.DashboardResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/dashboard [get]
func GetDashboardStats(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		db := gormDB.WithContext(c.Request.Context())
		var stats models.DashboardStats

		var count int64
		if err := db.Table("products").Count(&count).Error; err != nil {
			dashboardError(c, err)
			return
		}
		stats.TotalProducts = int(count)

		if err := db.Table("categories").Where("deleted_at IS NULL").Count(&count).Error; err != nil {
			dashboardError(c, err)
			return
		}
		stats.TotalCategories = int(count)

		if err := db.Model(&models.OrderGorm{}).Where("type = ?", composer.TypeOrder).Count(&count).Error; err != nil {
			dashboardError(c, err)
			return
		}
		stats.TotalOrders = int(count)

		if err := db.Model(&models.OrderGorm{}).Where("type = ?", composer.TypeQuotation).Count(&count).Error; err != nil {
			dashboardError(c, err)
			return
		}
		stats.TotalQuotations = int(count)

		if err := db.Model(&models.OrderGorm{}).
			Where("type = ? AND status = ?", composer.TypeQuotation, composer.StatusPending).
			Count(&count).Error; err != nil {
			dashboardError(c, err)
			return
		}
		stats.PendingQuotations = int(count)

		if err := db.Model(&models.OrderGorm{}).Where("type = ?", composer.TypeOrder).
			Select("COALESCE(SUM(total_amount), 0)").Scan(&stats.TotalSales).Error; err != nil {
			dashboardError(c, err)
			return
		}

		if err := db.Table("products").
			Select("COALESCE(SUM(quantity), 0)").Scan(&stats.StockUnits).Error; err != nil {
			dashboardError(c, err)
			return
		}

		if err := db.Table("products").Where("quantity <= ?", LowStockThreshold).Count(&count).Error; err != nil {
			dashboardError(c, err)
			return
		}
		stats.LowStockProducts = int(count)

		if err := db.Model(&models.OrderGorm{}).
			Select("to_char(created_at, 'YYYY-MM') AS month, COUNT(*) AS count").
			Where("type = ?", composer.TypeOrder).
			Group("month").Order("month").
			Scan(&stats.OrdersByMonth).Error; err != nil {
			dashboardError(c, err)
			return
		}

		if err := db.Model(&models.OrderGorm{}).
			Select("to_char(created_at, 'YYYY-MM') AS month, COALESCE(SUM(total_amount), 0) AS total").
			Where("type = ?", composer.TypeOrder).
			Group("month").Order("month").
			Scan(&stats.SalesByMonth).Error; err != nil {
			dashboardError(c, err)
			return
		}

		if err := db.Table("products p").
			Select("COALESCE(c.name, 'Uncategorized') AS category, COUNT(*) AS count").
			Joins("LEFT JOIN categories c ON p.category_id = c.id").
			Group("c.name").Order("count DESC").
			Scan(&stats.ProductsByCategory).Error; err != nil {
			dashboardError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.DashboardResponse{
			Success: true,
			Message: "Success",
			Data:    &stats,
		})
	}
}

func dashboardError(c *gin.Context, err error) {
	log.Printf("Dashboard query failed: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute dashboard stats"})
}
