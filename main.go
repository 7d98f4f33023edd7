// @title           Parts Shop API
// @version         1.0
// @description     Computer parts shop backend - catalog, draft orders and quotations.

// @contact.name   API Support

// @BasePath  /

// @schemes http https
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "backend/docs"
	"backend/composer"
	"backend/handlers"
	"backend/repository"
	"backend/services"
	"backend/storage"
)

// DraftMaxIdle is how long an untouched draft survives before the daily
// maintenance sweep discards it.
const DraftMaxIdle = 24 * time.Hour

var cronRunning int32

func CORSConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://localhost:8080",
	}
	if origin := os.Getenv("CORS_ORIGIN"); origin != "" {
		corsConfig.AllowOrigins = append(corsConfig.AllowOrigins, origin)
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsConfig.AllowCredentials = true
	return corsConfig
}

// RunLowStockScan records a notification for every product at or below the
// low-stock threshold.
func RunLowStockScan(db *sql.DB, cronLogger *log.Logger) error {
	rows, err := db.Query(`
		SELECT name, quantity FROM products
		WHERE quantity <= $1 AND status = 'active'
		ORDER BY quantity
	`, handlers.LowStockThreshold)
	if err != nil {
		return fmt.Errorf("low stock scan query failed: %v", err)
	}
	defer rows.Close()

	flagged := 0
	for rows.Next() {
		var name string
		var quantity int
		if err := rows.Scan(&name, &quantity); err != nil {
			return fmt.Errorf("low stock scan failed: %v", err)
		}
		msg := fmt.Sprintf("Low stock: %s (%d left)", name, quantity)
		if err := storage.InsertNotification(db, msg, "/products"); err != nil {
			if cronLogger != nil {
				cronLogger.Printf("Failed to record low stock notification: %v", err)
			}
			continue
		}
		flagged++
	}
	if flagged > 0 {
		log.Printf("Low stock scan flagged %d products", flagged)
	}
	return rows.Err()
}

func main() {
	db := storage.InitDB()
	gormDB := storage.InitGormDB()

	compatService := services.NewCompatibilityService()
	catalog := repository.NewCatalog(db, compatService)
	orders := repository.NewOrders(db)
	draftStore := composer.NewStore()

	draftDeps := handlers.DraftDeps{
		Store:     draftStore,
		Catalog:   catalog,
		Submitter: orders,
		Loader:    orders,
	}

	// Setup cron job to run maintenance daily at 2:30 AM
	c := cron.New(
		cron.WithLogger(cron.VerbosePrintfLogger(log.New(os.Stdout, "cron: ", log.LstdFlags))),
	)

	// Open a file for cron error logging
	cronLogFile, err := os.OpenFile("cron_errors.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Failed to open cron error log file: %v", err)
	}
	cronLogger := log.New(cronLogFile, "CRON_ERROR: ", log.LstdFlags)

	_, err = c.AddFunc("30 2 * * *", func() {
		if !atomic.CompareAndSwapInt32(&cronRunning, 0, 1) {
			log.Println("Previous cron still running. Skipping this run.")
			return
		}
		defer atomic.StoreInt32(&cronRunning, 0)

		log.Println("Starting daily maintenance cron job")

		if removed := draftStore.Sweep(DraftMaxIdle); removed > 0 {
			log.Printf("Swept %d idle drafts", removed)
		}

		if err := RunLowStockScan(db, cronLogger); err != nil {
			log.Printf("Low stock scan failed: %v", err)
			if cronLogger != nil {
				cronLogger.Printf("Low stock scan failed: %v", err)
			}
		}

		log.Println("Daily cron cycle completed")
	})
	if err != nil {
		log.Fatalf("Failed to schedule daily maintenance cron job: %v", err)
	}

	c.Start()

	r := gin.Default()
	r.MaxMultipartMemory = 8 << 20

	r.Use(cors.New(CORSConfig()))

	// ==================== 1. CATEGORIES ====================
	r.POST("/api/categories", handlers.CreateCategory(db))
	r.GET("/api/categories", handlers.GetCategories(db))
	r.PUT("/api/categories/:id", handlers.UpdateCategory(db))
	r.DELETE("/api/categories/:id", handlers.DeleteCategory(db))

	// ==================== 2. PRODUCTS ====================
	r.POST("/api/products", handlers.CreateProduct(db))
	r.GET("/api/products", handlers.GetProducts(db))
	r.GET("/api/products/:id", handlers.GetProduct(db))
	r.PUT("/api/products/:id", handlers.UpdateProduct(db))
	r.DELETE("/api/products/:id", handlers.DeleteProduct(db))

	// ==================== 3. BULK IMPORT ====================
	r.GET("/api/products/import/template", handlers.DownloadProductTemplate)
	r.POST("/api/products/import/parse", handlers.ParseProductImport)
	r.POST("/api/products/import", handlers.CreateImportedProducts(db))

	// ==================== 4. DRAFT ORDER SESSIONS ====================
	r.POST("/api/drafts", handlers.CreateDraft(draftDeps))
	r.GET("/api/drafts/:id", handlers.GetDraft(draftDeps))
	r.DELETE("/api/drafts/:id", handlers.DeleteDraft(draftDeps))
	r.PUT("/api/drafts/:id/customer", handlers.SetDraftCustomer(draftDeps))
	r.PUT("/api/drafts/:id/slots", handlers.SetDraftSlot(draftDeps))
	r.POST("/api/drafts/:id/items", handlers.AddDraftItem(draftDeps))
	r.POST("/api/drafts/:id/items/confirm", handlers.ConfirmDraftItem(draftDeps))
	r.POST("/api/drafts/:id/items/cancel", handlers.CancelDraftItem(draftDeps))
	r.PUT("/api/drafts/:id/items/:productId", handlers.UpdateDraftQuantity(draftDeps))
	r.DELETE("/api/drafts/:id/items/:productId", handlers.RemoveDraftItem(draftDeps))
	r.GET("/api/drafts/:id/compatible", handlers.GetDraftCompatibility(draftDeps))
	r.POST("/api/drafts/:id/submit", handlers.SubmitDraft(draftDeps))

	// ==================== 5. ORDERS & QUOTATIONS ====================
	r.GET("/api/orders", handlers.GetOrders(db))
	r.GET("/api/orders/:id", handlers.GetOrder(db))
	r.DELETE("/api/orders/:id", handlers.DeleteOrder(db))
	r.GET("/api/orders/:id/pdf", handlers.GenerateInvoicePDF(db))
	r.GET("/api/orders/:id/qr", handlers.GenerateShareQRCode(db))
	r.GET("/api/orders/export", handlers.ExportOrdersCSV(db))
	r.GET("/api/quotations", handlers.GetQuotations(db))
	r.PUT("/api/quotations/:id/status", handlers.UpdateQuotationStatus(db))
	r.GET("/api/shared/:token", handlers.GetSharedOrder(db))

	// ==================== 6. DASHBOARD & NOTIFICATIONS ====================
	r.GET("/api/dashboard", handlers.GetDashboardStats(gormDB))
	r.GET("/api/notifications", handlers.GetNotifications(db))
	r.PUT("/api/notifications/:id/read", handlers.MarkNotificationRead(db))
	r.PUT("/api/notifications/read-all", handlers.MarkAllNotificationsRead(db))

	// ==================== 7. SWAGGER ====================
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	// Get port from environment variable or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	portInt, err := strconv.Atoi(port)
	if err != nil {
		log.Fatalf("Invalid PORT environment variable: %s. Must be a number.", port)
	}
	if portInt < 0 || portInt > 65535 {
		log.Fatalf("Invalid PORT: %d. Must be between 0 and 65535.", portInt)
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c.Stop()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exiting")
}
