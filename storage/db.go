package storage

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

var db *sql.DB

func InitDB() *sql.DB {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	dbname := os.Getenv("DB_NAME")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")

	connStr := fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=%s sslmode=disable",
		user, password, dbname, host, port)

	var err error
	db, err = sql.Open("postgres", connStr)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Set connection pool settings optimized for light server load
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	if err := EnsureSchema(db); err != nil {
		log.Fatal("Failed to ensure schema:", err)
	}

	return db
}

func GetDB() *sql.DB {
	return db
}

// EnsureSchema creates the shop tables when they do not exist yet.
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS categories (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			description TEXT DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			category_id TEXT REFERENCES categories(id),
			brand TEXT DEFAULT '',
			model TEXT DEFAULT '',
			quantity INTEGER NOT NULL DEFAULT 0,
			selling_rate NUMERIC(12,2) NOT NULL DEFAULT 0,
			cost_rate NUMERIC(12,2) NOT NULL DEFAULT 0,
			status TEXT DEFAULT 'active',
			attributes JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			customer_name TEXT NOT NULL,
			customer_email TEXT NOT NULL,
			customer_phone TEXT DEFAULT '',
			address TEXT DEFAULT '',
			total_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
			type TEXT NOT NULL DEFAULT 'Order',
			status TEXT DEFAULT '',
			share_token TEXT UNIQUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			id SERIAL PRIMARY KEY,
			order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			product_id TEXT NOT NULL REFERENCES products(id),
			quantity INTEGER NOT NULL,
			price NUMERIC(12,2) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id SERIAL PRIMARY KEY,
			message TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'unread',
			action TEXT DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id)`,
		`CREATE INDEX IF NOT EXISTS idx_products_name ON products(LOWER(name))`,
		`CREATE INDEX IF NOT EXISTS idx_orders_type ON orders(type)`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("ensure schema: %v", err)
		}
	}
	return nil
}

// InsertNotification records a user-facing notification row. Failures are
// non-fatal for callers; they log and move on.
func InsertNotification(db *sql.DB, message, action string) error {
	_, err := db.Exec(`
		INSERT INTO notifications (message, status, action, created_at, updated_at)
		VALUES ($1, 'unread', $2, NOW(), NOW())
	`, message, action)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %v", err)
	}
	return nil
}
