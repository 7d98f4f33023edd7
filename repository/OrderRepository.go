package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"backend/composer"
)

// Orders persists orders and quotations. Stock is adjusted inside the same
// transaction as the order rows so a failed write never leaks inventory.
type Orders struct {
	db *sql.DB
}

func NewOrders(db *sql.DB) *Orders {
	return &Orders{db: db}
}

// CreateOrder inserts an order with its items and decrements product stock.
// A product without enough stock aborts the whole transaction.
func (o *Orders) CreateOrder(ctx context.Context, payload composer.OrderPayload) (composer.Order, error) {
	tx, err := o.db.BeginTx(ctx, nil)
	if err != nil {
		return composer.Order{}, fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	order := composer.Order{
		ID:            uuid.NewString(),
		CustomerName:  payload.CustomerName,
		CustomerEmail: payload.CustomerEmail,
		CustomerPhone: payload.CustomerPhone,
		Address:       payload.Address,
		Items:         payload.Items,
		TotalAmount:   payload.TotalAmount,
		Type:          payload.Type,
		ShareToken:    uuid.NewString(),
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if order.Type == composer.TypeQuotation {
		order.Status = composer.StatusPending
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, customer_name, customer_email, customer_phone, address,
			total_amount, type, status, share_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, order.ID, order.CustomerName, order.CustomerEmail, order.CustomerPhone, order.Address,
		order.TotalAmount, order.Type, order.Status, order.ShareToken, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return composer.Order{}, fmt.Errorf("failed to insert order: %v", err)
	}

	if err := insertItems(ctx, tx, order.ID, payload.Items); err != nil {
		return composer.Order{}, err
	}
	return order, tx.Commit()
}

// UpdateOrder replaces the items of an existing order. Stock held by the old
// items is released first, then re-reserved for the new set.
func (o *Orders) UpdateOrder(ctx context.Context, id string, payload composer.OrderPayload) (composer.Order, error) {
	tx, err := o.db.BeginTx(ctx, nil)
	if err != nil {
		return composer.Order{}, fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	if err := releaseItems(ctx, tx, id); err != nil {
		return composer.Order{}, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
		return composer.Order{}, fmt.Errorf("failed to clear order items: %v", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET customer_name = $1, customer_email = $2, customer_phone = $3, address = $4,
		    total_amount = $5, updated_at = NOW()
		WHERE id = $6
	`, payload.CustomerName, payload.CustomerEmail, payload.CustomerPhone, payload.Address,
		payload.TotalAmount, id)
	if err != nil {
		return composer.Order{}, fmt.Errorf("failed to update order: %v", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return composer.Order{}, sql.ErrNoRows
	}

	if err := insertItems(ctx, tx, id, payload.Items); err != nil {
		return composer.Order{}, err
	}
	if err := tx.Commit(); err != nil {
		return composer.Order{}, err
	}
	return o.GetOrder(ctx, id)
}

// DeleteOrder removes an order and releases the stock its items were holding.
func (o *Orders) DeleteOrder(ctx context.Context, id string) error {
	tx, err := o.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	if err := releaseItems(ctx, tx, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %v", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

func (o *Orders) GetOrder(ctx context.Context, id string) (composer.Order, error) {
	return o.getOrderBy(ctx, "id", id)
}

// GetOrderByShareToken resolves a public share link to its order.
func (o *Orders) GetOrderByShareToken(ctx context.Context, token string) (composer.Order, error) {
	return o.getOrderBy(ctx, "share_token", token)
}

func (o *Orders) getOrderBy(ctx context.Context, column, value string) (composer.Order, error) {
	var order composer.Order
	query := fmt.Sprintf(`
		SELECT id, customer_name, customer_email, customer_phone, address,
		       total_amount, type, COALESCE(status, ''), COALESCE(share_token, ''),
		       created_at, updated_at
		FROM orders WHERE %s = $1
	`, column)
	err := o.db.QueryRowContext(ctx, query, value).Scan(
		&order.ID, &order.CustomerName, &order.CustomerEmail, &order.CustomerPhone,
		&order.Address, &order.TotalAmount, &order.Type, &order.Status, &order.ShareToken,
		&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return composer.Order{}, err
	}
	order.Items, err = o.loadItems(ctx, order.ID)
	return order, err
}

// ListOrders pages through orders of one type, newest first.
func (o *Orders) ListOrders(ctx context.Context, orderType string, page, pageSize int) ([]composer.Order, int, int, error) {
	var total int
	if err := o.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE type = $1`, orderType).Scan(&total); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to count orders: %v", err)
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))
	if totalPages < 1 {
		totalPages = 1
	}

	rows, err := o.db.QueryContext(ctx, `
		SELECT id, customer_name, customer_email, customer_phone, address,
		       total_amount, type, COALESCE(status, ''), COALESCE(share_token, ''),
		       created_at, updated_at
		FROM orders
		WHERE type = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, orderType, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to fetch orders: %v", err)
	}
	defer rows.Close()

	var orders []composer.Order
	for rows.Next() {
		var order composer.Order
		if err := rows.Scan(&order.ID, &order.CustomerName, &order.CustomerEmail,
			&order.CustomerPhone, &order.Address, &order.TotalAmount, &order.Type,
			&order.Status, &order.ShareToken, &order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, 0, 0, fmt.Errorf("failed to scan order: %v", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}

	for i := range orders {
		items, err := o.loadItems(ctx, orders[i].ID)
		if err != nil {
			return nil, 0, 0, err
		}
		orders[i].Items = items
	}
	return orders, total, totalPages, nil
}

// UpdateQuotationStatus moves a quotation between Pending and Confirmed.
func (o *Orders) UpdateQuotationStatus(ctx context.Context, id, status string) error {
	res, err := o.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2 AND type = $3
	`, status, id, composer.TypeQuotation)
	if err != nil {
		return fmt.Errorf("failed to update quotation status: %v", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (o *Orders) loadItems(ctx context.Context, orderID string) ([]composer.OrderItem, error) {
	rows, err := o.db.QueryContext(ctx, `
		SELECT product_id, quantity, price
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order items: %v", err)
	}
	defer rows.Close()

	var items []composer.OrderItem
	for rows.Next() {
		var item composer.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %v", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// insertItems writes item rows and reserves stock. The guarded UPDATE keeps
// the decrement atomic; zero rows affected means another sale got there first.
func insertItems(ctx context.Context, tx *sql.Tx, orderID string, items []composer.OrderItem) error {
	for _, item := range items {
		res, err := tx.ExecContext(ctx, `
			UPDATE products SET quantity = quantity - $1, updated_at = NOW()
			WHERE id = $2 AND quantity >= $1
		`, item.Quantity, item.ProductID)
		if err != nil {
			return fmt.Errorf("failed to reserve stock for %s: %v", item.ProductID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("insufficient stock for product %s", item.ProductID)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, price)
			VALUES ($1, $2, $3, $4)
		`, orderID, item.ProductID, item.Quantity, item.Price)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %v", err)
		}
	}
	return nil
}

// releaseItems returns the stock held by an order's current items.
func releaseItems(ctx context.Context, tx *sql.Tx, orderID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE products p
		SET quantity = p.quantity + oi.quantity, updated_at = NOW()
		FROM order_items oi
		WHERE oi.order_id = $1 AND oi.product_id = p.id
	`, orderID)
	if err != nil {
		return fmt.Errorf("failed to release stock: %v", err)
	}
	return nil
}
