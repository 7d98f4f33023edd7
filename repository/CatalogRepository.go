package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"backend/composer"
)

// DefaultPageSize is the product listing page size when none is requested.
const DefaultPageSize = 12

// CompatibilitySource answers which products are usable together with a
// selection. The HTTP oracle client in services implements it.
type CompatibilitySource interface {
	CompatibleProducts(ctx context.Context, selectedIDs []string) ([]composer.Product, error)
}

// Catalog implements composer.CatalogProvider over the shop database, with
// compatibility lookups delegated to the external oracle.
type Catalog struct {
	db     *sql.DB
	compat CompatibilitySource
}

func NewCatalog(db *sql.DB, compat CompatibilitySource) *Catalog {
	return &Catalog{db: db, compat: compat}
}

func (c *Catalog) ListCategories(ctx context.Context) ([]composer.Category, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(description, '')
		FROM categories
		WHERE deleted_at IS NULL
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %v", err)
	}
	defer rows.Close()

	var categories []composer.Category
	for rows.Next() {
		var cat composer.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Description); err != nil {
			return nil, fmt.Errorf("failed to scan category: %v", err)
		}
		categories = append(categories, cat)
	}
	return categories, rows.Err()
}

func (c *Catalog) GetCategory(ctx context.Context, id string) (composer.Category, error) {
	var cat composer.Category
	err := c.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(description, '')
		FROM categories
		WHERE id = $1 AND deleted_at IS NULL
	`, id).Scan(&cat.ID, &cat.Name, &cat.Description)
	if err != nil {
		return composer.Category{}, err
	}
	return cat, nil
}

// ListProducts returns one page of the catalog. An empty filter returns
// everything (PageSize 0 disables pagination), matching the console's
// products/all endpoint.
func (c *Catalog) ListProducts(ctx context.Context, filter composer.ProductFilter) (composer.ProductPage, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	argIndex := 1

	if s := strings.TrimSpace(filter.Search); s != "" {
		where = append(where, fmt.Sprintf("(LOWER(p.name) LIKE $%d OR LOWER(p.brand) LIKE $%d OR LOWER(p.model) LIKE $%d)", argIndex, argIndex, argIndex))
		args = append(args, "%"+strings.ToLower(s)+"%")
		argIndex++
	}
	if filter.CategoryID != "" {
		where = append(where, fmt.Sprintf("p.category_id = $%d", argIndex))
		args = append(args, filter.CategoryID)
		argIndex++
	}
	condition := strings.Join(where, " AND ")

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM products p WHERE %s", condition)
	if err := c.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return composer.ProductPage{}, fmt.Errorf("failed to count products: %v", err)
	}

	query := fmt.Sprintf(`
		SELECT p.id, p.name, p.brand, p.model, p.quantity, p.selling_rate, p.cost_rate,
		       p.status, p.attributes,
		       COALESCE(p.category_id, ''), COALESCE(c.name, ''), COALESCE(c.description, '')
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE %s
		ORDER BY p.name
	`, condition)

	page := composer.ProductPage{Total: total, TotalPages: 1}
	if filter.PageSize > 0 {
		pageNo := filter.Page
		if pageNo < 1 {
			pageNo = 1
		}
		page.TotalPages = int(math.Ceil(float64(total) / float64(filter.PageSize)))
		if page.TotalPages < 1 {
			page.TotalPages = 1
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
		args = append(args, filter.PageSize, (pageNo-1)*filter.PageSize)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return composer.ProductPage{}, fmt.Errorf("failed to fetch products: %v", err)
	}
	defer rows.Close()

	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return composer.ProductPage{}, err
		}
		page.Items = append(page.Items, product)
	}
	return page, rows.Err()
}

func (c *Catalog) GetProduct(ctx context.Context, id string) (composer.Product, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT p.id, p.name, p.brand, p.model, p.quantity, p.selling_rate, p.cost_rate,
		       p.status, p.attributes,
		       COALESCE(p.category_id, ''), COALESCE(c.name, ''), COALESCE(c.description, '')
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE p.id = $1
	`, id)
	return scanProduct(row)
}

// CompatibleProducts delegates to the oracle. Without a configured oracle the
// catalog reports no restriction data at all.
func (c *Catalog) CompatibleProducts(ctx context.Context, selectedIDs []string) ([]composer.Product, error) {
	if c.compat == nil {
		return nil, fmt.Errorf("compatibility service is not configured")
	}
	return c.compat.CompatibleProducts(ctx, selectedIDs)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (composer.Product, error) {
	var (
		p        composer.Product
		rawAttrs []byte
	)
	err := row.Scan(&p.ID, &p.Name, &p.Brand, &p.Model, &p.Quantity, &p.SellingRate,
		&p.CostRate, &p.Status, &rawAttrs, &p.Category.ID, &p.Category.Name, &p.Category.Description)
	if err != nil {
		return composer.Product{}, err
	}
	if len(rawAttrs) > 0 {
		if err := json.Unmarshal(rawAttrs, &p.Attributes); err != nil {
			return composer.Product{}, fmt.Errorf("failed to decode attributes for product %s: %v", p.ID, err)
		}
	}
	return p, nil
}
