package models

// MonthlyCount is one month's order count
type MonthlyCount struct {
	Month string `json:"month" example:"2024-01"`
	Count int    `json:"count" example:"14"`
}

// MonthlySales is one month's sales total
type MonthlySales struct {
	Month string  `json:"month" example:"2024-01"`
	Total float64 `json:"total" example:"184500.50"`
}

// CategoryCount is the number of products in a category
type CategoryCount struct {
	Category string `json:"category" example:"Processor"`
	Count    int    `json:"count" example:"23"`
}

// DashboardStats aggregates the dashboard figures
type DashboardStats struct {
	TotalProducts      int             `json:"total_products" example:"120"`
	TotalCategories    int             `json:"total_categories" example:"9"`
	TotalOrders        int             `json:"total_orders" example:"42"`
	TotalQuotations    int             `json:"total_quotations" example:"11"`
	PendingQuotations  int             `json:"pending_quotations" example:"4"`
	TotalSales         float64         `json:"total_sales" example:"512400.00"`
	StockUnits         int             `json:"stock_units" example:"1320"`
	LowStockProducts   int             `json:"low_stock_products" example:"6"`
	OrdersByMonth      []MonthlyCount  `json:"orders_by_month"`
	SalesByMonth       []MonthlySales  `json:"sales_by_month"`
	ProductsByCategory []CategoryCount `json:"products_by_category"`
}

// DashboardResponse wraps the dashboard stats
type DashboardResponse struct {
	Success bool            `json:"success" example:"true"`
	Message string          `json:"message" example:"Success"`
	Data    *DashboardStats `json:"data,omitempty"`
	Error   string          `json:"error,omitempty" example:""`
}

// Notification is one row of the notifications table
type Notification struct {
	ID        int    `json:"id" example:"1"`
	Message   string `json:"message" example:"Low stock: Ryzen 5 5600 (2 left)"`
	Status    string `json:"status" example:"unread"`
	Action    string `json:"action" example:"/products"`
	CreatedAt string `json:"created_at" example:"2024-01-15T10:30:00Z"`
}

// NotificationListResponse lists notifications
type NotificationListResponse struct {
	Success bool           `json:"success" example:"true"`
	Message string         `json:"message" example:"Success"`
	Data    []Notification `json:"data,omitempty"`
	Error   string         `json:"error,omitempty" example:""`
}
