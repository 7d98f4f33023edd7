package composer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Order type discriminators and quotation statuses. Orders and quotations are
// the same underlying resource distinguished by the Type tag.
const (
	TypeOrder     = "Order"
	TypeQuotation = "Quotation"

	StatusPending   = "Pending"
	StatusConfirmed = "Confirmed"
)

// Category is a leaf reference entity; products and compatibility are scoped
// per category.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Product is a read-only snapshot of a catalog record. The source of truth
// lives in the catalog; the composer never mutates it.
type Product struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Category    Category          `json:"category"`
	Brand       string            `json:"brand,omitempty"`
	Model       string            `json:"model,omitempty"`
	Quantity    int               `json:"quantity"`
	SellingRate float64           `json:"selling_rate"`
	CostRate    float64           `json:"cost_rate,omitempty"`
	Status      string            `json:"status,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// ProductFilter narrows a catalog listing.
type ProductFilter struct {
	Search     string
	CategoryID string
	Page       int
	PageSize   int
}

// ProductPage is one page of a catalog listing.
type ProductPage struct {
	Items      []Product
	Total      int
	TotalPages int
}

// CustomerInfo holds the customer fields collected alongside the cart.
type CustomerInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// LineItem is one product entry in the cart. Price is snapshotted at add time
// and never follows later catalog price changes. Quantity is always >= 1 while
// the item is present.
type LineItem struct {
	Product  Product `json:"product"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Slot     string  `json:"slot,omitempty"`
}

// OrderItem is the wire form of a line item.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// OrderPayload is the snapshot handed to the submitter.
type OrderPayload struct {
	CustomerName  string      `json:"customer_name"`
	CustomerEmail string      `json:"customer_email"`
	CustomerPhone string      `json:"customer_phone"`
	Address       string      `json:"address"`
	Items         []OrderItem `json:"items"`
	TotalAmount   float64     `json:"total_amount"`
	Type          string      `json:"type"`
}

// Order is a persisted order or quotation.
type Order struct {
	ID            string      `json:"id"`
	CustomerName  string      `json:"customer_name"`
	CustomerEmail string      `json:"customer_email"`
	CustomerPhone string      `json:"customer_phone"`
	Address       string      `json:"address"`
	Items         []OrderItem `json:"items"`
	TotalAmount   float64     `json:"total_amount"`
	Type          string      `json:"type"`
	Status        string      `json:"status,omitempty"`
	ShareToken    string      `json:"share_token,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// CatalogProvider is the composer's read-side collaborator. Implementations
// must return normalized records; response-shape juggling belongs in the
// adapter, never here.
type CatalogProvider interface {
	ListCategories(ctx context.Context) ([]Category, error)
	ListProducts(ctx context.Context, filter ProductFilter) (ProductPage, error)
	// CompatibleProducts returns partial records for the products usable
	// together with the given selection. Full records are authoritative from
	// the catalog and get merged in by the composer.
	CompatibleProducts(ctx context.Context, selectedIDs []string) ([]Product, error)
}

// OrderSubmitter persists completed carts.
type OrderSubmitter interface {
	CreateOrder(ctx context.Context, payload OrderPayload) (Order, error)
	UpdateOrder(ctx context.Context, id string, payload OrderPayload) (Order, error)
}

type pendingAdd struct {
	productID string
	delta     int
}

// Composer owns one in-progress order or quotation: its line items, customer
// info, compatibility state and totals. All mutations go through its methods;
// each either succeeds or reports a specific reason and leaves state unchanged.
type Composer struct {
	mu        sync.Mutex
	catalog   CatalogProvider
	submitter OrderSubmitter

	items    []*LineItem
	slots    map[string]string // category id -> product id
	customer CustomerInfo

	products   map[string]Product // catalog snapshot for lookups and ceilings
	categories []Category

	// Edit mode: the order being edited and the quantities it had reserved at
	// load time. A unit already reserved by this order is not double-counted
	// against catalog stock.
	orderID  string
	original map[string]int

	// cartSeq increments on every mutation that changes the distinct-product
	// set. Compatibility responses carrying an older token are discarded.
	cartSeq     uint64
	compat      *CompatibilitySet
	compatDirty bool

	pending    *pendingAdd
	submitting bool
}

// New creates an empty composer in create mode.
func New(catalog CatalogProvider, submitter OrderSubmitter) *Composer {
	return &Composer{
		catalog:   catalog,
		submitter: submitter,
		slots:     make(map[string]string),
		products:  make(map[string]Product),
		original:  make(map[string]int),
	}
}

// Refresh loads the catalog snapshot (all categories and products) used for
// lookups, stock ceilings and compatibility merges.
func (c *Composer) Refresh(ctx context.Context) error {
	cats, err := c.catalog.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("refresh categories: %w", err)
	}
	page, err := c.catalog.ListProducts(ctx, ProductFilter{})
	if err != nil {
		return fmt.Errorf("refresh products: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.categories = cats
	c.products = make(map[string]Product, len(page.Items))
	for _, p := range page.Items {
		c.products[p.ID] = p
	}
	return nil
}

// LoadOrder switches the composer to edit mode and populates the cart from a
// persisted order, mapping server items back to line items using catalog
// lookups for denormalized names and categories. Item prices come from the
// order, not from the current catalog.
func (c *Composer) LoadOrder(order Order) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.orderID = order.ID
	c.customer = CustomerInfo{
		Name:    order.CustomerName,
		Email:   order.CustomerEmail,
		Phone:   order.CustomerPhone,
		Address: order.Address,
	}
	c.items = c.items[:0]
	c.original = make(map[string]int, len(order.Items))
	for _, it := range order.Items {
		if it.Quantity <= 0 {
			continue
		}
		product, ok := c.products[it.ProductID]
		if !ok {
			product = Product{ID: it.ProductID, Name: "Unknown Product"}
		}
		c.items = append(c.items, &LineItem{
			Product:  product,
			Price:    it.Price,
			Quantity: it.Quantity,
		})
		c.original[it.ProductID] = it.Quantity
	}
	c.bumpCartLocked()
}

// OrderID returns the id of the order being edited, or "" in create mode.
func (c *Composer) OrderID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orderID
}

// SetCustomer replaces the customer info. Validation happens at submit time.
func (c *Composer) SetCustomer(info CustomerInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.customer = info
}

// Customer returns the current customer info.
func (c *Composer) Customer() CustomerInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.customer
}

// Items returns a copy of the current line items in insertion order.
func (c *Composer) Items() []LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]LineItem, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, *it)
	}
	return out
}

// Total is the sum of price x quantity over current line items. It is derived
// on every read, never cached.
func (c *Composer) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalLocked()
}

func (c *Composer) totalLocked() float64 {
	var total float64
	for _, it := range c.items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

// SelectForSlot assigns one product per category slot. An empty productID
// clears the slot and removes its line item. Assigning over an occupied slot
// replaces the previous product with quantity reset to 1. Returns whether the
// distinct-product set changed (i.e. compatibility needs a recompute).
func (c *Composer) SelectForSlot(categoryID, productID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if productID == "" {
		prev, ok := c.slots[categoryID]
		if !ok {
			return false, nil
		}
		delete(c.slots, categoryID)
		c.removeItemLocked(prev)
		c.bumpCartLocked()
		return true, nil
	}

	product, ok := c.products[productID]
	if !ok {
		return false, ErrUnknownProduct
	}
	if product.Quantity == 0 && c.original[productID] == 0 {
		return false, &OutOfStockError{ProductID: productID}
	}

	changed := false
	if prev, ok := c.slots[categoryID]; ok {
		if prev == productID {
			return false, nil
		}
		c.removeItemLocked(prev)
		changed = true
	}

	// One line item per distinct product: a product already in the cart gets
	// attached to the slot instead of appended a second time.
	if item := c.findItemLocked(productID); item != nil {
		if item.Slot != "" {
			delete(c.slots, item.Slot)
		}
		item.Slot = categoryID
		c.slots[categoryID] = productID
		if changed {
			c.bumpCartLocked()
		}
		return changed, nil
	}

	c.slots[categoryID] = productID
	c.items = append(c.items, &LineItem{
		Product:  product,
		Price:    product.SellingRate,
		Quantity: 1,
		Slot:     categoryID,
	})
	c.bumpCartLocked()
	return true, nil
}

// AddProduct inserts a product or increments its quantity by delta. When
// requireConfirm is set and the product is already in the cart, the increment
// is staged and must go through ConfirmAdd or CancelAdd before it applies.
// Returns (staged, distinct-set-changed, error).
func (c *Composer) AddProduct(productID string, delta int, requireConfirm bool) (bool, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	product, ok := c.products[productID]
	if !ok {
		return false, false, ErrUnknownProduct
	}

	if item := c.findItemLocked(productID); item != nil {
		if requireConfirm {
			c.pending = &pendingAdd{productID: productID, delta: delta}
			return true, false, nil
		}
		changed, err := c.applyDeltaLocked(item, delta)
		return false, changed, err
	}

	if delta < 1 {
		delta = 1
	}
	ceiling := c.ceilingLocked(product)
	if ceiling == 0 {
		return false, false, &OutOfStockError{ProductID: productID}
	}
	if delta > ceiling {
		return false, false, &InsufficientStockError{ProductID: productID, Available: ceiling}
	}
	c.items = append(c.items, &LineItem{
		Product:  product,
		Price:    product.SellingRate,
		Quantity: delta,
	})
	c.bumpCartLocked()
	return false, true, nil
}

// PendingAdd reports the staged increment, if any.
func (c *Composer) PendingAdd() (productID string, delta int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return "", 0, false
	}
	return c.pending.productID, c.pending.delta, true
}

// ConfirmAdd applies the staged increment.
func (c *Composer) ConfirmAdd() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return ErrNoPendingAdd
	}
	pending := c.pending
	c.pending = nil
	item := c.findItemLocked(pending.productID)
	if item == nil {
		// The item was removed while the confirmation was open.
		return ErrNoPendingAdd
	}
	_, err := c.applyDeltaLocked(item, pending.delta)
	return err
}

// CancelAdd drops the staged increment, leaving the cart unchanged.
func (c *Composer) CancelAdd() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
}

// UpdateQuantity sets an item's quantity. A value <= 0 removes the item. A
// value above the stock ceiling is rejected with InsufficientStockError and
// the quantity stays unchanged. Returns whether the distinct-product set
// changed.
func (c *Composer) UpdateQuantity(productID string, quantity int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := c.findItemLocked(productID)
	if item == nil {
		return false, ErrUnknownProduct
	}
	if quantity <= 0 {
		c.removeItemLocked(productID)
		c.bumpCartLocked()
		return true, nil
	}
	ceiling := c.ceilingLocked(item.Product)
	if quantity > ceiling {
		return false, &InsufficientStockError{ProductID: productID, Available: ceiling}
	}
	item.Quantity = quantity
	return false, nil
}

// RemoveItem unconditionally removes the line item and clears any associated
// slot selection. Returns whether an item was actually removed.
func (c *Composer) RemoveItem(productID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.findItemLocked(productID) == nil {
		return false
	}
	c.removeItemLocked(productID)
	c.bumpCartLocked()
	return true
}

// Submit validates the customer fields and the cart, then delegates to the
// submitter (create in create mode, update in edit mode) with a snapshot
// payload. The cart is cleared only on success. A second Submit while one is
// in flight fails with ErrSubmitInFlight.
func (c *Composer) Submit(ctx context.Context, orderType string) (Order, error) {
	if orderType != TypeOrder && orderType != TypeQuotation {
		return Order{}, &ValidationError{Field: "type", Reason: "must be Order or Quotation"}
	}

	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return Order{}, ErrSubmitInFlight
	}
	if err := validateCustomer(c.customer); err != nil {
		c.mu.Unlock()
		return Order{}, err
	}
	if len(c.items) == 0 {
		c.mu.Unlock()
		return Order{}, &ValidationError{Field: "items", Reason: "cart is empty"}
	}
	payload := c.payloadLocked(orderType)
	orderID := c.orderID
	c.submitting = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}()

	var (
		order Order
		err   error
	)
	if orderID != "" {
		order, err = c.submitter.UpdateOrder(ctx, orderID, payload)
	} else {
		order, err = c.submitter.CreateOrder(ctx, payload)
	}
	if err != nil {
		return Order{}, &SubmitError{Err: err}
	}

	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()
	return order, nil
}

// Payload builds the submit snapshot without submitting. Used by handlers to
// render previews.
func (c *Composer) Payload(orderType string) OrderPayload {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.payloadLocked(orderType)
}

func (c *Composer) payloadLocked(orderType string) OrderPayload {
	items := make([]OrderItem, 0, len(c.items))
	for _, it := range c.items {
		items = append(items, OrderItem{
			ProductID: it.Product.ID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	return OrderPayload{
		CustomerName:  strings.TrimSpace(c.customer.Name),
		CustomerEmail: strings.TrimSpace(c.customer.Email),
		CustomerPhone: strings.TrimSpace(c.customer.Phone),
		Address:       strings.TrimSpace(c.customer.Address),
		Items:         items,
		TotalAmount:   c.totalLocked(),
		Type:          orderType,
	}
}

// ---- internal helpers, caller must hold c.mu ----

func (c *Composer) findItemLocked(productID string) *LineItem {
	for _, it := range c.items {
		if it.Product.ID == productID {
			return it
		}
	}
	return nil
}

func (c *Composer) removeItemLocked(productID string) {
	for i, it := range c.items {
		if it.Product.ID == productID {
			if it.Slot != "" {
				delete(c.slots, it.Slot)
			}
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// applyDeltaLocked routes an increment through the same floor/ceiling rules as
// UpdateQuantity. Reports whether the distinct-product set changed (a negative
// delta can remove the item).
func (c *Composer) applyDeltaLocked(item *LineItem, delta int) (bool, error) {
	next := item.Quantity + delta
	if next <= 0 {
		c.removeItemLocked(item.Product.ID)
		c.bumpCartLocked()
		return true, nil
	}
	ceiling := c.ceilingLocked(item.Product)
	if next > ceiling {
		return false, &InsufficientStockError{ProductID: item.Product.ID, Available: ceiling}
	}
	item.Quantity = next
	return false, nil
}

// ceilingLocked is the orderable stock ceiling: catalog stock plus whatever
// the order being edited had already reserved at load time.
func (c *Composer) ceilingLocked(p Product) int {
	stock := p.Quantity
	if snap, ok := c.products[p.ID]; ok {
		stock = snap.Quantity
	}
	return stock + c.original[p.ID]
}

func (c *Composer) distinctIDsLocked() []string {
	ids := make([]string, 0, len(c.items))
	for _, it := range c.items {
		ids = append(ids, it.Product.ID)
	}
	sort.Strings(ids)
	return ids
}

// bumpCartLocked records a distinct-product-set change, invalidating any
// in-flight compatibility request.
func (c *Composer) bumpCartLocked() {
	c.cartSeq++
	c.compatDirty = true
	if len(c.items) == 0 {
		// An empty cart has no compatibility restriction.
		c.compat = nil
		c.compatDirty = false
	}
}

func (c *Composer) resetLocked() {
	c.items = c.items[:0]
	c.slots = make(map[string]string)
	c.customer = CustomerInfo{}
	c.original = make(map[string]int)
	c.orderID = ""
	c.pending = nil
	c.compat = nil
	c.compatDirty = false
	c.cartSeq++
}
