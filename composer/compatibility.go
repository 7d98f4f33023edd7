package composer

import (
	"context"
	"fmt"
)

// CompatibilitySet is the server-determined set of products usable together
// with the current cart contents, merged with catalog metadata and grouped by
// category for display. A nil set means no restriction (empty cart or
// degraded after a fetch failure).
type CompatibilitySet struct {
	// Token is the cart sequence the set was computed for.
	Token uint64 `json:"-"`
	// IDs holds every compatible product id, including ones already selected.
	IDs map[string]bool `json:"-"`
	// Products are the compatible products not yet in the cart.
	Products []Product `json:"products"`
	// ByCategory groups Products by category name for display.
	ByCategory map[string][]Product `json:"by_category"`
}

// Allows reports whether a product is selectable under this set. A nil set
// allows everything.
func (s *CompatibilitySet) Allows(productID string) bool {
	if s == nil {
		return true
	}
	return s.IDs[productID]
}

// CompatibilityRequest identifies one issued recompute. Token ties the
// response back to the cart state that triggered it.
type CompatibilityRequest struct {
	Token      uint64
	ProductIDs []string
}

// Compatibility returns the current set, or nil when there is no restriction.
func (c *Composer) Compatibility() *CompatibilitySet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.compat
}

// CompatibilityDirty reports whether the distinct-product set changed since
// the last applied recompute.
func (c *Composer) CompatibilityDirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.compatDirty
}

// RecomputeCompatibility asks the catalog for the compatibility set of the
// current distinct-product set and applies it wholesale. Responses issued for
// an older cart state are discarded (last-triggered-wins). A provider failure
// degrades to "no compatibility info" and never blocks cart editing.
func (c *Composer) RecomputeCompatibility(ctx context.Context) (*CompatibilitySet, error) {
	req, ok := c.beginRecompute()
	if !ok {
		return nil, nil
	}

	stubs, err := c.catalog.CompatibleProducts(ctx, req.ProductIDs)
	if err != nil {
		c.degradeCompatibility(req)
		return nil, fmt.Errorf("%w: %v", ErrCompatibilityFetch, err)
	}

	if set, applied := c.applyCompatibility(req, stubs); applied {
		return set, nil
	}
	// A newer recompute superseded this one; report whatever is current.
	return c.Compatibility(), nil
}

// beginRecompute snapshots the distinct-product set and the cart token the
// request is issued for. ok is false when the cart is empty, in which case
// any prior restriction is cleared.
func (c *Composer) beginRecompute() (CompatibilityRequest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) == 0 {
		c.compat = nil
		c.compatDirty = false
		return CompatibilityRequest{}, false
	}
	return CompatibilityRequest{Token: c.cartSeq, ProductIDs: c.distinctIDsLocked()}, true
}

// applyCompatibility merges partial records with the catalog snapshot, drops
// already-selected products from the display list, groups by category, and
// replaces the prior set entirely. The response is discarded when the cart's
// distinct-product set changed since the request was issued.
func (c *Composer) applyCompatibility(req CompatibilityRequest, stubs []Product) (*CompatibilitySet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if req.Token != c.cartSeq {
		return nil, false
	}

	set := &CompatibilitySet{
		Token:      req.Token,
		IDs:        make(map[string]bool, len(stubs)),
		ByCategory: make(map[string][]Product),
	}
	selected := make(map[string]bool, len(c.items))
	for _, it := range c.items {
		selected[it.Product.ID] = true
	}

	for _, stub := range stubs {
		merged := stub
		if full, ok := c.products[stub.ID]; ok {
			// The compatibility provider returns partial records; the catalog
			// is authoritative for price, stock, brand, category, attributes.
			merged = full
		}
		set.IDs[merged.ID] = true
		if selected[merged.ID] {
			continue
		}
		set.Products = append(set.Products, merged)
		name := merged.Category.Name
		if name == "" {
			name = c.categoryNameLocked(merged.Category.ID)
		}
		if name == "" {
			name = "Uncategorized"
		}
		set.ByCategory[name] = append(set.ByCategory[name], merged)
	}

	c.compat = set
	c.compatDirty = false
	return set, true
}

// degradeCompatibility clears the restriction after a failed fetch, but only
// if no newer cart state has taken over.
func (c *Composer) degradeCompatibility(req CompatibilityRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if req.Token != c.cartSeq {
		return
	}
	c.compat = nil
}

func (c *Composer) categoryNameLocked(id string) string {
	for _, cat := range c.categories {
		if cat.ID == id {
			return cat.Name
		}
	}
	return ""
}
