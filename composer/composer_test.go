package composer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	categories []Category
	products   []Product

	compatCalls int
	compatFn    func(selectedIDs []string) ([]Product, error)
}

func (f *fakeCatalog) ListCategories(ctx context.Context) ([]Category, error) {
	return f.categories, nil
}

func (f *fakeCatalog) ListProducts(ctx context.Context, filter ProductFilter) (ProductPage, error) {
	return ProductPage{Items: f.products, Total: len(f.products), TotalPages: 1}, nil
}

func (f *fakeCatalog) CompatibleProducts(ctx context.Context, selectedIDs []string) ([]Product, error) {
	f.compatCalls++
	if f.compatFn != nil {
		return f.compatFn(selectedIDs)
	}
	return nil, nil
}

type fakeSubmitter struct {
	created []OrderPayload
	updated []OrderPayload
	fail    error
	block   chan struct{}
}

func (f *fakeSubmitter) CreateOrder(ctx context.Context, payload OrderPayload) (Order, error) {
	if f.block != nil {
		<-f.block
	}
	if f.fail != nil {
		return Order{}, f.fail
	}
	f.created = append(f.created, payload)
	return Order{ID: "ord-1", Type: payload.Type, TotalAmount: payload.TotalAmount}, nil
}

func (f *fakeSubmitter) UpdateOrder(ctx context.Context, id string, payload OrderPayload) (Order, error) {
	if f.fail != nil {
		return Order{}, f.fail
	}
	f.updated = append(f.updated, payload)
	return Order{ID: id, Type: payload.Type, TotalAmount: payload.TotalAmount}, nil
}

func testCatalog() *fakeCatalog {
	cpu := Category{ID: "cat-cpu", Name: "CPU"}
	ram := Category{ID: "cat-ram", Name: "RAM"}
	return &fakeCatalog{
		categories: []Category{cpu, ram},
		products: []Product{
			{ID: "p1", Name: "Ryzen 5 5600", Category: cpu, Quantity: 5, SellingRate: 1000},
			{ID: "p2", Name: "Corsair 16GB", Category: ram, Quantity: 10, SellingRate: 500},
			{ID: "p3", Name: "Ryzen 7 5800X", Category: cpu, Quantity: 3, SellingRate: 2500},
			{ID: "p4", Name: "Kingston 8GB", Category: ram, Quantity: 0, SellingRate: 300},
		},
	}
}

func newTestComposer(t *testing.T) (*Composer, *fakeCatalog, *fakeSubmitter) {
	t.Helper()
	catalog := testCatalog()
	submitter := &fakeSubmitter{}
	c := New(catalog, submitter)
	require.NoError(t, c.Refresh(context.Background()))
	return c, catalog, submitter
}

func validCustomer() CustomerInfo {
	return CustomerInfo{Name: "Asha Rao", Email: "asha@example.com", Phone: "9876543210"}
}

func TestTotalIsSumOfPriceTimesQuantity(t *testing.T) {
	c, _, _ := newTestComposer(t)

	_, _, err := c.AddProduct("p1", 2, false)
	require.NoError(t, err)
	_, _, err = c.AddProduct("p2", 1, false)
	require.NoError(t, err)

	assert.Equal(t, 2500.0, c.Total())

	// Total is derived on every read.
	_, err = c.UpdateQuantity("p2", 4)
	require.NoError(t, err)
	assert.Equal(t, 4000.0, c.Total())
}

func TestUpdateQuantityZeroRemovesItem(t *testing.T) {
	c, _, _ := newTestComposer(t)

	_, _, err := c.AddProduct("p1", 1, false)
	require.NoError(t, err)
	_, _, err = c.AddProduct("p2", 1, false)
	require.NoError(t, err)
	require.Len(t, c.Items(), 2)

	changed, err := c.UpdateQuantity("p1", 0)
	require.NoError(t, err)
	assert.True(t, changed)
	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "p2", items[0].Product.ID)
}

func TestAddProductRespectsStockCeiling(t *testing.T) {
	c, _, _ := newTestComposer(t)

	// p1 has 5 in stock; asking for 6 must fail and leave the cart unchanged.
	_, _, err := c.AddProduct("p1", 6, false)
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 5, insufficient.Available)
	assert.Empty(t, c.Items())

	// p4 has zero stock; the add action is rejected outright.
	_, _, err = c.AddProduct("p4", 1, false)
	var outOfStock *OutOfStockError
	require.ErrorAs(t, err, &outOfStock)
	assert.Empty(t, c.Items())
}

func TestEditModeCeilingAccountsForOriginalReservation(t *testing.T) {
	c, _, _ := newTestComposer(t)

	// p3 has catalog stock 3 and the order being edited had reserved 4 units,
	// so the ceiling is 7.
	c.LoadOrder(Order{
		ID: "ord-9",
		Items: []OrderItem{
			{ProductID: "p3", Quantity: 4, Price: 2500},
		},
	})

	changed, err := c.UpdateQuantity("p3", 7)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = c.UpdateQuantity("p3", 8)
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 7, insufficient.Available)

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 7, items[0].Quantity)
}

func TestLoadOrderKeepsSnapshottedPrices(t *testing.T) {
	c, _, _ := newTestComposer(t)

	// The order stored price 900 even though the catalog now sells p1 at 1000.
	c.LoadOrder(Order{ID: "ord-2", Items: []OrderItem{{ProductID: "p1", Quantity: 2, Price: 900}}})

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 900.0, items[0].Price)
	assert.Equal(t, 1800.0, c.Total())
}

func TestDistinctSetChangeReporting(t *testing.T) {
	c, _, _ := newTestComposer(t)

	_, changed, err := c.AddProduct("p1", 1, false)
	require.NoError(t, err)
	assert.True(t, changed, "a brand-new product enters the distinct set")

	// A second unit of an already-selected product must not trigger recompute.
	_, changed, err = c.AddProduct("p1", 1, false)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = c.UpdateQuantity("p1", 4)
	require.NoError(t, err)
	assert.False(t, changed, "quantity-only change keeps the distinct set")

	changed, err = c.UpdateQuantity("p1", 0)
	require.NoError(t, err)
	assert.True(t, changed, "removal changes the distinct set")
}

func TestRecomputeSkippedForEmptyCart(t *testing.T) {
	c, catalog, _ := newTestComposer(t)

	set, err := c.RecomputeCompatibility(context.Background())
	require.NoError(t, err)
	assert.Nil(t, set)
	assert.Zero(t, catalog.compatCalls)
	assert.True(t, c.Compatibility().Allows("p2"), "empty cart has no restriction")
}

func TestStaleCompatibilityResponseDiscarded(t *testing.T) {
	c, _, _ := newTestComposer(t)

	_, _, err := c.AddProduct("p1", 1, false)
	require.NoError(t, err)

	// R1 is issued for cart {p1}.
	r1, ok := c.beginRecompute()
	require.True(t, ok)

	// Cart becomes {p1,p2}, issuing R2.
	_, _, err = c.AddProduct("p2", 1, false)
	require.NoError(t, err)
	r2, ok := c.beginRecompute()
	require.True(t, ok)

	// R2 resolves first with p3 compatible, then the stale R1 arrives.
	_, applied := c.applyCompatibility(r2, []Product{{ID: "p3"}})
	require.True(t, applied)
	_, applied = c.applyCompatibility(r1, []Product{{ID: "p4"}})
	assert.False(t, applied, "response for an older cart state must be discarded")

	set := c.Compatibility()
	require.NotNil(t, set)
	assert.True(t, set.Allows("p3"))
	assert.False(t, set.Allows("p4"))
}

func TestRecomputeIsIdempotent(t *testing.T) {
	c, catalog, _ := newTestComposer(t)
	catalog.compatFn = func(ids []string) ([]Product, error) {
		return []Product{{ID: "p2"}, {ID: "p3"}}, nil
	}

	_, _, err := c.AddProduct("p1", 1, false)
	require.NoError(t, err)

	first, err := c.RecomputeCompatibility(context.Background())
	require.NoError(t, err)
	second, err := c.RecomputeCompatibility(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.IDs, second.IDs)
	assert.Equal(t, first.Products, second.Products)
	assert.Equal(t, 2, catalog.compatCalls)
}

func TestCompatibilityMergesCatalogMetadata(t *testing.T) {
	c, catalog, _ := newTestComposer(t)
	// The oracle returns partial records: id only.
	catalog.compatFn = func(ids []string) ([]Product, error) {
		return []Product{{ID: "p2"}, {ID: "p1"}}, nil
	}

	_, _, err := c.AddProduct("p1", 1, false)
	require.NoError(t, err)

	set, err := c.RecomputeCompatibility(context.Background())
	require.NoError(t, err)
	require.NotNil(t, set)

	// p1 is already selected: still allowed, but filtered from the display
	// list. p2 carries full catalog metadata after the merge.
	assert.True(t, set.Allows("p1"))
	require.Len(t, set.Products, 1)
	assert.Equal(t, "Corsair 16GB", set.Products[0].Name)
	assert.Equal(t, 500.0, set.Products[0].SellingRate)
	assert.Equal(t, 10, set.Products[0].Quantity)
	require.Len(t, set.ByCategory["RAM"], 1)
}

func TestCompatibilityFetchFailureDegrades(t *testing.T) {
	c, catalog, _ := newTestComposer(t)
	catalog.compatFn = func(ids []string) ([]Product, error) {
		return nil, errors.New("boom")
	}

	_, _, err := c.AddProduct("p1", 1, false)
	require.NoError(t, err)

	_, err = c.RecomputeCompatibility(context.Background())
	require.ErrorIs(t, err, ErrCompatibilityFetch)

	// Degraded to no restriction; cart mutation still works.
	assert.True(t, c.Compatibility().Allows("p3"))
	_, _, err = c.AddProduct("p2", 1, false)
	require.NoError(t, err)
}

func TestSlotSelectionReplacesAndClears(t *testing.T) {
	c, _, _ := newTestComposer(t)

	changed, err := c.SelectForSlot("cat-cpu", "p1")
	require.NoError(t, err)
	assert.True(t, changed)
	_, err = c.UpdateQuantity("p1", 3)
	require.NoError(t, err)

	// Re-assigning the slot replaces the product and resets quantity to 1.
	changed, err = c.SelectForSlot("cat-cpu", "p3")
	require.NoError(t, err)
	assert.True(t, changed)
	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "p3", items[0].Product.ID)
	assert.Equal(t, 1, items[0].Quantity)

	// Clearing the slot removes the line item.
	changed, err = c.SelectForSlot("cat-cpu", "")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, c.Items())

	// Clearing an empty slot is a no-op.
	changed, err = c.SelectForSlot("cat-cpu", "")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestTwoPhaseAddConfirmAndCancel(t *testing.T) {
	c, _, _ := newTestComposer(t)

	// Absent + confirmation required still inserts directly.
	staged, changed, err := c.AddProduct("p1", 1, true)
	require.NoError(t, err)
	assert.False(t, staged)
	assert.True(t, changed)

	// Present + confirmation required stages the increment.
	staged, changed, err = c.AddProduct("p1", 1, true)
	require.NoError(t, err)
	assert.True(t, staged)
	assert.False(t, changed)
	assert.Equal(t, 1, c.Items()[0].Quantity, "staged increment is not applied yet")

	productID, delta, ok := c.PendingAdd()
	require.True(t, ok)
	assert.Equal(t, "p1", productID)
	assert.Equal(t, 1, delta)

	require.NoError(t, c.ConfirmAdd())
	assert.Equal(t, 2, c.Items()[0].Quantity)

	// Cancel leaves the quantity unchanged.
	staged, _, err = c.AddProduct("p1", 1, true)
	require.NoError(t, err)
	require.True(t, staged)
	c.CancelAdd()
	assert.Equal(t, 2, c.Items()[0].Quantity)
	require.ErrorIs(t, c.ConfirmAdd(), ErrNoPendingAdd)
}

func TestSubmitValidation(t *testing.T) {
	c, _, submitter := newTestComposer(t)

	_, _, err := c.AddProduct("p1", 2, false)
	require.NoError(t, err)

	// Missing email: no network call is issued.
	c.SetCustomer(CustomerInfo{Name: "Asha Rao"})
	_, err = c.Submit(context.Background(), TypeOrder)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "email", vErr.Field)
	assert.Empty(t, submitter.created)

	// Malformed phone.
	c.SetCustomer(CustomerInfo{Name: "Asha Rao", Email: "asha@example.com", Phone: "12345"})
	_, err = c.Submit(context.Background(), TypeOrder)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "phone", vErr.Field)

	// Valid customer: exactly one create call, cart cleared on success.
	c.SetCustomer(validCustomer())
	order, err := c.Submit(context.Background(), TypeOrder)
	require.NoError(t, err)
	assert.Equal(t, TypeOrder, order.Type)
	require.Len(t, submitter.created, 1)
	assert.Equal(t, 2000.0, submitter.created[0].TotalAmount)
	assert.Empty(t, c.Items())
	assert.Equal(t, CustomerInfo{}, c.Customer())
}

func TestSubmitEmptyCartRejected(t *testing.T) {
	c, _, submitter := newTestComposer(t)
	c.SetCustomer(validCustomer())

	_, err := c.Submit(context.Background(), TypeQuotation)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "items", vErr.Field)
	assert.Empty(t, submitter.created)
}

func TestSubmitFailureLeavesCartIntact(t *testing.T) {
	c, _, submitter := newTestComposer(t)
	submitter.fail = errors.New("server rejected order")

	_, _, err := c.AddProduct("p1", 1, false)
	require.NoError(t, err)
	c.SetCustomer(validCustomer())

	_, err = c.Submit(context.Background(), TypeOrder)
	var sErr *SubmitError
	require.ErrorAs(t, err, &sErr)

	// Cart retained for retry.
	require.Len(t, c.Items(), 1)
	submitter.fail = nil
	_, err = c.Submit(context.Background(), TypeOrder)
	require.NoError(t, err)
	assert.Empty(t, c.Items())
}

func TestSubmitSingleFlightGuard(t *testing.T) {
	c, _, submitter := newTestComposer(t)
	submitter.block = make(chan struct{})

	_, _, err := c.AddProduct("p1", 1, false)
	require.NoError(t, err)
	c.SetCustomer(validCustomer())

	firstDone := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background(), TypeOrder)
		firstDone <- err
	}()

	// Wait until the first submit is holding the guard.
	require.Eventually(t, func() bool {
		_, err := c.Submit(context.Background(), TypeOrder)
		return errors.Is(err, ErrSubmitInFlight)
	}, 2e9, 1e6)

	close(submitter.block)
	require.NoError(t, <-firstDone)
	require.Len(t, submitter.created, 1)
}

func TestSubmitUsesUpdateInEditMode(t *testing.T) {
	c, _, submitter := newTestComposer(t)

	c.LoadOrder(Order{ID: "ord-7", Items: []OrderItem{{ProductID: "p1", Quantity: 1, Price: 1000}}})
	c.SetCustomer(validCustomer())

	order, err := c.Submit(context.Background(), TypeOrder)
	require.NoError(t, err)
	assert.Equal(t, "ord-7", order.ID)
	require.Len(t, submitter.updated, 1)
	assert.Empty(t, submitter.created)
}

func TestSlotSelectAdoptsFreeAddedItem(t *testing.T) {
	c, _, _ := newTestComposer(t)

	_, _, err := c.AddProduct("p1", 2, false)
	require.NoError(t, err)

	// Selecting a product already in the cart attaches the existing line item
	// to the slot; it never creates a second entry for the same product.
	changed, err := c.SelectForSlot("cat-cpu", "p1")
	require.NoError(t, err)
	assert.False(t, changed)

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].Product.ID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "cat-cpu", items[0].Slot)
	assert.Equal(t, 2000.0, c.Total())
	assert.Equal(t, []string{"p1"}, c.distinctIDsLocked())

	// Clearing the slot now removes that single item.
	changed, err = c.SelectForSlot("cat-cpu", "")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, c.Items())
}

func TestSlotSelectMovesItemBetweenSlots(t *testing.T) {
	c, _, _ := newTestComposer(t)

	changed, err := c.SelectForSlot("cat-cpu", "p1")
	require.NoError(t, err)
	assert.True(t, changed)

	// Reassigning the same product under another slot moves it; the old slot
	// is released and the distinct set stays the same.
	changed, err = c.SelectForSlot("cat-ram", "p1")
	require.NoError(t, err)
	assert.False(t, changed)

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "cat-ram", items[0].Slot)

	changed, err = c.SelectForSlot("cat-cpu", "")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Len(t, c.Items(), 1)
}

func TestAddProductNegativeDeltaReportsRemoval(t *testing.T) {
	c, _, _ := newTestComposer(t)

	_, _, err := c.AddProduct("p1", 2, false)
	require.NoError(t, err)

	// A negative delta that empties the line reports a distinct-set change.
	_, changed, err := c.AddProduct("p1", -2, false)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, c.Items())

	// A decrement that leaves the item in place does not.
	_, _, err = c.AddProduct("p2", 3, false)
	require.NoError(t, err)
	_, changed, err = c.AddProduct("p2", -1, false)
	require.NoError(t, err)
	assert.False(t, changed)
	require.Len(t, c.Items(), 1)
	assert.Equal(t, 2, c.Items()[0].Quantity)
}
