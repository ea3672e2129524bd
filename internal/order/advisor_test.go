package order

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MikeMC777/vendor-backoffice/internal/audit"
	"github.com/MikeMC777/vendor-backoffice/internal/audit/audittest"
	"github.com/MikeMC777/vendor-backoffice/internal/integration"
)

type fakeInventory struct {
	products  map[string]*integration.ExternalProduct
	stock     map[int64]int
	mappings  map[int64]*integration.Mapping
	lookupErr error
}

func (f *fakeInventory) FindExternalProductByName(_ context.Context, name string) (*integration.ExternalProduct, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.products[name], nil
}

func (f *fakeInventory) TotalAvailableStock(_ context.Context, id int64) (int, error) {
	return f.stock[id], nil
}

func (f *fakeInventory) MappingToInternalItem(_ context.Context, id int64) (*integration.Mapping, error) {
	return f.mappings[id], nil
}

type fakeFactory struct {
	err   error
	calls []integration.ProductionOrderInput
}

func (f *fakeFactory) CreateProductionOrder(_ context.Context, in integration.ProductionOrderInput) (*integration.ProductionOrder, error) {
	f.calls = append(f.calls, in)
	if f.err != nil {
		return nil, f.err
	}
	return &integration.ProductionOrder{ID: 77, VendorOrderID: in.VendorOrderID, Quantity: in.Quantity}, nil
}

func line(name string, qty int) Item {
	pid := "p-" + name
	return Item{ProductID: &pid, ProductName: name, Quantity: qty}
}

func newInventory() *fakeInventory {
	return &fakeInventory{
		products: map[string]*integration.ExternalProduct{"Oak Desk": {ID: 5, Name: "Oak Desk"}},
		stock:    map[int64]int{5: 2},
		mappings: map[int64]*integration.Mapping{5: {ID: 1, InternalItemID: 42, ExternalProductID: 5}},
	}
}

func TestAdvise_ShortageCreatesProductionOrder(t *testing.T) {
	fac := &fakeFactory{}
	rec := &audittest.Recorder{}
	a := NewAdvisor(newInventory(), fac, rec, zap.NewNop())

	a.Advise(context.Background(), "order-1", []Item{line("Oak Desk", 5)})

	require.Len(t, fac.calls, 1)
	in := fac.calls[0]
	assert.Equal(t, "order-1", in.VendorOrderID)
	assert.Equal(t, int64(42), in.InternalItemID)
	assert.Equal(t, 3, in.Quantity)
	assert.Equal(t, 1, in.Priority)
	assert.Equal(t, "Automatic order: insufficient stock. Available: 2, Requested: 5, Product: Oak Desk", in.Notes)

	e, ok := rec.Find(audit.ActionProductionOrderCreated)
	require.True(t, ok)
	assert.Equal(t, "order-1", e.EntityID)
	assert.Equal(t, "factory", e.Metadata["integration"])
}

func TestAdvise_NothingToDo(t *testing.T) {
	fac := &fakeFactory{}
	rec := &audittest.Recorder{}
	inv := newInventory()
	a := NewAdvisor(inv, fac, rec, zap.NewNop())

	deleted := Item{ProductName: "Oak Desk", Quantity: 50}
	a.Advise(context.Background(), "o", []Item{
		line("Oak Desk", 2), // covered by stock
		line("Unknown", 10), // not in inventory
		deleted,             // product gone
	})
	assert.Empty(t, fac.calls)

	inv.mappings = nil
	a.Advise(context.Background(), "o", []Item{line("Oak Desk", 9)})
	assert.Empty(t, fac.calls)
	assert.Empty(t, rec.Events())
}

func TestAdvise_FailuresAreContained(t *testing.T) {
	fac := &fakeFactory{err: errors.New("factory down")}
	rec := &audittest.Recorder{}
	inv := newInventory()
	a := NewAdvisor(inv, fac, rec, zap.NewNop())

	a.Advise(context.Background(), "o", []Item{line("Oak Desk", 5)})
	e, ok := rec.Find(audit.ActionProductionOrderFailed)
	require.True(t, ok)
	assert.Equal(t, "factory down", e.Changes.After.(map[string]any)["error"])

	inv.lookupErr = errors.New("inventory down")
	a.Advise(context.Background(), "o", []Item{line("Oak Desk", 5)})
	assert.Len(t, fac.calls, 1)
}

func TestCreate_RunsAdvisor(t *testing.T) {
	f := newFixture(t)
	fac := &fakeFactory{}
	f.svc.advisor = NewAdvisor(newInventory(), fac, f.rec, zap.NewNop())

	a := f.create(t)
	require.Len(t, fac.calls, 1)
	assert.Equal(t, a.ID, fac.calls[0].VendorOrderID)
	assert.Equal(t, 1, fac.calls[0].Quantity)
}
