package integration

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

type ExternalProduct struct {
	ID       int64  `json:"id"`
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Currency string `json:"currency"`
}

type StockLevel struct {
	ID                int64 `json:"id"`
	WarehouseID       int64 `json:"warehouseId"`
	ExternalProductID int64 `json:"externalProductId"`
	OnHand            int   `json:"onHand"`
	Reserved          int   `json:"reserved"`
}

// Available is onHand minus reserved, never negative.
func (s StockLevel) Available() int {
	if n := s.OnHand - s.Reserved; n > 0 {
		return n
	}
	return 0
}

type Mapping struct {
	ID                int64  `json:"id"`
	InternalItemID    int64  `json:"internalItemId"`
	ExternalProductID int64  `json:"externalProductId"`
	Note              string `json:"note,omitempty"`
}

type Inventory struct {
	d *Dispatcher
}

func NewInventory(d *Dispatcher) *Inventory { return &Inventory{d: d} }

// FindExternalProductByName searches the catalog and picks the exact
// case-insensitive name match, falling back to the first product whose name
// contains, or is contained in, name. It returns nil when nothing matches.
func (c *Inventory) FindExternalProductByName(ctx context.Context, name string) (*ExternalProduct, error) {
	var products []ExternalProduct
	err := c.d.Call(ctx, InventoryPolicy, Request{
		Method: http.MethodGet,
		Path:   "/external-products",
		Query:  url.Values{"q": {name}},
	}, &products)
	if err != nil {
		return nil, err
	}
	return matchByName(products, name), nil
}

func matchByName(products []ExternalProduct, name string) *ExternalProduct {
	want := strings.ToLower(name)
	for i := range products {
		if strings.ToLower(products[i].Name) == want {
			return &products[i]
		}
	}
	for i := range products {
		got := strings.ToLower(products[i].Name)
		if strings.Contains(got, want) || strings.Contains(want, got) {
			return &products[i]
		}
	}
	return nil
}

// TotalAvailableStock sums the available units across every warehouse.
func (c *Inventory) TotalAvailableStock(ctx context.Context, externalProductID int64) (int, error) {
	var levels []StockLevel
	err := c.d.Call(ctx, InventoryPolicy, Request{
		Method: http.MethodGet,
		Path:   "/stock-levels",
		Query:  url.Values{"externalProductId": {strconv.FormatInt(externalProductID, 10)}},
	}, &levels)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, l := range levels {
		total += l.Available()
	}
	return total, nil
}

// MappingToInternalItem returns the first factory item mapped to the external
// product, or nil when there is none.
func (c *Inventory) MappingToInternalItem(ctx context.Context, externalProductID int64) (*Mapping, error) {
	var mappings []Mapping
	err := c.d.Call(ctx, InventoryPolicy, Request{
		Method: http.MethodGet,
		Path:   "/mappings/internal-to-external",
		Query:  url.Values{"externalProductId": {strconv.FormatInt(externalProductID, 10)}},
	}, &mappings)
	if err != nil {
		return nil, err
	}
	if len(mappings) == 0 {
		return nil, nil
	}
	return &mappings[0], nil
}
