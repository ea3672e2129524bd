package order

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/MikeMC777/vendor-backoffice/internal/audit"
	"github.com/MikeMC777/vendor-backoffice/internal/integration"
)

// Inventory is the stock side of the advisor.
type Inventory interface {
	FindExternalProductByName(ctx context.Context, name string) (*integration.ExternalProduct, error)
	TotalAvailableStock(ctx context.Context, externalProductID int64) (int, error)
	MappingToInternalItem(ctx context.Context, externalProductID int64) (*integration.Mapping, error)
}

type Factory interface {
	CreateProductionOrder(ctx context.Context, in integration.ProductionOrderInput) (*integration.ProductionOrder, error)
}

// Advisor checks stock for freshly created orders and asks the factory to
// produce whatever inventory cannot cover. Nothing it does can fail the order.
type Advisor struct {
	inv   Inventory
	fac   Factory
	audit audit.Emitter
	log   *zap.Logger
}

func NewAdvisor(inv Inventory, fac Factory, em audit.Emitter, log *zap.Logger) *Advisor {
	return &Advisor{inv: inv, fac: fac, audit: em, log: log}
}

// Advise walks the order lines in order. Lines whose product was deleted are
// skipped.
func (a *Advisor) Advise(ctx context.Context, orderID string, items []Item) {
	ctx = context.WithoutCancel(ctx)
	for _, it := range items {
		if it.ProductID == nil {
			continue
		}
		a.adviseLine(ctx, orderID, it)
	}
}

func (a *Advisor) adviseLine(ctx context.Context, orderID string, it Item) {
	log := a.log.With(zap.String("orderId", orderID), zap.String("product", it.ProductName))

	ext, err := a.inv.FindExternalProductByName(ctx, it.ProductName)
	if err != nil {
		log.Warn("stock check skipped: product lookup failed", zap.Error(err))
		return
	}
	if ext == nil {
		return
	}

	available, err := a.inv.TotalAvailableStock(ctx, ext.ID)
	if err != nil {
		log.Warn("stock check skipped: stock lookup failed", zap.Error(err))
		return
	}
	if available >= it.Quantity {
		return
	}

	mapping, err := a.inv.MappingToInternalItem(ctx, ext.ID)
	if err != nil {
		log.Warn("production order skipped: mapping lookup failed", zap.Error(err))
		return
	}
	if mapping == nil {
		log.Info("production order skipped: no factory mapping", zap.Int64("externalProductId", ext.ID))
		return
	}

	in := integration.ProductionOrderInput{
		VendorOrderID:  orderID,
		InternalItemID: mapping.InternalItemID,
		Quantity:       it.Quantity - available,
		Priority:       1,
		Notes: fmt.Sprintf("Automatic order: insufficient stock. Available: %d, Requested: %d, Product: %s",
			available, it.Quantity, it.ProductName),
	}

	po, err := a.fac.CreateProductionOrder(ctx, in)
	if err != nil {
		log.Warn("production order failed", zap.Error(err))
		a.audit.Emit(ctx, audit.Event{
			Action:     audit.ActionProductionOrderFailed,
			EntityType: audit.EntityOrders,
			EntityID:   orderID,
			Changes: &audit.Changes{After: map[string]any{
				"error":          err.Error(),
				"productName":    it.ProductName,
				"internalItemId": in.InternalItemID,
				"quantity":       in.Quantity,
			}},
			Metadata: map[string]any{"integration": "factory"},
		})
		return
	}

	log.Info("production order created", zap.Int64("productionOrderId", po.ID), zap.Int("quantity", in.Quantity))
	a.audit.Emit(ctx, audit.Event{
		Action:     audit.ActionProductionOrderCreated,
		EntityType: audit.EntityOrders,
		EntityID:   orderID,
		Changes: &audit.Changes{After: map[string]any{
			"productionOrderId": po.ID,
			"internalItemId":    in.InternalItemID,
			"quantity":          in.Quantity,
			"reason":            "insufficient stock",
			"productName":       it.ProductName,
		}},
		Metadata: map[string]any{"integration": "factory"},
	})
}
