package order

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MikeMC777/vendor-backoffice/internal/apperr"
	"github.com/MikeMC777/vendor-backoffice/internal/audit"
	"github.com/MikeMC777/vendor-backoffice/internal/integration"
	"github.com/MikeMC777/vendor-backoffice/internal/pricing"
	"github.com/MikeMC777/vendor-backoffice/internal/product"
)

const initialEventReason = "order_created"

type Products interface {
	Get(ctx context.Context, id string) (*product.Product, error)
}

type Customers interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type Finance interface {
	CreateArPayment(ctx context.Context, p integration.ArPayment) error
}

type Service struct {
	repo      Repository
	products  Products
	customers Customers
	advisor   *Advisor
	finance   Finance
	audit     audit.Emitter
	log       *zap.Logger
	now       func() time.Time
}

func NewService(repo Repository, products Products, customers Customers, advisor *Advisor, finance Finance, em audit.Emitter, log *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		products:  products,
		customers: customers,
		advisor:   advisor,
		finance:   finance,
		audit:     em,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) List(ctx context.Context) ([]Summary, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(err, "list orders")
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Aggregate, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) requireCustomer(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperr.Validationf("customerId is required")
	}
	ok, err := s.customers.Exists(ctx, id)
	if err != nil {
		return apperr.Wrap(err, "check customer")
	}
	if !ok {
		return apperr.NotFoundf("customer %s not found", id)
	}
	return nil
}

// Create prices and stores a new order, then runs the stock advisor over its
// lines. The returned aggregate is re-read from storage.
func (s *Service) Create(ctx context.Context, in CreateOrderRequest) (*Aggregate, error) {
	if err := s.requireCustomer(ctx, in.CustomerID); err != nil {
		return nil, err
	}
	status := StatusPending
	if in.Status != "" {
		if !in.Status.Valid() {
			return nil, apperr.Validationf("unknown status %q", in.Status)
		}
		status = in.Status
	}

	catalog := make(map[string]decimal.Decimal, len(in.Items))
	names := make(map[string]string, len(in.Items))
	lines := make([]pricing.Line, 0, len(in.Items))
	for i, it := range in.Items {
		// any UUID spelling Postgres accepts maps to one catalog entry
		pid, err := uuid.Parse(it.ProductID)
		if err != nil {
			return nil, apperr.NotFoundf("items[%d]: product %s not found", i, it.ProductID)
		}
		id := pid.String()
		if _, seen := catalog[id]; !seen {
			p, err := s.products.Get(ctx, id)
			if apperr.IsNotFound(err) {
				return nil, apperr.NotFoundf("items[%d]: product %s not found", i, it.ProductID)
			}
			if err != nil {
				return nil, apperr.Wrap(err, "load product")
			}
			catalog[id] = p.Price
			names[id] = p.Name
		}
		lines = append(lines, pricing.Line{
			ProductID:       id,
			Quantity:        it.Quantity,
			UnitPriceBase:   it.UnitPriceBase,
			UnitPriceFinal:  it.UnitPriceFinal,
			DiscountAmount:  it.DiscountAmount,
			DiscountPercent: it.DiscountPercent,
		})
	}

	priced, err := pricing.Price(lines, catalog, in.Total)
	if err != nil {
		return nil, err
	}

	o := &Order{
		ID:         uuid.NewString(),
		CustomerID: in.CustomerID,
		Status:     status,
		Total:      priced.Total,
	}
	items := make([]Item, 0, len(priced.Lines))
	for _, l := range priced.Lines {
		pid := l.ProductID
		items = append(items, Item{
			ID:              uuid.NewString(),
			OrderID:         o.ID,
			ProductID:       &pid,
			ProductName:     names[l.ProductID],
			Quantity:        l.Quantity,
			UnitPriceBase:   l.UnitPriceBase,
			UnitPriceFinal:  l.UnitPriceFinal,
			DiscountAmount:  l.DiscountAmount,
			DiscountPercent: l.DiscountPercent,
			LineTotal:       l.LineTotal,
		})
	}
	reason := initialEventReason
	initial := StatusEvent{
		ID:       uuid.NewString(),
		OrderID:  o.ID,
		ToStatus: status,
		Reason:   &reason,
	}

	if err := s.repo.Create(ctx, o, items, initial); err != nil {
		return nil, apperr.Wrap(err, "create order")
	}

	if s.advisor != nil {
		s.advisor.Advise(ctx, o.ID, items)
	}

	s.audit.Emit(ctx, audit.Event{
		Action:     audit.ActionCreate,
		EntityType: audit.EntityOrders,
		EntityID:   o.ID,
		Changes: &audit.Changes{After: map[string]any{
			"customerId": o.CustomerID,
			"status":     o.Status,
			"total":      o.Total,
		}},
	})

	return s.repo.Get(ctx, o.ID)
}

// Update changes header fields only. The status timeline is left untouched;
// use UpdateStatus to record a transition.
func (s *Service) Update(ctx context.Context, id string, in UpdateOrderRequest) (*Aggregate, error) {
	before, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	o := before.Order
	if in.CustomerID != nil && *in.CustomerID != o.CustomerID {
		if err := s.requireCustomer(ctx, *in.CustomerID); err != nil {
			return nil, err
		}
		o.CustomerID = *in.CustomerID
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, apperr.Validationf("unknown status %q", *in.Status)
		}
		o.Status = *in.Status
	}
	if in.Total != nil {
		o.Total = *in.Total
	}

	if err := s.repo.Update(ctx, &o); err != nil {
		return nil, apperr.Wrap(err, "update order")
	}
	s.audit.Emit(ctx, audit.Event{
		Action:     audit.ActionUpdate,
		EntityType: audit.EntityOrders,
		EntityID:   id,
		Changes:    &audit.Changes{Before: before, After: o},
	})
	return s.repo.Get(ctx, id)
}

// UpdateStatus records a transition. Any known status may follow any other.
func (s *Service) UpdateStatus(ctx context.Context, id string, in UpdateStatusRequest) (*Aggregate, error) {
	if in.ToStatus == "" {
		return nil, apperr.Validationf("toStatus is required")
	}
	if !in.ToStatus.Valid() {
		return nil, apperr.Validationf("unknown status %q", in.ToStatus)
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	ev := StatusEvent{ID: uuid.NewString(), OrderID: id, ToStatus: in.ToStatus}
	if r := strings.TrimSpace(in.Reason); r != "" {
		ev.Reason = &r
	}
	from, err := s.repo.UpdateStatus(ctx, ev)
	if err != nil {
		return nil, apperr.Wrap(err, "update order status")
	}

	meta := map[string]any{}
	if ev.Reason != nil {
		meta["reason"] = *ev.Reason
	}
	s.audit.Emit(ctx, audit.Event{
		Action:     audit.ActionStatusChange,
		EntityType: audit.EntityOrders,
		EntityID:   id,
		Changes: &audit.Changes{
			Before: map[string]any{"status": from},
			After:  map[string]any{"status": in.ToStatus},
		},
		Metadata: meta,
	})
	return s.repo.Get(ctx, id)
}

// Delete removes the order with its items, payments and timeline and returns
// what was removed.
func (s *Service) Delete(ctx context.Context, id string) (*Aggregate, error) {
	before, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "delete order")
	}
	if !ok {
		return nil, ErrNotFound
	}
	s.audit.Emit(ctx, audit.Event{
		Action:     audit.ActionDelete,
		EntityType: audit.EntityOrders,
		EntityID:   id,
		Changes:    &audit.Changes{Before: before},
	})
	return before, nil
}

// RecordPayment stores a confirmed bank transfer and replicates it to
// finance. The local record stands whatever finance answers.
func (s *Service) RecordPayment(ctx context.Context, orderID string, in RecordPaymentRequest) (*Payment, error) {
	if in.Amount == nil {
		return nil, apperr.Validationf("amount is required")
	}
	if in.Amount.IsNegative() {
		return nil, apperr.Validationf("amount must not be negative")
	}
	o, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	paidAt := s.now()
	if in.PaidAt != nil {
		paidAt = *in.PaidAt
	}
	p := &Payment{
		ID:        uuid.NewString(),
		OrderID:   o.ID,
		Method:    PaymentMethodBankTransfer,
		Status:    PaymentStatusConfirmed,
		Amount:    *in.Amount,
		Reference: optional(in.Reference),
		ProofURL:  optional(in.ProofURL),
		Notes:     optional(in.Notes),
		PaidAt:    &paidAt,
	}
	if err := s.repo.AddPayment(ctx, p); err != nil {
		return nil, apperr.Wrap(err, "record payment")
	}

	s.replicatePayment(ctx, o, p)

	s.audit.Emit(ctx, audit.Event{
		Action:     audit.ActionPaymentRecorded,
		EntityType: audit.EntityOrders,
		EntityID:   o.ID,
		Changes:    &audit.Changes{After: p},
	})
	return p, nil
}

func (s *Service) replicatePayment(ctx context.Context, o *Aggregate, p *Payment) {
	if s.finance == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	ref := integration.PaymentExternalRef(p.ID)
	err := s.finance.CreateArPayment(ctx, integration.ArPayment{
		ExternalRef: ref,
		CustomerID:  o.CustomerID,
		OrderID:     o.ID,
		Amount:      p.Amount,
		Reference:   deref(p.Reference),
		ProofURL:    deref(p.ProofURL),
		Notes:       deref(p.Notes),
		PaidAt:      p.PaidAt,
	})
	if err == nil || errors.Is(err, integration.ErrNotConfigured) {
		return
	}

	s.log.Warn("payment not replicated to finance",
		zap.String("orderId", o.ID), zap.String("externalRef", ref), zap.Error(err))
	s.audit.Emit(ctx, audit.Event{
		Action:     audit.ActionIntegrationFailed,
		EntityType: audit.EntityIntegrations,
		Changes: &audit.Changes{After: map[string]any{
			"source":      audit.Source,
			"target":      "finance-backend",
			"endpoint":    integration.FinancePaymentsPath,
			"method":      "POST",
			"externalRef": ref,
			"orderId":     o.ID,
			"customerId":  o.CustomerID,
		}},
		Metadata: map[string]any{"error": err.Error()},
	})
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
