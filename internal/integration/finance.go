package integration

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	FinancePaymentsPath = "/ar/payments"
	defaultCurrency     = "MXN"
	methodBankTransfer  = "bank_transfer"
)

// PaymentExternalRef is the idempotency key finance deduplicates on.
func PaymentExternalRef(paymentID string) string {
	return "vendor:payment_records:" + paymentID
}

type ArPayment struct {
	ExternalRef string          `json:"externalRef"`
	CustomerID  string          `json:"customerId"`
	OrderID     string          `json:"orderId,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Method      string          `json:"method"`
	Reference   string          `json:"reference,omitempty"`
	ProofURL    string          `json:"proofUrl,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	PaidAt      *time.Time      `json:"paidAt,omitempty"`
}

type Finance struct {
	d *Dispatcher
}

func NewFinance(d *Dispatcher) *Finance { return &Finance{d: d} }

// CreateArPayment replicates a recorded payment into accounts receivable.
// Without an API key it logs and returns ErrNotConfigured without calling out.
func (c *Finance) CreateArPayment(ctx context.Context, p ArPayment) error {
	if !c.d.Configured() {
		c.d.Logger().Warn("finance api key not set, skipping ar payment",
			zap.String("externalRef", p.ExternalRef))
		return ErrNotConfigured
	}
	if p.Currency == "" {
		p.Currency = defaultCurrency
	}
	if p.Method == "" {
		p.Method = methodBankTransfer
	}
	return c.d.Call(ctx, FinancePolicy, Request{
		Method: http.MethodPost,
		Path:   FinancePaymentsPath,
		Body:   p,
	}, nil)
}
