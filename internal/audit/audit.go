// Package audit reports mutations to the remote audit log. Emitting is
// best-effort: an Emitter never returns an error and never lets a failure
// reach the operation that produced the event.
package audit

import (
	"context"

	"go.uber.org/zap"
)

const Source = "vendor-backend"

const (
	ActionCreate                 = "create"
	ActionUpdate                 = "update"
	ActionDelete                 = "delete"
	ActionStatusChange           = "status_change"
	ActionPaymentRecorded        = "payment_recorded"
	ActionProductionOrderCreated = "production_order_created"
	ActionProductionOrderFailed  = "production_order_creation_failed"
	ActionIntegrationFailed      = "integration_failed"
)

const (
	EntityProducts     = "products"
	EntityCustomers    = "customers"
	EntityOrders       = "orders"
	EntityIntegrations = "integrations"
)

type Changes struct {
	Before any `json:"before,omitempty"`
	After  any `json:"after,omitempty"`
}

// Event is the body of POST /audit-logs. UserID stays null: users live in
// the audit service, the vendor only forwards who acted in Metadata.
type Event struct {
	UserID     *int64         `json:"userId"`
	Action     string         `json:"action"`
	EntityType string         `json:"entityType"`
	EntityID   string         `json:"entityId,omitempty"`
	Changes    *Changes       `json:"changes,omitempty"`
	IPAddress  string         `json:"ipAddress,omitempty"`
	UserAgent  string         `json:"userAgent,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type Emitter interface {
	Emit(ctx context.Context, e Event)
}

// Actor identifies who triggered a mutation, as reported by the caller.
type Actor struct {
	Email     string
	Name      string
	IP        string
	UserAgent string
}

type actorKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

func ActorFrom(ctx context.Context) Actor {
	a, _ := ctx.Value(actorKey{}).(Actor)
	return a
}

// Enrich fills in the source, the actor and the request origin carried by ctx.
// Values already set on e win.
func Enrich(ctx context.Context, e Event) Event {
	a := ActorFrom(ctx)
	meta := make(map[string]any, len(e.Metadata)+3)
	meta["source"] = Source
	if a.Email != "" {
		meta["actorEmail"] = a.Email
	}
	if a.Name != "" {
		meta["actorName"] = a.Name
	}
	for k, v := range e.Metadata {
		meta[k] = v
	}
	e.Metadata = meta
	if e.IPAddress == "" {
		e.IPAddress = a.IP
	}
	if e.UserAgent == "" {
		e.UserAgent = a.UserAgent
	}
	return e
}

// Multi fans an event out to several emitters in order.
type Multi []Emitter

func (m Multi) Emit(ctx context.Context, e Event) {
	for _, em := range m {
		em.Emit(ctx, e)
	}
}

type Nop struct{}

func (Nop) Emit(context.Context, Event) {}

// Logged writes every event at debug level; handy when no sink is configured.
type Logged struct{ Log *zap.Logger }

func (l Logged) Emit(ctx context.Context, e Event) {
	e = Enrich(ctx, e)
	l.Log.Debug("audit event",
		zap.String("action", e.Action),
		zap.String("entityType", e.EntityType),
		zap.String("entityId", e.EntityID),
	)
}
