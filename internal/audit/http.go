package audit

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/MikeMC777/vendor-backoffice/internal/integration"
)

// HTTPEmitter posts events to the audit service.
type HTTPEmitter struct {
	d   *integration.Dispatcher
	log *zap.Logger
}

func NewHTTPEmitter(d *integration.Dispatcher) *HTTPEmitter {
	return &HTTPEmitter{d: d, log: d.Logger()}
}

func (h *HTTPEmitter) Emit(ctx context.Context, e Event) {
	if !h.d.Configured() {
		h.log.Warn("audit api key not set, skipping audit log", zap.String("action", e.Action))
		return
	}
	// The request that produced the event may already be answered.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	err := h.d.Call(ctx, integration.AuditPolicy, integration.Request{
		Method: http.MethodPost,
		Path:   "/audit-logs",
		Body:   Enrich(ctx, e),
	}, nil)
	if err != nil {
		h.log.Warn("audit log not delivered",
			zap.String("action", e.Action),
			zap.String("entityType", e.EntityType),
			zap.String("entityId", e.EntityID),
			zap.Error(err),
		)
	}
}
