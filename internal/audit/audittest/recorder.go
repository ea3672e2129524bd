// Package audittest provides an in-memory audit.Emitter for tests.
package audittest

import (
	"context"
	"sync"

	"github.com/MikeMC777/vendor-backoffice/internal/audit"
)

type Recorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *Recorder) Emit(ctx context.Context, e audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, audit.Enrich(ctx, e))
}

func (r *Recorder) Events() []audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.Event(nil), r.events...)
}

// Actions lists the recorded actions in order.
func (r *Recorder) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Action)
	}
	return out
}

func (r *Recorder) Find(action string) (audit.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.Action == action {
			return e, true
		}
	}
	return audit.Event{}, false
}
