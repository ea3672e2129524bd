package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MikeMC777/vendor-backoffice/internal/config"
	"github.com/MikeMC777/vendor-backoffice/internal/integration"
)

func TestEnrich(t *testing.T) {
	ctx := WithActor(context.Background(), Actor{Email: "ana@example.com", Name: "Ana", IP: "10.0.0.1", UserAgent: "curl"})

	e := Enrich(ctx, Event{Action: ActionCreate, Metadata: map[string]any{"reason": "x"}})
	assert.Equal(t, Source, e.Metadata["source"])
	assert.Equal(t, "ana@example.com", e.Metadata["actorEmail"])
	assert.Equal(t, "Ana", e.Metadata["actorName"])
	assert.Equal(t, "x", e.Metadata["reason"])
	assert.Equal(t, "10.0.0.1", e.IPAddress)
	assert.Equal(t, "curl", e.UserAgent)

	bare := Enrich(context.Background(), Event{Action: ActionDelete})
	assert.Equal(t, Source, bare.Metadata["source"])
	assert.NotContains(t, bare.Metadata, "actorEmail")
}

func TestHTTPEmitter_Posts(t *testing.T) {
	var got Event
	var key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audit-logs", r.URL.Path)
		key = r.Header.Get("X-API-Key")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	d := integration.NewDispatcher("audit", config.ServiceConfig{BaseURL: srv.URL, APIKey: "k"}, zap.NewNop())

	// a cancelled request context must not stop delivery
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	NewHTTPEmitter(d).Emit(ctx, Event{Action: ActionCreate, EntityType: EntityOrders, EntityID: "o-1"})

	assert.Equal(t, "k", key)
	assert.Equal(t, ActionCreate, got.Action)
	assert.Equal(t, "o-1", got.EntityID)
	assert.Nil(t, got.UserID)
	assert.Equal(t, Source, got.Metadata["source"])
}

func TestHTTPEmitter_SkipsAndSwallows(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	noKey := integration.NewDispatcher("audit", config.ServiceConfig{BaseURL: srv.URL}, zap.NewNop())
	NewHTTPEmitter(noKey).Emit(context.Background(), Event{Action: ActionUpdate})
	assert.Zero(t, atomic.LoadInt32(&hits))

	d := integration.NewDispatcher("audit", config.ServiceConfig{BaseURL: srv.URL, APIKey: "k"}, zap.NewNop())
	NewHTTPEmitter(d).Emit(context.Background(), Event{Action: ActionUpdate})
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestKafkaEmitter_KeysByEntity(t *testing.T) {
	w := &fakeWriter{}
	k := &KafkaEmitter{w: w, log: zap.NewNop()}

	k.Emit(context.Background(), Event{Action: ActionStatusChange, EntityType: EntityOrders, EntityID: "o-7"})
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "orders:o-7", string(w.msgs[0].Key))

	var e Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &e))
	assert.Equal(t, ActionStatusChange, e.Action)

	w.err = errors.New("broker down")
	assert.NotPanics(t, func() { k.Emit(context.Background(), Event{Action: ActionDelete}) })
}

func TestMulti(t *testing.T) {
	a, b := &fakeWriter{}, &fakeWriter{}
	m := Multi{&KafkaEmitter{w: a, log: zap.NewNop()}, Nop{}, &KafkaEmitter{w: b, log: zap.NewNop()}}
	m.Emit(context.Background(), Event{Action: ActionCreate})
	assert.Len(t, a.msgs, 1)
	assert.Len(t, b.msgs, 1)
}
