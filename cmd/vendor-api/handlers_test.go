package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/MikeMC777/vendor-backoffice/internal/apikey"
	"github.com/MikeMC777/vendor-backoffice/internal/audit/audittest"
	"github.com/MikeMC777/vendor-backoffice/internal/config"
	"github.com/MikeMC777/vendor-backoffice/internal/customer"
	"github.com/MikeMC777/vendor-backoffice/internal/httpx"
	"github.com/MikeMC777/vendor-backoffice/internal/integration"
	"github.com/MikeMC777/vendor-backoffice/internal/order"
	"github.com/MikeMC777/vendor-backoffice/internal/product"
	"github.com/MikeMC777/vendor-backoffice/internal/ratelimit"
)

func init() { gin.SetMode(gin.TestMode) }

//
// ---------- STUBS & FAKES ----------
//

type productRepo struct {
	mu    sync.Mutex
	items map[string]product.Product
}

func (s *productRepo) Create(_ context.Context, p *product.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	s.items[p.ID] = *p
	return nil
}

func (s *productRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (s *productRepo) List(_ context.Context, q product.Query) ([]product.Product, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []product.Product{}
	for _, p := range s.items {
		if q.Q != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q.Q)) {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (s *productRepo) Update(_ context.Context, p *product.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[p.ID] = *p
	return nil
}

func (s *productRepo) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[id]
	delete(s.items, id)
	return ok, nil
}

type customerRepo struct {
	mu    sync.Mutex
	items map[string]customer.Customer
}

func (s *customerRepo) Create(_ context.Context, c *customer.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	s.items[c.ID] = *c
	return nil
}

func (s *customerRepo) GetByID(_ context.Context, id string) (*customer.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.items[id]
	if !ok {
		return nil, customer.ErrNotFound
	}
	return &c, nil
}

func (s *customerRepo) List(_ context.Context, _ string) ([]customer.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []customer.Customer{}
	for _, c := range s.items {
		out = append(out, c)
	}
	return out, nil
}

func (s *customerRepo) Update(_ context.Context, c *customer.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[c.ID] = *c
	return nil
}

func (s *customerRepo) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[id]
	delete(s.items, id)
	return ok, nil
}

// orderRepo keeps whole aggregates in memory.
type orderRepo struct {
	mu     sync.Mutex
	orders map[string]*order.Aggregate
}

func (s *orderRepo) Create(_ context.Context, o *order.Order, items []order.Item, initial order.StatusEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt
	s.orders[o.ID] = &order.Aggregate{
		Summary:      order.Summary{Order: *o},
		Items:        items,
		Payments:     []order.Payment{},
		StatusEvents: []order.StatusEvent{initial},
	}
	return nil
}

func (s *orderRepo) Get(_ context.Context, id string) (*order.Aggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *orderRepo) List(_ context.Context) ([]order.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []order.Summary{}
	for _, a := range s.orders {
		out = append(out, a.Summary)
	}
	return out, nil
}

func (s *orderRepo) Update(_ context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID].Order = *o
	return nil
}

func (s *orderRepo) UpdateStatus(_ context.Context, ev order.StatusEvent) (order.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.orders[ev.OrderID]
	if !ok {
		return "", order.ErrNotFound
	}
	from := a.Status
	ev.FromStatus = &from
	a.Status = ev.ToStatus
	a.StatusEvents = append(a.StatusEvents, ev)
	return from, nil
}

func (s *orderRepo) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.orders[id]
	delete(s.orders, id)
	return ok, nil
}

func (s *orderRepo) AddPayment(_ context.Context, p *order.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.orders[p.OrderID]
	if !ok {
		return order.ErrNotFound
	}
	p.CreatedAt = time.Now().UTC()
	a.Payments = append(a.Payments, *p)
	return nil
}

type keyRepo struct {
	mu   sync.Mutex
	keys map[string]apikey.ApiKey
}

func (s *keyRepo) Create(_ context.Context, k *apikey.ApiKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k.CreatedAt = time.Now().UTC()
	s.keys[k.ID] = *k
	return nil
}

func (s *keyRepo) GetByID(_ context.Context, id string) (*apikey.ApiKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keys[id]
	if !ok {
		return nil, apikey.ErrNotFound
	}
	return &k, nil
}

func (s *keyRepo) GetByHash(_ context.Context, hash string) (*apikey.ApiKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range s.keys {
		if k.KeyHash == hash {
			return &k, nil
		}
	}
	return nil, apikey.ErrNotFound
}

func (s *keyRepo) List(_ context.Context) ([]apikey.ApiKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []apikey.ApiKey{}
	for _, k := range s.keys {
		out = append(out, k)
	}
	return out, nil
}

func (s *keyRepo) Update(_ context.Context, k *apikey.ApiKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[k.ID] = *k
	return nil
}

func (s *keyRepo) TouchLastUsed(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := s.keys[id]
	k.LastUsedAt = &at
	s.keys[id] = k
	return nil
}

//
// ---------- ROUTER ----------
//

const legacySecret = "legacy-test-key"

type harness struct {
	router      http.Handler
	rec         *audittest.Recorder
	financeHits *int32
}

// newHarness wires the real services over in-memory repositories. Finance
// answers 502 to every call; inventory and factory are not configured.
func newHarness(t *testing.T) *harness {
	t.Helper()

	var financeHits int32
	finSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&financeHits, 1)
		http.Error(w, `{"message":"ledger offline"}`, http.StatusBadGateway)
	}))
	t.Cleanup(finSrv.Close)

	log := zap.NewNop()
	rec := &audittest.Recorder{}
	legacy, err := httpx.NewLegacyKey(legacySecret, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("legacy key: %v", err)
	}

	products := product.NewService(&productRepo{items: map[string]product.Product{}}, rec)
	customers := customer.NewService(&customerRepo{items: map[string]customer.Customer{}}, rec)
	finance := integration.NewFinance(integration.NewDispatcher("finance", config.ServiceConfig{BaseURL: finSrv.URL, APIKey: "fin"}, log))
	inventory := integration.NewInventory(integration.NewDispatcher("inventory", config.ServiceConfig{}, log))
	factory := integration.NewFactory(integration.NewDispatcher("factory", config.ServiceConfig{}, log))
	advisor := order.NewAdvisor(inventory, factory, rec, log)
	orders := order.NewService(&orderRepo{orders: map[string]*order.Aggregate{}}, products, customers, advisor, finance, rec, log)
	keys := apikey.NewService(&keyRepo{keys: map[string]apikey.ApiKey{}}, log)

	r := newRouter(app{
		log: log,
		auth: &httpx.Auth{
			Keys:    keys,
			Limiter: ratelimit.NewLimiter(ratelimit.NewMemoryStore(), time.Minute),
			Legacy:  legacy,
			Log:     log,
		},
		products:  products,
		customers: customers,
		orders:    orders,
		apiKeys:   keys,
		ping:      func(context.Context) error { return nil },
	})
	return &harness{router: r, rec: rec, financeHits: &financeHits}
}

func (h *harness) do(t *testing.T, method, path, key, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if key != "" {
		req.Header.Set(httpx.HeaderAPIKey, key)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json: %v body=%s", err, w.Body.String())
	}
	return out
}

func (h *harness) seed(t *testing.T) (customerID, productID string) {
	t.Helper()
	w := h.do(t, http.MethodPost, "/v1/customers", legacySecret, `{"name":"C1","email":"c1@example.com"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create customer status=%d body=%s", w.Code, w.Body.String())
	}
	c := decode[customer.Customer](t, w)

	w = h.do(t, http.MethodPost, "/v1/products", legacySecret, `{"name":"P1","imageUrl":"https://img/p1.png","price":"100.00","stock":10}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create product status=%d body=%s", w.Code, w.Body.String())
	}
	p := decode[product.Product](t, w)
	return c.ID, p.ID
}

//
// ---------- TESTS ----------
//

func TestPublicRoutes(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	if w := h.do(t, http.MethodGet, "/healthz", "", ""); w.Code != http.StatusOK {
		t.Fatalf("healthz status=%d", w.Code)
	}
	if w := h.do(t, http.MethodGet, "/", "", ""); w.Code != http.StatusOK {
		t.Fatalf("info status=%d", w.Code)
	}
	w := h.do(t, http.MethodGet, "/v1/products", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d (esperaba 401)", w.Code)
	}
	if got := decode[httpx.HTTPError](t, w).Error; got != "API key missing" {
		t.Fatalf("error=%q", got)
	}
}

func TestCreateOrder_PricesWithDiscount(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	cid, pid := h.seed(t)

	body := fmt.Sprintf(`{"customerId":%q,"items":[{"productId":%q,"quantity":3,"discountPercent":"10"}]}`, cid, pid)
	w := h.do(t, http.MethodPost, "/v1/orders", legacySecret, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	o := decode[order.Aggregate](t, w)
	if o.Total.StringFixed(2) != "270.00" {
		t.Fatalf("total=%s, esperaba 270.00", o.Total)
	}
	if o.Status != order.StatusPending {
		t.Fatalf("status=%s", o.Status)
	}
	if len(o.Items) != 1 || o.Items[0].LineTotal.StringFixed(2) != "270.00" {
		t.Fatalf("items=%+v", o.Items)
	}
	if len(o.StatusEvents) != 1 || o.StatusEvents[0].FromStatus != nil || o.StatusEvents[0].ToStatus != order.StatusPending {
		t.Fatalf("statusEvents=%+v", o.StatusEvents)
	}

	// decimals travel as strings
	var raw map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &raw)
	if _, ok := raw["total"].(string); !ok {
		t.Fatalf("total should be a JSON string, got %T", raw["total"])
	}
}

func TestCreateOrder_UnknownCustomer(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	_, pid := h.seed(t)

	body := fmt.Sprintf(`{"customerId":%q,"items":[{"productId":%q,"quantity":1}]}`, uuid.NewString(), pid)
	w := h.do(t, http.MethodPost, "/v1/orders", legacySecret, body)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%s (esperaba 404)", w.Code, w.Body.String())
	}
}

func TestCreateOrder_BadBody(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/v1/orders", legacySecret, `{"items":[]}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s (esperaba 400)", w.Code, w.Body.String())
	}
}

func TestOrderStatusAndDelete(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	cid, pid := h.seed(t)

	w := h.do(t, http.MethodPost, "/v1/orders", legacySecret,
		fmt.Sprintf(`{"customerId":%q,"items":[{"productId":%q,"quantity":1}]}`, cid, pid))
	o := decode[order.Aggregate](t, w)

	w = h.do(t, http.MethodPut, "/v1/orders/"+o.ID+"/status", legacySecret, `{"toStatus":"shipped","reason":"carrier"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if got := decode[order.Aggregate](t, w); len(got.StatusEvents) != 2 || got.Status != order.StatusShipped {
		t.Fatalf("after transition: status=%s events=%d", got.Status, len(got.StatusEvents))
	}

	w = h.do(t, http.MethodPut, "/v1/orders/"+o.ID+"/status", legacySecret, `{"toStatus":"teleported"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d (esperaba 400)", w.Code)
	}

	w = h.do(t, http.MethodDelete, "/v1/orders/"+o.ID, legacySecret, "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete status=%d", w.Code)
	}
	if got := decode[order.DeleteResponse](t, w); got.Order.ID != o.ID {
		t.Fatalf("deleted=%s", got.Order.ID)
	}
	if w := h.do(t, http.MethodGet, "/v1/orders/"+o.ID, legacySecret, ""); w.Code != http.StatusNotFound {
		t.Fatalf("get after delete status=%d", w.Code)
	}
}

func TestRecordPayment_FinanceDown(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	cid, pid := h.seed(t)

	w := h.do(t, http.MethodPost, "/v1/orders", legacySecret,
		fmt.Sprintf(`{"customerId":%q,"items":[{"productId":%q,"quantity":1}]}`, cid, pid))
	o := decode[order.Aggregate](t, w)

	w = h.do(t, http.MethodPost, "/v1/orders/"+o.ID+"/payments", legacySecret, `{"amount":"100.00","reference":"SPEI 9"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	p := decode[order.Payment](t, w)
	if p.Status != order.PaymentStatusConfirmed {
		t.Fatalf("payment status=%s", p.Status)
	}
	if hits := atomic.LoadInt32(h.financeHits); hits != 2 {
		t.Fatalf("finance hits=%d, esperaba 2", hits)
	}
	if _, ok := h.rec.Find("integration_failed"); !ok {
		t.Fatalf("integration_failed not audited: %v", h.rec.Actions())
	}
}

func TestAPIKeys_Lifecycle(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/v1/api-keys", legacySecret, `{"name":"erp","scopes":["orders:read"],"rateLimit":1}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	created := decode[apikey.CreatedKey](t, w)
	if strings.Contains(w.Body.String(), "keyHash") {
		t.Fatalf("hash leaked: %s", w.Body.String())
	}

	// new key works, is rate limited and cannot manage keys
	if w := h.do(t, http.MethodGet, "/v1/products", created.Key, ""); w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	w = h.do(t, http.MethodGet, "/v1/products", created.Key, "")
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") == "" {
		t.Fatalf("status=%d retry-after=%q (esperaba 429)", w.Code, w.Header().Get("Retry-After"))
	}

	w = h.do(t, http.MethodDelete, "/v1/api-keys/"+created.ApiKey.ID, legacySecret, "")
	if w.Code != http.StatusOK {
		t.Fatalf("revoke status=%d", w.Code)
	}
	w = h.do(t, http.MethodGet, "/v1/products", created.Key, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d (esperaba 401)", w.Code)
	}
	if got := decode[httpx.HTTPError](t, w).Error; got != "api key inactive or revoked" {
		t.Fatalf("error=%q", got)
	}
}

func TestAPIKeys_RequireScope(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/v1/api-keys", legacySecret, `{"name":"reader","scopes":["orders:read"]}`)
	created := decode[apikey.CreatedKey](t, w)

	w = h.do(t, http.MethodGet, "/v1/api-keys", created.Key, "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("status=%d (esperaba 403)", w.Code)
	}
}

func TestProducts_CRUD(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	_, pid := h.seed(t)

	w := h.do(t, http.MethodPut, "/v1/products/"+pid, legacySecret, `{"stock":3,"status":"inactive"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if p := decode[product.Product](t, w); p.Stock != 3 || p.Status != product.StatusInactive || p.Name != "P1" {
		t.Fatalf("updated=%+v", p)
	}

	w = h.do(t, http.MethodGet, "/v1/products?q=p1&limit=abc", legacySecret, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d (esperaba 400)", w.Code)
	}
	w = h.do(t, http.MethodGet, "/v1/products?q=p1", legacySecret, "")
	if res := decode[product.ListResponse](t, w); res.Total != 1 || res.Limit != product.DefaultLimit {
		t.Fatalf("list=%+v", res)
	}

	w = h.do(t, http.MethodPost, "/v1/products", legacySecret, `{"name":"x","imageUrl":"u","price":"-1"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d (esperaba 400)", w.Code)
	}

	if w := h.do(t, http.MethodDelete, "/v1/products/"+pid, legacySecret, ""); w.Code != http.StatusOK {
		t.Fatalf("delete status=%d", w.Code)
	}
	if w := h.do(t, http.MethodGet, "/v1/products/"+pid, legacySecret, ""); w.Code != http.StatusNotFound {
		t.Fatalf("get after delete status=%d", w.Code)
	}
}

func TestCustomers_Validation(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/v1/customers", legacySecret, `{"name":"C","email":"not-an-email"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d (esperaba 400)", w.Code)
	}
	if w := h.do(t, http.MethodGet, "/v1/customers/"+uuid.NewString(), legacySecret, ""); w.Code != http.StatusNotFound {
		t.Fatalf("status=%d (esperaba 404)", w.Code)
	}
}
