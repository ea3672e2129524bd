package customer

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/vendor-backoffice/internal/apperr"
	"github.com/MikeMC777/vendor-backoffice/internal/audit"
	"github.com/MikeMC777/vendor-backoffice/internal/audit/audittest"
)

type memRepo struct{ items map[string]Customer }

func newMemRepo() *memRepo { return &memRepo{items: map[string]Customer{}} }

func (m *memRepo) Create(_ context.Context, c *Customer) error {
	m.items[c.ID] = *c
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*Customer, error) {
	c, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *memRepo) List(_ context.Context, q string) ([]Customer, error) {
	out := []Customer{}
	for _, c := range m.items {
		if q == "" || strings.Contains(strings.ToLower(c.Name+" "+c.Email), strings.ToLower(q)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memRepo) Update(_ context.Context, c *Customer) error {
	if _, ok := m.items[c.ID]; !ok {
		return ErrNotFound
	}
	m.items[c.ID] = *c
	return nil
}

func (m *memRepo) Delete(_ context.Context, id string) (bool, error) {
	if _, ok := m.items[id]; !ok {
		return false, nil
	}
	delete(m.items, id)
	return true, nil
}

func TestCreate(t *testing.T) {
	rec := &audittest.Recorder{}
	svc := NewService(newMemRepo(), rec)

	c, err := svc.Create(context.Background(), CreateCustomerRequest{Name: "Ana", Email: "ana@example.com", Phone: "  "})
	require.NoError(t, err)
	assert.Nil(t, c.Phone)
	assert.Nil(t, c.Address)
	assert.Equal(t, []string{audit.ActionCreate}, rec.Actions())

	_, err = svc.Create(context.Background(), CreateCustomerRequest{Name: "Bo", Email: "not-an-email"})
	assert.True(t, apperr.IsValidation(err))
}

func TestUpdate_ClearsOptionalFields(t *testing.T) {
	svc := NewService(newMemRepo(), audit.Nop{})
	ctx := context.Background()

	c, err := svc.Create(ctx, CreateCustomerRequest{Name: "Ana", Email: "ana@example.com", Phone: "555", Address: "Main St"})
	require.NoError(t, err)
	require.NotNil(t, c.Phone)

	empty := ""
	name := "Ana María"
	out, err := svc.Update(ctx, c.ID, UpdateCustomerRequest{Name: &name, Phone: &empty})
	require.NoError(t, err)
	assert.Equal(t, "Ana María", out.Name)
	assert.Nil(t, out.Phone)
	require.NotNil(t, out.Address)
	assert.Equal(t, "Main St", *out.Address)
}

func TestExistsAndDelete(t *testing.T) {
	rec := &audittest.Recorder{}
	svc := NewService(newMemRepo(), rec)
	ctx := context.Background()

	ok, err := svc.Exists(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.Exists(ctx, "garbage")
	require.NoError(t, err)
	assert.False(t, ok)

	c, err := svc.Create(ctx, CreateCustomerRequest{Name: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)
	ok, err = svc.Exists(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	gone, err := svc.Delete(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, gone.ID)

	_, err = svc.Delete(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, []string{audit.ActionCreate, audit.ActionDelete}, rec.Actions())
}

func TestList_Filters(t *testing.T) {
	svc := NewService(newMemRepo(), audit.Nop{})
	ctx := context.Background()
	_, _ = svc.Create(ctx, CreateCustomerRequest{Name: "Ana", Email: "ana@example.com"})
	_, _ = svc.Create(ctx, CreateCustomerRequest{Name: "Bruno", Email: "bruno@shop.mx"})

	out, err := svc.List(ctx, "shop.mx")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Bruno", out[0].Name)
}
