package customer

import (
	"context"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/MikeMC777/vendor-backoffice/internal/apperr"
	"github.com/MikeMC777/vendor-backoffice/internal/audit"
)

type Service struct {
	repo  Repository
	audit audit.Emitter
}

func NewService(repo Repository, em audit.Emitter) *Service {
	return &Service{repo: repo, audit: em}
}

func (s *Service) List(ctx context.Context, q string) ([]Customer, error) {
	out, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, apperr.Wrap(err, "list customers")
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Customer, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// Exists is used by orders to check the customer reference.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.Get(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case apperr.IsNotFound(err):
		return false, nil
	default:
		return false, err
	}
}

func (s *Service) Create(ctx context.Context, in CreateCustomerRequest) (*Customer, error) {
	c := &Customer{
		ID:      uuid.NewString(),
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Phone:   optional(in.Phone),
		Address: optional(in.Address),
	}
	if err := validate(c); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, apperr.Wrap(err, "create customer")
	}
	s.audit.Emit(ctx, audit.Event{
		Action:     audit.ActionCreate,
		EntityType: audit.EntityCustomers,
		EntityID:   c.ID,
		Changes:    &audit.Changes{After: c},
	})
	return c, nil
}

func (s *Service) Update(ctx context.Context, id string, in UpdateCustomerRequest) (*Customer, error) {
	before, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c := *before
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		c.Email = strings.TrimSpace(*in.Email)
	}
	if in.Phone != nil {
		c.Phone = optional(*in.Phone)
	}
	if in.Address != nil {
		c.Address = optional(*in.Address)
	}
	if err := validate(&c); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &c); err != nil {
		return nil, apperr.Wrap(err, "update customer")
	}
	s.audit.Emit(ctx, audit.Event{
		Action:     audit.ActionUpdate,
		EntityType: audit.EntityCustomers,
		EntityID:   c.ID,
		Changes:    &audit.Changes{Before: before, After: &c},
	})
	return &c, nil
}

// Delete removes the customer; its orders go with it.
func (s *Service) Delete(ctx context.Context, id string) (*Customer, error) {
	before, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "delete customer")
	}
	if !ok {
		return nil, ErrNotFound
	}
	s.audit.Emit(ctx, audit.Event{
		Action:     audit.ActionDelete,
		EntityType: audit.EntityCustomers,
		EntityID:   id,
		Changes:    &audit.Changes{Before: before},
	})
	return before, nil
}

func validate(c *Customer) error {
	if c.Name == "" {
		return apperr.Validationf("name is required")
	}
	if c.Email == "" {
		return apperr.Validationf("email is required")
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return apperr.Validationf("invalid email %q", c.Email)
	}
	return nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
