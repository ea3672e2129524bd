package product

import (
	"context"
	"strings"
	"time"

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

func (s *Service) List(ctx context.Context, q Query) (ListResponse, error) {
	q = q.Normalize()
	if q.Status != "" && !q.Status.Valid() {
		return ListResponse{}, apperr.Validationf("unknown status %q", q.Status)
	}
	items, total, err := s.repo.List(ctx, q)
	if err != nil {
		return ListResponse{}, apperr.Wrap(err, "list products")
	}
	return ListResponse{Products: items, Total: total, Offset: q.Offset, Limit: q.Limit}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in CreateProductRequest) (*Product, error) {
	if in.Price == nil {
		return nil, apperr.Validationf("price is required")
	}
	p := &Product{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		Status:      StatusActive,
		Price:       *in.Price,
		AvailableAt: time.Now().UTC(),
	}
	if in.Status != "" {
		p.Status = in.Status
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.AvailableAt != nil {
		p.AvailableAt = *in.AvailableAt
	}
	if err := validate(p); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, apperr.Wrap(err, "create product")
	}
	s.audit.Emit(ctx, audit.Event{
		Action:     audit.ActionCreate,
		EntityType: audit.EntityProducts,
		EntityID:   p.ID,
		Changes:    &audit.Changes{After: p},
	})
	return p, nil
}

func (s *Service) Update(ctx context.Context, id string, in UpdateProductRequest) (*Product, error) {
	before, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p := *before
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.ImageURL != nil {
		p.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.AvailableAt != nil {
		p.AvailableAt = *in.AvailableAt
	}
	if err := validate(&p); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, &p); err != nil {
		return nil, apperr.Wrap(err, "update product")
	}
	s.audit.Emit(ctx, audit.Event{
		Action:     audit.ActionUpdate,
		EntityType: audit.EntityProducts,
		EntityID:   p.ID,
		Changes:    &audit.Changes{Before: before, After: &p},
	})
	return &p, nil
}

func (s *Service) Delete(ctx context.Context, id string) (*Product, error) {
	before, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "delete product")
	}
	if !ok {
		return nil, ErrNotFound
	}
	s.audit.Emit(ctx, audit.Event{
		Action:     audit.ActionDelete,
		EntityType: audit.EntityProducts,
		EntityID:   id,
		Changes:    &audit.Changes{Before: before},
	})
	return before, nil
}

func validate(p *Product) error {
	switch {
	case p.Name == "":
		return apperr.Validationf("name is required")
	case p.ImageURL == "":
		return apperr.Validationf("imageUrl is required")
	case p.Price.IsNegative():
		return apperr.Validationf("price must not be negative")
	case p.Stock < 0:
		return apperr.Validationf("stock must not be negative")
	case !p.Status.Valid():
		return apperr.Validationf("unknown status %q", p.Status)
	}
	return nil
}
