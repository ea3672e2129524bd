// Package apikey manages the per-client keys accepted in X-API-Key.
package apikey

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MikeMC777/vendor-backoffice/internal/apperr"
)

// Reasons a presented key is refused. Their messages go back to the caller.
var (
	ErrUnknownKey  = errors.New("api key not found")
	ErrInactiveKey = errors.New("api key inactive or revoked")
	ErrExpiredKey  = errors.New("api key expired")
)

const keyPrefix = "pk_"

// Generate returns a fresh secret: "pk_" followed by 64 hex characters.
func Generate() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return keyPrefix + hex.EncodeToString(b), nil
}

func Hash(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

type Service struct {
	repo Repository
	log  *zap.Logger
	now  func() time.Time
}

func NewService(repo Repository, log *zap.Logger) *Service {
	return &Service{repo: repo, log: log, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) Create(ctx context.Context, in CreateApiKeyRequest) (*CreatedKey, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validationf("name is required")
	}
	limit := DefaultRateLimit
	if in.RateLimit != nil {
		limit = *in.RateLimit
	}
	if err := checkRateLimit(limit); err != nil {
		return nil, err
	}

	secret, err := Generate()
	if err != nil {
		return nil, err
	}
	k := &ApiKey{
		ID:        uuid.NewString(),
		KeyHash:   Hash(secret),
		Name:      name,
		Scopes:    normalizeScopes(in.Scopes),
		RateLimit: limit,
		ExpiresAt: in.ExpiresAt,
		Status:    StatusActive,
	}
	if by := strings.TrimSpace(in.CreatedBy); by != "" {
		k.CreatedBy = &by
	}
	if err := s.repo.Create(ctx, k); err != nil {
		return nil, apperr.Wrap(err, "create api key")
	}
	return &CreatedKey{Key: secret, ApiKey: k}, nil
}

func (s *Service) List(ctx context.Context) ([]ApiKey, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(err, "list api keys")
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*ApiKey, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id string, in UpdateApiKeyRequest) (*ApiKey, error) {
	k, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		n := strings.TrimSpace(*in.Name)
		if n == "" {
			return nil, apperr.Validationf("name must not be empty")
		}
		k.Name = n
	}
	if in.Scopes != nil {
		k.Scopes = normalizeScopes(in.Scopes)
	}
	if in.RateLimit != nil {
		if err := checkRateLimit(*in.RateLimit); err != nil {
			return nil, err
		}
		k.RateLimit = *in.RateLimit
	}
	if in.ExpiresAt != nil {
		k.ExpiresAt = in.ExpiresAt
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, apperr.Validationf("unknown status %q", *in.Status)
		}
		k.Status = *in.Status
	}
	if err := s.repo.Update(ctx, k); err != nil {
		return nil, apperr.Wrap(err, "update api key")
	}
	return k, nil
}

// Revoke is permanent for the key's secret; the row stays for the record.
func (s *Service) Revoke(ctx context.Context, id string) (*ApiKey, error) {
	revoked := StatusRevoked
	return s.Update(ctx, id, UpdateApiKeyRequest{Status: &revoked})
}

// Validate resolves a presented secret. On success lastUsedAt moves to now;
// failing to record that does not refuse the key.
func (s *Service) Validate(ctx context.Context, secret string) (*ApiKey, error) {
	k, err := s.repo.GetByHash(ctx, Hash(secret))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUnknownKey
	}
	if err != nil {
		return nil, apperr.Wrap(err, "validate api key")
	}
	if k.Status != StatusActive {
		return nil, ErrInactiveKey
	}
	now := s.now()
	if k.ExpiresAt != nil && k.ExpiresAt.Before(now) {
		return nil, ErrExpiredKey
	}

	if err := s.repo.TouchLastUsed(ctx, k.ID, now); err != nil {
		s.log.Warn("api key lastUsedAt not updated", zap.String("apiKeyId", k.ID), zap.Error(err))
	} else {
		k.LastUsedAt = &now
	}
	return k, nil
}

// IsRefusal reports whether err is one of the reasons a key is refused, as
// opposed to a storage failure.
func IsRefusal(err error) bool {
	return errors.Is(err, ErrUnknownKey) || errors.Is(err, ErrInactiveKey) || errors.Is(err, ErrExpiredKey)
}

func checkRateLimit(n int) error {
	if n < 1 || n > MaxRateLimit {
		return apperr.Validationf("rateLimit must be between 1 and %d", MaxRateLimit)
	}
	return nil
}

func normalizeScopes(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
