package apikey

import "time"

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusRevoked  Status = "revoked"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive || s == StatusRevoked
}

const (
	// ScopeAll grants every scope.
	ScopeAll   = "*"
	ScopeWrite = "api-keys:write"

	DefaultRateLimit = 100
	MaxRateLimit     = 10000
)

// ApiKey is a client credential. Only the SHA-256 of the secret is stored.
// swagger:model ApiKey
type ApiKey struct {
	ID         string     `json:"id"`
	KeyHash    string     `json:"-"`
	Name       string     `json:"name" example:"erp-sync"`
	Scopes     []string   `json:"scopes" example:"orders:read"`
	RateLimit  int        `json:"rateLimit" example:"100"`
	ExpiresAt  *time.Time `json:"expiresAt"`
	CreatedBy  *string    `json:"createdBy"`
	Status     Status     `json:"status" example:"active"`
	LastUsedAt *time.Time `json:"lastUsedAt"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// HasScope reports whether the key carries scope, directly or through "*".
func (k *ApiKey) HasScope(scope string) bool {
	for _, s := range k.Scopes {
		if s == ScopeAll || s == scope {
			return true
		}
	}
	return false
}

// CreateApiKeyRequest payload of key creation.
// swagger:model CreateApiKeyRequest
type CreateApiKeyRequest struct {
	Name      string     `json:"name" binding:"required" example:"erp-sync"`
	Scopes    []string   `json:"scopes,omitempty"`
	RateLimit *int       `json:"rateLimit,omitempty" binding:"omitempty,min=1,max=10000" example:"100"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	CreatedBy string     `json:"createdBy,omitempty"`
}

// UpdateApiKeyRequest payload of a partial update.
// swagger:model UpdateApiKeyRequest
type UpdateApiKeyRequest struct {
	Name      *string    `json:"name,omitempty"`
	Scopes    []string   `json:"scopes,omitempty"`
	RateLimit *int       `json:"rateLimit,omitempty" binding:"omitempty,min=1,max=10000"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Status    *Status    `json:"status,omitempty"`
}

// CreatedKey is returned once; the plaintext key cannot be read back later.
// swagger:model CreatedKey
type CreatedKey struct {
	Key    string  `json:"key" example:"pk_3f1c..."`
	ApiKey *ApiKey `json:"apiKey"`
}

// swagger:model
type RevokeResponse struct {
	Message string  `json:"message" example:"api key revoked"`
	ApiKey  *ApiKey `json:"apiKey"`
}
