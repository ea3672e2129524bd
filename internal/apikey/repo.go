package apikey

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeMC777/vendor-backoffice/internal/apperr"
)

var ErrNotFound = apperr.NotFoundf("api key not found")

type Repository interface {
	Create(ctx context.Context, k *ApiKey) error
	GetByID(ctx context.Context, id string) (*ApiKey, error)
	GetByHash(ctx context.Context, hash string) (*ApiKey, error)
	List(ctx context.Context) ([]ApiKey, error)
	Update(ctx context.Context, k *ApiKey) error
	TouchLastUsed(ctx context.Context, id string, at time.Time) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const selectCols = `id, key_hash, name, scopes, rate_limit, expires_at, created_by, status, last_used_at, created_at`

func scanKey(row pgx.Row) (*ApiKey, error) {
	var k ApiKey
	err := row.Scan(&k.ID, &k.KeyHash, &k.Name, &k.Scopes, &k.RateLimit, &k.ExpiresAt,
		&k.CreatedBy, &k.Status, &k.LastUsedAt, &k.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if k.Scopes == nil {
		k.Scopes = []string{}
	}
	return &k, nil
}

func (r *PGRepo) Create(ctx context.Context, k *ApiKey) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.db.QueryRow(ctx, `
		INSERT INTO api_keys (id, key_hash, name, scopes, rate_limit, expires_at, created_by, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at
	`, k.ID, k.KeyHash, k.Name, k.Scopes, k.RateLimit, k.ExpiresAt, k.CreatedBy, k.Status).Scan(&k.CreatedAt)
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*ApiKey, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return scanKey(r.db.QueryRow(ctx, `SELECT `+selectCols+` FROM api_keys WHERE id=$1`, id))
}

func (r *PGRepo) GetByHash(ctx context.Context, hash string) (*ApiKey, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return scanKey(r.db.QueryRow(ctx, `SELECT `+selectCols+` FROM api_keys WHERE key_hash=$1`, hash))
}

func (r *PGRepo) List(ctx context.Context) ([]ApiKey, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT `+selectCols+` FROM api_keys ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ApiKey{}
	for rows.Next() {
		k, err := scanKey(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *k)
	}
	return out, rows.Err()
}

func (r *PGRepo) Update(ctx context.Context, k *ApiKey) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `
		UPDATE api_keys
		SET name=$2, scopes=$3, rate_limit=$4, expires_at=$5, status=$6
		WHERE id=$1
	`, k.ID, k.Name, k.Scopes, k.RateLimit, k.ExpiresAt, k.Status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := r.db.Exec(ctx, `UPDATE api_keys SET last_used_at=$2 WHERE id=$1`, id, at)
	return err
}
