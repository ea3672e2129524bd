package db

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/vendor-backoffice/internal/config"
)

func TestSchemaIsIdempotent(t *testing.T) {
	s := Schema()
	for _, table := range []string{"products", "customers", "orders", "order_items", "payment_records", "order_status_events", "api_keys"} {
		assert.Contains(t, s, "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
	assert.Equal(t, strings.Count(s, "CREATE TABLE"), strings.Count(s, "CREATE TABLE IF NOT EXISTS"))
	assert.Equal(t, strings.Count(s, "CREATE INDEX"), strings.Count(s, "CREATE INDEX IF NOT EXISTS"))
}

func TestSchemaCascades(t *testing.T) {
	s := Schema()
	assert.Contains(t, s, "REFERENCES customers(id) ON DELETE CASCADE")
	assert.Contains(t, s, "REFERENCES products(id) ON DELETE SET NULL")
	assert.Equal(t, 3, strings.Count(s, "REFERENCES orders(id) ON DELETE CASCADE"))
}

func TestConnectRejectsBadDSN(t *testing.T) {
	_, err := Connect(context.Background(), config.PostgresConfig{DSN: "::not a dsn::", MaxConns: 1})
	require.Error(t, err)
}
