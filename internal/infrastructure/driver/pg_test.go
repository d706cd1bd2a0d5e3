package driver

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPGWrapperPingUnreachable(t *testing.T) {
	poolConfig, err := pgxpool.ParseConfig("postgres://u:p@127.0.0.1:1/academy?connect_timeout=2")
	require.NoError(t, err)
	poolConfig.LazyConnect = true

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pool, err := pgxpool.ConnectConfig(ctx, poolConfig)
	require.NoError(t, err)
	pw := &PGWrapper{pool}
	defer pw.Close(ctx)

	assert.Error(t, pw.Ping(ctx))
	assert.Equal(t, DialectPostgres, pw.Dialect())
}
