package enrollment

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unifreelancer/academy/internal/infrastructure/driver"
)

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	ok, err := repo.IsEnrolled(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Enroll(ctx, "u1", "c1", time.Now()))
	require.NoError(t, repo.Enroll(ctx, "u1", "c1", time.Now()))
	ok, _ = repo.IsEnrolled(ctx, "u1", "c1")
	assert.True(t, ok)
	ok, _ = repo.IsEnrolled(ctx, "u1", "c2")
	assert.False(t, ok)
}

type statementDB struct {
	dialect driver.Dialect
	queries []string
	hits    int
}

type countRows struct{ left int }

func (r *countRows) Next() bool {
	r.left--
	return r.left >= 0
}
func (r *countRows) Scan(dest ...interface{}) error { return nil }
func (r *countRows) Close() error                   { return nil }
func (r *countRows) Err() error                     { return nil }

func (d *statementDB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	d.queries = append(d.queries, query)
	return nil, nil
}

func (d *statementDB) QueryContext(ctx context.Context, query string, args ...interface{}) (driver.ISQLRows, error) {
	d.queries = append(d.queries, query)
	return &countRows{left: d.hits}, nil
}

func (d *statementDB) BeginTx(ctx context.Context, opts *driver.TxOptions) (driver.ITransactionalDB, error) {
	return d, nil
}
func (d *statementDB) Commit(ctx context.Context) error   { return nil }
func (d *statementDB) Rollback(ctx context.Context) error { return nil }
func (d *statementDB) Close(ctx context.Context) error    { return nil }
func (d *statementDB) Ping(ctx context.Context) error     { return nil }
func (d *statementDB) Dialect() driver.Dialect            { return d.dialect }

func TestSQLRepository(t *testing.T) {
	ctx := context.Background()

	db := &statementDB{dialect: driver.DialectMySQL, hits: 1}
	repo := NewSQLRepository(db)
	ok, err := repo.IsEnrolled(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.True(t, ok)

	db.hits = 0
	ok, err = repo.IsEnrolled(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Enroll(ctx, "u1", "c1", time.Now()))
	assert.Contains(t, db.queries[len(db.queries)-1], "INSERT IGNORE INTO")
}
