package enrollment

import (
	"context"
	"sync"
	"time"

	"github.com/unifreelancer/academy/internal/infrastructure/driver"
)

// Repository entitlement lookup, enrollments are written by the payment flow
type Repository interface {
	IsEnrolled(ctx context.Context, userID, courseID string) (bool, error)
}

// SQLRepository .
type SQLRepository struct {
	conn driver.ITransactionalDB
}

var _ Repository = &SQLRepository{}

// NewSQLRepository .
func NewSQLRepository(conn driver.ITransactionalDB) *SQLRepository {
	return &SQLRepository{conn: conn}
}

// IsEnrolled implement Repository
func (repo *SQLRepository) IsEnrolled(ctx context.Context, userID, courseID string) (bool, error) {
	conn := driver.ConnFromContext(ctx, repo.conn)
	rows, err := conn.QueryContext(ctx, `SELECT 1 FROM "enrollment" WHERE "user_id" = $1 AND "course_id" = $2`, userID, courseID)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	found := rows.Next()
	return found, rows.Err()
}

// Enroll records an enrollment, repeating it is a no-op
func (repo *SQLRepository) Enroll(ctx context.Context, userID, courseID string, at time.Time) error {
	conn := driver.ConnFromContext(ctx, repo.conn)
	_, err := conn.ExecContext(ctx, driver.InsertIgnore(conn.Dialect(), "enrollment", "user_id", "course_id", "enrolled_at"),
		userID, courseID, at.UTC())
	return err
}

type enrollmentKey struct {
	userID, courseID string
}

// MemoryRepository .
type MemoryRepository struct {
	mu       sync.RWMutex
	enrolled map[enrollmentKey]time.Time
}

var _ Repository = &MemoryRepository{}

// NewMemoryRepository .
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{enrolled: make(map[enrollmentKey]time.Time)}
}

// IsEnrolled implement Repository
func (repo *MemoryRepository) IsEnrolled(ctx context.Context, userID, courseID string) (bool, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	_, ok := repo.enrolled[enrollmentKey{userID, courseID}]
	return ok, nil
}

// Enroll .
func (repo *MemoryRepository) Enroll(ctx context.Context, userID, courseID string, at time.Time) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	key := enrollmentKey{userID, courseID}
	if _, ok := repo.enrolled[key]; !ok {
		repo.enrolled[key] = at
	}
	return nil
}
