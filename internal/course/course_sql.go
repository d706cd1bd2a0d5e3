package course

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/unifreelancer/academy/internal/infrastructure/driver"
)

// SQLRepository loads course documents stored as JSON in the course table
type SQLRepository struct {
	conn driver.ITransactionalDB
}

var _ Repository = &SQLRepository{}

// NewSQLRepository .
func NewSQLRepository(conn driver.ITransactionalDB) *SQLRepository {
	return &SQLRepository{conn: conn}
}

// GetCourse implement Repository
func (repo *SQLRepository) GetCourse(ctx context.Context, courseID string) (*Course, error) {
	conn := driver.ConnFromContext(ctx, repo.conn)
	rows, err := conn.QueryContext(ctx, `SELECT "document" FROM "course" WHERE "id" = $1`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrCourseNotFound
	}
	var document []byte
	if err := rows.Scan(&document); err != nil {
		return nil, err
	}
	return decodeCourse(courseID, document)
}

func decodeCourse(courseID string, document []byte) (*Course, error) {
	c := new(Course)
	if err := json.Unmarshal(document, c); err != nil {
		return nil, fmt.Errorf("decode course %s: %w", courseID, err)
	}
	if c.ID == "" {
		c.ID = courseID
	}
	if err := Validate(c); err != nil {
		return nil, err
	}
	return c, nil
}
