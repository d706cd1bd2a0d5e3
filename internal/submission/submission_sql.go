package submission

import (
	"context"

	"github.com/unifreelancer/academy/internal/infrastructure/driver"
)

// SQLRepository .
type SQLRepository struct {
	conn driver.ITransactionalDB
}

var _ Repository = &SQLRepository{}

// NewSQLRepository .
func NewSQLRepository(conn driver.ITransactionalDB) *SQLRepository {
	return &SQLRepository{conn: conn}
}

// Create implement Repository, the unique key on (user, course, lesson) rejects duplicates
func (repo *SQLRepository) Create(ctx context.Context, rec *Record) error {
	conn := driver.ConnFromContext(ctx, repo.conn)
	query := driver.InsertIgnore(conn.Dialect(), "assignment_submission",
		"id", "user_id", "course_id", "lesson_id", "text_submission", "file_url", "status", "submitted_at")
	res, err := conn.ExecContext(ctx, query,
		rec.ID, rec.UserID, rec.CourseID, rec.LessonID, rec.TextSubmission, rec.FileURL, string(rec.Status), rec.SubmittedAt.UTC())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDuplicate
	}
	return nil
}

// Find implement Repository
func (repo *SQLRepository) Find(ctx context.Context, userID, courseID, lessonID string) (*Record, error) {
	conn := driver.ConnFromContext(ctx, repo.conn)
	rows, err := conn.QueryContext(ctx, `
SELECT "id", "user_id", "course_id", "lesson_id", "text_submission", "file_url", "status", "submitted_at"
FROM "assignment_submission"
WHERE "user_id" = $1 AND "course_id" = $2 AND "lesson_id" = $3`, userID, courseID, lessonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrSubmissionNotFound
	}
	return records[0], nil
}

// ListByCourse implement Repository
func (repo *SQLRepository) ListByCourse(ctx context.Context, userID, courseID string) ([]*Record, error) {
	conn := driver.ConnFromContext(ctx, repo.conn)
	rows, err := conn.QueryContext(ctx, `
SELECT "id", "user_id", "course_id", "lesson_id", "text_submission", "file_url", "status", "submitted_at"
FROM "assignment_submission"
WHERE "user_id" = $1 AND "course_id" = $2
ORDER BY "submitted_at" ASC`, userID, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows driver.ISQLRows) ([]*Record, error) {
	var result []*Record
	for rows.Next() {
		var (
			rec    = new(Record)
			status string
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.CourseID, &rec.LessonID,
			&rec.TextSubmission, &rec.FileURL, &status, &rec.SubmittedAt); err != nil {
			return nil, err
		}
		rec.Status = Status(status)
		result = append(result, rec)
	}
	return result, rows.Err()
}
