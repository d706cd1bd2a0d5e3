package progress

import (
	"context"
	"database/sql"
	"time"

	"github.com/unifreelancer/academy/internal/infrastructure/driver"
)

// SQLRepository progress store over course_progress and its child tables
type SQLRepository struct {
	conn driver.ITransactionalDB
}

var _ Repository = &SQLRepository{}

// NewSQLRepository .
func NewSQLRepository(conn driver.ITransactionalDB) *SQLRepository {
	return &SQLRepository{conn: conn}
}

// Load implement Repository
func (repo *SQLRepository) Load(ctx context.Context, userID, courseID string) (*Record, error) {
	conn := driver.ConnFromContext(ctx, repo.conn)
	rec, err := repo.loadHead(ctx, conn, userID, courseID)
	if err != nil {
		return nil, err
	}
	if rec.Completed, err = repo.loadCompleted(ctx, conn, userID, courseID); err != nil {
		return nil, err
	}
	if rec.QuizResults, err = repo.loadQuizResults(ctx, conn, userID, courseID); err != nil {
		return nil, err
	}
	return rec, nil
}

func (repo *SQLRepository) loadHead(ctx context.Context, conn driver.ITransactionalDB, userID, courseID string) (*Record, error) {
	rows, err := conn.QueryContext(ctx, `
SELECT
    "current_module_id",
    "current_lesson_id",
    "final_test_score",
    "final_test_passed",
    "final_test_correct",
    "final_test_total",
    "final_test_attempted_at",
    "final_test_attempts",
    "completed_at",
    "created_at",
    "updated_at"
FROM "course_progress"
WHERE "user_id" = $1 AND "course_id" = $2`, userID, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrRecordAbsent
	}

	var (
		rec         = &Record{UserID: userID, CourseID: courseID}
		score       sql.NullInt64
		passed      sql.NullBool
		correct     sql.NullInt64
		total       sql.NullInt64
		attemptedAt sql.NullTime
		completedAt sql.NullTime
	)
	if err := rows.Scan(
		&rec.CurrentModuleID,
		&rec.CurrentLessonID,
		&score,
		&passed,
		&correct,
		&total,
		&attemptedAt,
		&rec.FinalTestAttempts,
		&completedAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if attemptedAt.Valid {
		rec.FinalTestResult = &FinalTestResult{
			Score:          int(score.Int64),
			Passed:         passed.Bool,
			CorrectAnswers: int(correct.Int64),
			TotalQuestions: int(total.Int64),
			AttemptedAt:    attemptedAt.Time.UTC(),
		}
	}
	if completedAt.Valid {
		at := completedAt.Time.UTC()
		rec.CompletedAt = &at
	}
	return rec, rows.Err()
}

func (repo *SQLRepository) loadCompleted(ctx context.Context, conn driver.ITransactionalDB, userID, courseID string) (LessonSet, error) {
	rows, err := conn.QueryContext(ctx, `
SELECT "lesson_id" FROM "progress_completed_lesson"
WHERE "user_id" = $1 AND "course_id" = $2`, userID, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := NewLessonSet()
	for rows.Next() {
		var lessonID string
		if err := rows.Scan(&lessonID); err != nil {
			return nil, err
		}
		set.Add(lessonID)
	}
	return set, rows.Err()
}

func (repo *SQLRepository) loadQuizResults(ctx context.Context, conn driver.ITransactionalDB, userID, courseID string) ([]*QuizResult, error) {
	rows, err := conn.QueryContext(ctx, `
SELECT "id", "lesson_id", "score", "correct_answers", "total_questions",
       "points_earned", "points_possible", "passed", "attempted_at"
FROM "progress_quiz_result"
WHERE "user_id" = $1 AND "course_id" = $2
ORDER BY "attempted_at" ASC, "id" ASC`, userID, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*QuizResult{}
	for rows.Next() {
		qr := new(QuizResult)
		if err := rows.Scan(&qr.ID, &qr.LessonID, &qr.Score, &qr.CorrectAnswers, &qr.TotalQuestions,
			&qr.PointsEarned, &qr.PointsPossible, &qr.Passed, &qr.AttemptedAt); err != nil {
			return nil, err
		}
		qr.AttemptedAt = qr.AttemptedAt.UTC()
		result = append(result, qr)
	}
	return result, rows.Err()
}

// CreateIfAbsent implement Repository
func (repo *SQLRepository) CreateIfAbsent(ctx context.Context, rec *Record) error {
	conn := driver.ConnFromContext(ctx, repo.conn)
	query := driver.InsertIgnore(conn.Dialect(), "course_progress",
		"user_id", "course_id", "current_module_id", "current_lesson_id", "final_test_attempts", "created_at", "updated_at")
	_, err := conn.ExecContext(ctx, query,
		rec.UserID, rec.CourseID, rec.CurrentModuleID, rec.CurrentLessonID, 0, rec.CreatedAt.UTC(), rec.UpdatedAt.UTC())
	return err
}

// SetPosition implement Repository
func (repo *SQLRepository) SetPosition(ctx context.Context, userID, courseID, moduleID, lessonID string, at time.Time) error {
	conn := driver.ConnFromContext(ctx, repo.conn)
	_, err := conn.ExecContext(ctx, `
UPDATE "course_progress"
SET "current_module_id" = $1, "current_lesson_id" = $2, "updated_at" = $3
WHERE "user_id" = $4 AND "course_id" = $5`, moduleID, lessonID, at.UTC(), userID, courseID)
	return err
}

// AddCompletedLesson implement Repository
func (repo *SQLRepository) AddCompletedLesson(ctx context.Context, userID, courseID, lessonID string, at time.Time) error {
	conn := driver.ConnFromContext(ctx, repo.conn)
	query := driver.InsertIgnore(conn.Dialect(), "progress_completed_lesson", "user_id", "course_id", "lesson_id", "completed_at")
	if _, err := conn.ExecContext(ctx, query, userID, courseID, lessonID, at.UTC()); err != nil {
		return err
	}
	return repo.touch(ctx, conn, userID, courseID, at)
}

// AppendQuizResult implement Repository
func (repo *SQLRepository) AppendQuizResult(ctx context.Context, userID, courseID string, result *QuizResult) error {
	conn := driver.ConnFromContext(ctx, repo.conn)
	_, err := conn.ExecContext(ctx, `
INSERT INTO "progress_quiz_result"
    ("id", "user_id", "course_id", "lesson_id", "score", "correct_answers", "total_questions",
     "points_earned", "points_possible", "passed", "attempted_at")
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		result.ID, userID, courseID, result.LessonID, result.Score, result.CorrectAnswers, result.TotalQuestions,
		result.PointsEarned, result.PointsPossible, result.Passed, result.AttemptedAt.UTC())
	if err != nil {
		return err
	}
	return repo.touch(ctx, conn, userID, courseID, result.AttemptedAt)
}

// SaveFinalTestResult implement Repository
func (repo *SQLRepository) SaveFinalTestResult(ctx context.Context, userID, courseID string, result *FinalTestResult) error {
	conn := driver.ConnFromContext(ctx, repo.conn)
	_, err := conn.ExecContext(ctx, `
UPDATE "course_progress"
SET "final_test_score" = $1,
    "final_test_passed" = $2,
    "final_test_correct" = $3,
    "final_test_total" = $4,
    "final_test_attempted_at" = $5,
    "final_test_attempts" = "final_test_attempts" + 1,
    "updated_at" = $6
WHERE "user_id" = $7 AND "course_id" = $8`,
		result.Score, result.Passed, result.CorrectAnswers, result.TotalQuestions, result.AttemptedAt.UTC(),
		result.AttemptedAt.UTC(), userID, courseID)
	return err
}

// MarkCompleted implement Repository
func (repo *SQLRepository) MarkCompleted(ctx context.Context, userID, courseID string, at time.Time) error {
	conn := driver.ConnFromContext(ctx, repo.conn)
	_, err := conn.ExecContext(ctx, `
UPDATE "course_progress"
SET "completed_at" = $1, "updated_at" = $2
WHERE "user_id" = $3 AND "course_id" = $4 AND "completed_at" IS NULL`, at.UTC(), at.UTC(), userID, courseID)
	return err
}

func (repo *SQLRepository) touch(ctx context.Context, conn driver.ITransactionalDB, userID, courseID string, at time.Time) error {
	_, err := conn.ExecContext(ctx, `
UPDATE "course_progress" SET "updated_at" = $1
WHERE "user_id" = $2 AND "course_id" = $3`, at.UTC(), userID, courseID)
	return err
}
