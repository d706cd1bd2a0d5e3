package submission

import (
	"context"
	"errors"
	"time"
)

// Status grading state of a submission
type Status string

// submission states, grading happens outside this service
const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

var (
	// ErrSubmissionNotFound no submission for the lesson
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrDuplicate a submission for the lesson already exists
	ErrDuplicate = errors.New("submission already exists")
)

// Record assignment submission
type Record struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	CourseID       string    `json:"courseId"`
	LessonID       string    `json:"lessonId"`
	TextSubmission string    `json:"textSubmission,omitempty"`
	FileURL        string    `json:"fileUrl,omitempty"`
	Status         Status    `json:"status"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

// Repository submission persistence, one record per (user, course, lesson)
type Repository interface {
	// Create fails with ErrDuplicate when the lesson was already submitted
	Create(ctx context.Context, rec *Record) error
	Find(ctx context.Context, userID, courseID, lessonID string) (*Record, error)
	ListByCourse(ctx context.Context, userID, courseID string) ([]*Record, error)
}
