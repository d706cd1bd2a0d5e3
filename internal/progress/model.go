package progress

import (
	"context"
	"time"

	"github.com/unifreelancer/academy/internal/course"
	"github.com/unifreelancer/academy/internal/submission"
)

// CourseStatus course level state
type CourseStatus string

// course states
const (
	StatusInProgress       CourseStatus = "in_progress"
	StatusFinalTestPending CourseStatus = "final_test_pending"
	StatusCompleted        CourseStatus = "completed"
)

// LessonSet set of completed lesson IDs
type LessonSet map[string]struct{}

// NewLessonSet .
func NewLessonSet(ids ...string) LessonSet {
	set := make(LessonSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Has .
func (s LessonSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add .
func (s LessonSet) Add(id string) {
	s[id] = struct{}{}
}

// QuizResult one graded quiz attempt
type QuizResult struct {
	ID             string    `json:"id"`
	LessonID       string    `json:"lessonId"`
	Score          int       `json:"score"`
	CorrectAnswers int       `json:"correctAnswers"`
	TotalQuestions int       `json:"totalQuestions"`
	PointsEarned   int       `json:"pointsEarned"`
	PointsPossible int       `json:"pointsPossible"`
	Passed         bool      `json:"passed"`
	AttemptedAt    time.Time `json:"attemptedAt"`
}

// FinalTestResult latest final test attempt
type FinalTestResult struct {
	Score          int       `json:"score"`
	Passed         bool      `json:"passed"`
	CorrectAnswers int       `json:"correctAnswers"`
	TotalQuestions int       `json:"totalQuestions"`
	AttemptedAt    time.Time `json:"attemptedAt"`
}

// AssignmentSubmission learner's submission as shown in Progress
type AssignmentSubmission struct {
	LessonID       string            `json:"lessonId"`
	TextSubmission string            `json:"textSubmission,omitempty"`
	FileURL        string            `json:"fileUrl,omitempty"`
	Status         submission.Status `json:"status"`
	SubmittedAt    time.Time         `json:"submittedAt"`
}

// Progress learner's state within one course
type Progress struct {
	UserID                string                  `json:"userId"`
	CourseID              string                  `json:"courseId"`
	CompletedLessons      []string                `json:"completedLessons"`
	CurrentModuleID       string                  `json:"currentModuleId"`
	CurrentLessonID       string                  `json:"currentLessonId"`
	AssignmentSubmissions []*AssignmentSubmission `json:"assignmentSubmissions"`
	QuizResults           []*QuizResult           `json:"quizResults"`
	FinalTestResult       *FinalTestResult        `json:"finalTestResult"`
	FinalTestAttempts     int                     `json:"finalTestAttempts"`
	ProgressPercentage    int                     `json:"progressPercentage"`
	Status                CourseStatus            `json:"status"`
	Completed             bool                    `json:"completed"`
	CompletedAt           *time.Time              `json:"completedAt,omitempty"`
	CreatedAt             time.Time               `json:"createdAt"`
	UpdatedAt             time.Time               `json:"updatedAt"`
}

// FinalTestOutcome result of a final test submission
type FinalTestOutcome struct {
	Score           int           `json:"score"`
	Passed          bool          `json:"passed"`
	CorrectAnswers  int           `json:"correctAnswers"`
	TotalQuestions  int           `json:"totalQuestions"`
	PointsEarned    int           `json:"pointsEarned"`
	PointsPossible  int           `json:"pointsPossible"`
	Attempts        int           `json:"attempts"`
	Badge           *course.Badge `json:"badge,omitempty"`
	CourseCompleted bool          `json:"courseCompleted"`
}

// AssignmentForm learner input for an assignment lesson
type AssignmentForm struct {
	TextSubmission string `json:"textSubmission" validate:"max=20000"`
	FileURL        string `json:"fileUrl" validate:"omitempty,url,max=2048"`
}

// Record persisted progress state, derived fields are computed by the engine
type Record struct {
	UserID            string
	CourseID          string
	CurrentModuleID   string
	CurrentLessonID   string
	Completed         LessonSet
	QuizResults       []*QuizResult
	FinalTestResult   *FinalTestResult
	FinalTestAttempts int
	CompletedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Repository progress persistence, every write is atomic on its own
type Repository interface {
	// Load returns ErrRecordAbsent when the pair has no record
	Load(ctx context.Context, userID, courseID string) (*Record, error)
	// CreateIfAbsent inserts rec unless a record already exists
	CreateIfAbsent(ctx context.Context, rec *Record) error
	SetPosition(ctx context.Context, userID, courseID, moduleID, lessonID string, at time.Time) error
	// AddCompletedLesson is a set-add, repeating it is a no-op
	AddCompletedLesson(ctx context.Context, userID, courseID, lessonID string, at time.Time) error
	AppendQuizResult(ctx context.Context, userID, courseID string, result *QuizResult) error
	// SaveFinalTestResult replaces the latest result and bumps the attempt counter
	SaveFinalTestResult(ctx context.Context, userID, courseID string, result *FinalTestResult) error
	// MarkCompleted sets the completion time once, later calls keep the first one
	MarkCompleted(ctx context.Context, userID, courseID string, at time.Time) error
}

// UseCase progress engine operations
type UseCase interface {
	GetProgress(ctx context.Context, userID, courseID string) (*Progress, error)
	SelectLesson(ctx context.Context, userID, courseID, moduleID, lessonID string) (*Progress, error)
	CompleteLesson(ctx context.Context, userID, courseID, lessonID string) (*Progress, error)
	SubmitAssignment(ctx context.Context, userID, courseID, lessonID string, form *AssignmentForm) (*submission.Record, error)
	GetAssignment(ctx context.Context, userID, courseID, lessonID string) (*submission.Record, error)
	SubmitQuiz(ctx context.Context, userID, courseID, lessonID string, answers []course.Answer) (*QuizResult, error)
	SubmitFinalTest(ctx context.Context, userID, courseID string, answers []course.Answer) (*FinalTestOutcome, error)
}
