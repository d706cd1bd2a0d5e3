package progress

import (
	"context"
	"sync"
	"time"
)

type progressKey struct {
	userID, courseID string
}

// MemoryRepository in-process progress store, records are copied in and out
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[progressKey]*Record
}

var _ Repository = &MemoryRepository{}

// NewMemoryRepository .
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[progressKey]*Record)}
}

func copyRecord(rec *Record) *Record {
	out := *rec
	out.Completed = make(LessonSet, len(rec.Completed))
	for id := range rec.Completed {
		out.Completed.Add(id)
	}
	out.QuizResults = make([]*QuizResult, len(rec.QuizResults))
	for i, qr := range rec.QuizResults {
		qr := *qr
		out.QuizResults[i] = &qr
	}
	if rec.FinalTestResult != nil {
		ftr := *rec.FinalTestResult
		out.FinalTestResult = &ftr
	}
	if rec.CompletedAt != nil {
		at := *rec.CompletedAt
		out.CompletedAt = &at
	}
	return &out
}

// Load implement Repository
func (repo *MemoryRepository) Load(ctx context.Context, userID, courseID string) (*Record, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	rec, ok := repo.records[progressKey{userID, courseID}]
	if !ok {
		return nil, ErrRecordAbsent
	}
	return copyRecord(rec), nil
}

// CreateIfAbsent implement Repository
func (repo *MemoryRepository) CreateIfAbsent(ctx context.Context, rec *Record) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	key := progressKey{rec.UserID, rec.CourseID}
	if _, ok := repo.records[key]; !ok {
		repo.records[key] = copyRecord(rec)
	}
	return nil
}

// update applies fn to an existing record, absent records are left alone
func (repo *MemoryRepository) update(userID, courseID string, fn func(rec *Record)) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if rec, ok := repo.records[progressKey{userID, courseID}]; ok {
		fn(rec)
	}
	return nil
}

// SetPosition implement Repository
func (repo *MemoryRepository) SetPosition(ctx context.Context, userID, courseID, moduleID, lessonID string, at time.Time) error {
	return repo.update(userID, courseID, func(rec *Record) {
		rec.CurrentModuleID, rec.CurrentLessonID, rec.UpdatedAt = moduleID, lessonID, at
	})
}

// AddCompletedLesson implement Repository
func (repo *MemoryRepository) AddCompletedLesson(ctx context.Context, userID, courseID, lessonID string, at time.Time) error {
	return repo.update(userID, courseID, func(rec *Record) {
		rec.Completed.Add(lessonID)
		rec.UpdatedAt = at
	})
}

// AppendQuizResult implement Repository
func (repo *MemoryRepository) AppendQuizResult(ctx context.Context, userID, courseID string, result *QuizResult) error {
	qr := *result
	return repo.update(userID, courseID, func(rec *Record) {
		rec.QuizResults = append(rec.QuizResults, &qr)
		rec.UpdatedAt = qr.AttemptedAt
	})
}

// SaveFinalTestResult implement Repository
func (repo *MemoryRepository) SaveFinalTestResult(ctx context.Context, userID, courseID string, result *FinalTestResult) error {
	ftr := *result
	return repo.update(userID, courseID, func(rec *Record) {
		rec.FinalTestResult = &ftr
		rec.FinalTestAttempts++
		rec.UpdatedAt = ftr.AttemptedAt
	})
}

// MarkCompleted implement Repository
func (repo *MemoryRepository) MarkCompleted(ctx context.Context, userID, courseID string, at time.Time) error {
	return repo.update(userID, courseID, func(rec *Record) {
		if rec.CompletedAt == nil {
			rec.CompletedAt = &at
			rec.UpdatedAt = at
		}
	})
}
