package submission

import (
	"context"
	"sort"
	"sync"
)

type submissionKey struct {
	userID, courseID, lessonID string
}

// MemoryRepository .
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[submissionKey]Record
}

var _ Repository = &MemoryRepository{}

// NewMemoryRepository .
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[submissionKey]Record)}
}

// Create implement Repository
func (repo *MemoryRepository) Create(ctx context.Context, rec *Record) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	key := submissionKey{rec.UserID, rec.CourseID, rec.LessonID}
	if _, ok := repo.records[key]; ok {
		return ErrDuplicate
	}
	repo.records[key] = *rec
	return nil
}

// Find implement Repository
func (repo *MemoryRepository) Find(ctx context.Context, userID, courseID, lessonID string) (*Record, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	rec, ok := repo.records[submissionKey{userID, courseID, lessonID}]
	if !ok {
		return nil, ErrSubmissionNotFound
	}
	return &rec, nil
}

// ListByCourse implement Repository
func (repo *MemoryRepository) ListByCourse(ctx context.Context, userID, courseID string) ([]*Record, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	var result []*Record
	for key, rec := range repo.records {
		if key.userID == userID && key.courseID == courseID {
			rec := rec
			result = append(result, &rec)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].SubmittedAt.Equal(result[j].SubmittedAt) {
			return result[i].LessonID < result[j].LessonID
		}
		return result[i].SubmittedAt.Before(result[j].SubmittedAt)
	})
	return result, nil
}
