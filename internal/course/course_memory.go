package course

import (
	"context"
	"sync"
)

// MemoryRepository in-process course catalog
type MemoryRepository struct {
	mu      sync.RWMutex
	courses map[string]*Course
}

var _ Repository = &MemoryRepository{}

// NewMemoryRepository .
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{courses: make(map[string]*Course)}
}

// Put adds or replaces a course after validating it
func (repo *MemoryRepository) Put(c *Course) error {
	if err := Validate(c); err != nil {
		return err
	}
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.courses[c.ID] = c
	return nil
}

// GetCourse implement Repository
func (repo *MemoryRepository) GetCourse(ctx context.Context, courseID string) (*Course, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	c, ok := repo.courses[courseID]
	if !ok {
		return nil, ErrCourseNotFound
	}
	return c, nil
}
