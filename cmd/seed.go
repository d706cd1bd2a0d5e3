package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/unifreelancer/academy/internal/course"
	"github.com/unifreelancer/academy/internal/enrollment"
)

type seedFile struct {
	Courses     []*course.Course `json:"courses"`
	Enrollments []struct {
		UserID   string `json:"userId"`
		CourseID string `json:"courseId"`
	} `json:"enrollments"`
}

// loadSeed fills the memory stores, returns the number of courses loaded
func loadSeed(ctx context.Context, path string, courses *course.MemoryRepository, enrollments *enrollment.MemoryRepository) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read seed file: %w", err)
	}
	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		return 0, fmt.Errorf("failed to decode seed file %s: %w", path, err)
	}
	for i, c := range seed.Courses {
		if c == nil {
			return 0, fmt.Errorf("seed course #%d is null", i)
		}
		if err := courses.Put(c); err != nil {
			return 0, fmt.Errorf("seed course %s: %w", c.ID, err)
		}
	}
	now := time.Now().UTC()
	for _, e := range seed.Enrollments {
		if err := enrollments.Enroll(ctx, e.UserID, e.CourseID, now); err != nil {
			return 0, err
		}
	}
	return len(seed.Courses), nil
}
