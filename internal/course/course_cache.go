package course

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/unifreelancer/academy/internal/infrastructure/driver"
	"github.com/unifreelancer/academy/internal/infrastructure/logging"
	"go.uber.org/zap"
)

// CachedRepository read-through cache in front of another Repository.
//
// KV failures are logged and never fail the lookup.
type CachedRepository struct {
	next Repository
	kv   driver.KeyValueDB
	ttl  time.Duration
}

var _ Repository = &CachedRepository{}

// NewCachedRepository .
func NewCachedRepository(next Repository, kv driver.KeyValueDB, ttl time.Duration) *CachedRepository {
	return &CachedRepository{next: next, kv: kv, ttl: ttl}
}

func cacheKey(courseID string) string {
	return "course:" + courseID
}

// GetCourse implement Repository
func (cr *CachedRepository) GetCourse(ctx context.Context, courseID string) (*Course, error) {
	logger := logging.ExtractLoggerFromContext(ctx)
	key := cacheKey(courseID)

	cached, err := cr.kv.Get(ctx, key)
	switch {
	case err == nil:
		c, derr := decodeCourse(courseID, []byte(cached))
		if derr == nil {
			return c, nil
		}
		logger.Warn("drop undecodable cached course", zap.String("course.id", courseID), zap.Error(derr))
	case !errors.Is(err, driver.ErrKeyNotFound):
		logger.Warn("course cache read failed", zap.String("course.id", courseID), zap.Error(err))
	}

	c, err := cr.next.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if document, merr := json.Marshal(c); merr == nil {
		if serr := cr.kv.SetEX(ctx, key, string(document), cr.ttl); serr != nil {
			logger.Warn("course cache write failed", zap.String("course.id", courseID), zap.Error(serr))
		}
	}
	return c, nil
}
