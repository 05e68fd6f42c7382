package memory

import (
	"ai-review-be/internal/repository/contract"
	"ai-review-be/pkg/store"
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps encoded interview contexts in process memory.
// Values are stored as bytes so callers never share a mutable record.
type SessionRepository struct {
	cache *cache.Cache
}

var _ contract.InterviewContextRepository = &SessionRepository{}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *SessionRepository) Save(_ context.Context, c *store.InterviewContext) error {
	data, err := store.EncodeContext(c)
	if err != nil {
		return err
	}
	r.cache.Set(c.UserID, data, cache.DefaultExpiration)
	return nil
}

func (r *SessionRepository) FindByUserID(_ context.Context, userID string) (*store.InterviewContext, error) {
	x, found := r.cache.Get(userID)
	if !found {
		return nil, nil
	}
	return store.DecodeContext(x.([]byte))
}

func (r *SessionRepository) Delete(userID string) {
	r.cache.Delete(userID)
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
