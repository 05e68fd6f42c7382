package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"ai-review-be/internal/repository/contract"
	"ai-review-be/pkg/store"
)

const keyPrefix = "ctx:"

// SessionRepository shares interview contexts between service instances.
type SessionRepository struct {
	rdb *goredis.Client
	ttl time.Duration
}

var _ contract.InterviewContextRepository = &SessionRepository{}

func NewSessionRepository(rdb *goredis.Client, ttl time.Duration) *SessionRepository {
	return &SessionRepository{rdb: rdb, ttl: ttl}
}

func Key(userID string) string {
	return keyPrefix + userID
}

func (r *SessionRepository) FindByUserID(ctx context.Context, userID string) (*store.InterviewContext, error) {
	data, err := r.rdb.Get(ctx, Key(userID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", Key(userID), err)
	}
	return store.DecodeContext(data)
}

func (r *SessionRepository) Save(ctx context.Context, c *store.InterviewContext) error {
	data, err := store.EncodeContext(c)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, Key(c.UserID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", Key(c.UserID), err)
	}
	return nil
}
