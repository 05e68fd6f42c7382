package contract

import (
	"context"

	"ai-review-be/pkg/store"
)

// InterviewContextRepository is one storage tier for interview sessions.
// FindByUserID returns (nil, nil) on a miss and an error for unreadable
// records or an unavailable backend.
type InterviewContextRepository interface {
	FindByUserID(ctx context.Context, userID string) (*store.InterviewContext, error)
	Save(ctx context.Context, c *store.InterviewContext) error
}
