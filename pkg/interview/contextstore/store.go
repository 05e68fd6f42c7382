// Package contextstore is the session-state capability the interview engine
// is given. It reads through a list of tiers (fastest first) and writes
// through all of them.
package contextstore

import (
	"context"
	"fmt"
	"time"

	"ai-review-be/internal/pkg/logger"
	"ai-review-be/internal/repository/contract"
	"ai-review-be/pkg/store"
)

// Store never fails a read: a miss or an unreadable record yields the
// default context for the user.
type Store interface {
	Get(ctx context.Context, userID string) *store.InterviewContext
	Set(ctx context.Context, c *store.InterviewContext) error
	Update(ctx context.Context, userID string, fn func(c *store.InterviewContext) error) (*store.InterviewContext, error)
}

// Tier names one repository in the read/write chain.
type Tier struct {
	Name string
	Repo contract.InterviewContextRepository
}

type TieredStore struct {
	tiers  []Tier
	logger logger.ILogger
	now    func() time.Time
}

var _ Store = &TieredStore{}

// NewTieredStore requires at least one tier. The first tier is the primary:
// a failed write to it fails Set, later tiers only log.
func NewTieredStore(log logger.ILogger, tiers ...Tier) (*TieredStore, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("contextstore: at least one tier is required")
	}
	return &TieredStore{tiers: tiers, logger: log, now: time.Now}, nil
}

func (s *TieredStore) Get(ctx context.Context, userID string) *store.InterviewContext {
	for i, tier := range s.tiers {
		c, err := tier.Repo.FindByUserID(ctx, userID)
		if err != nil {
			s.logger.Warn("STORE", "Tier read failed, trying next", map[string]interface{}{
				"tier":    tier.Name,
				"user_id": userID,
				"error":   err.Error(),
			})
			continue
		}
		if c == nil {
			continue
		}
		c.UserID = userID
		s.backfill(ctx, c, i)
		return c
	}
	c := store.NewContext(userID)
	c.CreatedAt = s.now()
	return c
}

// backfill copies a record found in a slower tier into the faster ones.
func (s *TieredStore) backfill(ctx context.Context, c *store.InterviewContext, foundAt int) {
	for _, tier := range s.tiers[:foundAt] {
		if err := tier.Repo.Save(ctx, c); err != nil {
			s.logger.Warn("STORE", "Backfill failed", map[string]interface{}{"tier": tier.Name, "error": err.Error()})
		}
	}
}

func (s *TieredStore) Set(ctx context.Context, c *store.InterviewContext) error {
	if c == nil || c.UserID == "" {
		return fmt.Errorf("contextstore: context without user id")
	}
	now := s.now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	for i, tier := range s.tiers {
		err := tier.Repo.Save(ctx, c)
		if err == nil {
			continue
		}
		if i == 0 {
			return fmt.Errorf("contextstore: save to %s: %w", tier.Name, err)
		}
		s.logger.Warn("STORE", "Write-through failed", map[string]interface{}{
			"tier":    tier.Name,
			"user_id": c.UserID,
			"error":   err.Error(),
		})
	}
	return nil
}

// Update is a read-modify-write. Callers serialize per user; the store itself
// is last-writer-wins.
func (s *TieredStore) Update(ctx context.Context, userID string, fn func(c *store.InterviewContext) error) (*store.InterviewContext, error) {
	c := s.Get(ctx, userID)
	if err := fn(c); err != nil {
		return c, err
	}
	if err := s.Set(ctx, c); err != nil {
		return c, err
	}
	return c, nil
}
