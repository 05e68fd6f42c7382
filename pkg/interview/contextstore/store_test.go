package contextstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-review-be/internal/pkg/logger"
	"ai-review-be/internal/repository/memory"
	"ai-review-be/pkg/store"
)

type brokenRepo struct {
	readErr  error
	writeErr error
	saved    int
}

func (b *brokenRepo) FindByUserID(context.Context, string) (*store.InterviewContext, error) {
	return nil, b.readErr
}

func (b *brokenRepo) Save(context.Context, *store.InterviewContext) error {
	b.saved++
	return b.writeErr
}

func TestTieredStore_DefaultOnMiss(t *testing.T) {
	s, err := NewTieredStore(logger.NewNopLogger(), Tier{Name: "memory", Repo: memory.NewSessionRepository(time.Hour)})
	require.NoError(t, err)

	c := s.Get(context.Background(), "u1")
	assert.Equal(t, "u1", c.UserID)
	assert.Equal(t, store.StageStart, c.Stage)
	assert.Empty(t, c.Answers)
	assert.Nil(t, c.Draft)
}

func TestTieredStore_CorruptTierTreatedAsMiss(t *testing.T) {
	broken := &brokenRepo{readErr: errors.New("decode context: unexpected end of JSON input")}
	s, err := NewTieredStore(logger.NewNopLogger(), Tier{Name: "redis", Repo: broken})
	require.NoError(t, err)

	c := s.Get(context.Background(), "u1")
	assert.Equal(t, store.StageStart, c.Stage)
}

func TestTieredStore_ReadThroughAndBackfill(t *testing.T) {
	fast := memory.NewSessionRepository(time.Hour)
	slow := memory.NewSessionRepository(time.Hour)
	ctx := context.Background()

	seed := store.NewContext("u1")
	seed.Stage = store.StageQnA
	seed.SubjectItem = "이어폰"
	require.NoError(t, slow.Save(ctx, seed))

	s, err := NewTieredStore(logger.NewNopLogger(), Tier{Name: "memory", Repo: fast}, Tier{Name: "postgres", Repo: slow})
	require.NoError(t, err)

	c := s.Get(ctx, "u1")
	assert.Equal(t, store.StageQnA, c.Stage)

	cached, err := fast.FindByUserID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "이어폰", cached.SubjectItem)
}

func TestTieredStore_SetWritesThrough(t *testing.T) {
	primary := memory.NewSessionRepository(time.Hour)
	durable := &brokenRepo{writeErr: errors.New("connection refused")}
	s, err := NewTieredStore(logger.NewNopLogger(), Tier{Name: "memory", Repo: primary}, Tier{Name: "postgres", Repo: durable})
	require.NoError(t, err)

	c := store.NewContext("u1")
	require.NoError(t, s.Set(context.Background(), c), "durable tier failure is only logged")
	assert.Equal(t, 1, durable.saved)
	assert.False(t, c.UpdatedAt.IsZero())

	failing, err := NewTieredStore(logger.NewNopLogger(), Tier{Name: "redis", Repo: &brokenRepo{writeErr: errors.New("down")}})
	require.NoError(t, err)
	assert.Error(t, failing.Set(context.Background(), c))
}

func TestTieredStore_Update(t *testing.T) {
	s, err := NewTieredStore(logger.NewNopLogger(), Tier{Name: "memory", Repo: memory.NewSessionRepository(time.Hour)})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Update(ctx, "u1", func(c *store.InterviewContext) error {
		c.Stage = store.StageQnA
		c.CoverSlot(store.SlotPros)
		return nil
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = s.Update(ctx, "u1", func(c *store.InterviewContext) error {
		c.Stage = store.StageDone
		return boom
	})
	assert.ErrorIs(t, err, boom)

	c := s.Get(ctx, "u1")
	assert.Equal(t, store.StageQnA, c.Stage, "failed update is not persisted")
	assert.True(t, c.HasSlot(store.SlotPros))
}

func TestNewTieredStore_RequiresTier(t *testing.T) {
	_, err := NewTieredStore(logger.NewNopLogger())
	assert.Error(t, err)
}
