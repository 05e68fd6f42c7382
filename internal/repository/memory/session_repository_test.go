package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-review-be/pkg/store"
)

func TestSessionRepository(t *testing.T) {
	repo := NewSessionRepository(time.Hour)
	ctx := context.Background()

	got, err := repo.FindByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)

	c := store.NewContext("u1")
	c.SubjectItem = "이어폰"
	require.NoError(t, repo.Save(ctx, c))

	// Mutating after save must not leak into the stored copy.
	c.SubjectItem = "changed"

	got, err = repo.FindByUserID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "이어폰", got.SubjectItem)
	assert.Equal(t, 1, repo.Count())

	repo.Delete("u1")
	got, err = repo.FindByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)
}
