package implementation

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"ai-review-be/internal/model"
	"ai-review-be/pkg/database"
	"ai-review-be/pkg/store"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterviewContextRepository_Integration(t *testing.T) {
	if err := godotenv.Load("../../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}
	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, database.DefaultPoolConfig(), false)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.InterviewContext{}))

	repo := NewInterviewContextRepository(db)
	ctx := context.Background()
	userID := "it-" + uuid.NewString()
	defer db.Where("user_id = ?", userID).Delete(&model.InterviewContext{})

	got, err := repo.FindByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, got)

	c := store.NewContext(userID)
	c.Stage = store.StageQnA
	c.CreatedAt = time.Now()
	require.NoError(t, repo.Save(ctx, c))

	// Second save exercises the upsert path.
	c.Stage = store.StageCompose
	c.RecordAnswer("가격은 어떠셨나요?", "적당했어요", store.SlotPrice)
	require.NoError(t, repo.Save(ctx, c))

	got, err = repo.FindByUserID(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, store.StageCompose, got.Stage)
	assert.Len(t, got.Answers, 1)
}
