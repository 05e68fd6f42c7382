package implementation

import (
	"context"
	"errors"

	"ai-review-be/internal/mapper"
	"ai-review-be/internal/model"
	"ai-review-be/internal/repository/contract"
	"ai-review-be/pkg/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InterviewContextRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.InterviewContextMapper
}

func NewInterviewContextRepository(db *gorm.DB) contract.InterviewContextRepository {
	return &InterviewContextRepositoryImpl{
		db:     db,
		mapper: mapper.NewInterviewContextMapper(),
	}
}

func (r *InterviewContextRepositoryImpl) FindByUserID(ctx context.Context, userID string) (*store.InterviewContext, error) {
	var m model.InterviewContext
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}

// Save upserts on user_id; last writer wins.
func (r *InterviewContextRepositoryImpl) Save(ctx context.Context, c *store.InterviewContext) error {
	m, err := r.mapper.ToModel(c)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"stage", "payload", "updated_at"}),
	}).Create(m).Error
}
