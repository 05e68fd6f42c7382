package mapper

import (
	"ai-review-be/internal/model"
	"ai-review-be/pkg/store"

	"gorm.io/datatypes"
)

type InterviewContextMapper struct{}

func NewInterviewContextMapper() *InterviewContextMapper {
	return &InterviewContextMapper{}
}

func (m *InterviewContextMapper) ToModel(c *store.InterviewContext) (*model.InterviewContext, error) {
	payload, err := store.EncodeContext(c)
	if err != nil {
		return nil, err
	}
	return &model.InterviewContext{
		UserId:    c.UserID,
		Stage:     string(c.Stage),
		Payload:   datatypes.JSON(payload),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}, nil
}

// ToEntity decodes the payload; the row's user id wins over whatever the
// payload carries.
func (m *InterviewContextMapper) ToEntity(row *model.InterviewContext) (*store.InterviewContext, error) {
	c, err := store.DecodeContext(row.Payload)
	if err != nil {
		return nil, err
	}
	c.UserID = row.UserId
	if c.CreatedAt.IsZero() {
		c.CreatedAt = row.CreatedAt
	}
	return c, nil
}
