package model

import (
	"time"

	"gorm.io/datatypes"
)

// InterviewContext is the persistent fallback copy of a user's interview
// session. Payload holds the canonical JSON encoding of the record.
type InterviewContext struct {
	UserId    string         `gorm:"type:varchar(64);primaryKey"`
	Stage     string         `gorm:"type:varchar(16);not null;index"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

func (InterviewContext) TableName() string {
	return "interview_contexts"
}
