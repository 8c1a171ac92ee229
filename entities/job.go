package entities

import (
	"time"

	"github.com/google/uuid"
	"video-splitter/constant"
)

type Job struct {
	ID                 uuid.UUID          `json:"id" gorm:"type:uuid;primary_key"`
	SourceObject       string             `json:"source_object" gorm:"type:varchar(500);not null"`
	FileName           string             `json:"file_name" gorm:"type:varchar(255);not null"`
	ContentType        string             `json:"content_type" gorm:"type:varchar(100)"`
	DeclaredSize       int64              `json:"declared_size" gorm:"type:bigint"`
	Status             constant.JobStatus `json:"status" gorm:"type:varchar(20);not null;index:idx_jobs_status"`
	Progress           int                `json:"progress" gorm:"type:integer;not null;default:0"`
	Version            int64              `json:"version" gorm:"type:bigint;not null;default:0"`
	Metadata           *VideoMetadata     `json:"metadata" gorm:"type:jsonb;serializer:json"`
	SplitConfig        *SplitConfig       `json:"split_config" gorm:"type:jsonb;serializer:json"`
	ErrorMessage       *string            `json:"error_message" gorm:"type:text"`
	ProgressUpdatedAt  *time.Time         `json:"progress_updated_at" gorm:"type:timestamptz"`
	CreatedAt          time.Time          `json:"created_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time          `json:"updated_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}

func (Job) TableName() string {
	return "jobs"
}
