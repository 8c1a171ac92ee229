package entities

import (
	"time"

	"github.com/google/uuid"
)

type Segment struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	JobId        uuid.UUID `json:"job_id" gorm:"type:uuid;not null;index:idx_segments_job_id"`
	Idx          int       `json:"idx" gorm:"type:integer;not null"`
	FileName     string    `json:"file_name" gorm:"type:varchar(255);not null"`
	StartSeconds float64   `json:"start_seconds" gorm:"type:double precision;not null"`
	EndSeconds   float64   `json:"end_seconds" gorm:"type:double precision;not null"`
	SizeBytes    int64     `json:"size_bytes" gorm:"type:bigint"`
	Format       string    `json:"format" gorm:"type:varchar(10)"`
	CreatedAt    time.Time `json:"created_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}

func (Segment) TableName() string {
	return "segments"
}
