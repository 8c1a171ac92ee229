package dto

import (
	"github.com/google/uuid"
	"video-splitter/constant"
)

// RequestUploadInput is the body of POST /uploads.
type RequestUploadInput struct {
	FileName     string `json:"file_name" binding:"required"`
	ContentType  string `json:"content_type" binding:"required"`
	DeclaredSize int64  `json:"declared_size" binding:"required"`
}

// UploadCredential is a tagged variant: either a direct PUT URL or a
// structured form POST. Clients dispatch on Type, never on field presence.
type UploadCredential struct {
	Type   CredentialType    `json:"type"`
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields,omitempty"`
}

type CredentialType string

const (
	CredentialDirectPut CredentialType = "direct_put"
	CredentialFormPost  CredentialType = "form_post"
)

type RequestUploadResponse struct {
	JobId  uuid.UUID        `json:"job_id"`
	Upload UploadCredential `json:"upload"`
}

// SplitRequest is the body of POST /jobs/:id/split.
type SplitRequest struct {
	Method             constant.SplitMethod `json:"method" binding:"required"`
	TimePoints         []float64            `json:"time_points,omitempty"`
	IntervalDuration   float64              `json:"interval_duration,omitempty"`
	OutputFormat       string               `json:"output_format" binding:"required"`
	PreserveQuality    bool                 `json:"preserve_quality"`
	ForceKeyframes     bool                 `json:"force_keyframes"`
	KeyframeInterval   float64              `json:"keyframe_interval,omitempty"`
	SubtitleSyncOffset float64              `json:"subtitle_sync_offset,omitempty"`
}

type SplitInfo struct {
	FileName string `json:"filename"`
	Size     int64  `json:"size,omitempty"`
}

// JobStatusResponse is the polled status record.
type JobStatusResponse struct {
	JobId        uuid.UUID          `json:"job_id"`
	Status       constant.JobStatus `json:"status"`
	Progress     int                `json:"progress"`
	Splits       []SplitInfo        `json:"splits,omitempty"`
	ErrorMessage string             `json:"error_message,omitempty"`
}

type ChapterInfo struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Title string  `json:"title"`
}

// VideoInfoResponse carries resolved metadata. Estimated is first-class:
// consumers must be able to tell probe data from a size heuristic.
type VideoInfoResponse struct {
	JobId           uuid.UUID     `json:"job_id"`
	DurationSeconds float64       `json:"duration_seconds"`
	Format          string        `json:"format"`
	SizeBytes       int64         `json:"size_bytes"`
	VideoStreams    int           `json:"video_streams"`
	AudioStreams    int           `json:"audio_streams"`
	SubtitleStreams int           `json:"subtitle_streams"`
	Chapters        []ChapterInfo `json:"chapters,omitempty"`
	Estimated       bool          `json:"estimated"`
}

// SplitRequestMessage is published to the media-processing exchange when a
// job enters PROCESSING.
type SplitRequestMessage struct {
	JobId        uuid.UUID    `json:"jobId"`
	SourceObject string       `json:"sourceObject"`
	OutputPrefix string       `json:"outputPrefix"`
	Boundaries   []float64    `json:"boundaries"`
	Options      SplitOptions `json:"options"`
}

// SplitOptions are encoder hints forwarded verbatim; the orchestrator
// decides where to cut, the worker decides how.
type SplitOptions struct {
	OutputFormat       string  `json:"outputFormat"`
	PreserveQuality    bool    `json:"preserveQuality"`
	ForceKeyframes     bool    `json:"forceKeyframes"`
	KeyframeInterval   float64 `json:"keyframeInterval,omitempty"`
	SubtitleSyncOffset float64 `json:"subtitleSyncOffset,omitempty"`
}

// SplitResultMessage is consumed from the media-processing worker. Exactly
// one of the event kinds applies per delivery.
type SplitResultMessage struct {
	JobId    uuid.UUID        `json:"jobId"`
	Event    SplitResultEvent `json:"event"`
	Progress int              `json:"progress,omitempty"`
	Segments []SegmentResult  `json:"segments,omitempty"`
	Error    string           `json:"error,omitempty"`
}

type SplitResultEvent string

const (
	SplitEventProgress  SplitResultEvent = "progress"
	SplitEventCompleted SplitResultEvent = "completed"
	SplitEventFailed    SplitResultEvent = "failed"
)

type SegmentResult struct {
	FileName     string  `json:"fileName"`
	StartSeconds float64 `json:"startSeconds"`
	EndSeconds   float64 `json:"endSeconds"`
	SizeBytes    int64   `json:"sizeBytes"`
	Format       string  `json:"format"`
}
