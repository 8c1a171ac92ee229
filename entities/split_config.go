package entities

import "video-splitter/constant"

// SplitConfig is the validated split request attached to a job.
type SplitConfig struct {
	Method             constant.SplitMethod `json:"method"`
	TimePoints         []float64            `json:"time_points,omitempty"`
	IntervalDuration   float64              `json:"interval_duration,omitempty"`
	OutputFormat       string               `json:"output_format"`
	PreserveQuality    bool                 `json:"preserve_quality"`
	ForceKeyframes     bool                 `json:"force_keyframes"`
	KeyframeInterval   float64              `json:"keyframe_interval,omitempty"`
	SubtitleSyncOffset float64              `json:"subtitle_sync_offset,omitempty"`
}
