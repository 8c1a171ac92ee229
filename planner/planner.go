package planner

import (
	"math"
	"sort"

	"video-splitter/constant"
	"video-splitter/entities"
	"video-splitter/pkg/apperr"
)

// Tolerance is the numerical slack used when comparing boundaries. Two
// boundaries closer than this collapse into one, and the final boundary is
// considered equal to the duration within it.
const Tolerance = 1e-3

var supportedFormats = map[string]bool{
	"mp4":  true,
	"mkv":  true,
	"webm": true,
	"mov":  true,
	"ts":   true,
}

// Span is one planned segment's half-open time range.
type Span struct {
	Start float64
	End   float64
}

// Plan is the deterministic output of Compute: strictly increasing
// boundaries starting at 0 and ending at the source duration, plus the
// encoder hints forwarded to the processing step.
type Plan struct {
	Boundaries []float64
	// SingleSegment flags the degenerate interval >= duration case: valid,
	// but worth surfacing to callers.
	SingleSegment bool
	Options       Options
}

// Options are forwarded to the processing step unchanged. The planner only
// decides where to cut; cadence and offset are policy for the encoder.
type Options struct {
	OutputFormat       string
	PreserveQuality    bool
	ForceKeyframes     bool
	KeyframeInterval   float64
	SubtitleSyncOffset float64
}

// Spans pairs the boundaries into contiguous, non-overlapping segments.
func (p Plan) Spans() []Span {
	if len(p.Boundaries) < 2 {
		return nil
	}
	spans := make([]Span, 0, len(p.Boundaries)-1)
	for i := 0; i < len(p.Boundaries)-1; i++ {
		spans = append(spans, Span{Start: p.Boundaries[i], End: p.Boundaries[i+1]})
	}
	return spans
}

// Compute turns a split config and resolved metadata into a boundary plan.
// It is pure: same inputs, same plan. Configs inconsistent with the
// metadata are rejected with apperr.ErrInvalidConfig naming the field.
func Compute(cfg entities.SplitConfig, meta entities.VideoMetadata) (Plan, error) {
	if meta.DurationSeconds <= 0 {
		return Plan{}, apperr.InvalidConfig("metadata duration must be positive, got %g", meta.DurationSeconds)
	}
	if !supportedFormats[cfg.OutputFormat] {
		return Plan{}, apperr.InvalidConfig("output_format %q is not supported", cfg.OutputFormat)
	}
	if cfg.ForceKeyframes && cfg.KeyframeInterval <= 0 {
		return Plan{}, apperr.InvalidConfig("keyframe_interval must be > 0 when force_keyframes is set")
	}

	plan := Plan{
		Options: Options{
			OutputFormat:       cfg.OutputFormat,
			PreserveQuality:    cfg.PreserveQuality,
			ForceKeyframes:     cfg.ForceKeyframes,
			SubtitleSyncOffset: cfg.SubtitleSyncOffset,
		},
	}
	if cfg.ForceKeyframes {
		plan.Options.KeyframeInterval = cfg.KeyframeInterval
	}

	var err error
	switch cfg.Method {
	case constant.SplitMethodTimeBased:
		plan.Boundaries, err = timeBasedBoundaries(cfg.TimePoints, meta.DurationSeconds)
	case constant.SplitMethodIntervals:
		plan.Boundaries, plan.SingleSegment, err = intervalBoundaries(cfg.IntervalDuration, meta.DurationSeconds)
	case constant.SplitMethodChapters:
		plan.Boundaries, err = chapterBoundaries(meta.Chapters, meta.DurationSeconds)
	default:
		err = apperr.InvalidConfig("method %q is not one of time_based, intervals, chapters", cfg.Method)
	}
	if err != nil {
		return Plan{}, err
	}

	return plan, nil
}

// timeBasedBoundaries keeps points inside [0, duration), deduplicates and
// sorts them, then brackets with 0 and the duration.
func timeBasedBoundaries(points []float64, duration float64) ([]float64, error) {
	usable := make([]float64, 0, len(points))
	for _, p := range points {
		if p >= 0 && p < duration-Tolerance {
			usable = append(usable, p)
		}
	}
	if len(usable) == 0 {
		return nil, apperr.InvalidConfig("time_points contains no usable values inside [0, %g)", duration)
	}
	sort.Float64s(usable)

	boundaries := append([]float64{0}, usable...)
	boundaries = append(boundaries, duration)
	return dedupe(boundaries), nil
}

// intervalBoundaries walks 0, i, 2i, ... and clamps the last boundary to
// the duration. An interval covering the whole source yields one segment.
func intervalBoundaries(interval, duration float64) ([]float64, bool, error) {
	if interval <= 0 {
		return nil, false, apperr.InvalidConfig("interval_duration must be > 0, got %g", interval)
	}
	if interval >= duration {
		return []float64{0, duration}, true, nil
	}

	n := int(math.Ceil(duration / interval))
	boundaries := make([]float64, 0, n+1)
	for b := 0.0; b < duration-Tolerance; b += interval {
		boundaries = append(boundaries, b)
	}
	boundaries = append(boundaries, duration)
	return dedupe(boundaries), false, nil
}

// chapterBoundaries uses container chapter marks verbatim. No chapters
// means the config is wrong, not a cue to fall back to another method.
func chapterBoundaries(chapters []entities.Chapter, duration float64) ([]float64, error) {
	if len(chapters) == 0 {
		return nil, apperr.InvalidConfig("chapters method requested but the source has no chapters")
	}

	boundaries := []float64{0}
	for _, c := range chapters {
		if c.Start > 0 && c.Start < duration-Tolerance {
			boundaries = append(boundaries, c.Start)
		}
	}
	boundaries = append(boundaries, duration)
	sort.Float64s(boundaries)
	return dedupe(boundaries), nil
}

// dedupe collapses pairwise-close values from an already sorted slice.
func dedupe(sorted []float64) []float64 {
	out := sorted[:1]
	for _, v := range sorted[1:] {
		if v-out[len(out)-1] > Tolerance {
			out = append(out, v)
		}
	}
	return out
}
