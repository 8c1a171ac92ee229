package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"video-splitter/constant"
	"video-splitter/dto"
	"video-splitter/entities"
	"video-splitter/metrics"
	"video-splitter/pkg/apperr"
	"video-splitter/planner"
	"video-splitter/repository"
)

// JobService owns the job lifecycle:
//
//	UPLOADING -> UPLOADED -> PROCESSING -> COMPLETED | FAILED
//
// Every transition is a compare-and-swap on the stored status, so exactly
// one writer wins regardless of how many submit or report concurrently.
// Terminal states absorb duplicate reports silently.
type JobService interface {
	Submit(ctx context.Context, jobId uuid.UUID, req dto.SplitRequest) (*entities.Job, error)
	Cancel(ctx context.Context, jobId uuid.UUID) error
	GetStatus(ctx context.Context, jobId uuid.UUID) (*dto.JobStatusResponse, error)
	GetVideoInfo(ctx context.Context, jobId uuid.UUID) (*dto.VideoInfoResponse, error)
	ReportProgress(ctx context.Context, jobId uuid.UUID, percent int) error
	ReportCompletion(ctx context.Context, jobId uuid.UUID, results []dto.SegmentResult) error
	ReportFailure(ctx context.Context, jobId uuid.UUID, reason string) error
}

type jobService struct {
	repo     repository.JobRepository
	resolver MetadataService
	driver   ProcessingDriver
}

func NewJobService(repo repository.JobRepository, resolver MetadataService, driver ProcessingDriver) JobService {
	return &jobService{
		repo:     repo,
		resolver: resolver,
		driver:   driver,
	}
}

func (s *jobService) Submit(ctx context.Context, jobId uuid.UUID, req dto.SplitRequest) (*entities.Job, error) {
	job, err := findJob(ctx, s.repo, jobId)
	if err != nil {
		return nil, err
	}

	switch job.Status {
	case constant.JobStatusProcessing:
		return nil, apperr.ErrAlreadyProcessing
	case constant.JobStatusUploaded:
	default:
		return nil, apperr.InvalidState("job %s is %s, expected %s", jobId, job.Status, constant.JobStatusUploaded)
	}

	meta := job.Metadata
	if meta == nil {
		meta, err = s.resolver.Resolve(ctx, jobId)
		if err != nil {
			return nil, err
		}
	}

	cfg := entities.SplitConfig{
		Method:             req.Method,
		TimePoints:         req.TimePoints,
		IntervalDuration:   req.IntervalDuration,
		OutputFormat:       req.OutputFormat,
		PreserveQuality:    req.PreserveQuality,
		ForceKeyframes:     req.ForceKeyframes,
		KeyframeInterval:   req.KeyframeInterval,
		SubtitleSyncOffset: req.SubtitleSyncOffset,
	}

	// A rejected config leaves the job in UPLOADED; the client may fix the
	// request and resubmit.
	plan, err := planner.Compute(cfg, *meta)
	if err != nil {
		return nil, err
	}
	if plan.SingleSegment {
		zerolog.Ctx(ctx).Warn().Str("job_id", jobId.String()).Msg("interval covers the whole source, planning a single segment")
	}

	now := time.Now().UTC()
	applied, err := s.repo.TransitionStatus(ctx, jobId, constant.JobStatusUploaded, constant.JobStatusProcessing, map[string]interface{}{
		"split_config":        &cfg,
		"progress":            0,
		"error_message":       nil,
		"progress_updated_at": now,
	})
	if err != nil {
		return nil, err
	}
	if !applied {
		// Another submit won the race.
		return nil, apperr.ErrAlreadyProcessing
	}

	if err := s.driver.Start(ctx, job, plan); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("job_id", jobId.String()).Msg("failed to dispatch processing")
		if failErr := s.ReportFailure(ctx, jobId, "failed to dispatch processing request"); failErr != nil {
			zerolog.Ctx(ctx).Error().Err(failErr).Str("job_id", jobId.String()).Msg("failed to fail job after dispatch error")
		}
		return nil, err
	}

	metrics.SplitsSubmitted.Inc()
	zerolog.Ctx(ctx).Info().
		Str("job_id", jobId.String()).
		Str("method", string(cfg.Method)).
		Int("segments", len(plan.Boundaries)-1).
		Msg("split accepted")

	return findJob(ctx, s.repo, jobId)
}

func (s *jobService) Cancel(ctx context.Context, jobId uuid.UUID) error {
	job, err := findJob(ctx, s.repo, jobId)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return nil
	}
	if job.Status != constant.JobStatusProcessing {
		return apperr.InvalidState("job %s is %s, only %s jobs can be cancelled", jobId, job.Status, constant.JobStatusProcessing)
	}
	return s.ReportFailure(ctx, jobId, constant.FailureReasonCancelled)
}

// GetStatus is strictly read-only; polling it at any rate re-triggers
// nothing.
func (s *jobService) GetStatus(ctx context.Context, jobId uuid.UUID) (*dto.JobStatusResponse, error) {
	job, err := findJob(ctx, s.repo, jobId)
	if err != nil {
		return nil, err
	}

	resp := &dto.JobStatusResponse{
		JobId:    job.ID,
		Status:   job.Status,
		Progress: job.Progress,
	}
	if job.ErrorMessage != nil {
		resp.ErrorMessage = *job.ErrorMessage
	}

	if job.Status == constant.JobStatusCompleted {
		segments, err := s.repo.GetSegmentsByJobId(ctx, jobId)
		if err != nil {
			return nil, err
		}
		for _, seg := range segments {
			resp.Splits = append(resp.Splits, dto.SplitInfo{
				FileName: seg.FileName,
				Size:     seg.SizeBytes,
			})
		}
	}

	return resp, nil
}

func (s *jobService) GetVideoInfo(ctx context.Context, jobId uuid.UUID) (*dto.VideoInfoResponse, error) {
	meta, err := s.resolver.Resolve(ctx, jobId)
	if err != nil {
		return nil, err
	}

	resp := &dto.VideoInfoResponse{
		JobId:           jobId,
		DurationSeconds: meta.DurationSeconds,
		Format:          meta.Format,
		SizeBytes:       meta.SizeBytes,
		VideoStreams:    meta.VideoStreams,
		AudioStreams:    meta.AudioStreams,
		SubtitleStreams: meta.SubtitleStreams,
		Estimated:       meta.Estimated,
	}
	for _, c := range meta.Chapters {
		resp.Chapters = append(resp.Chapters, dto.ChapterInfo{
			Start: c.Start,
			End:   c.End,
			Title: c.Title,
		})
	}
	return resp, nil
}

// ReportProgress applies monotonic progress updates. Stale or decreasing
// values fail the compare-and-swap and are dropped without error.
func (s *jobService) ReportProgress(ctx context.Context, jobId uuid.UUID, percent int) error {
	if percent < 0 || percent > 100 {
		zerolog.Ctx(ctx).Warn().Str("job_id", jobId.String()).Int("percent", percent).Msg("dropping out-of-range progress update")
		return nil
	}

	applied, err := s.repo.UpdateProgress(ctx, jobId, percent)
	if err != nil {
		return err
	}
	if !applied {
		zerolog.Ctx(ctx).Debug().Str("job_id", jobId.String()).Int("percent", percent).Msg("ignoring stale progress update")
	}
	return nil
}

func (s *jobService) ReportCompletion(ctx context.Context, jobId uuid.UUID, results []dto.SegmentResult) error {
	job, err := findJob(ctx, s.repo, jobId)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		zerolog.Ctx(ctx).Info().Str("job_id", jobId.String()).Msg("ignoring duplicate completion for terminal job")
		return nil
	}
	if job.Status != constant.JobStatusProcessing {
		return apperr.InvalidState("completion reported for job %s in %s", jobId, job.Status)
	}

	segments := buildSegments(jobId, results)
	if err := s.repo.ReplaceSegments(ctx, jobId, segments); err != nil {
		return err
	}

	applied, err := s.repo.TransitionStatus(ctx, jobId, constant.JobStatusProcessing, constant.JobStatusCompleted, map[string]interface{}{
		"progress": 100,
	})
	if err != nil {
		return err
	}
	if !applied {
		// Lost the race to a failure or cancel; those segments are not
		// downloadable.
		current, err := findJob(ctx, s.repo, jobId)
		if err != nil {
			return err
		}
		if current.Status != constant.JobStatusCompleted {
			if err := s.repo.DeleteSegmentsByJobId(ctx, jobId); err != nil {
				return err
			}
		}
		return nil
	}

	s.driver.Release(jobId)
	metrics.JobsCompleted.Inc()
	metrics.ProcessingDuration.Observe(time.Since(job.CreatedAt).Seconds())
	zerolog.Ctx(ctx).Info().Str("job_id", jobId.String()).Int("segments", len(segments)).Msg("job completed")
	return nil
}

func (s *jobService) ReportFailure(ctx context.Context, jobId uuid.UUID, reason string) error {
	job, err := findJob(ctx, s.repo, jobId)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		zerolog.Ctx(ctx).Info().Str("job_id", jobId.String()).Msg("ignoring duplicate failure for terminal job")
		return nil
	}
	if job.Status != constant.JobStatusProcessing {
		return apperr.InvalidState("failure reported for job %s in %s", jobId, job.Status)
	}

	applied, err := s.repo.TransitionStatus(ctx, jobId, constant.JobStatusProcessing, constant.JobStatusFailed, map[string]interface{}{
		"error_message": reason,
	})
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}

	// Partial segments from a failed run are never served.
	if err := s.repo.DeleteSegmentsByJobId(ctx, jobId); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("job_id", jobId.String()).Msg("failed to discard partial segments")
	}

	s.driver.Release(jobId)
	metrics.JobsFailed.Inc()
	zerolog.Ctx(ctx).Warn().Str("job_id", jobId.String()).Str("reason", reason).Msg("job failed")
	return nil
}

func buildSegments(jobId uuid.UUID, results []dto.SegmentResult) []*entities.Segment {
	sorted := make([]dto.SegmentResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartSeconds < sorted[j].StartSeconds
	})

	segments := make([]*entities.Segment, 0, len(sorted))
	for i, r := range sorted {
		segments = append(segments, &entities.Segment{
			ID:           uuid.New(),
			JobId:        jobId,
			Idx:          i,
			FileName:     r.FileName,
			StartSeconds: r.StartSeconds,
			EndSeconds:   r.EndSeconds,
			SizeBytes:    r.SizeBytes,
			Format:       r.Format,
		})
	}
	return segments
}
