package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"video-splitter/config"
	"video-splitter/entities"
	"video-splitter/pkg/ffprobe"
	"video-splitter/pkg/storage"
	"video-splitter/repository"
)

// Prober is the external probe capability. The production implementation
// shells out to ffprobe against a presigned URL with a bounded timeout.
type Prober interface {
	Probe(ctx context.Context, sourceURL string) (*ffprobe.Result, error)
}

// MetadataService resolves VideoMetadata for a job's source object. Probe
// data is authoritative; on probe failure it falls back to a declared
// size-based estimate and says so via the Estimated flag. A measured record
// is never overwritten by a later estimate.
type MetadataService interface {
	Resolve(ctx context.Context, jobId uuid.UUID) (*entities.VideoMetadata, error)
}

type metadataService struct {
	repo   repository.JobRepository
	store  storage.ObjectStore
	prober Prober
	cfg    *config.Config
}

func NewMetadataService(repo repository.JobRepository, store storage.ObjectStore, prober Prober, cfg *config.Config) MetadataService {
	return &metadataService{
		repo:   repo,
		store:  store,
		prober: prober,
		cfg:    cfg,
	}
}

func (s *metadataService) Resolve(ctx context.Context, jobId uuid.UUID) (*entities.VideoMetadata, error) {
	job, err := findJob(ctx, s.repo, jobId)
	if err != nil {
		return nil, err
	}

	// Measured metadata is ground truth. Re-resolving may replace an
	// estimate with a measurement, never the reverse.
	if job.Metadata != nil && !job.Metadata.Estimated {
		return job.Metadata, nil
	}

	sizeBytes := job.DeclaredSize
	if info, err := s.store.Stat(ctx, job.SourceObject); err == nil {
		sizeBytes = info.Size
	}

	meta, probeErr := s.probe(ctx, job, sizeBytes)
	if probeErr != nil {
		zerolog.Ctx(ctx).Warn().Err(probeErr).Str("job_id", jobId.String()).Msg("probe failed, falling back to estimation")
		if job.Metadata != nil {
			// Keep the existing estimate rather than churn it.
			return job.Metadata, nil
		}
		meta = s.estimate(job.FileName, sizeBytes)
	}

	applied, err := s.repo.UpdateMetadata(ctx, jobId, job.Version, meta)
	if err != nil {
		return nil, err
	}
	if !applied {
		// A concurrent writer updated the job; their metadata wins.
		refreshed, err := findJob(ctx, s.repo, jobId)
		if err != nil {
			return nil, err
		}
		if refreshed.Metadata != nil {
			return refreshed.Metadata, nil
		}
	}

	zerolog.Ctx(ctx).Info().
		Str("job_id", jobId.String()).
		Float64("duration", meta.DurationSeconds).
		Bool("estimated", meta.Estimated).
		Msg("metadata resolved")
	return meta, nil
}

func (s *metadataService) probe(ctx context.Context, job *entities.Job, sizeBytes int64) (*entities.VideoMetadata, error) {
	sourceURL, err := s.store.PresignGet(ctx, job.SourceObject, s.cfg.Probe.Timeout*2)
	if err != nil {
		return nil, err
	}

	result, err := s.prober.Probe(ctx, sourceURL)
	if err != nil {
		return nil, err
	}
	if result.DurationSeconds <= 0 {
		return nil, fmt.Errorf("probe returned no duration for %s", job.SourceObject)
	}

	meta := &entities.VideoMetadata{
		DurationSeconds: result.DurationSeconds,
		Format:          result.Format,
		SizeBytes:       result.SizeBytes,
		VideoStreams:    result.VideoStreams,
		AudioStreams:    result.AudioStreams,
		SubtitleStreams: result.SubtitleStreams,
		Estimated:       false,
	}
	if meta.SizeBytes == 0 {
		meta.SizeBytes = sizeBytes
	}
	for _, c := range result.Chapters {
		meta.Chapters = append(meta.Chapters, entities.Chapter{
			Start: c.Start,
			End:   c.End,
			Title: c.Title,
		})
	}
	return meta, nil
}

// containers that commonly carry subtitle tracks
var subtitleCapable = map[string]bool{
	"mkv":  true,
	"mp4":  true,
	"webm": true,
}

func (s *metadataService) estimate(fileName string, sizeBytes int64) *entities.VideoMetadata {
	duration := float64(sizeBytes) / s.cfg.Estimation.BytesPerSecond
	if duration < s.cfg.Estimation.DurationFloor {
		duration = s.cfg.Estimation.DurationFloor
	}

	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	subtitles := 0
	if subtitleCapable[format] {
		subtitles = 1
	}

	return &entities.VideoMetadata{
		DurationSeconds: duration,
		Format:          format,
		SizeBytes:       sizeBytes,
		VideoStreams:    1,
		AudioStreams:    1,
		SubtitleStreams: subtitles,
		Estimated:       true,
	}
}
