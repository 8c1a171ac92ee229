package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"video-splitter/config"
	"video-splitter/constant"
	"video-splitter/pkg/apperr"
	"video-splitter/pkg/storage"
	"video-splitter/repository"
)

// DownloadService maps (job, segment filename) to a time-limited retrieval
// URL. It never fabricates a credential: the job must be completed, the
// filename must be one of its segments, and the object must actually exist.
type DownloadService interface {
	Resolve(ctx context.Context, jobId uuid.UUID, fileName string) (string, error)
}

type downloadService struct {
	repo  repository.JobRepository
	store storage.ObjectStore
	cfg   *config.Config
}

func NewDownloadService(repo repository.JobRepository, store storage.ObjectStore, cfg *config.Config) DownloadService {
	return &downloadService{
		repo:  repo,
		store: store,
		cfg:   cfg,
	}
}

func (s *downloadService) Resolve(ctx context.Context, jobId uuid.UUID, fileName string) (string, error) {
	job, err := findJob(ctx, s.repo, jobId)
	if err != nil {
		return "", err
	}
	if job.Status != constant.JobStatusCompleted {
		return "", apperr.NotFound("job %s has no downloadable segments", jobId)
	}

	segments, err := s.repo.GetSegmentsByJobId(ctx, jobId)
	if err != nil {
		return "", err
	}

	found := false
	for _, seg := range segments {
		if seg.FileName == fileName {
			found = true
			break
		}
	}
	if !found {
		return "", apperr.NotFound("segment %q of job %s", fileName, jobId)
	}

	key := OutputObjectKey(jobId, fileName)
	if _, err := s.store.Stat(ctx, key); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			// Recorded segment without a backing object: inconsistent
			// state, surfaced as not found rather than a dead URL.
			zerolog.Ctx(ctx).Error().Str("job_id", jobId.String()).Str("object", key).Msg("segment recorded but object missing")
			return "", apperr.NotFound("segment %q of job %s", fileName, jobId)
		}
		return "", err
	}

	return s.store.PresignGet(ctx, key, s.cfg.Download.Expiry)
}
