package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"video-splitter/config"
	"video-splitter/constant"
	"video-splitter/dto"
	"video-splitter/entities"
	"video-splitter/metrics"
	"video-splitter/pkg/apperr"
	"video-splitter/pkg/storage"
	"video-splitter/repository"
)

// UploadService issues write credentials and finalizes uploads into jobs.
// The orchestrator never proxies video bytes; clients transfer directly
// against storage with the returned credential.
type UploadService interface {
	RequestUpload(ctx context.Context, input dto.RequestUploadInput) (*dto.RequestUploadResponse, error)
	ConfirmUpload(ctx context.Context, jobId uuid.UUID) (*entities.Job, error)
}

type uploadService struct {
	repo     repository.JobRepository
	store    storage.ObjectStore
	resolver MetadataService
	cfg      *config.Config
}

func NewUploadService(repo repository.JobRepository, store storage.ObjectStore, resolver MetadataService, cfg *config.Config) UploadService {
	return &uploadService{
		repo:     repo,
		store:    store,
		resolver: resolver,
		cfg:      cfg,
	}
}

func (s *uploadService) RequestUpload(ctx context.Context, input dto.RequestUploadInput) (*dto.RequestUploadResponse, error) {
	fileName := filepath.Base(strings.TrimSpace(input.FileName))
	if fileName == "" || fileName == "." || fileName == string(filepath.Separator) {
		return nil, apperr.InvalidInput("file_name must not be empty")
	}
	if strings.TrimSpace(input.ContentType) == "" {
		return nil, apperr.InvalidInput("content_type must not be empty")
	}
	if input.DeclaredSize <= 0 {
		return nil, apperr.InvalidInput("declared_size must be > 0, got %d", input.DeclaredSize)
	}
	if s.cfg.Upload.MaxSize > 0 && input.DeclaredSize > s.cfg.Upload.MaxSize {
		return nil, apperr.InvalidInput("declared_size %d exceeds the maximum of %d", input.DeclaredSize, s.cfg.Upload.MaxSize)
	}

	jobId := uuid.New()
	sourceObject := SourceObjectKey(jobId, fileName)

	credential, err := s.issueCredential(ctx, sourceObject, input.ContentType, input.DeclaredSize)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("object", sourceObject).Msg("failed to presign upload")
		return nil, err
	}

	job := &entities.Job{
		ID:           jobId,
		SourceObject: sourceObject,
		FileName:     fileName,
		ContentType:  input.ContentType,
		DeclaredSize: input.DeclaredSize,
		Status:       constant.JobStatusUploading,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to create job")
		return nil, err
	}

	metrics.JobsCreated.Inc()
	zerolog.Ctx(ctx).Info().Str("job_id", jobId.String()).Str("object", sourceObject).Msg("upload requested")

	return &dto.RequestUploadResponse{
		JobId:  jobId,
		Upload: credential,
	}, nil
}

func (s *uploadService) issueCredential(ctx context.Context, key, contentType string, declaredSize int64) (dto.UploadCredential, error) {
	if s.cfg.Upload.UseFormPost {
		url, fields, err := s.store.PresignPost(ctx, key, contentType, s.cfg.Upload.MaxSize, s.cfg.Upload.Expiry)
		if err != nil {
			return dto.UploadCredential{}, err
		}
		return dto.UploadCredential{
			Type:   dto.CredentialFormPost,
			URL:    url,
			Fields: fields,
		}, nil
	}

	url, err := s.store.PresignPut(ctx, key, contentType, s.cfg.Upload.Expiry)
	if err != nil {
		return dto.UploadCredential{}, err
	}
	return dto.UploadCredential{
		Type: dto.CredentialDirectPut,
		URL:  url,
	}, nil
}

func (s *uploadService) ConfirmUpload(ctx context.Context, jobId uuid.UUID) (*entities.Job, error) {
	job, err := findJob(ctx, s.repo, jobId)
	if err != nil {
		return nil, err
	}
	if job.Status != constant.JobStatusUploading {
		return nil, apperr.InvalidState("job %s is %s, expected %s", jobId, job.Status, constant.JobStatusUploading)
	}

	if _, err := s.store.Stat(ctx, job.SourceObject); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, apperr.InvalidState("no uploaded object found for job %s", jobId)
		}
		return nil, err
	}

	applied, err := s.repo.TransitionStatus(ctx, jobId, constant.JobStatusUploading, constant.JobStatusUploaded, nil)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, apperr.InvalidState("job %s left %s concurrently", jobId, constant.JobStatusUploading)
	}

	// Resolution falls back to an estimate on probe failure, so a confirm
	// never fails because the probe did.
	if _, err := s.resolver.Resolve(ctx, jobId); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("job_id", jobId.String()).Msg("metadata resolution failed on confirm")
	}

	zerolog.Ctx(ctx).Info().Str("job_id", jobId.String()).Msg("upload confirmed")
	return findJob(ctx, s.repo, jobId)
}

// SourceObjectKey qualifies the storage key with the job id so concurrent
// uploads of the same filename cannot collide.
func SourceObjectKey(jobId uuid.UUID, fileName string) string {
	return fmt.Sprintf("uploads/%s/%s", jobId, fileName)
}

// OutputObjectKey is where the processing step writes one segment.
func OutputObjectKey(jobId uuid.UUID, fileName string) string {
	return fmt.Sprintf("%s/%s", OutputPrefix(jobId), fileName)
}

func OutputPrefix(jobId uuid.UUID) string {
	return fmt.Sprintf("outputs/%s", jobId)
}

func findJob(ctx context.Context, repo repository.JobRepository, jobId uuid.UUID) (*entities.Job, error) {
	job, err := repo.FindJobById(ctx, jobId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("job %s", jobId)
		}
		return nil, err
	}
	return job, nil
}
