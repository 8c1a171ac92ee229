package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"video-splitter/constant"
	"video-splitter/entities"
)

// JobRepository persists jobs and their output segments. Status mutations
// are compare-and-swap on the current status (and version where noted), so
// concurrent writers race on rows-affected rather than on a process lock.
type JobRepository interface {
	Transaction(ctx context.Context, callback func(ctx context.Context) error, opts ...*sql.TxOptions) error
	CreateJob(ctx context.Context, job *entities.Job) error
	FindJobById(ctx context.Context, id uuid.UUID) (*entities.Job, error)
	// TransitionStatus applies from->to plus extra column updates only if
	// the job is still in from. Returns false when another writer won.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to constant.JobStatus, updates map[string]interface{}) (bool, error)
	// UpdateProgress bumps progress while PROCESSING, monotonically. Stale
	// or out-of-order values simply do not match and return false.
	UpdateProgress(ctx context.Context, id uuid.UUID, percent int) (bool, error)
	// UpdateMetadata replaces metadata iff the version still matches.
	UpdateMetadata(ctx context.Context, id uuid.UUID, version int64, meta *entities.VideoMetadata) (bool, error)
	GetSegmentsByJobId(ctx context.Context, jobId uuid.UUID) ([]*entities.Segment, error)
	ReplaceSegments(ctx context.Context, jobId uuid.UUID, segments []*entities.Segment) error
	DeleteSegmentsByJobId(ctx context.Context, jobId uuid.UUID) error
	// ListStalledProcessing returns PROCESSING jobs whose last progress
	// update is older than the cutoff.
	ListStalledProcessing(ctx context.Context, cutoff time.Time) ([]*entities.Job, error)
}

type repo struct {
	db *gorm.DB
}

func NewRepo(db *sql.DB) JobRepository {
	gormDB, _ := gorm.Open(postgres.New(postgres.Config{
		Conn: db}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		},
	)
	return &repo{
		db: gormDB,
	}
}

func (r *repo) Transaction(ctx context.Context, callback func(ctx context.Context) error, opts ...*sql.TxOptions) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return callback(ctx)
	}, opts...)
}

func (r *repo) CreateJob(ctx context.Context, job *entities.Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *repo) FindJobById(ctx context.Context, id uuid.UUID) (*entities.Job, error) {
	job := &entities.Job{}
	err := r.db.WithContext(ctx).First(job, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (r *repo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to constant.JobStatus, updates map[string]interface{}) (bool, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to
	updates["version"] = gorm.Expr("version + 1")
	updates["updated_at"] = time.Now().UTC()

	res := r.db.WithContext(ctx).
		Model(&entities.Job{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repo) UpdateProgress(ctx context.Context, id uuid.UUID, percent int) (bool, error) {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&entities.Job{}).
		Where("id = ? AND status = ? AND progress < ?", id, constant.JobStatusProcessing, percent).
		Updates(map[string]interface{}{
			"progress":            percent,
			"progress_updated_at": now,
			"updated_at":          now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repo) UpdateMetadata(ctx context.Context, id uuid.UUID, version int64, meta *entities.VideoMetadata) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&entities.Job{}).
		Where("id = ? AND version = ?", id, version).
		Updates(map[string]interface{}{
			"metadata":   meta,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repo) GetSegmentsByJobId(ctx context.Context, jobId uuid.UUID) ([]*entities.Segment, error) {
	var segments []*entities.Segment
	err := r.db.WithContext(ctx).Where("job_id = ?", jobId).Order("idx ASC").Find(&segments).Error
	if err != nil {
		return nil, err
	}
	return segments, nil
}

func (r *repo) ReplaceSegments(ctx context.Context, jobId uuid.UUID, segments []*entities.Segment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", jobId).Delete(&entities.Segment{}).Error; err != nil {
			return err
		}
		if len(segments) == 0 {
			return nil
		}
		return tx.Create(segments).Error
	})
}

func (r *repo) DeleteSegmentsByJobId(ctx context.Context, jobId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("job_id = ?", jobId).Delete(&entities.Segment{}).Error
}

func (r *repo) ListStalledProcessing(ctx context.Context, cutoff time.Time) ([]*entities.Job, error) {
	var jobs []*entities.Job
	err := r.db.WithContext(ctx).
		Where("status = ? AND (progress_updated_at IS NULL OR progress_updated_at < ?) AND updated_at < ?",
			constant.JobStatusProcessing, cutoff, cutoff).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}
