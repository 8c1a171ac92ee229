package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"video-splitter/config"
	"video-splitter/constant"
	"video-splitter/entities"
	"video-splitter/pkg/ffprobe"
	"video-splitter/pkg/storage"
)

// fakeRepo mimics the Postgres repository, including its compare-and-swap
// semantics, so concurrency tests exercise the real contention paths.
type fakeRepo struct {
	mu       sync.Mutex
	jobs     map[uuid.UUID]*entities.Job
	segments map[uuid.UUID][]*entities.Segment
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		jobs:     make(map[uuid.UUID]*entities.Job),
		segments: make(map[uuid.UUID][]*entities.Segment),
	}
}

func (r *fakeRepo) Transaction(ctx context.Context, callback func(ctx context.Context) error, opts ...*sql.TxOptions) error {
	return callback(ctx)
}

func (r *fakeRepo) CreateJob(ctx context.Context, job *entities.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.ID]; exists {
		return fmt.Errorf("duplicate job %s", job.ID)
	}
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	stored := *job
	r.jobs[job.ID] = &stored
	return nil
}

func (r *fakeRepo) FindJobById(ctx context.Context, id uuid.UUID) (*entities.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *job
	return &copied, nil
}

func (r *fakeRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to constant.JobStatus, updates map[string]interface{}) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok || job.Status != from {
		return false, nil
	}
	job.Status = to
	job.Version++
	job.UpdatedAt = time.Now().UTC()
	for key, value := range updates {
		switch key {
		case "split_config":
			job.SplitConfig = value.(*entities.SplitConfig)
		case "progress":
			job.Progress = value.(int)
		case "error_message":
			if value == nil {
				job.ErrorMessage = nil
			} else {
				msg := value.(string)
				job.ErrorMessage = &msg
			}
		case "progress_updated_at":
			t := value.(time.Time)
			job.ProgressUpdatedAt = &t
		}
	}
	return true, nil
}

func (r *fakeRepo) UpdateProgress(ctx context.Context, id uuid.UUID, percent int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok || job.Status != constant.JobStatusProcessing || job.Progress >= percent {
		return false, nil
	}
	now := time.Now().UTC()
	job.Progress = percent
	job.ProgressUpdatedAt = &now
	job.UpdatedAt = now
	return true, nil
}

func (r *fakeRepo) UpdateMetadata(ctx context.Context, id uuid.UUID, version int64, meta *entities.VideoMetadata) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok || job.Version != version {
		return false, nil
	}
	job.Metadata = meta
	job.Version++
	job.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *fakeRepo) GetSegmentsByJobId(ctx context.Context, jobId uuid.UUID) ([]*entities.Segment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*entities.Segment(nil), r.segments[jobId]...), nil
}

func (r *fakeRepo) ReplaceSegments(ctx context.Context, jobId uuid.UUID, segments []*entities.Segment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.segments[jobId] = append([]*entities.Segment(nil), segments...)
	return nil
}

func (r *fakeRepo) DeleteSegmentsByJobId(ctx context.Context, jobId uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.segments, jobId)
	return nil
}

func (r *fakeRepo) ListStalledProcessing(ctx context.Context, cutoff time.Time) ([]*entities.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var stalled []*entities.Job
	for _, job := range r.jobs {
		if job.Status != constant.JobStatusProcessing {
			continue
		}
		last := job.UpdatedAt
		if job.ProgressUpdatedAt != nil && job.ProgressUpdatedAt.After(last) {
			last = *job.ProgressUpdatedAt
		}
		if last.Before(cutoff) {
			copied := *job
			stalled = append(stalled, &copied)
		}
	}
	return stalled, nil
}

// fakeStore is an in-memory ObjectStore issuing deterministic URLs.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string]int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string]int64)}
}

func (s *fakeStore) put(key string, size int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = size
}

func (s *fakeStore) PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (string, error) {
	return "https://storage.test/put/" + key, nil
}

func (s *fakeStore) PresignPost(ctx context.Context, key, contentType string, maxSize int64, expiry time.Duration) (string, map[string]string, error) {
	return "https://storage.test/post", map[string]string{"key": key, "Content-Type": contentType}, nil
}

func (s *fakeStore) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "https://storage.test/get/" + key, nil
}

func (s *fakeStore) Stat(ctx context.Context, key string) (storage.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	size, ok := s.objects[key]
	if !ok {
		return storage.ObjectInfo{}, storage.ErrObjectNotFound
	}
	return storage.ObjectInfo{Key: key, Size: size}, nil
}

type fakeProber struct {
	mu     sync.Mutex
	result *ffprobe.Result
	err    error
	calls  int
}

func (p *fakeProber) Probe(ctx context.Context, sourceURL string) (*ffprobe.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.result, nil
}

type publishedMessage struct {
	routingKey string
	body       interface{}
}

type fakePublisher struct {
	mu        sync.Mutex
	published []publishedMessage
	err       error
}

func (p *fakePublisher) Publish(ctx context.Context, routingKey string, body interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, publishedMessage{routingKey: routingKey, body: body})
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

func newTestConfig() *config.Config {
	return &config.Config{
		MinIOBucket: "videos",
		App: config.App{
			Environment: "develop",
		},
		Upload: config.Upload{
			Expiry:  15 * time.Minute,
			MaxSize: 10 << 30,
		},
		Download: config.Download{
			Expiry: time.Hour,
		},
		Probe: config.Probe{
			Timeout: 5 * time.Second,
			Binary:  "ffprobe",
		},
		Estimation: config.Estimation{
			BytesPerSecond: 1_000_000,
			DurationFloor:  1,
		},
		Processing: config.Processing{
			StallCeiling:  10 * time.Minute,
			WatchInterval: time.Second,
		},
	}
}
