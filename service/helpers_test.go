package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"video-splitter/config"
	"video-splitter/dto"
	"video-splitter/pkg/ffprobe"
)

type testEnv struct {
	repo      *fakeRepo
	store     *fakeStore
	prober    *fakeProber
	publisher *fakePublisher
	cfg       *config.Config

	uploads   UploadService
	resolver  MetadataService
	driver    ProcessingDriver
	jobs      JobService
	downloads DownloadService
}

func newTestEnv() *testEnv {
	env := &testEnv{
		repo:      newFakeRepo(),
		store:     newFakeStore(),
		prober:    &fakeProber{result: &ffprobe.Result{DurationSeconds: 600, Format: "mp4", VideoStreams: 1, AudioStreams: 1}},
		publisher: &fakePublisher{},
		cfg:       newTestConfig(),
	}

	env.resolver = NewMetadataService(env.repo, env.store, env.prober, env.cfg)
	env.driver = NewProcessingDriver(env.publisher)
	env.jobs = NewJobService(env.repo, env.resolver, env.driver)
	env.uploads = NewUploadService(env.repo, env.store, env.resolver, env.cfg)
	env.downloads = NewDownloadService(env.repo, env.store, env.cfg)
	return env
}

// uploadedJob walks a job through request + simulated client upload +
// confirm, leaving it UPLOADED with resolved metadata.
func (env *testEnv) uploadedJob(t *testing.T) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	resp, err := env.uploads.RequestUpload(ctx, dto.RequestUploadInput{
		FileName:     "movie.mp4",
		ContentType:  "video/mp4",
		DeclaredSize: 600_000_000,
	})
	require.NoError(t, err)

	env.store.put(SourceObjectKey(resp.JobId, "movie.mp4"), 600_000_000)

	_, err = env.uploads.ConfirmUpload(ctx, resp.JobId)
	require.NoError(t, err)
	return resp.JobId
}

// processingJob additionally submits a default two-point split.
func (env *testEnv) processingJob(t *testing.T) uuid.UUID {
	t.Helper()
	jobId := env.uploadedJob(t)

	_, err := env.jobs.Submit(context.Background(), jobId, dto.SplitRequest{
		Method:       "time_based",
		TimePoints:   []float64{120, 300},
		OutputFormat: "mp4",
	})
	require.NoError(t, err)
	return jobId
}

func segmentResults() []dto.SegmentResult {
	return []dto.SegmentResult{
		{FileName: "segment_000.mp4", StartSeconds: 0, EndSeconds: 120, SizeBytes: 1 << 20, Format: "mp4"},
		{FileName: "segment_001.mp4", StartSeconds: 120, EndSeconds: 300, SizeBytes: 2 << 20, Format: "mp4"},
		{FileName: "segment_002.mp4", StartSeconds: 300, EndSeconds: 600, SizeBytes: 3 << 20, Format: "mp4"},
	}
}
