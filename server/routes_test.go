package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-splitter/constant"
	"video-splitter/dto"
	"video-splitter/entities"
	"video-splitter/pkg/apperr"
)

type stubUploads struct {
	response *dto.RequestUploadResponse
	err      error
}

func (s *stubUploads) RequestUpload(ctx context.Context, input dto.RequestUploadInput) (*dto.RequestUploadResponse, error) {
	return s.response, s.err
}

func (s *stubUploads) ConfirmUpload(ctx context.Context, jobId uuid.UUID) (*entities.Job, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &entities.Job{ID: jobId, Status: constant.JobStatusUploaded}, nil
}

type stubJobs struct {
	job    *entities.Job
	status *dto.JobStatusResponse
	info   *dto.VideoInfoResponse
	err    error
}

func (s *stubJobs) Submit(ctx context.Context, jobId uuid.UUID, req dto.SplitRequest) (*entities.Job, error) {
	return s.job, s.err
}

func (s *stubJobs) Cancel(ctx context.Context, jobId uuid.UUID) error {
	return s.err
}

func (s *stubJobs) GetStatus(ctx context.Context, jobId uuid.UUID) (*dto.JobStatusResponse, error) {
	return s.status, s.err
}

func (s *stubJobs) GetVideoInfo(ctx context.Context, jobId uuid.UUID) (*dto.VideoInfoResponse, error) {
	return s.info, s.err
}

func (s *stubJobs) ReportProgress(ctx context.Context, jobId uuid.UUID, percent int) error {
	return s.err
}

func (s *stubJobs) ReportCompletion(ctx context.Context, jobId uuid.UUID, results []dto.SegmentResult) error {
	return s.err
}

func (s *stubJobs) ReportFailure(ctx context.Context, jobId uuid.UUID, reason string) error {
	return s.err
}

type stubDownloads struct {
	url string
	err error
}

func (s *stubDownloads) Resolve(ctx context.Context, jobId uuid.UUID, fileName string) (string, error) {
	return s.url, s.err
}

func newTestRouter(a *api) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	registerRoutes(r, a)
	return r
}

func perform(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestUploadEndpoint(t *testing.T) {
	jobId := uuid.New()
	r := newTestRouter(&api{
		uploads: &stubUploads{response: &dto.RequestUploadResponse{
			JobId: jobId,
			Upload: dto.UploadCredential{
				Type: dto.CredentialDirectPut,
				URL:  "https://storage.test/put/uploads/x",
			},
		}},
	})

	w := perform(r, http.MethodPost, "/api/v1/uploads", `{"file_name":"movie.mp4","content_type":"video/mp4","declared_size":1024}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp dto.RequestUploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, jobId, resp.JobId)
	assert.Equal(t, dto.CredentialDirectPut, resp.Upload.Type)
}

func TestRequestUploadEndpointMalformedBody(t *testing.T) {
	r := newTestRouter(&api{uploads: &stubUploads{}})

	w := perform(r, http.MethodPost, "/api/v1/uploads", `{"file_name":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatusEndpointNotFound(t *testing.T) {
	r := newTestRouter(&api{jobs: &stubJobs{err: apperr.NotFound("job")}})

	w := perform(r, http.MethodGet, "/api/v1/jobs/"+uuid.NewString()+"/status", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusEndpointBadJobId(t *testing.T) {
	r := newTestRouter(&api{jobs: &stubJobs{}})

	w := perform(r, http.MethodGet, "/api/v1/jobs/not-a-uuid/status", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitEndpointAccepted(t *testing.T) {
	jobId := uuid.New()
	r := newTestRouter(&api{jobs: &stubJobs{job: &entities.Job{ID: jobId, Status: constant.JobStatusProcessing}}})

	w := perform(r, http.MethodPost, "/api/v1/jobs/"+jobId.String()+"/split", `{"method":"intervals","interval_duration":300,"output_format":"mp4"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), jobId.String())
	assert.Contains(t, w.Body.String(), "PROCESSING")
}

func TestSubmitEndpointInvalidConfig(t *testing.T) {
	r := newTestRouter(&api{jobs: &stubJobs{err: apperr.InvalidConfig("time_points contains no usable values")}})

	w := perform(r, http.MethodPost, "/api/v1/jobs/"+uuid.NewString()+"/split", `{"method":"time_based","output_format":"mp4"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "time_points")
}

func TestSubmitEndpointAlreadyProcessing(t *testing.T) {
	r := newTestRouter(&api{jobs: &stubJobs{err: apperr.ErrAlreadyProcessing}})

	w := perform(r, http.MethodPost, "/api/v1/jobs/"+uuid.NewString()+"/split", `{"method":"intervals","interval_duration":300,"output_format":"mp4"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestVideoInfoEndpoint(t *testing.T) {
	jobId := uuid.New()
	r := newTestRouter(&api{jobs: &stubJobs{info: &dto.VideoInfoResponse{
		JobId:           jobId,
		DurationSeconds: 600,
		Format:          "mp4",
		Estimated:       true,
	}}})

	w := perform(r, http.MethodGet, "/api/v1/jobs/"+jobId.String()+"/video-info", "")
	require.Equal(t, http.StatusOK, w.Code)

	var info dto.VideoInfoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.True(t, info.Estimated)
	assert.Equal(t, 600.0, info.DurationSeconds)
}

func TestDownloadEndpointRedirects(t *testing.T) {
	r := newTestRouter(&api{downloads: &stubDownloads{url: "https://storage.test/get/outputs/x/segment_000.mp4"}})

	w := perform(r, http.MethodGet, "/api/v1/jobs/"+uuid.NewString()+"/download/segment_000.mp4", "")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://storage.test/get/outputs/x/segment_000.mp4", w.Header().Get("Location"))
}

func TestDownloadEndpointNotFound(t *testing.T) {
	r := newTestRouter(&api{downloads: &stubDownloads{err: apperr.NotFound("segment")}})

	w := perform(r, http.MethodGet, "/api/v1/jobs/"+uuid.NewString()+"/download/missing.mp4", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
