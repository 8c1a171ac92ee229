package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"video-splitter/dto"
	"video-splitter/pkg/apperr"
	"video-splitter/service"
)

type api struct {
	uploads   service.UploadService
	jobs      service.JobService
	downloads service.DownloadService
}

func registerRoutes(r *gin.Engine, a *api) {
	v1 := r.Group("/api/v1")
	v1.POST("/uploads", a.requestUpload)
	v1.POST("/uploads/:jobId/confirm", a.confirmUpload)
	v1.GET("/jobs/:jobId/status", a.getStatus)
	v1.POST("/jobs/:jobId/split", a.submitSplit)
	v1.POST("/jobs/:jobId/cancel", a.cancelJob)
	v1.GET("/jobs/:jobId/video-info", a.videoInfo)
	v1.GET("/jobs/:jobId/download/:filename", a.downloadSegment)
}

func (a *api) requestUpload(c *gin.Context) {
	var input dto.RequestUploadInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, apperr.InvalidInput("malformed upload request: %v", err))
		return
	}

	resp, err := a.uploads.RequestUpload(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (a *api) confirmUpload(c *gin.Context) {
	jobId, ok := jobIdParam(c)
	if !ok {
		return
	}

	if _, err := a.uploads.ConfirmUpload(c.Request.Context(), jobId); err != nil {
		respondError(c, err)
		return
	}

	status, err := a.jobs.GetStatus(c.Request.Context(), jobId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (a *api) getStatus(c *gin.Context) {
	jobId, ok := jobIdParam(c)
	if !ok {
		return
	}

	status, err := a.jobs.GetStatus(c.Request.Context(), jobId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (a *api) submitSplit(c *gin.Context) {
	jobId, ok := jobIdParam(c)
	if !ok {
		return
	}

	var req dto.SplitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.InvalidInput("malformed split request: %v", err))
		return
	}

	job, err := a.jobs.Submit(c.Request.Context(), jobId, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"job_id": job.ID,
		"status": job.Status,
	})
}

func (a *api) cancelJob(c *gin.Context) {
	jobId, ok := jobIdParam(c)
	if !ok {
		return
	}

	if err := a.jobs.Cancel(c.Request.Context(), jobId); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job_id": jobId})
}

func (a *api) videoInfo(c *gin.Context) {
	jobId, ok := jobIdParam(c)
	if !ok {
		return
	}

	info, err := a.jobs.GetVideoInfo(c.Request.Context(), jobId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (a *api) downloadSegment(c *gin.Context) {
	jobId, ok := jobIdParam(c)
	if !ok {
		return
	}

	url, err := a.downloads.Resolve(c.Request.Context(), jobId, c.Param("filename"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}

func jobIdParam(c *gin.Context) (uuid.UUID, bool) {
	jobId, err := uuid.Parse(c.Param("jobId"))
	if err != nil {
		respondError(c, apperr.InvalidInput("jobId must be a UUID"))
		return uuid.Nil, false
	}
	return jobId, true
}

// respondError maps the error taxonomy onto HTTP statuses. User-correctable
// errors keep their message; anything unexpected becomes an opaque 500.
func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("internal error")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}

	msg := err.Error()
	if errors.Is(err, apperr.ErrAlreadyProcessing) {
		msg = "job is already processing"
	}
	c.JSON(status, gin.H{"error": msg})
}
