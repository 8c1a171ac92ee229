package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"video-splitter/dto"
	"video-splitter/entities"
	"video-splitter/pkg/apperr"
	"video-splitter/planner"
)

// Routing keys of the async contract with the media-processing worker.
const (
	RoutingKeySplitRequest = "split.request"
	RoutingKeySplitResult  = "split.result"
)

// QueueSplitResults is the queue this orchestrator consumes results from.
const QueueSplitResults = "split_results_queue"

// MessagePublisher is the narrow publishing surface the driver needs;
// pkg/rabbitmq.Publisher satisfies it.
type MessagePublisher interface {
	Publish(ctx context.Context, routingKey string, body interface{}) error
}

// ProcessingDriver hands a boundary plan to the external media-processing
// capability. Start is fire-and-forget: the worker reports back through
// the results queue. A job id may be in flight at most once.
type ProcessingDriver interface {
	Start(ctx context.Context, job *entities.Job, plan planner.Plan) error
	// Release clears the in-flight mark once a terminal report lands.
	Release(jobId uuid.UUID)
}

type processingDriver struct {
	publisher MessagePublisher

	mu       sync.Mutex
	inflight map[uuid.UUID]struct{}
}

func NewProcessingDriver(publisher MessagePublisher) ProcessingDriver {
	return &processingDriver{
		publisher: publisher,
		inflight:  make(map[uuid.UUID]struct{}),
	}
}

func (d *processingDriver) Start(ctx context.Context, job *entities.Job, plan planner.Plan) error {
	d.mu.Lock()
	if _, dup := d.inflight[job.ID]; dup {
		d.mu.Unlock()
		return apperr.ErrAlreadyProcessing
	}
	d.inflight[job.ID] = struct{}{}
	d.mu.Unlock()

	msg := dto.SplitRequestMessage{
		JobId:        job.ID,
		SourceObject: job.SourceObject,
		OutputPrefix: OutputPrefix(job.ID),
		Boundaries:   plan.Boundaries,
		Options: dto.SplitOptions{
			OutputFormat:       plan.Options.OutputFormat,
			PreserveQuality:    plan.Options.PreserveQuality,
			ForceKeyframes:     plan.Options.ForceKeyframes,
			KeyframeInterval:   plan.Options.KeyframeInterval,
			SubtitleSyncOffset: plan.Options.SubtitleSyncOffset,
		},
	}

	if err := d.publisher.Publish(ctx, RoutingKeySplitRequest, msg); err != nil {
		d.Release(job.ID)
		return err
	}

	zerolog.Ctx(ctx).Info().
		Str("job_id", job.ID.String()).
		Int("boundaries", len(plan.Boundaries)).
		Msg("split request dispatched")
	return nil
}

func (d *processingDriver) Release(jobId uuid.UUID) {
	d.mu.Lock()
	delete(d.inflight, jobId)
	d.mu.Unlock()
}
