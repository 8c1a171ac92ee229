package handler

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"video-splitter/dto"
	"video-splitter/service"
)

type ServiceDependencies struct {
	JobService service.JobService
}

// SplitResultHandler reconciles worker reports back into the state
// machine. Duplicate terminal reports are absorbed there, so redelivery is
// harmless.
func SplitResultHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var result dto.SplitResultMessage
	if err := json.Unmarshal(msg.Body, &result); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal split result message")
		return err
	}

	zerolog.Ctx(ctx).Debug().
		Str("job_id", result.JobId.String()).
		Str("event", string(result.Event)).
		Msg("received split result message")

	switch result.Event {
	case dto.SplitEventProgress:
		return deps.JobService.ReportProgress(ctx, result.JobId, result.Progress)
	case dto.SplitEventCompleted:
		return deps.JobService.ReportCompletion(ctx, result.JobId, result.Segments)
	case dto.SplitEventFailed:
		reason := result.Error
		if reason == "" {
			reason = "processing failed"
		}
		return deps.JobService.ReportFailure(ctx, result.JobId, reason)
	default:
		return fmt.Errorf("unknown split result event %q", result.Event)
	}
}
