package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hotelbey/bey/engine"
	"github.com/rs/zerolog"
)

// reporter reports the outcome of a handler to the engine.
type reporter struct {
	e       engine.Engine
	options Options
	logger  zerolog.Logger
	metrics *metrics
	now     func() time.Time
}

// report reports a result or an error and returns the outcome.
// A returned error indicates that the outcome could not be reported.
func (r *reporter) report(ctx context.Context, task engine.Task, result Result, handlerErr error) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.options.ReportTimeout)
	defer cancel()

	logger := r.logger.With().Str("topic", task.TopicName).Str("task_id", task.Id).Logger()

	if task.IsLockExpired(r.now()) {
		r.metrics.leasesExpired.WithLabelValues(task.TopicName).Inc()
		logger.Warn().Time("lock_expiration_time", time.Time(task.LockExpirationTime)).Msg("lock expired before reporting, task may have been fetched by another worker")
	}

	var (
		outcome string
		err     error
	)

	switch {
	case handlerErr == nil:
		outcome, err = r.complete(ctx, task, result)
	case IsBusinessError(handlerErr) || r.options.InfrastructureErrorsAsBpmnErrors:
		outcome, err = OutcomeBpmnError, r.e.HandleBpmnError(ctx, engine.BpmnErrorCmd{
			Id:           task.Id,
			ErrorCode:    ErrorCode,
			ErrorMessage: handlerErr.Error(),
			WorkerId:     r.options.WorkerId,
		})
	default:
		outcome, err = OutcomeFailure, r.fail(ctx, task, handlerErr, r.retries(task))
	}

	logger = logger.With().Str("outcome", outcome).Logger()

	if err != nil {
		r.metrics.reportErrors.WithLabelValues(task.TopicName, outcome).Inc()

		var engineErr engine.Error
		if errors.As(err, &engineErr) && engineErr.Type == engine.ErrorConflict {
			logger.Warn().Err(err).Msg("lease lost, outcome could not be reported")
		} else {
			logger.Error().Err(err).Msg("failed to report outcome")
		}

		if r.options.OnReportFailure != nil {
			r.options.OnReportFailure(task, err)
		}
		return outcome, err
	}

	r.metrics.tasksHandled.WithLabelValues(task.TopicName, outcome).Inc()

	if handlerErr != nil {
		logger.Warn().Err(handlerErr).Msg("task failed")
	} else {
		logger.Info().Msg("task completed")
	}
	return outcome, nil
}

func (r *reporter) complete(ctx context.Context, task engine.Task, result Result) (string, error) {
	variables, err := engine.NewVariables(result)
	if err != nil {
		// retrying does not help, since the handler produces the same result
		return OutcomeFailure, r.fail(ctx, task, fmt.Errorf("failed to encode result: %v", err), 0)
	}

	return OutcomeCompleted, r.e.Complete(ctx, engine.CompleteCmd{
		Id:        task.Id,
		Variables: variables,
		WorkerId:  r.options.WorkerId,
	})
}

func (r *reporter) fail(ctx context.Context, task engine.Task, err error, retries int) error {
	return r.e.HandleFailure(ctx, engine.FailureCmd{
		Id:           task.Id,
		ErrorDetails: fmt.Sprintf("%T: %v", err, err),
		ErrorMessage: err.Error(),
		Retries:      retries,
		RetryTimeout: r.options.RetryTimeout.Milliseconds(),
		WorkerId:     r.options.WorkerId,
	})
}

// retries determines the number of retries left, after the current attempt failed.
func (r *reporter) retries(task engine.Task) int {
	if task.Retries == nil {
		return r.options.RetryLimit
	}
	return max(*task.Retries-1, 0)
}
