// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "festival-workers/internal/common/errors"
	"festival-workers/internal/common/metrics"
)

// JobObserver receives one event per finished job.
type JobObserver interface {
	ObserveJob(ctx context.Context, taskType string, started time.Time, err error)
}

// Reporter reports a job's outcome to the broker and to metrics. Failures
// go through the BPMN error mapping.
type Reporter struct {
	taskType string
	errors   *apperrors.ErrorHandler
	observer JobObserver
	log      Logger
}

// NewReporter builds a Reporter; observer may be nil.
func NewReporter(taskType string, observer JobObserver, log Logger) *Reporter {
	return &Reporter{
		taskType: taskType,
		errors:   apperrors.NewErrorHandler(log),
		observer: observer,
		log:      log,
	}
}

// Begin marks a job active and returns its start time.
func (r *Reporter) Begin(job entities.Job) time.Time {
	metrics.WorkerJobsActive.WithLabelValues(r.taskType).Inc()
	r.log.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})
	return time.Now()
}

// Complete sends output as the job's result variables.
func (r *Reporter) Complete(ctx context.Context, client worker.JobClient, job entities.Job, started time.Time, output interface{}) {
	defer r.finish(ctx, started, nil)

	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		r.log.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		r.log.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(r.taskType).Inc()
}

// Fail maps err onto a fail-with-retries or a thrown BPMN error.
func (r *Reporter) Fail(ctx context.Context, client worker.JobClient, job entities.Job, started time.Time, err error) {
	defer r.finish(ctx, started, err)

	code := string(apperrors.Normalize(err).Code)
	metrics.WorkerJobsFailed.WithLabelValues(r.taskType, code).Inc()
	r.errors.HandleJobError(ctx, client, job, err)
}

func (r *Reporter) finish(ctx context.Context, started time.Time, err error) {
	metrics.WorkerJobsActive.WithLabelValues(r.taskType).Dec()
	metrics.WorkerJobDuration.WithLabelValues(r.taskType).Observe(time.Since(started).Seconds())
	if r.observer != nil {
		r.observer.ObserveJob(ctx, r.taskType, started, err)
	}
}
