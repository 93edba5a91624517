// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"ghostjob-workers/internal/common/config"
	"ghostjob-workers/internal/common/errors"
	"ghostjob-workers/internal/common/logger"
	"ghostjob-workers/internal/common/metrics"
	"ghostjob-workers/internal/common/observability"
)

// commandTimeout bounds complete/fail commands, which must still be sent
// after the job context expired.
const commandTimeout = 10 * time.Second

// Executor runs the business step of a job on its decoded variables and
// returns the output variables.
type Executor func(ctx context.Context, variables map[string]interface{}) (interface{}, error)

// Runner drives one job through parse, execute and complete, reporting
// failures through the ErrorHandler.
type Runner struct {
	taskType string
	timeout  time.Duration
	logger   logger.Logger
	errors   *errors.ErrorHandler
	obs      *observability.Observability
}

func NewRunner(taskType string, timeout time.Duration, log logger.Logger, obs *observability.Observability) *Runner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Runner{
		taskType: taskType,
		timeout:  timeout,
		logger:   log,
		errors:   errors.NewErrorHandler(log),
		obs:      obs,
	}
}

// Run handles a single activated job.
func (r *Runner) Run(client worker.JobClient, job entities.Job, exec Executor) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(r.taskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(r.taskType).Dec()
	defer func() { r.obs.RecordJob(context.Background(), r.taskType, time.Since(start)) }()

	r.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
		"retries":            job.GetRetries(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	output, err := r.execute(ctx, job, exec)
	if err != nil {
		r.fail(client, job, err)
		return
	}

	r.complete(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(r.taskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(r.taskType).Observe(time.Since(start).Seconds())
}

func (r *Runner) execute(ctx context.Context, job entities.Job, exec Executor) (interface{}, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInvalidInputError("job variables are not a JSON object: " + err.Error())
	}
	return exec(ctx, variables)
}

func (r *Runner) complete(client worker.JobClient, job entities.Job, output interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		r.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		r.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	r.logger.Info("job completed successfully", map[string]interface{}{
		"jobKey": job.GetKey(),
	})
}

func (r *Runner) fail(client worker.JobClient, job entities.Job, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	code := errors.Normalize(err).Code
	metrics.WorkerJobsFailed.WithLabelValues(r.taskType, string(code)).Inc()
	r.errors.HandleJobError(ctx, client, job, err)
}

// Decode copies job variables into dst through their JSON form.
func Decode(variables map[string]interface{}, dst interface{}) error {
	raw, err := json.Marshal(variables)
	if err != nil {
		return errors.NewInvalidInputError("job variables cannot be encoded: " + err.Error())
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errors.NewInvalidInputError("job variables do not match the expected shape: " + err.Error())
	}
	return nil
}

// StartWorker opens a job worker for taskType unless it is disabled. The
// returned worker is nil when nothing was started.
func StartWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handler worker.JobHandler, log logger.Logger) worker.JobWorker {
	if !wcfg.Enabled {
		log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return nil
	}

	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(handler).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Name(taskType + "-worker").
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})

	return jobWorker
}
