package judgepostingauthenticity

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"ghostjob-workers/internal/common/camunda"
	"ghostjob-workers/internal/common/errors"
	"ghostjob-workers/internal/common/logger"
	"ghostjob-workers/internal/common/observability"
	"ghostjob-workers/internal/common/validation"
	"ghostjob-workers/internal/judge"
	"ghostjob-workers/internal/models"
)

const TaskType = "judge-posting-authenticity"

type Handler struct {
	config *Config
	judge  judge.Judge
	logger logger.Logger
	runner *camunda.Runner
}

func NewHandler(cfg *Config, j judge.Judge, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: cfg,
		judge:  j,
		logger: log,
		runner: camunda.NewRunner(TaskType, cfg.Timeout, log, obs),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.runner.Run(client, job, h.run)
}

func (h *Handler) run(ctx context.Context, variables map[string]interface{}) (interface{}, error) {
	result := validation.ValidateInput(variables, GetInputSchema())
	if !result.Valid {
		return nil, errors.NewInvalidInputError(result.Summary())
	}
	var input Input
	if err := camunda.Decode(variables, &input); err != nil {
		return nil, err
	}
	return h.Execute(ctx, &input)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	verdict, err := h.judge.Judge(ctx, models.JobPosting{
		JobTitle:       input.JobTitle,
		Company:        input.Company,
		Location:       input.Location,
		JobDescription: input.JobDescription,
	})
	if err != nil {
		return nil, err
	}

	out := &Output{
		AuthenticityScore: verdict.AuthenticityScore,
		RedFlags:          verdict.RedFlags,
		GreenFlags:        verdict.GreenFlags,
		Reasoning:         verdict.Reasoning,
	}
	if out.RedFlags == nil {
		out.RedFlags = []string{}
	}
	if out.GreenFlags == nil {
		out.GreenFlags = []string{}
	}

	h.logger.Debug("verdict returned", map[string]interface{}{"authenticityScore": out.AuthenticityScore})
	return out, nil
}
