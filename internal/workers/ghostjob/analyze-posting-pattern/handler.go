package analyzepostingpattern

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"ghostjob-workers/internal/common/camunda"
	"ghostjob-workers/internal/common/errors"
	"ghostjob-workers/internal/common/logger"
	"ghostjob-workers/internal/common/observability"
	"ghostjob-workers/internal/common/validation"
	"ghostjob-workers/internal/detection/pattern"
	"ghostjob-workers/internal/models"
)

const TaskType = "analyze-posting-pattern"

// Analyzer is satisfied by *pattern.Service.
type Analyzer interface {
	AnalyzePattern(ctx context.Context, req pattern.Request) (*models.PatternSummary, error)
}

type Handler struct {
	config   *Config
	analyzer Analyzer
	logger   logger.Logger
	runner   *camunda.Runner
}

func NewHandler(cfg *Config, analyzer Analyzer, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   cfg,
		analyzer: analyzer,
		logger:   log,
		runner:   camunda.NewRunner(TaskType, cfg.Timeout, log, obs),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.runner.Run(client, job, h.run)
}

func (h *Handler) run(ctx context.Context, variables map[string]interface{}) (interface{}, error) {
	input, err := parseInput(variables)
	if err != nil {
		return nil, err
	}
	return h.Execute(ctx, input)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	summary, err := h.analyzer.AnalyzePattern(ctx, pattern.Request{
		Company:        input.CompanyName,
		JobTitle:       input.JobTitle,
		Location:       input.Location,
		JobDescription: input.JobDescription,
		OwnerID:        input.OwnerID,
	})
	if err != nil {
		return nil, err
	}

	return &Output{
		RecordID:             summary.RecordID,
		ConfidenceScore:      summary.ConfidenceScore,
		RecycledDescriptions: summary.RecycledDescriptions,
		PatternSummary:       summary,
	}, nil
}

func parseInput(variables map[string]interface{}) (*Input, error) {
	result := validation.ValidateInput(variables, GetInputSchema())
	if !result.Valid {
		return nil, errors.NewInvalidInputError(result.Summary())
	}
	var input Input
	if err := camunda.Decode(variables, &input); err != nil {
		return nil, err
	}
	return &input, nil
}
