package recordpostingsighting

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"ghostjob-workers/internal/common/camunda"
	"ghostjob-workers/internal/common/errors"
	"ghostjob-workers/internal/common/logger"
	"ghostjob-workers/internal/common/observability"
	"ghostjob-workers/internal/common/validation"
	"ghostjob-workers/internal/models"
)

const TaskType = "record-posting-sighting"

// Sighter is satisfied by *pattern.Service.
type Sighter interface {
	RecordSighting(ctx context.Context, id string, seenAt time.Time) (*models.PostingRecord, error)
}

type Handler struct {
	config  *Config
	sighter Sighter
	logger  logger.Logger
	runner  *camunda.Runner
}

func NewHandler(cfg *Config, sighter Sighter, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  cfg,
		sighter: sighter,
		logger:  log,
		runner:  camunda.NewRunner(TaskType, cfg.Timeout, log, obs),
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
	var seenAt time.Time
	if input.SeenAt != "" {
		parsed, err := time.Parse(time.RFC3339, input.SeenAt)
		if err != nil {
			return nil, errors.NewInvalidInputError("seenAt must be an RFC3339 timestamp")
		}
		seenAt = parsed
	}

	rec, err := h.sighter.RecordSighting(ctx, input.RecordID, seenAt)
	if err != nil {
		return nil, err
	}

	openDays := int(rec.LastSeen.Sub(rec.FirstSeen).Hours() / 24)
	h.logger.Debug("posting sighted", map[string]interface{}{
		"recordId": rec.ID,
		"openDays": openDays,
	})

	return &Output{
		RecordID:  rec.ID,
		FirstSeen: rec.FirstSeen.UTC().Format(time.RFC3339),
		LastSeen:  rec.LastSeen.UTC().Format(time.RFC3339),
		OpenDays:  openDays,
	}, nil
}
