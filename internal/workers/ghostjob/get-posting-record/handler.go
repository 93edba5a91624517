package getpostingrecord

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"ghostjob-workers/internal/common/camunda"
	"ghostjob-workers/internal/common/errors"
	"ghostjob-workers/internal/common/logger"
	"ghostjob-workers/internal/common/observability"
	"ghostjob-workers/internal/common/validation"
	"ghostjob-workers/internal/models"
)

const TaskType = "get-posting-record"

// RecordReader is satisfied by *pattern.Service.
type RecordReader interface {
	GetRecord(ctx context.Context, id string) (*models.PostingRecord, error)
}

type Handler struct {
	config *Config
	reader RecordReader
	logger logger.Logger
	runner *camunda.Runner
}

func NewHandler(cfg *Config, reader RecordReader, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: cfg,
		reader: reader,
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
	rec, err := h.reader.GetRecord(ctx, input.RecordID)
	if err != nil {
		return nil, err
	}
	if !CanRead(rec, input.RequesterID) {
		h.logger.Warn("posting record access denied", map[string]interface{}{
			"recordId":    input.RecordID,
			"requesterId": input.RequesterID,
		})
		return nil, errors.NewAccessDeniedError("record " + input.RecordID + " belongs to another user")
	}
	return &Output{PostingRecord: rec}, nil
}

// CanRead reports whether requester may see rec. Anonymous submissions are
// readable by anyone.
func CanRead(rec *models.PostingRecord, requester string) bool {
	if rec.OwnerID == "" || rec.OwnerID == models.AnonymousOwner {
		return true
	}
	return rec.OwnerID == requester
}
