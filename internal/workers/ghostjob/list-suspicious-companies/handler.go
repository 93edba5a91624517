package listsuspiciouscompanies

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"

	"ghostjob-workers/internal/common/camunda"
	"ghostjob-workers/internal/common/errors"
	"ghostjob-workers/internal/common/logger"
	"ghostjob-workers/internal/common/metrics"
	"ghostjob-workers/internal/common/observability"
	"ghostjob-workers/internal/common/validation"
	"ghostjob-workers/internal/models"
	"ghostjob-workers/internal/store/cache"
)

const (
	TaskType  = "list-suspicious-companies"
	ReportKey = "ghostjob:fleet:report"
)

// Lister is satisfied by *fleet.Aggregator.
type Lister interface {
	ListSuspiciousCompanies(ctx context.Context) ([]models.CompanySuspicionEntry, error)
}

type Handler struct {
	config *Config
	lister Lister
	redis  redis.Cmdable
	logger logger.Logger
	runner *camunda.Runner
	now    func() time.Time
}

// NewHandler builds the handler. rdb may be nil, which disables the report
// cache regardless of CacheTTL.
func NewHandler(cfg *Config, lister Lister, rdb redis.Cmdable, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: cfg,
		lister: lister,
		redis:  rdb,
		logger: log,
		runner: camunda.NewRunner(TaskType, cfg.Timeout, log, obs),
		now:    time.Now,
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
	rep, fromCache := h.cached(ctx, input.RefreshCache)
	if rep == nil {
		companies, err := h.lister.ListSuspiciousCompanies(ctx)
		if err != nil {
			return nil, err
		}
		rep = &report{Companies: companies, GeneratedAt: h.now().UTC().Format(time.RFC3339)}
		h.store(ctx, rep)
	}

	companies := rep.Companies
	if companies == nil {
		companies = []models.CompanySuspicionEntry{}
	}
	total := len(companies)
	if input.Limit > 0 && input.Limit < total {
		companies = companies[:input.Limit]
	}

	h.logger.Info("fleet report served", map[string]interface{}{
		"totalCompanies": total,
		"returned":       len(companies),
		"fromCache":      fromCache,
	})

	return &Output{
		Companies:      companies,
		TotalCompanies: total,
		GeneratedAt:    rep.GeneratedAt,
		FromCache:      fromCache,
	}, nil
}

func (h *Handler) cacheEnabled() bool {
	return h.redis != nil && h.config.CacheTTL > 0
}

// cached returns the stored report, or nil on a miss. Redis failures are
// logged and treated as a miss.
func (h *Handler) cached(ctx context.Context, refresh bool) (*report, bool) {
	if !h.cacheEnabled() || refresh {
		return nil, false
	}
	var rep report
	found, err := cache.GetJSON(ctx, h.redis, ReportKey, &rep)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues("fleet", "error").Inc()
		h.logger.Warn("fleet report cache read failed", map[string]interface{}{"error": err.Error()})
		return nil, false
	case !found:
		metrics.CacheLookups.WithLabelValues("fleet", "miss").Inc()
		return nil, false
	}
	metrics.CacheLookups.WithLabelValues("fleet", "hit").Inc()
	return &rep, true
}

func (h *Handler) store(ctx context.Context, rep *report) {
	if !h.cacheEnabled() {
		return
	}
	if err := cache.SetJSON(ctx, h.redis, ReportKey, rep, h.config.CacheTTL); err != nil {
		h.logger.Warn("fleet report cache write failed", map[string]interface{}{"error": err.Error()})
	}
}
