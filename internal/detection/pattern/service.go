package pattern

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "ghostjob-workers/internal/common/errors"
	"ghostjob-workers/internal/common/logger"
	"ghostjob-workers/internal/common/metrics"
	"ghostjob-workers/internal/detection/normalize"
	"ghostjob-workers/internal/models"
	"ghostjob-workers/internal/store"
)

// Request is one AnalyzePattern call as submitted by a job seeker.
type Request struct {
	Company        string
	JobTitle       string
	Location       string
	JobDescription string
	OwnerID        string
}

// Service runs posting analyses against a history store.
type Service struct {
	store  store.HistoryStore
	policy Policy
	logger logger.Logger
	now    func() time.Time
	newID  func() string
}

type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides record id generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func NewService(st store.HistoryStore, policy Policy, log logger.Logger, opts ...Option) *Service {
	if policy.SimilarityThreshold <= 0 {
		policy.SimilarityThreshold = DefaultSimilarityThreshold
	}
	s := &Service{
		store:  st,
		policy: policy,
		logger: log,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnalyzePattern compares the posting with the company's history, records it
// and returns the summary. Either the record is stored and a full summary is
// returned, or an error is returned and nothing is stored.
func (s *Service) AnalyzePattern(ctx context.Context, req Request) (*models.PatternSummary, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	company := normalize.CompanyName(req.Company)
	if company == "" {
		return nil, apperrors.NewInvalidInputError("companyName has no usable characters")
	}

	history, err := s.store.QueryByCompany(ctx, company)
	if err != nil {
		return nil, storeError(ctx, "query_by_company", err)
	}

	now := s.now().UTC()
	assessment := Evaluate(Posting{
		CompanyName:    company,
		JobTitle:       req.JobTitle,
		Location:       req.Location,
		JobDescription: req.JobDescription,
	}, history, now, s.policy)

	owner := strings.TrimSpace(req.OwnerID)
	if owner == "" {
		owner = models.AnonymousOwner
	}

	rec := models.PostingRecord{
		ID:             s.newID(),
		CompanyName:    company,
		JobTitle:       strings.TrimSpace(req.JobTitle),
		Location:       strings.TrimSpace(req.Location),
		JobDescription: req.JobDescription,
		FirstSeen:      now,
		LastSeen:       now,
		SimilarJobIDs:  SimilarIDs(assessment.Summary),
		OwnerID:        owner,
	}
	if err := s.store.Append(ctx, rec); err != nil {
		return nil, storeError(ctx, "append", err)
	}

	for _, rule := range assessment.FiredRules {
		metrics.PatternRuleHits.WithLabelValues(rule).Inc()
	}
	metrics.PatternConfidence.Observe(float64(assessment.Summary.ConfidenceScore))

	summary := assessment.Summary
	summary.RecordID = rec.ID

	s.logger.Info("posting analyzed", map[string]interface{}{
		"recordId":        rec.ID,
		"companyName":     company,
		"historySize":     len(history),
		"similarJobCount": summary.SimilarJobCount,
		"confidenceScore": summary.ConfidenceScore,
		"rawScore":        assessment.RawScore,
		"rules":           assessment.FiredRules,
	})

	return &summary, nil
}

// GetRecord loads one stored posting.
func (s *Service) GetRecord(ctx context.Context, id string) (*models.PostingRecord, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.NewInvalidInputError("recordId is required")
	}
	rec, err := s.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NewNotFoundError("posting record", id)
	}
	if err != nil {
		return nil, storeError(ctx, "get", err)
	}
	return rec, nil
}

// RecordSighting extends a posting's LastSeen to seenAt (now when zero).
// FirstSeen and the description never change.
func (s *Service) RecordSighting(ctx context.Context, id string, seenAt time.Time) (*models.PostingRecord, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.NewInvalidInputError("recordId is required")
	}
	if seenAt.IsZero() {
		seenAt = s.now()
	}
	rec, err := s.store.Touch(ctx, id, seenAt.UTC())
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NewNotFoundError("posting record", id)
	}
	if err != nil {
		return nil, storeError(ctx, "touch", err)
	}
	return rec, nil
}

func validateRequest(req Request) error {
	var missing []string
	if strings.TrimSpace(req.Company) == "" {
		missing = append(missing, "companyName")
	}
	if strings.TrimSpace(req.JobTitle) == "" {
		missing = append(missing, "jobTitle")
	}
	if strings.TrimSpace(req.JobDescription) == "" {
		missing = append(missing, "jobDescription")
	}
	if len(missing) > 0 {
		return apperrors.NewInvalidInputError("missing required fields: " + strings.Join(missing, ", "))
	}
	return nil
}

// storeError maps a history store failure to its error kind. A deadline set
// by the caller surfaces as a timeout.
func storeError(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.NewTimeoutError("history-store", err)
	}
	return apperrors.NewStoreUnavailableError(op, err)
}
