package store

import (
	"context"
	"time"

	"ghostjob-workers/internal/common/metrics"
	"ghostjob-workers/internal/models"
)

// Instrumented records per-operation latency for an inner store.
type Instrumented struct {
	inner   HistoryStore
	backend string
}

func NewInstrumented(inner HistoryStore, backend string) *Instrumented {
	return &Instrumented{inner: inner, backend: backend}
}

func (s *Instrumented) observe(op string, start time.Time, err error) {
	metrics.StoreOperationDuration.
		WithLabelValues(s.backend, op, metrics.StatusLabel(err)).
		Observe(time.Since(start).Seconds())
}

func (s *Instrumented) QueryByCompany(ctx context.Context, companyName string) (recs []models.PostingRecord, err error) {
	defer func(start time.Time) { s.observe("query_by_company", start, err) }(time.Now())
	return s.inner.QueryByCompany(ctx, companyName)
}

func (s *Instrumented) Append(ctx context.Context, rec models.PostingRecord) (err error) {
	defer func(start time.Time) { s.observe("append", start, err) }(time.Now())
	return s.inner.Append(ctx, rec)
}

func (s *Instrumented) Get(ctx context.Context, id string) (rec *models.PostingRecord, err error) {
	defer func(start time.Time) { s.observe("get", start, err) }(time.Now())
	return s.inner.Get(ctx, id)
}

func (s *Instrumented) Touch(ctx context.Context, id string, seenAt time.Time) (rec *models.PostingRecord, err error) {
	defer func(start time.Time) { s.observe("touch", start, err) }(time.Now())
	return s.inner.Touch(ctx, id, seenAt)
}

func (s *Instrumented) ScanPage(ctx context.Context, cursor string, limit int) (recs []models.PostingRecord, next string, err error) {
	defer func(start time.Time) { s.observe("scan_page", start, err) }(time.Now())
	return s.inner.ScanPage(ctx, cursor, limit)
}
