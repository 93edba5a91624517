package pattern

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ghostjob-workers/internal/common/errors"
	"ghostjob-workers/internal/common/logger"
	"ghostjob-workers/internal/models"
	"ghostjob-workers/internal/store"
	"ghostjob-workers/internal/store/memory"
)

// flakyStore wraps the memory store and fails the configured operations.
type flakyStore struct {
	*memory.Store
	queryErr  error
	appendErr error
}

func (f *flakyStore) QueryByCompany(ctx context.Context, name string) ([]models.PostingRecord, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.Store.QueryByCompany(ctx, name)
}

func (f *flakyStore) Append(ctx context.Context, rec models.PostingRecord) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	return f.Store.Append(ctx, rec)
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("rec-%03d", n)
	}
}

func newTestService(t *testing.T, st store.HistoryStore) *Service {
	return NewService(st, DefaultPolicy(), logger.NewTestLogger(t),
		WithClock(func() time.Time { return now }),
		WithIDGenerator(sequentialIDs()),
	)
}

func validRequest() Request {
	return Request{
		Company:        "Acme, Inc.",
		JobTitle:       "  Backend Engineer ",
		Location:       "Remote",
		JobDescription: description,
		OwnerID:        "user-1",
	}
}

func TestAnalyzePattern_PersistsRecord(t *testing.T) {
	st := memory.New()
	svc := newTestService(t, st)

	summary, err := svc.AnalyzePattern(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, "rec-001", summary.RecordID)
	assert.Equal(t, "acme", summary.CompanyName)
	assert.Equal(t, MaxConfidence, summary.ConfidenceScore)
	assert.Empty(t, summary.SuspiciousPatterns)

	rec, err := st.Get(context.Background(), "rec-001")
	require.NoError(t, err)
	assert.Equal(t, "acme", rec.CompanyName)
	assert.Equal(t, "Backend Engineer", rec.JobTitle)
	assert.Equal(t, description, rec.JobDescription)
	assert.Equal(t, now, rec.FirstSeen)
	assert.Equal(t, now, rec.LastSeen)
	assert.Equal(t, "user-1", rec.OwnerID)
	assert.Empty(t, rec.SimilarJobIDs)
}

func TestAnalyzePattern_LinksSimilarRecords(t *testing.T) {
	st := memory.New()
	svc := newTestService(t, st)
	ctx := context.Background()

	_, err := svc.AnalyzePattern(ctx, validRequest())
	require.NoError(t, err)

	req := validRequest()
	req.Company = "ACME   INC"
	req.JobDescription = description + " Apply today."
	req.OwnerID = ""
	summary, err := svc.AnalyzePattern(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.SimilarJobCount)
	assert.Equal(t, "rec-001", summary.SimilarJobs[0].ID)

	second, err := st.Get(ctx, "rec-002")
	require.NoError(t, err)
	assert.Equal(t, []string{"rec-001"}, second.SimilarJobIDs)
	assert.Equal(t, models.AnonymousOwner, second.OwnerID)

	// links are one-way: the earlier record is never rewritten
	first, err := st.Get(ctx, "rec-001")
	require.NoError(t, err)
	assert.Empty(t, first.SimilarJobIDs)
}

func TestAnalyzePattern_InvalidInput(t *testing.T) {
	st := memory.New()
	svc := newTestService(t, st)

	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"missing company", func(r *Request) { r.Company = "" }},
		{"blank title", func(r *Request) { r.JobTitle = "   " }},
		{"missing description", func(r *Request) { r.JobDescription = "" }},
		{"punctuation-only company", func(r *Request) { r.Company = "..." }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			summary, err := svc.AnalyzePattern(context.Background(), req)
			assert.Nil(t, summary)
			assert.True(t, errors.Is(err, apperrors.Kind(apperrors.ErrCodeInvalidInput)))
		})
	}
	assert.Equal(t, 0, st.Len())
}

func TestAnalyzePattern_AppendFailureLeavesNoRecord(t *testing.T) {
	st := &flakyStore{Store: memory.New(), appendErr: errors.New("disk full")}
	svc := newTestService(t, st)
	ctx := context.Background()

	summary, err := svc.AnalyzePattern(ctx, validRequest())
	assert.Nil(t, summary)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeStoreUnavailable, apperrors.CodeOf(err))

	history, err := st.QueryByCompany(ctx, "acme")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAnalyzePattern_QueryFailure(t *testing.T) {
	st := &flakyStore{Store: memory.New(), queryErr: errors.New("connection refused")}
	svc := newTestService(t, st)

	_, err := svc.AnalyzePattern(context.Background(), validRequest())
	assert.Equal(t, apperrors.ErrCodeStoreUnavailable, apperrors.CodeOf(err))
	assert.Equal(t, 0, st.Len())
}

func TestAnalyzePattern_DeadlineIsTimeout(t *testing.T) {
	st := &flakyStore{Store: memory.New(), queryErr: context.DeadlineExceeded}
	svc := newTestService(t, st)

	_, err := svc.AnalyzePattern(context.Background(), validRequest())
	assert.Equal(t, apperrors.ErrCodeTimeout, apperrors.CodeOf(err))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestGetRecord(t *testing.T) {
	st := memory.New()
	svc := newTestService(t, st)
	ctx := context.Background()

	_, err := svc.AnalyzePattern(ctx, validRequest())
	require.NoError(t, err)

	rec, err := svc.GetRecord(ctx, "rec-001")
	require.NoError(t, err)
	assert.Equal(t, "acme", rec.CompanyName)

	_, err = svc.GetRecord(ctx, "missing")
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.CodeOf(err))

	_, err = svc.GetRecord(ctx, " ")
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.CodeOf(err))
}

func TestRecordSighting(t *testing.T) {
	st := memory.New()
	svc := newTestService(t, st)
	ctx := context.Background()

	_, err := svc.AnalyzePattern(ctx, validRequest())
	require.NoError(t, err)

	later := now.Add(72 * time.Hour)
	rec, err := svc.RecordSighting(ctx, "rec-001", later)
	require.NoError(t, err)
	assert.Equal(t, later, rec.LastSeen)
	assert.Equal(t, now, rec.FirstSeen)

	// an earlier sighting never moves LastSeen back
	rec, err = svc.RecordSighting(ctx, "rec-001", now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, later, rec.LastSeen)

	_, err = svc.RecordSighting(ctx, "missing", later)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.CodeOf(err))
}

func TestAnalyzePattern_ResubmissionAfterHundredDays(t *testing.T) {
	st := memory.New()
	clock := now
	svc := NewService(st, DefaultPolicy(), logger.NewTestLogger(t),
		WithClock(func() time.Time { return clock }),
		WithIDGenerator(sequentialIDs()),
	)
	ctx := context.Background()

	_, err := svc.AnalyzePattern(ctx, validRequest())
	require.NoError(t, err)

	clock = now.AddDate(0, 0, 100)
	summary, err := svc.AnalyzePattern(ctx, validRequest())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.SimilarJobCount)
	assert.Equal(t, 100, summary.LongestOpenDays)
	require.Len(t, summary.SuspiciousPatterns, 1)
	assert.Contains(t, summary.SuspiciousPatterns[0], "100 days")
	assert.Equal(t, 8, summary.ConfidenceScore)

	// the read-side extension writes nothing back
	first, err := st.Get(ctx, "rec-001")
	require.NoError(t, err)
	assert.Equal(t, now, first.LastSeen)
	assert.Equal(t, 2, st.Len())
}
