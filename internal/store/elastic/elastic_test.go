package elastic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ghostjob-workers/internal/models"
	"ghostjob-workers/internal/store"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  map[string]string
	Body   string
}

// fakeTransport answers Elasticsearch requests from a handler func.
type fakeTransport struct {
	mu       sync.Mutex
	handle   func(r recordedRequest) (int, string)
	requests []recordedRequest
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rec := recordedRequest{Method: req.Method, Path: req.URL.Path, Query: map[string]string{}}
	for k, v := range req.URL.Query() {
		rec.Query[k] = v[0]
	}
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		rec.Body = string(b)
	}

	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()

	status, body := f.handle(rec)
	return &http.Response{
		StatusCode: status,
		Header: http.Header{
			"X-Elastic-Product": []string{"Elasticsearch"},
			"Content-Type":      []string{"application/json"},
		},
		Body:    io.NopCloser(strings.NewReader(body)),
		Request: req,
	}, nil
}

func newFakeStore(t *testing.T, handle func(r recordedRequest) (int, string)) (*Store, *fakeTransport) {
	t.Helper()
	ft := &fakeTransport{handle: handle}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{"http://es.test:9200"},
		Transport: ft,
	})
	require.NoError(t, err)
	return New(client, "posting-records"), ft
}

var seen = time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

func sourceJSON(t *testing.T, rec models.PostingRecord) string {
	t.Helper()
	b, err := json.Marshal(toDocument(rec))
	require.NoError(t, err)
	return string(b)
}

func sample(id string) models.PostingRecord {
	return models.PostingRecord{
		ID:             id,
		CompanyName:    "acme",
		JobTitle:       "Engineer",
		Location:       "Remote",
		JobDescription: "Build services",
		FirstSeen:      seen,
		LastSeen:       seen,
		SimilarJobIDs:  []string{"older"},
		OwnerID:        "user-1",
	}
}

func TestEnsureIndex_CreatesWhenMissing(t *testing.T) {
	s, ft := newFakeStore(t, func(r recordedRequest) (int, string) {
		if r.Method == http.MethodHead {
			return http.StatusNotFound, ""
		}
		return http.StatusOK, `{"acknowledged":true}`
	})

	require.NoError(t, s.EnsureIndex(context.Background()))
	require.Len(t, ft.requests, 2)
	assert.Equal(t, http.MethodPut, ft.requests[1].Method)
	assert.Equal(t, "/posting-records", ft.requests[1].Path)
	assert.Contains(t, ft.requests[1].Body, `"company_name":    {"type": "keyword"}`)
}

func TestAppend_WaitsForRefresh(t *testing.T) {
	s, ft := newFakeStore(t, func(r recordedRequest) (int, string) {
		return http.StatusCreated, `{"result":"created"}`
	})

	require.NoError(t, s.Append(context.Background(), sample("rec-1")))
	require.Len(t, ft.requests, 1)

	req := ft.requests[0]
	assert.Equal(t, "/posting-records/_doc/rec-1", req.Path)
	assert.Equal(t, "wait_for", req.Query["refresh"])
	assert.Equal(t, "create", req.Query["op_type"])
	assert.Contains(t, req.Body, `"company_name":"acme"`)
	assert.Contains(t, req.Body, `"similar_job_ids":["older"]`)
}

func TestAppend_Conflict(t *testing.T) {
	s, _ := newFakeStore(t, func(r recordedRequest) (int, string) {
		return http.StatusConflict, `{"error":{"type":"version_conflict_engine_exception"}}`
	})
	assert.ErrorIs(t, s.Append(context.Background(), sample("rec-1")), store.ErrDuplicateID)
}

func TestAppend_ServerError(t *testing.T) {
	s, _ := newFakeStore(t, func(r recordedRequest) (int, string) {
		return http.StatusInternalServerError, `{"error":"shard failure"}`
	})
	assert.Error(t, s.Append(context.Background(), sample("rec-1")))
}

func TestGet(t *testing.T) {
	rec := sample("rec-1")
	s, _ := newFakeStore(t, func(r recordedRequest) (int, string) {
		if strings.HasSuffix(r.Path, "/rec-1") {
			return http.StatusOK, `{"found":true,"_seq_no":1,"_primary_term":1,"_source":` + sourceJSON(t, rec) + `}`
		}
		return http.StatusNotFound, `{"found":false}`
	})

	got, err := s.Get(context.Background(), "rec-1")
	require.NoError(t, err)
	assert.Equal(t, rec, *got)

	_, err = s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTouch_WritesWithSequenceGuard(t *testing.T) {
	rec := sample("rec-1")
	later := seen.AddDate(0, 0, 30)

	s, ft := newFakeStore(t, func(r recordedRequest) (int, string) {
		if r.Method == http.MethodGet {
			return http.StatusOK, `{"found":true,"_seq_no":7,"_primary_term":2,"_source":` + sourceJSON(t, rec) + `}`
		}
		return http.StatusOK, `{"result":"updated"}`
	})

	got, err := s.Touch(context.Background(), "rec-1", later)
	require.NoError(t, err)
	assert.Equal(t, later, got.LastSeen)
	assert.Equal(t, seen, got.FirstSeen)

	require.Len(t, ft.requests, 2)
	assert.Equal(t, "7", ft.requests[1].Query["if_seq_no"])
	assert.Equal(t, "2", ft.requests[1].Query["if_primary_term"])
}

func TestTouch_EarlierSightingIsNoop(t *testing.T) {
	rec := sample("rec-1")
	s, ft := newFakeStore(t, func(r recordedRequest) (int, string) {
		return http.StatusOK, `{"found":true,"_seq_no":7,"_primary_term":2,"_source":` + sourceJSON(t, rec) + `}`
	})

	got, err := s.Touch(context.Background(), "rec-1", seen.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, seen, got.LastSeen)
	assert.Len(t, ft.requests, 1)
}

func TestQueryByCompany(t *testing.T) {
	first, second := sample("a"), sample("b")
	second.FirstSeen = seen.AddDate(0, 0, 2)
	second.LastSeen = second.FirstSeen

	s, ft := newFakeStore(t, func(r recordedRequest) (int, string) {
		return http.StatusOK, `{"hits":{"hits":[` +
			`{"_source":` + sourceJSON(t, first) + `,"sort":[1,"a"]},` +
			`{"_source":` + sourceJSON(t, second) + `,"sort":[2,"b"]}]}}`
	})

	recs, err := s.QueryByCompany(context.Background(), "acme")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].ID)
	assert.Equal(t, "b", recs[1].ID)

	require.Len(t, ft.requests, 1)
	assert.True(t, strings.HasSuffix(ft.requests[0].Path, "/_search"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(ft.requests[0].Body), &body))
	assert.Equal(t, map[string]interface{}{"term": map[string]interface{}{"company_name": "acme"}}, body["query"])
	assert.NotContains(t, body, "search_after")
}

func TestScanPage(t *testing.T) {
	s, ft := newFakeStore(t, func(r recordedRequest) (int, string) {
		hits := make([]string, 0, 3)
		for _, id := range []string{"c", "d", "e"} {
			hits = append(hits, `{"_source":`+sourceJSON(t, sample(id))+`,"sort":["`+id+`"]}`)
		}
		return http.StatusOK, `{"hits":{"hits":[` + strings.Join(hits, ",") + `]}}`
	})

	page, next, err := s.ScanPage(context.Background(), "b", 2)
	require.NoError(t, err)
	assert.Len(t, page, 2)
	assert.Equal(t, "d", next)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(ft.requests[0].Body), &body))
	assert.Equal(t, float64(3), body["size"])
	assert.Equal(t, []interface{}{"b"}, body["search_after"])
}
