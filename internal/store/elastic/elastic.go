// Package elastic stores posting history as documents in an Elasticsearch index.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"ghostjob-workers/internal/models"
	"ghostjob-workers/internal/store"
)

// companyPageSize bounds each search_after page of a company history read.
const companyPageSize = 500

// touchAttempts bounds optimistic-concurrency retries in Touch.
const touchAttempts = 3

const indexMapping = `{
  "mappings": {
    "properties": {
      "id":              {"type": "keyword"},
      "company_name":    {"type": "keyword"},
      "job_title":       {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "location":        {"type": "keyword"},
      "job_description": {"type": "text"},
      "first_seen":      {"type": "date"},
      "last_seen":       {"type": "date"},
      "similar_job_ids": {"type": "keyword"},
      "owner_id":        {"type": "keyword"}
    }
  }
}`

type Store struct {
	client *elasticsearch.Client
	index  string
}

func New(client *elasticsearch.Client, index string) *Store {
	if index == "" {
		index = "posting-records"
	}
	return &Store{client: client, index: index}
}

type document struct {
	ID             string    `json:"id"`
	CompanyName    string    `json:"company_name"`
	JobTitle       string    `json:"job_title"`
	Location       string    `json:"location"`
	JobDescription string    `json:"job_description"`
	FirstSeen      time.Time `json:"first_seen"`
	LastSeen       time.Time `json:"last_seen"`
	SimilarJobIDs  []string  `json:"similar_job_ids"`
	OwnerID        string    `json:"owner_id"`
}

func toDocument(rec models.PostingRecord) document {
	similar := rec.SimilarJobIDs
	if similar == nil {
		similar = []string{}
	}
	lastSeen := rec.LastSeen
	if lastSeen.IsZero() {
		lastSeen = rec.FirstSeen
	}
	return document{
		ID:             rec.ID,
		CompanyName:    rec.CompanyName,
		JobTitle:       rec.JobTitle,
		Location:       rec.Location,
		JobDescription: rec.JobDescription,
		FirstSeen:      rec.FirstSeen.UTC(),
		LastSeen:       lastSeen.UTC(),
		SimilarJobIDs:  similar,
		OwnerID:        rec.OwnerID,
	}
}

func (d document) record() models.PostingRecord {
	return models.PostingRecord{
		ID:             d.ID,
		CompanyName:    d.CompanyName,
		JobTitle:       d.JobTitle,
		Location:       d.Location,
		JobDescription: d.JobDescription,
		FirstSeen:      d.FirstSeen.UTC(),
		LastSeen:       d.LastSeen.UTC(),
		SimilarJobIDs:  d.SimilarJobIDs,
		OwnerID:        d.OwnerID,
	}
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (s *Store) EnsureIndex(ctx context.Context) error {
	res, err := esapi.IndicesExistsRequest{Index: []string{s.index}}.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("check index %s: %w", s.index, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = esapi.IndicesCreateRequest{
		Index: s.index,
		Body:  strings.NewReader(indexMapping),
	}.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("create index %s: %w", s.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("create index %s: %s", s.index, res.String())
	}
	return nil
}

// Append indexes rec with op_type=create and refresh=wait_for, so the record
// is searchable once the call returns.
func (s *Store) Append(ctx context.Context, rec models.PostingRecord) error {
	if err := store.Validate(rec); err != nil {
		return err
	}
	return s.put(ctx, toDocument(rec), "create", nil)
}

func (s *Store) put(ctx context.Context, doc document, opType string, version *docVersion) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode posting document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: doc.ID,
		Body:       bytes.NewReader(body),
		Refresh:    "wait_for",
		OpType:     opType,
	}
	if version != nil {
		req.IfSeqNo = &version.seqNo
		req.IfPrimaryTerm = &version.primaryTerm
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("index posting document: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusConflict {
		if version == nil {
			return store.ErrDuplicateID
		}
		return errVersionConflict
	}
	if res.IsError() {
		return fmt.Errorf("index posting document: %s", res.String())
	}
	return nil
}

var errVersionConflict = errors.New("posting document changed concurrently")

type docVersion struct {
	seqNo       int
	primaryTerm int
}

type getResponse struct {
	Found       bool     `json:"found"`
	SeqNo       int      `json:"_seq_no"`
	PrimaryTerm int      `json:"_primary_term"`
	Source      document `json:"_source"`
}

func (s *Store) get(ctx context.Context, id string) (*document, *docVersion, error) {
	res, err := esapi.GetRequest{Index: s.index, DocumentID: id}.Do(ctx, s.client)
	if err != nil {
		return nil, nil, fmt.Errorf("get posting document: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, nil, store.ErrNotFound
	}
	if res.IsError() {
		return nil, nil, fmt.Errorf("get posting document: %s", res.String())
	}

	var r getResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, nil, fmt.Errorf("decode posting document: %w", err)
	}
	if !r.Found {
		return nil, nil, store.ErrNotFound
	}
	return &r.Source, &docVersion{seqNo: r.SeqNo, primaryTerm: r.PrimaryTerm}, nil
}

func (s *Store) Get(ctx context.Context, id string) (*models.PostingRecord, error) {
	doc, _, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	rec := doc.record()
	return &rec, nil
}

// Touch reads the document and writes it back guarded by its sequence number.
func (s *Store) Touch(ctx context.Context, id string, seenAt time.Time) (*models.PostingRecord, error) {
	for attempt := 0; attempt < touchAttempts; attempt++ {
		doc, version, err := s.get(ctx, id)
		if err != nil {
			return nil, err
		}
		if !seenAt.After(doc.LastSeen) {
			rec := doc.record()
			return &rec, nil
		}

		doc.LastSeen = seenAt.UTC()
		err = s.put(ctx, *doc, "index", version)
		if errors.Is(err, errVersionConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		rec := doc.record()
		return &rec, nil
	}
	return nil, fmt.Errorf("touch posting document %s: %w", id, errVersionConflict)
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source document      `json:"_source"`
			Sort   []interface{} `json:"sort"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *Store) search(ctx context.Context, body map[string]interface{}) (*searchResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode search: %w", err)
	}

	res, err := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(payload),
	}.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("search posting documents: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search posting documents: %s", res.String())
	}

	var r searchResponse
	dec := json.NewDecoder(io.LimitReader(res.Body, 64<<20))
	dec.UseNumber()
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &r, nil
}

// QueryByCompany reads the company's history with search_after paging.
func (s *Store) QueryByCompany(ctx context.Context, companyName string) ([]models.PostingRecord, error) {
	var out []models.PostingRecord
	var after []interface{}

	for {
		body := map[string]interface{}{
			"size":  companyPageSize,
			"query": map[string]interface{}{"term": map[string]interface{}{"company_name": companyName}},
			"sort": []interface{}{
				map[string]interface{}{"first_seen": "asc"},
				map[string]interface{}{"id": "asc"},
			},
		}
		if after != nil {
			body["search_after"] = after
		}

		r, err := s.search(ctx, body)
		if err != nil {
			return nil, err
		}
		for _, hit := range r.Hits.Hits {
			out = append(out, hit.Source.record())
		}
		if len(r.Hits.Hits) < companyPageSize {
			return out, nil
		}
		after = r.Hits.Hits[len(r.Hits.Hits)-1].Sort
	}
}

func (s *Store) ScanPage(ctx context.Context, cursor string, limit int) ([]models.PostingRecord, string, error) {
	if limit <= 0 {
		limit = store.DefaultPageSize
	}
	body := map[string]interface{}{
		"size":  limit + 1,
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
		"sort":  []interface{}{map[string]interface{}{"id": "asc"}},
	}
	if cursor != "" {
		body["search_after"] = []interface{}{cursor}
	}

	r, err := s.search(ctx, body)
	if err != nil {
		return nil, "", err
	}

	recs := make([]models.PostingRecord, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		recs = append(recs, hit.Source.record())
	}

	next := ""
	if len(recs) > limit {
		recs = recs[:limit]
		next = recs[limit-1].ID
	}
	return recs, next, nil
}
