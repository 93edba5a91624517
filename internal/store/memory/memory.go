// Package memory is an in-process HistoryStore for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"ghostjob-workers/internal/models"
	"ghostjob-workers/internal/store"
)

type Store struct {
	mu        sync.RWMutex
	records   map[string]models.PostingRecord
	byCompany map[string][]string
}

func New() *Store {
	return &Store{
		records:   make(map[string]models.PostingRecord),
		byCompany: make(map[string][]string),
	}
}

func (s *Store) QueryByCompany(ctx context.Context, companyName string) ([]models.PostingRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byCompany[companyName]
	out := make([]models.PostingRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.records[id].Clone())
	}
	return out, nil
}

func (s *Store) Append(ctx context.Context, rec models.PostingRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := store.Validate(rec); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ID]; exists {
		return store.ErrDuplicateID
	}
	s.records[rec.ID] = rec.Clone()

	// keep the company index ordered by FirstSeen, insertion order on ties
	ids := append(s.byCompany[rec.CompanyName], rec.ID)
	sort.SliceStable(ids, func(i, j int) bool {
		return s.records[ids[i]].FirstSeen.Before(s.records[ids[j]].FirstSeen)
	})
	s.byCompany[rec.CompanyName] = ids
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*models.PostingRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := rec.Clone()
	return &out, nil
}

func (s *Store) Touch(ctx context.Context, id string, seenAt time.Time) (*models.PostingRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if seenAt.After(rec.LastSeen) {
		rec.LastSeen = seenAt.UTC()
		s.records[id] = rec
	}
	out := rec.Clone()
	return &out, nil
}

func (s *Store) ScanPage(ctx context.Context, cursor string, limit int) ([]models.PostingRecord, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	if limit <= 0 {
		limit = store.DefaultPageSize
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		if id > cursor {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	next := ""
	if len(ids) > limit {
		ids = ids[:limit]
		next = ids[limit-1]
	}

	page := make([]models.PostingRecord, 0, len(ids))
	for _, id := range ids {
		page = append(page, s.records[id].Clone())
	}
	return page, next, nil
}

// Len reports the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
