// Package store defines the posting history collaborator and helpers shared
// by its backends.
package store

import (
	"context"
	"errors"
	"time"

	"ghostjob-workers/internal/models"
)

// ErrNotFound is returned by Get and Touch for an unknown record id.
var ErrNotFound = errors.New("posting record not found")

// ErrDuplicateID is returned by Append when the id is already stored.
var ErrDuplicateID = errors.New("posting record id already exists")

// HistoryStore is the durable posting history. Implementations must be safe
// for concurrent use.
type HistoryStore interface {
	// QueryByCompany returns the company's records ordered by FirstSeen.
	QueryByCompany(ctx context.Context, companyName string) ([]models.PostingRecord, error)
	// Append stores rec durably, or not at all.
	Append(ctx context.Context, rec models.PostingRecord) error
	Get(ctx context.Context, id string) (*models.PostingRecord, error)
	// Touch moves LastSeen to seenAt when seenAt is later, and returns the
	// stored record either way.
	Touch(ctx context.Context, id string, seenAt time.Time) (*models.PostingRecord, error)
	// ScanPage returns up to limit records with id greater than cursor, in id
	// order. next is empty once the scan is complete.
	ScanPage(ctx context.Context, cursor string, limit int) (records []models.PostingRecord, next string, err error)
}

// Scan walks the whole store page by page, stopping at the first error
// returned by fn.
func Scan(ctx context.Context, st HistoryStore, pageSize int, fn func(models.PostingRecord) error) error {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, next, err := st.ScanPage(ctx, cursor, pageSize)
		if err != nil {
			return err
		}
		for _, rec := range page {
			if err := fn(rec); err != nil {
				return err
			}
		}
		if next == "" {
			return nil
		}
		cursor = next
	}
}

// DefaultPageSize is used by Scan when no page size is configured.
const DefaultPageSize = 500

// Validate checks the record invariants every backend enforces on Append.
func Validate(rec models.PostingRecord) error {
	switch {
	case rec.ID == "":
		return errors.New("record id is required")
	case rec.CompanyName == "":
		return errors.New("record company name is required")
	case rec.FirstSeen.IsZero():
		return errors.New("record firstSeen is required")
	case !rec.LastSeen.IsZero() && rec.LastSeen.Before(rec.FirstSeen):
		return errors.New("record lastSeen precedes firstSeen")
	}
	return nil
}
