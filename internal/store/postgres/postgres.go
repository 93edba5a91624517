// Package postgres stores posting history in a PostgreSQL table through lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"ghostjob-workers/internal/models"
	"ghostjob-workers/internal/store"
)

const columns = `id, company_name, job_title, location, job_description,
	first_seen, last_seen, similar_job_ids, owner_id`

// uniqueViolation is the SQLSTATE for a duplicate primary key.
const uniqueViolation = "23505"

type Store struct {
	db    *sql.DB
	table string
}

// New returns a store over table. The table name is quoted, not interpolated raw.
func New(db *sql.DB, table string) *Store {
	if table == "" {
		table = "posting_records"
	}
	return &Store{db: db, table: pq.QuoteIdentifier(table)}
}

// EnsureSchema creates the table and its company lookup index when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id              TEXT PRIMARY KEY,
	company_name    TEXT NOT NULL,
	job_title       TEXT NOT NULL,
	location        TEXT NOT NULL DEFAULT '',
	job_description TEXT NOT NULL,
	first_seen      TIMESTAMPTZ NOT NULL,
	last_seen       TIMESTAMPTZ NOT NULL,
	similar_job_ids TEXT[] NOT NULL DEFAULT '{}',
	owner_id        TEXT NOT NULL,
	CHECK (first_seen <= last_seen)
)`, s.table)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create posting table: %w", err)
	}

	idx := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (company_name, first_seen)`,
		pq.QuoteIdentifier(unquoted(s.table)+"_company_first_seen_idx"), s.table)
	if _, err := s.db.ExecContext(ctx, idx); err != nil {
		return fmt.Errorf("create company index: %w", err)
	}
	return nil
}

func (s *Store) QueryByCompany(ctx context.Context, companyName string) ([]models.PostingRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE company_name = $1 ORDER BY first_seen ASC, id ASC`, columns, s.table)

	rows, err := s.db.QueryContext(ctx, query, companyName)
	if err != nil {
		return nil, fmt.Errorf("query company history: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Append inserts rec inside a transaction so a failed insert leaves nothing behind.
func (s *Store) Append(ctx context.Context, rec models.PostingRecord) error {
	if err := store.Validate(rec); err != nil {
		return err
	}
	if rec.LastSeen.IsZero() {
		rec.LastSeen = rec.FirstSeen
	}
	similar := rec.SimilarJobIDs
	if similar == nil {
		similar = []string{}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, s.table, columns)
	_, err = tx.ExecContext(ctx, query,
		rec.ID,
		rec.CompanyName,
		rec.JobTitle,
		rec.Location,
		rec.JobDescription,
		rec.FirstSeen.UTC(),
		rec.LastSeen.UTC(),
		pq.Array(similar),
		rec.OwnerID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return store.ErrDuplicateID
		}
		return fmt.Errorf("insert posting record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit posting record: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*models.PostingRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, columns, s.table)
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get posting record: %w", err)
	}
	return rec, nil
}

func (s *Store) Touch(ctx context.Context, id string, seenAt time.Time) (*models.PostingRecord, error) {
	query := fmt.Sprintf(`UPDATE %s SET last_seen = GREATEST(last_seen, $2) WHERE id = $1 RETURNING %s`, s.table, columns)
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, id, seenAt.UTC()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("touch posting record: %w", err)
	}
	return rec, nil
}

func (s *Store) ScanPage(ctx context.Context, cursor string, limit int) ([]models.PostingRecord, string, error) {
	if limit <= 0 {
		limit = store.DefaultPageSize
	}
	// one extra row tells us whether another page exists
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id > $1 ORDER BY id ASC LIMIT $2`, columns, s.table)
	rows, err := s.db.QueryContext(ctx, query, cursor, limit+1)
	if err != nil {
		return nil, "", fmt.Errorf("scan posting records: %w", err)
	}
	defer rows.Close()

	recs, err := scanRecords(rows)
	if err != nil {
		return nil, "", err
	}

	next := ""
	if len(recs) > limit {
		recs = recs[:limit]
		next = recs[limit-1].ID
	}
	return recs, next, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.PostingRecord, error) {
	var rec models.PostingRecord
	var similar []string
	if err := row.Scan(
		&rec.ID,
		&rec.CompanyName,
		&rec.JobTitle,
		&rec.Location,
		&rec.JobDescription,
		&rec.FirstSeen,
		&rec.LastSeen,
		pq.Array(&similar),
		&rec.OwnerID,
	); err != nil {
		return nil, err
	}
	rec.FirstSeen = rec.FirstSeen.UTC()
	rec.LastSeen = rec.LastSeen.UTC()
	rec.SimilarJobIDs = similar
	return &rec, nil
}

func scanRecords(rows *sql.Rows) ([]models.PostingRecord, error) {
	var out []models.PostingRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan posting row: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posting rows: %w", err)
	}
	return out, nil
}

func unquoted(quoted string) string {
	if len(quoted) >= 2 && quoted[0] == '"' && quoted[len(quoted)-1] == '"' {
		return quoted[1 : len(quoted)-1]
	}
	return quoted
}
