package recruitment

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const postingColumns = `
  p.id, p.title, COALESCE(p.department_id::text, ''), COALESCE(d.name, ''), p.description, p.status,
  (SELECT count(*) FROM candidates c WHERE c.job_posting_id = p.id), p.created_at, p.updated_at
  FROM job_postings p
  LEFT JOIN departments d ON d.id = p.department_id`

func scanPosting(row pgx.Row) (JobPosting, error) {
	var p JobPosting
	err := row.Scan(&p.ID, &p.Title, &p.DepartmentID, &p.DepartmentName, &p.Description, &p.Status,
		&p.CandidateCount, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return p, ErrPostingNotFound
	}
	return p, errors.Wrap(err, "scan job posting")
}

func (s *Store) ListPostings(ctx context.Context, tenantID string, filter PostingFilter) ([]JobPosting, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+postingColumns+`
    WHERE p.tenant_id = $1 AND ($2 = '' OR p.status = $2)
    ORDER BY p.created_at DESC
  `, tenantID, filter.Status)
	if err != nil {
		return nil, errors.Wrap(err, "query job postings")
	}
	defer rows.Close()
	var out []JobPosting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, errors.Wrap(rows.Err(), "iterate job postings")
}

func (s *Store) GetPosting(ctx context.Context, tenantID, postingID string) (JobPosting, error) {
	return scanPosting(s.DB.QueryRow(ctx, `SELECT `+postingColumns+`
    WHERE p.tenant_id = $1 AND p.id = $2
  `, tenantID, postingID))
}

func (s *Store) CreatePosting(ctx context.Context, tenantID string, p JobPosting) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO job_postings (tenant_id, title, department_id, description, status)
    VALUES ($1,$2,NULLIF($3,'')::uuid,$4,$5)
    RETURNING id
  `, tenantID, p.Title, p.DepartmentID, p.Description, p.Status).Scan(&id)
	return id, errors.Wrap(err, "insert job posting")
}

func (s *Store) UpdatePosting(ctx context.Context, tenantID string, p JobPosting) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE job_postings
    SET title = $1, department_id = NULLIF($2,'')::uuid, description = $3, status = $4, updated_at = now()
    WHERE tenant_id = $5 AND id = $6
  `, p.Title, p.DepartmentID, p.Description, p.Status, tenantID, p.ID)
	if err != nil {
		return errors.Wrap(err, "update job posting")
	}
	if tag.RowsAffected() == 0 {
		return ErrPostingNotFound
	}
	return nil
}

const candidateColumns = `
  id, job_posting_id, full_name, email, phone, stage, notes, cv_key, cv_name, cv_content_type, created_at, updated_at
  FROM candidates`

func scanCandidate(row pgx.Row) (Candidate, error) {
	var c Candidate
	err := row.Scan(&c.ID, &c.JobPostingID, &c.FullName, &c.Email, &c.Phone, &c.Stage, &c.Notes,
		&c.CVKey, &c.CVName, &c.CVContentType, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return c, ErrCandidateNotFound
	}
	return c, errors.Wrap(err, "scan candidate")
}

func (s *Store) ListCandidates(ctx context.Context, tenantID, postingID, stage string) ([]Candidate, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+candidateColumns+`
    WHERE tenant_id = $1 AND job_posting_id = $2 AND ($3 = '' OR stage = $3)
    ORDER BY created_at
  `, tenantID, postingID, stage)
	if err != nil {
		return nil, errors.Wrap(err, "query candidates")
	}
	defer rows.Close()
	var out []Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, errors.Wrap(rows.Err(), "iterate candidates")
}

func (s *Store) GetCandidate(ctx context.Context, tenantID, candidateID string) (Candidate, error) {
	return scanCandidate(s.DB.QueryRow(ctx, `SELECT `+candidateColumns+`
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, candidateID))
}

func (s *Store) CreateCandidate(ctx context.Context, tenantID string, c Candidate) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO candidates (tenant_id, job_posting_id, full_name, email, phone, stage, notes, cv_key, cv_name, cv_content_type)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    RETURNING id
  `, tenantID, c.JobPostingID, c.FullName, c.Email, c.Phone, c.Stage, c.Notes, c.CVKey, c.CVName, c.CVContentType).Scan(&id)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return "", ErrDuplicate
	}
	return id, errors.Wrap(err, "insert candidate")
}

// MoveCandidate changes the stage only while the row still holds from.
func (s *Store) MoveCandidate(ctx context.Context, tenantID, candidateID, from, to, notes string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE candidates
    SET stage = $1, notes = CASE WHEN $2 = '' THEN notes ELSE $2 END, updated_at = now()
    WHERE tenant_id = $3 AND id = $4 AND stage = $5
  `, to, notes, tenantID, candidateID, from)
	if err != nil {
		return errors.Wrap(err, "move candidate")
	}
	if tag.RowsAffected() == 0 {
		return ErrStageChanged
	}
	return nil
}

func (s *Store) SetCV(ctx context.Context, tenantID, candidateID, key, name, contentType string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE candidates SET cv_key = $1, cv_name = $2, cv_content_type = $3, updated_at = now()
    WHERE tenant_id = $4 AND id = $5
  `, key, name, contentType, tenantID, candidateID)
	if err != nil {
		return errors.Wrap(err, "update candidate cv")
	}
	if tag.RowsAffected() == 0 {
		return ErrCandidateNotFound
	}
	return nil
}
