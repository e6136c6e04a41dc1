package documents

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hris/internal/domain/auth"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const documentColumns = `
  d.id, COALESCE(d.employee_id::text, ''), COALESCE(e.first_name || ' ' || e.last_name, ''),
  COALESCE(e.manager_id::text, ''), d.title, d.category, d.file_key, d.file_name, d.content_type,
  d.file_size, COALESCE(d.uploaded_by::text, ''), d.created_at
  FROM documents d
  LEFT JOIN employees e ON e.id = d.employee_id`

func scanDocument(row pgx.Row) (Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.EmployeeID, &d.EmployeeName, &d.ManagerID, &d.Title, &d.Category, &d.FileKey,
		&d.FileName, &d.ContentType, &d.FileSize, &d.UploadedBy, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return d, ErrNotFound
	}
	return d, errors.Wrap(err, "scan document")
}

func (s *Store) Create(ctx context.Context, tenantID string, d Document) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO documents (tenant_id, employee_id, title, category, file_key, file_name, content_type, file_size, uploaded_by)
    VALUES ($1,NULLIF($2,'')::uuid,$3,$4,$5,$6,$7,$8,NULLIF($9,'')::uuid)
    RETURNING id
  `, tenantID, d.EmployeeID, d.Title, d.Category, d.FileKey, d.FileName, d.ContentType, d.FileSize, d.UploadedBy).Scan(&id)
	return id, errors.Wrap(err, "insert document")
}

func (s *Store) Get(ctx context.Context, tenantID, documentID string) (Document, error) {
	return scanDocument(s.DB.QueryRow(ctx, `SELECT `+documentColumns+`
    WHERE d.tenant_id = $1 AND d.id = $2
  `, tenantID, documentID))
}

// List returns company-wide documents plus the employee documents scope allows.
func (s *Store) List(ctx context.Context, tenantID string, scope auth.Scope, filter Filter) ([]Document, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+documentColumns+`
    WHERE d.tenant_id = $1
      AND (d.employee_id IS NULL OR $2 OR e.id::text = $3 OR ($4 AND e.manager_id::text = $3))
      AND ($5 = '' OR d.category = $5)
      AND ($6 = '' OR d.employee_id::text = $6)
    ORDER BY d.created_at DESC
  `, tenantID, scope.All, scope.EmployeeID, scope.WithReports, filter.Category, filter.EmployeeID)
	if err != nil {
		return nil, errors.Wrap(err, "query documents")
	}
	defer rows.Close()
	var out []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, errors.Wrap(rows.Err(), "iterate documents")
}

func (s *Store) Delete(ctx context.Context, tenantID, documentID string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM documents WHERE tenant_id = $1 AND id = $2`, tenantID, documentID)
	if err != nil {
		return errors.Wrap(err, "delete document")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
