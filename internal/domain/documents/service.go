package documents

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"hris/internal/domain/auth"
	"hris/internal/platform/storage"
)

type FileStore interface {
	Save(ctx context.Context, prefix, name string, data []byte, allowed ...string) (storage.File, error)
	Open(key string) (io.ReadCloser, error)
	Delete(key string) error
}

type Service struct {
	store StoreAPI
	files FileStore
}

func NewService(store StoreAPI, files FileStore) *Service {
	return &Service{store: store, files: files}
}

// Upload stores a file. HR and admin may file company-wide or for anyone;
// other roles only for themselves.
func (s *Service) Upload(ctx context.Context, user auth.UserContext, in UploadInput, att Attachment) (Document, error) {
	if !manages(user) {
		if user.EmployeeID == "" {
			return Document{}, ErrForbidden
		}
		if in.EmployeeID != "" && in.EmployeeID != user.EmployeeID {
			return Document{}, ErrForbidden
		}
		in.EmployeeID = user.EmployeeID
	}
	category := strings.ToLower(strings.TrimSpace(in.Category))
	if category == "" {
		category = CategoryGeneral
	}
	file, err := s.files.Save(ctx, "documents", att.Name, att.Data, AllowedTypes...)
	if err != nil {
		return Document{}, err
	}
	d := Document{
		EmployeeID:  in.EmployeeID,
		Title:       strings.TrimSpace(in.Title),
		Category:    category,
		FileKey:     file.Key,
		FileName:    att.Name,
		ContentType: file.ContentType,
		FileSize:    file.Size,
		UploadedBy:  user.UserID,
	}
	id, err := s.store.Create(ctx, user.TenantID, d)
	if err != nil {
		s.discard(file.Key)
		return Document{}, err
	}
	d.ID = id
	return d, nil
}

func (s *Service) List(ctx context.Context, user auth.UserContext, filter Filter) ([]Document, error) {
	return s.store.List(ctx, user.TenantID, auth.ScopeFor(user), filter)
}

func (s *Service) Get(ctx context.Context, user auth.UserContext, documentID string) (Document, error) {
	d, err := s.store.Get(ctx, user.TenantID, documentID)
	if err != nil {
		return Document{}, err
	}
	if !visible(user, d) {
		return Document{}, ErrNotFound
	}
	return d, nil
}

func (s *Service) Download(ctx context.Context, user auth.UserContext, documentID string) (Document, io.ReadCloser, error) {
	d, err := s.Get(ctx, user, documentID)
	if err != nil {
		return Document{}, nil, err
	}
	rc, err := s.files.Open(d.FileKey)
	if err != nil {
		return Document{}, nil, err
	}
	return d, rc, nil
}

// Delete is offered to roles with delete rights. A team lead may only remove
// documents filed for a direct report.
func (s *Service) Delete(ctx context.Context, user auth.UserContext, documentID string) (Document, error) {
	if !auth.CanDelete(user.RoleName) {
		return Document{}, ErrForbidden
	}
	d, err := s.Get(ctx, user, documentID)
	if err != nil {
		return Document{}, err
	}
	if auth.NormalizeRole(user.RoleName) == auth.RoleTeamLead {
		if d.CompanyWide() || d.ManagerID != user.EmployeeID {
			return Document{}, ErrForbidden
		}
	}
	if err := s.store.Delete(ctx, user.TenantID, documentID); err != nil {
		return Document{}, err
	}
	s.discard(d.FileKey)
	return d, nil
}

func (s *Service) discard(key string) {
	if err := s.files.Delete(key); err != nil {
		slog.Warn("document file cleanup failed", "key", key, "err", err)
	}
}

func manages(user auth.UserContext) bool {
	switch auth.NormalizeRole(user.RoleName) {
	case auth.RoleHR, auth.RoleAdmin:
		return true
	}
	return false
}

func visible(user auth.UserContext, d Document) bool {
	return d.CompanyWide() || auth.ScopeFor(user).Allows(d.EmployeeID, d.ManagerID)
}
