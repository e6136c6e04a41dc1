package recruitment

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"hris/internal/platform/storage"
)

type FileStore interface {
	Save(ctx context.Context, prefix, name string, data []byte, allowed ...string) (storage.File, error)
	Open(key string) (io.ReadCloser, error)
	Delete(key string) error
}

var cvTypes = []string{storage.MimePDF, storage.MimeDOCX}

type Service struct {
	store StoreAPI
	files FileStore
}

func NewService(store StoreAPI, files FileStore) *Service {
	return &Service{store: store, files: files}
}

func (s *Service) ListPostings(ctx context.Context, tenantID string, filter PostingFilter) ([]JobPosting, error) {
	return s.store.ListPostings(ctx, tenantID, filter)
}

func (s *Service) GetPosting(ctx context.Context, tenantID, postingID string) (JobPosting, error) {
	return s.store.GetPosting(ctx, tenantID, postingID)
}

func (s *Service) CreatePosting(ctx context.Context, tenantID string, in PostingInput) (JobPosting, error) {
	p, err := postingFrom(in)
	if err != nil {
		return JobPosting{}, err
	}
	id, err := s.store.CreatePosting(ctx, tenantID, p)
	if err != nil {
		return JobPosting{}, err
	}
	return s.store.GetPosting(ctx, tenantID, id)
}

func (s *Service) UpdatePosting(ctx context.Context, tenantID, postingID string, in PostingInput) (JobPosting, error) {
	p, err := postingFrom(in)
	if err != nil {
		return JobPosting{}, err
	}
	p.ID = postingID
	if err := s.store.UpdatePosting(ctx, tenantID, p); err != nil {
		return JobPosting{}, err
	}
	return s.store.GetPosting(ctx, tenantID, postingID)
}

func postingFrom(in PostingInput) (JobPosting, error) {
	p := JobPosting{
		Title:        strings.TrimSpace(in.Title),
		DepartmentID: in.DepartmentID,
		Description:  strings.TrimSpace(in.Description),
		Status:       in.Status,
	}
	if p.Status == "" {
		p.Status = PostingOpen
	}
	if p.Status != PostingOpen && p.Status != PostingClosed {
		return JobPosting{}, ErrInvalidStatus
	}
	return p, nil
}

func (s *Service) ListCandidates(ctx context.Context, tenantID, postingID, stage string) ([]Candidate, error) {
	if _, err := s.store.GetPosting(ctx, tenantID, postingID); err != nil {
		return nil, err
	}
	return s.store.ListCandidates(ctx, tenantID, postingID, stage)
}

// AddCandidate registers an applicant on an open posting. The CV, when given,
// must be a PDF or DOCX.
func (s *Service) AddCandidate(ctx context.Context, tenantID, postingID string, in CandidateInput, cv *Attachment) (Candidate, error) {
	p, err := s.store.GetPosting(ctx, tenantID, postingID)
	if err != nil {
		return Candidate{}, err
	}
	if p.Status != PostingOpen {
		return Candidate{}, ErrPostingClosed
	}
	c := Candidate{
		JobPostingID: postingID,
		FullName:     strings.TrimSpace(in.FullName),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:        strings.TrimSpace(in.Phone),
		Notes:        strings.TrimSpace(in.Notes),
		Stage:        StageApplied,
	}
	if cv != nil {
		file, err := s.files.Save(ctx, "cv", cv.Name, cv.Data, cvTypes...)
		if err != nil {
			return Candidate{}, err
		}
		c.CVKey, c.CVName, c.CVContentType = file.Key, cv.Name, file.ContentType
	}
	id, err := s.store.CreateCandidate(ctx, tenantID, c)
	if err != nil {
		s.discard(c.CVKey)
		return Candidate{}, err
	}
	c.ID = id
	return c, nil
}

func (s *Service) MoveCandidate(ctx context.Context, tenantID, candidateID string, in MoveInput) (Candidate, error) {
	c, err := s.store.GetCandidate(ctx, tenantID, candidateID)
	if err != nil {
		return Candidate{}, err
	}
	to := strings.ToLower(strings.TrimSpace(in.Stage))
	if err := CheckMove(c.Stage, to); err != nil {
		return Candidate{}, err
	}
	notes := strings.TrimSpace(in.Notes)
	if err := s.store.MoveCandidate(ctx, tenantID, candidateID, c.Stage, to, notes); err != nil {
		return Candidate{}, err
	}
	c.Stage = to
	if notes != "" {
		c.Notes = notes
	}
	return c, nil
}

// UploadCV replaces the candidate's CV.
func (s *Service) UploadCV(ctx context.Context, tenantID, candidateID string, cv Attachment) (Candidate, error) {
	c, err := s.store.GetCandidate(ctx, tenantID, candidateID)
	if err != nil {
		return Candidate{}, err
	}
	file, err := s.files.Save(ctx, "cv", cv.Name, cv.Data, cvTypes...)
	if err != nil {
		return Candidate{}, err
	}
	if err := s.store.SetCV(ctx, tenantID, candidateID, file.Key, cv.Name, file.ContentType); err != nil {
		s.discard(file.Key)
		return Candidate{}, err
	}
	s.discard(c.CVKey)
	c.CVKey, c.CVName, c.CVContentType = file.Key, cv.Name, file.ContentType
	return c, nil
}

func (s *Service) DownloadCV(ctx context.Context, tenantID, candidateID string) (Candidate, io.ReadCloser, error) {
	c, err := s.store.GetCandidate(ctx, tenantID, candidateID)
	if err != nil {
		return Candidate{}, nil, err
	}
	if !c.HasCV() {
		return Candidate{}, nil, ErrNoCV
	}
	rc, err := s.files.Open(c.CVKey)
	if err != nil {
		return Candidate{}, nil, err
	}
	return c, rc, nil
}

func (s *Service) discard(key string) {
	if key == "" {
		return
	}
	if err := s.files.Delete(key); err != nil {
		slog.Warn("cv cleanup failed", "key", key, "err", err)
	}
}
