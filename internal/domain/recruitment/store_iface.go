package recruitment

import "context"

type StoreAPI interface {
	ListPostings(ctx context.Context, tenantID string, filter PostingFilter) ([]JobPosting, error)
	GetPosting(ctx context.Context, tenantID, postingID string) (JobPosting, error)
	CreatePosting(ctx context.Context, tenantID string, p JobPosting) (string, error)
	UpdatePosting(ctx context.Context, tenantID string, p JobPosting) error
	ListCandidates(ctx context.Context, tenantID, postingID, stage string) ([]Candidate, error)
	GetCandidate(ctx context.Context, tenantID, candidateID string) (Candidate, error)
	CreateCandidate(ctx context.Context, tenantID string, c Candidate) (string, error)
	MoveCandidate(ctx context.Context, tenantID, candidateID, from, to, notes string) error
	SetCV(ctx context.Context, tenantID, candidateID, key, name, contentType string) error
}
