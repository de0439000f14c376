package service

import (
	"context"
	"fmt"

	"address-etl/internal/models"
)

// IssueService contains the read-only reporting logic over the published
// issues dataset.
type IssueService struct {
	repo IssueRepository
}

// Repository interface for dependency injection
type IssueRepository interface {
	ListIssues(ctx context.Context, postComm string, blockingOnly bool) ([]models.Issue, error)
	SummarizeIssues(ctx context.Context) ([]models.IssueCount, error)
}

// NewIssueService creates a new issue service
func NewIssueService(repo IssueRepository) *IssueService {
	return &IssueService{repo: repo}
}

// List returns published issues, optionally restricted to one postal
// community or to publication-blocking issues.
func (s *IssueService) List(ctx context.Context, postComm string, blockingOnly bool) ([]models.Issue, error) {
	issues, err := s.repo.ListIssues(ctx, postComm, blockingOnly)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list issues: %w", err)
	}
	return issues, nil
}

// Summary returns the per-rule issue counts.
func (s *IssueService) Summary(ctx context.Context) ([]models.IssueCount, error) {
	counts, err := s.repo.SummarizeIssues(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to summarize issues: %w", err)
	}
	return counts, nil
}
