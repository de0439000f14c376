package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"address-etl/internal/models"
)

// MockIssueRepository is a mock implementation of the IssueRepository interface
type MockIssueRepository struct {
	mock.Mock
}

func (m *MockIssueRepository) ListIssues(ctx context.Context, postComm string, blockingOnly bool) ([]models.Issue, error) {
	args := m.Called(ctx, postComm, blockingOnly)
	return args.Get(0).([]models.Issue), args.Error(1)
}

func (m *MockIssueRepository) SummarizeIssues(ctx context.Context) ([]models.IssueCount, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.IssueCount), args.Error(1)
}

func TestIssueService_List(t *testing.T) {
	issues := []models.Issue{
		{AddressID: 1, Description: "`name` must not be null."},
	}

	t.Run("passes filters through", func(t *testing.T) {
		repo := new(MockIssueRepository)
		repo.On("ListIssues", mock.Anything, "TILLAMOOK", true).Return(issues, nil)

		svc := NewIssueService(repo)
		got, err := svc.List(context.Background(), "TILLAMOOK", true)

		require.NoError(t, err)
		assert.Equal(t, issues, got)
		repo.AssertExpectations(t)
	})

	t.Run("wraps repository errors", func(t *testing.T) {
		repo := new(MockIssueRepository)
		repo.On("ListIssues", mock.Anything, "", false).Return([]models.Issue(nil), assert.AnError)

		svc := NewIssueService(repo)
		_, err := svc.List(context.Background(), "", false)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "service: failed to list issues")
	})
}

func TestIssueService_Summary(t *testing.T) {
	counts := []models.IssueCount{
		{Description: "`zip` must not be null.", OKToPublish: true, Count: 7},
	}

	repo := new(MockIssueRepository)
	repo.On("SummarizeIssues", mock.Anything).Return(counts, nil)

	svc := NewIssueService(repo)
	got, err := svc.Summary(context.Background())

	require.NoError(t, err)
	assert.Equal(t, counts, got)
	repo.AssertExpectations(t)
}
