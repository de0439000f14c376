package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"address-etl/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockIssueService is a mock implementation of the IssueService interface
type MockIssueService struct {
	mock.Mock
}

func (m *MockIssueService) List(ctx context.Context, postComm string, blockingOnly bool) ([]models.Issue, error) {
	args := m.Called(ctx, postComm, blockingOnly)
	return args.Get(0).([]models.Issue), args.Error(1)
}

func (m *MockIssueService) Summary(ctx context.Context) ([]models.IssueCount, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.IssueCount), args.Error(1)
}

func TestIssueHandler_List(t *testing.T) {
	gin.SetMode(gin.TestMode)

	sample := []models.Issue{
		{
			AddressID:     42,
			Address:       "100 N MAIN ST",
			PostComm:      "TILLAMOOK",
			Description:   "`zip` must not be null.",
			OKToPublish:   true,
			MaintInitDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	tests := []struct {
		name           string
		postComm       string
		blocking       string
		mockIssues     []models.Issue
		mockError      error
		expectedStatus int
	}{
		{
			name:           "unfiltered list",
			mockIssues:     sample,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "community and blocking filters",
			postComm:       "TILLAMOOK",
			blocking:       "true",
			mockIssues:     sample,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "service error",
			mockIssues:     nil,
			mockError:      assert.AnError,
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(MockIssueService)
			handler := NewIssueHandler(mockSvc)

			mockSvc.On("List", mock.Anything, tt.postComm, tt.blocking == "true").
				Return(tt.mockIssues, tt.mockError)

			req := httptest.NewRequest(http.MethodGet, "/issues", nil)
			q := req.URL.Query()
			if tt.postComm != "" {
				q.Add("postcomm", tt.postComm)
			}
			if tt.blocking != "" {
				q.Add("blocking", tt.blocking)
			}
			req.URL.RawQuery = q.Encode()
			w := httptest.NewRecorder()

			c, _ := gin.CreateTestContext(w)
			c.Request = req

			handler.List(c)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusOK {
				var got []models.Issue
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, tt.mockIssues, got)
			}
			mockSvc.AssertExpectations(t)
		})
	}
}

func TestIssueHandler_Summary(t *testing.T) {
	gin.SetMode(gin.TestMode)

	counts := []models.IssueCount{
		{Description: "`zip` must not be null.", OKToPublish: true, Count: 12},
		{Description: "`name` must not be null.", OKToPublish: false, Count: 3},
	}

	t.Run("success", func(t *testing.T) {
		mockSvc := new(MockIssueService)
		handler := NewIssueHandler(mockSvc)
		mockSvc.On("Summary", mock.Anything).Return(counts, nil)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/issues/summary", nil)

		handler.Summary(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var got []models.IssueCount
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, counts, got)
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc := new(MockIssueService)
		handler := NewIssueHandler(mockSvc)
		mockSvc.On("Summary", mock.Anything).Return([]models.IssueCount(nil), assert.AnError)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/issues/summary", nil)

		handler.Summary(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		mockSvc.AssertExpectations(t)
	})
}
