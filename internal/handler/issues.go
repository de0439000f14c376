package handler

import (
	"context"
	"net/http"

	"address-etl/internal/models"

	"github.com/gin-gonic/gin"
)

// IssueHandler handles QC report requests
type IssueHandler struct {
	service IssueService
}

// Service interface for dependency injection
type IssueService interface {
	List(ctx context.Context, postComm string, blockingOnly bool) ([]models.Issue, error)
	Summary(ctx context.Context) ([]models.IssueCount, error)
}

// NewIssueHandler creates a new issue handler
func NewIssueHandler(svc IssueService) *IssueHandler {
	return &IssueHandler{service: svc}
}

// List handles GET /issues requests
func (h *IssueHandler) List(c *gin.Context) {
	postComm := c.Query("postcomm")
	blockingOnly := c.Query("blocking") == "true"

	issues, err := h.service.List(c.Request.Context(), postComm, blockingOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, issues)
}

// Summary handles GET /issues/summary requests
func (h *IssueHandler) Summary(c *gin.Context) {
	counts, err := h.service.Summary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, counts)
}
