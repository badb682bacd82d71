package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/college-admin-api/internal/service"
	appErrors "github.com/campuskit/college-admin-api/pkg/errors"
	"github.com/campuskit/college-admin-api/pkg/response"
)

// ApprovalHandler exposes the grade approval chain.
type ApprovalHandler struct {
	service *service.ApprovalService
	metrics *service.MetricsService
}

// NewApprovalHandler creates a new handler.
func NewApprovalHandler(svc *service.ApprovalService, metrics *service.MetricsService) *ApprovalHandler {
	return &ApprovalHandler{service: svc, metrics: metrics}
}

// ApproveClassGrades applies one approval action to a course or assignment
// scope and reports how many grade rows moved.
func (h *ApprovalHandler) ApproveClassGrades(c *gin.Context) {
	var req service.ApproveClassGradesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid approval payload"))
		return
	}

	result, err := h.service.ApproveClassGrades(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordApproval(string(result.Action))

	response.JSON(c, http.StatusOK, gin.H{
		"success": true,
		"action":  result.Action,
		"updated": result.Updated,
	}, nil)
}
