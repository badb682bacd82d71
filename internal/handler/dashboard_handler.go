package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/college-admin-api/internal/service"
	"github.com/campuskit/college-admin-api/pkg/response"
)

// DashboardHandler exposes reporting summaries.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Summary returns the enrollment and collections overview for a term.
func (h *DashboardHandler) Summary(c *gin.Context) {
	var from, to time.Time
	if parsed, err := time.Parse("2006-01-02", c.Query("from")); err == nil {
		from = parsed
	}
	if parsed, err := time.Parse("2006-01-02", c.Query("to")); err == nil {
		to = parsed
	}

	summary, err := h.service.Summary(c.Request.Context(), c.Query("term_id"), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summary, nil)
}
