package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/college-admin-api/internal/repository"
	appErrors "github.com/campuskit/college-admin-api/pkg/errors"
	"github.com/campuskit/college-admin-api/pkg/response"
)

// AuditHandler exposes the audit trail to administrators.
type AuditHandler struct {
	audits *repository.AuditRepository
}

// NewAuditHandler creates a new handler.
func NewAuditHandler(audits *repository.AuditRepository) *AuditHandler {
	return &AuditHandler{audits: audits}
}

// ListRecent returns the newest audit entries.
func (h *AuditHandler) ListRecent(c *gin.Context) {
	entries, err := h.audits.ListRecent(c.Request.Context(), queryInt(c, "limit", 50))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit logs"))
		return
	}

	response.JSON(c, http.StatusOK, entries, nil)
}
