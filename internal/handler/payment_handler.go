package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/college-admin-api/internal/models"
	"github.com/campuskit/college-admin-api/internal/service"
	appErrors "github.com/campuskit/college-admin-api/pkg/errors"
	"github.com/campuskit/college-admin-api/pkg/export"
	"github.com/campuskit/college-admin-api/pkg/response"
)

// PaymentHandler exposes counter payments and the ledger.
type PaymentHandler struct {
	service   *service.PaymentService
	documents *service.DocumentService
	metrics   *service.MetricsService
	exporter  *export.CSVExporter
}

// NewPaymentHandler creates a new handler.
func NewPaymentHandler(svc *service.PaymentService, documents *service.DocumentService, metrics *service.MetricsService) *PaymentHandler {
	return &PaymentHandler{service: svc, documents: documents, metrics: metrics, exporter: export.NewCSVExporter()}
}

// RecordCounterPayment applies a cashier payment against an enrollment.
func (h *PaymentHandler) RecordCounterPayment(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CounterPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payment payload"))
		return
	}

	result, err := h.service.RecordCounterPayment(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordPayment(req.AmountPaid)

	if result.DocumentsProcessing && h.documents != nil {
		h.documents.EnqueueRendersForEnrollment(c.Request.Context(), req.EnrollmentID)
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// ListLedger returns ledger rows, optionally exported as CSV.
func (h *PaymentHandler) ListLedger(c *gin.Context) {
	filter := models.PaymentFilter{
		EnrollmentID: c.Query("enrollment_id"),
		StudentID:    c.Query("student_id"),
		Page:         queryInt(c, "page", 1),
		PageSize:     queryInt(c, "page_size", 20),
	}
	if from, err := time.Parse("2006-01-02", c.Query("from")); err == nil {
		filter.From = &from
	}
	if to, err := time.Parse("2006-01-02", c.Query("to")); err == nil {
		filter.To = &to
	}

	transactions, total, err := h.service.ListLedger(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	if c.Query("format") == "csv" {
		h.writeLedgerCSV(c, transactions)
		return
	}

	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	response.JSON(c, http.StatusOK, transactions, pagination)
}

func (h *PaymentHandler) writeLedgerCSV(c *gin.Context, transactions []models.PaymentTransaction) {
	data := export.Dataset{Headers: []string{"Reference", "Enrollment", "Student", "Amount", "Method", "Status", "Date"}}
	for _, txn := range transactions {
		data.Rows = append(data.Rows, map[string]string{
			"Reference":  txn.ReferenceNumber,
			"Enrollment": txn.EnrollmentID,
			"Student":    txn.StudentID,
			"Amount":     strconv.FormatFloat(txn.Amount, 'f', 2, 64),
			"Method":     txn.Method,
			"Status":     string(txn.StatusSnapshot),
			"Date":       txn.CreatedAt.UTC().Format("2006-01-02 15:04"),
		})
	}
	payload, err := h.exporter.Render(data)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export ledger"))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="ledger.csv"`)
	c.Data(http.StatusOK, "text/csv", payload)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
