package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campuskit/college-admin-api/internal/models"
	appErrors "github.com/campuskit/college-admin-api/pkg/errors"
	"github.com/campuskit/college-admin-api/pkg/export"
	"github.com/campuskit/college-admin-api/pkg/jobs"
	"github.com/campuskit/college-admin-api/pkg/storage"
)

// JobTypeRenderDocument names the background job that renders a request PDF.
const JobTypeRenderDocument = "render_document"

type documentRepo interface {
	CreateWithFee(ctx context.Context, request *models.DocumentRequest) error
	FindByID(ctx context.Context, id string) (*models.DocumentRequest, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.DocumentRequest, error)
	ListByStatus(ctx context.Context, status models.DocumentStatus) ([]models.DocumentRequestDetail, error)
	ListByEnrollmentAndStatus(ctx context.Context, enrollmentID string, status models.DocumentStatus) ([]models.DocumentRequest, error)
	UpdateStatus(ctx context.Context, id string, status models.DocumentStatus) error
	SetFile(ctx context.Context, id, filePath string) error
}

type documentGradeReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.GradeDetail, error)
}

type documentRenderer interface {
	Render(data export.DocumentData) ([]byte, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type renderMetrics interface {
	RecordDocumentRendered()
}

type documentStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// DocumentDownload bundles a rendered file handle for streaming.
type DocumentDownload struct {
	File      *os.File
	Filename  string
	SizeBytes int64
}

// documentPrices is the registrar's fee catalog keyed by document type.
var documentPrices = map[string]float64{
	"TOR":                 200,
	"COE":                 100,
	"GOOD_MORAL":          100,
	"HONORABLE_DISMISSAL": 150,
	"CERT_OF_GRADES":      100,
	"DIPLOMA_CERTIFIED":   250,
}

// documentTitles maps document types to their printed titles.
var documentTitles = map[string]string{
	"TOR":                 "Transcript of Records",
	"COE":                 "Certificate of Enrollment",
	"GOOD_MORAL":          "Certificate of Good Moral Character",
	"HONORABLE_DISMISSAL": "Certificate of Honorable Dismissal",
	"CERT_OF_GRADES":      "Certification of Grades",
	"DIPLOMA_CERTIFIED":   "Certified True Copy of Diploma",
}

// documentTransitions lists the allowed lifecycle moves for a request.
var documentTransitions = map[models.DocumentStatus][]models.DocumentStatus{
	models.DocumentStatusPending:    {models.DocumentStatusProcessing},
	models.DocumentStatusProcessing: {models.DocumentStatusReady},
	models.DocumentStatusReady:      {models.DocumentStatusReleased},
}

// RequestDocumentRequest is a student's request for a registrar document.
type RequestDocumentRequest struct {
	EnrollmentID string `json:"enrollment_id" validate:"required"`
	DocumentType string `json:"document_type" validate:"required"`
}

// DocumentService owns the document request lifecycle and PDF rendering.
type DocumentService struct {
	documents   documentRepo
	students    studentReader
	enrollments paymentEnrollmentReader
	grades      documentGradeReader
	renderer    documentRenderer
	queue       jobEnqueuer
	metrics     renderMetrics
	validator   *validator.Validate
	logger      *zap.Logger
	store       documentStore
	signer      *storage.SignedURLSigner
	apiPrefix   string
}

// NewDocumentService constructs a DocumentService. The queue and metrics may
// be nil in tests; enqueueing and counting are then skipped.
func NewDocumentService(documents documentRepo, students studentReader, enrollments paymentEnrollmentReader, grades documentGradeReader, renderer documentRenderer, queue jobEnqueuer, metrics renderMetrics, validate *validator.Validate, logger *zap.Logger, store documentStore, signer *storage.SignedURLSigner, apiPrefix string) *DocumentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		documents:   documents,
		students:    students,
		enrollments: enrollments,
		grades:      grades,
		renderer:    renderer,
		queue:       queue,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		store:       store,
		signer:      signer,
		apiPrefix:   apiPrefix,
	}
}

// Request files a document request for the calling student and folds the fee
// into the enrollment balance.
func (s *DocumentService) Request(ctx context.Context, req RequestDocumentRequest, userID string) (*models.DocumentRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid document request")
	}
	price, ok := documentPrices[req.DocumentType]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown document type %q", req.DocumentType))
	}

	student, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	enrollment, err := s.enrollments.FindByID(ctx, req.EnrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.StudentID != student.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "enrollment belongs to another student")
	}

	request := &models.DocumentRequest{
		StudentID:    student.ID,
		EnrollmentID: enrollment.ID,
		DocumentType: req.DocumentType,
		Price:        price,
		Status:       models.DocumentStatusPending,
	}
	if err := s.documents.CreateWithFee(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create document request")
	}

	s.logger.Info("document requested",
		zap.String("request_id", request.ID),
		zap.String("student_id", student.ID),
		zap.String("type", request.DocumentType),
		zap.Float64("price", price),
	)
	return request, nil
}

// ListForStudentUser returns the caller's document requests.
func (s *DocumentService) ListForStudentUser(ctx context.Context, userID string) ([]models.DocumentRequest, error) {
	student, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	requests, err := s.documents.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list document requests")
	}
	return requests, nil
}

// ListByStatus returns requests in one lifecycle status for registrar queues.
func (s *DocumentService) ListByStatus(ctx context.Context, status string) ([]models.DocumentRequestDetail, error) {
	requests, err := s.documents.ListByStatus(ctx, models.DocumentStatus(status))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list document requests")
	}
	return requests, nil
}

// UpdateStatus applies one lifecycle transition, rejecting moves not in the
// transition table.
func (s *DocumentService) UpdateStatus(ctx context.Context, id string, status string) (*models.DocumentRequest, error) {
	request, err := s.documents.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document request")
	}

	target := models.DocumentStatus(status)
	allowed := false
	for _, next := range documentTransitions[request.Status] {
		if next == target {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot move document request from %s to %s", request.Status, status))
	}

	if err := s.documents.UpdateStatus(ctx, id, target); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update document request")
	}
	request.Status = target

	if target == models.DocumentStatusProcessing {
		s.enqueueRender(request.ID)
	}
	return request, nil
}

// EnqueueRendersForEnrollment pushes render jobs for every request of an
// enrollment that just rolled to Processing. Called after a payment covers
// the pending document fees.
func (s *DocumentService) EnqueueRendersForEnrollment(ctx context.Context, enrollmentID string) {
	requests, err := s.documents.ListByEnrollmentAndStatus(ctx, enrollmentID, models.DocumentStatusProcessing)
	if err != nil {
		s.logger.Warn("failed to list processing document requests", zap.String("enrollment_id", enrollmentID), zap.Error(err))
		return
	}
	for _, request := range requests {
		if request.FilePath != nil {
			continue
		}
		s.enqueueRender(request.ID)
	}
}

// HandleRenderJob is the queue handler that renders one request into a PDF
// file and marks it ready for pickup.
func (s *DocumentService) HandleRenderJob(ctx context.Context, job jobs.Job) error {
	requestID, ok := job.Payload.(string)
	if !ok {
		s.logger.Error("render job carried unexpected payload", zap.String("job_id", job.ID))
		return nil
	}

	request, err := s.documents.FindByID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("load document request %s: %w", requestID, err)
	}
	if request.Status != models.DocumentStatusProcessing {
		return nil
	}

	student, err := s.students.FindByID(ctx, request.StudentID)
	if err != nil {
		return fmt.Errorf("load student %s: %w", request.StudentID, err)
	}

	data := export.DocumentData{
		Title:         documentTitles[request.DocumentType],
		StudentName:   student.FullName,
		StudentNumber: student.StudentNumber,
		BodyLines: []string{
			fmt.Sprintf("Issued on %s upon the request of the student named above.", time.Now().UTC().Format("January 2, 2006")),
		},
	}
	if request.DocumentType == "TOR" || request.DocumentType == "CERT_OF_GRADES" {
		table, err := s.gradeTable(ctx, student.ID)
		if err != nil {
			return err
		}
		data.Table = table
	}

	payload, err := s.renderer.Render(data)
	if err != nil {
		return fmt.Errorf("render document %s: %w", requestID, err)
	}

	filename := fmt.Sprintf("%s-%s.pdf", request.DocumentType, request.ID)
	if _, err := s.store.Save(filename, payload); err != nil {
		return fmt.Errorf("store document file: %w", err)
	}

	if err := s.documents.SetFile(ctx, request.ID, filename); err != nil {
		return fmt.Errorf("mark document ready: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordDocumentRendered()
	}

	s.logger.Info("document rendered",
		zap.String("request_id", request.ID),
		zap.String("type", request.DocumentType),
		zap.String("file", filename),
	)
	return nil
}

// DownloadLink generates a signed download URL for a rendered request.
func (s *DocumentService) DownloadLink(ctx context.Context, id string, claims *models.JWTClaims) (string, error) {
	if s.signer == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "download signer unavailable")
	}
	request, err := s.findForActor(ctx, id, claims)
	if err != nil {
		return "", err
	}
	if request.FilePath == nil {
		return "", appErrors.Clone(appErrors.ErrConflict, "document is not rendered yet")
	}
	token, _, err := s.signer.Generate(request.ID, *request.FilePath)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate download token")
	}
	base := strings.TrimRight(s.apiPrefix, "/")
	return fmt.Sprintf("%s/documents/%s/download?token=%s", base, request.ID, token), nil
}

// Download validates a signed token and opens the rendered file for streaming.
func (s *DocumentService) Download(ctx context.Context, id, token string, claims *models.JWTClaims) (*DocumentDownload, error) {
	if s.signer == nil || s.store == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "document storage unavailable")
	}
	request, err := s.findForActor(ctx, id, claims)
	if err != nil {
		return nil, err
	}
	if request.FilePath == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "document is not rendered yet")
	}
	requestID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired token")
	}
	if requestID != request.ID || relPath != *request.FilePath {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open document file")
	}
	info, err := file.Stat()
	if err != nil {
		file.Close() //nolint:errcheck
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read document metadata")
	}
	return &DocumentDownload{
		File:      file,
		Filename:  filepath.Base(relPath),
		SizeBytes: info.Size(),
	}, nil
}

// StartCleanup boots a goroutine that purges rendered files past retention.
func (s *DocumentService) StartCleanup(ctx context.Context, interval, retention time.Duration) {
	if s.store == nil || interval <= 0 || retention <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				deleted, err := s.store.CleanupOlderThan(retention)
				if err != nil {
					s.logger.Warn("document file cleanup failed", zap.Error(err))
					continue
				}
				if len(deleted) > 0 {
					s.logger.Info("purged expired document files", zap.Int("count", len(deleted)))
				}
			}
		}
	}()
}

// findForActor loads a request and enforces that students only reach their own.
func (s *DocumentService) findForActor(ctx context.Context, id string, claims *models.JWTClaims) (*models.DocumentRequest, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	request, err := s.documents.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document request")
	}
	if claims.Role == models.RoleStudent {
		student, err := s.students.FindByUserID(ctx, claims.UserID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "student record not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
		}
		if request.StudentID != student.ID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "document request belongs to another student")
		}
	}
	return request, nil
}

func (s *DocumentService) gradeTable(ctx context.Context, studentID string) (export.Dataset, error) {
	grades, err := s.grades.ListByStudent(ctx, studentID)
	if err != nil {
		return export.Dataset{}, fmt.Errorf("load grades for %s: %w", studentID, err)
	}
	table := export.Dataset{Headers: []string{"Course", "Title", "Final Grade"}}
	for _, grade := range grades {
		value := "-"
		if grade.ApprovalStatus == models.GradeStatusRegApproved && grade.FinalGrade != nil {
			value = fmt.Sprintf("%.2f", *grade.FinalGrade)
		}
		table.Rows = append(table.Rows, map[string]string{
			"Course":      grade.CourseCode,
			"Title":       grade.CourseTitle,
			"Final Grade": value,
		})
	}
	return table, nil
}

func (s *DocumentService) enqueueRender(requestID string) {
	if s.queue == nil {
		return
	}
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    JobTypeRenderDocument,
		Payload: requestID,
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue render job", zap.String("request_id", requestID), zap.Error(err))
	}
}
