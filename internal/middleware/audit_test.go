package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/campuskit/college-admin-api/internal/repository"
)

func newAuditMock(t *testing.T) (*repository.AuditRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return repository.NewAuditRepository(sqlx.NewDb(db, "sqlmock")), mock, func() { db.Close() }
}

func TestAuditWarnsOnFailedWrite(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo, mock, cleanup := newAuditMock(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnError(errors.New("connection reset"))

	core, logs := observer.New(zap.WarnLevel)
	r := gin.New()
	r.POST("/things", Audit(repo, zap.New(core), "create", "thing"), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/things", nil))

	assert.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "failed to write audit log", entry.Message)
	assert.Equal(t, "create", entry.ContextMap()["action"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditSkipsFailedRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo, mock, cleanup := newAuditMock(t)
	defer cleanup()

	r := gin.New()
	r.POST("/things", Audit(repo, zap.NewNop(), "create", "thing"), func(c *gin.Context) {
		c.Status(http.StatusBadRequest)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/things", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
