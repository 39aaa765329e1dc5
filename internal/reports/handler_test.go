package reports

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc, zap.NewNop()).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestHandler_ExportPDF(t *testing.T) {
	r := setupRouter(newTestService(staff(3), nil, nil, DefaultOptions()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/reports/employees/pdf", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="employees.pdf"`, w.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
}

func TestHandler_ExportCSV(t *testing.T) {
	r := setupRouter(newTestService(staff(1), nil, nil, DefaultOptions()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/reports/employees/csv", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ID,Name,Dept")
}

func TestHandler_EmailValidation(t *testing.T) {
	r := setupRouter(newTestService(staff(1), nil, new(MockMailer), DefaultOptions()))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/employees/email", bytes.NewBufferString(`{"to":["not-an-email"]}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_EmailAccepted(t *testing.T) {
	mailer := new(MockMailer)
	mailer.On("Send", mock.Anything, mock.Anything).Return(nil)
	r := setupRouter(newTestService(staff(2), nil, mailer, DefaultOptions()))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/employees/email",
		bytes.NewBufferString(`{"to":["hr@example.com"],"subject":"Staff"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "employees.pdf", body["filename"])
	assert.EqualValues(t, 2, body["rows"])
}

func TestHandler_EmailWithoutMailer(t *testing.T) {
	r := setupRouter(newTestService(staff(1), nil, nil, DefaultOptions()))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/employees/email", bytes.NewBufferString(`{"to":["hr@example.com"]}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandler_ListRuns(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ListRuns", mock.Anything, 5).Return([]ReportRun{{Format: ExportFormatPDF}}, nil)
	r := setupRouter(newTestService(nil, repo, nil, DefaultOptions()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/reports/runs?limit=5", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"format":"pdf"`)
	repo.AssertExpectations(t)
}
