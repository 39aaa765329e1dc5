package employees

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

func setupRouter(repo *MockRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(NewService(repo, zap.NewNop()), zap.NewNop())
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func perform(r *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_SumSalaries(t *testing.T) {
	repo := new(MockRepository)
	repo.On("FindAll", mock.Anything).Return(fixture(), nil)
	r := setupRouter(repo)

	w := perform(r, http.MethodGet, "/api/v1/employees/salaries/sum", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]float64
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.InDelta(t, 600.75, body["sum"], 1e-9)
}

func TestHandler_GetEmployeeNotFound(t *testing.T) {
	repo := new(MockRepository)
	repo.On("FindByID", mock.Anything, 99).Return(nil, nil)
	r := setupRouter(repo)

	w := perform(r, http.MethodGet, "/api/v1/employees/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "no data available")
}

func TestHandler_GetEmployeeBadID(t *testing.T) {
	r := setupRouter(new(MockRepository))

	w := perform(r, http.MethodGet, "/api/v1/employees/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_SaveEmployee(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*employees.Employee")).
		Return(&Employee{ID: 9, Name: "Lakshmi", Salary: 42}, nil)
	r := setupRouter(repo)

	w := perform(r, http.MethodPost, "/api/v1/employees", []byte(`{"emp_id":9,"emp_name":"Lakshmi","salary":42}`))
	require.Equal(t, http.StatusCreated, w.Code)

	var dto EmployeeDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dto))
	assert.Equal(t, "Lakshmi", dto.Name)
	repo.AssertExpectations(t)
}

func TestHandler_SaveEmployeeValidation(t *testing.T) {
	r := setupRouter(new(MockRepository))

	w := perform(r, http.MethodPost, "/api/v1/employees", []byte(`{"emp_id":9,"email":"nope"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_SkipLimitDefaults(t *testing.T) {
	repo := new(MockRepository)
	repo.On("FindAll", mock.Anything).Return(fixture(), nil)
	r := setupRouter(repo)

	w := perform(r, http.MethodGet, "/api/v1/employees/page", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []EmployeeDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 4)
	assert.Equal(t, 3, list[0].ID)
}

func TestHandler_IndexRangeOutOfBounds(t *testing.T) {
	repo := new(MockRepository)
	repo.On("FindAll", mock.Anything).Return(fixture(), nil)
	r := setupRouter(repo)

	w := perform(r, http.MethodGet, "/api/v1/employees/range?from=2&to=10", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_GroupBySalaryUsesStringKeys(t *testing.T) {
	repo := new(MockRepository)
	repo.On("FindAll", mock.Anything).Return(fixture(), nil)
	r := setupRouter(repo)

	w := perform(r, http.MethodGet, "/api/v1/employees/grouped/salary", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var groups map[string][]EmployeeDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &groups))
	assert.Len(t, groups["100.00"], 2)
}

func TestHandler_RotateLeftDefault(t *testing.T) {
	r := setupRouter(new(MockRepository))

	w := perform(r, http.MethodGet, "/api/v1/employees/strings/rotate-left", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"result":"nivasaraosree"}`, w.Body.String())
}

func TestHandler_RepositoryFailureIs500(t *testing.T) {
	repo := new(MockRepository)
	repo.On("FindAll", mock.Anything).Return([]Employee(nil), assert.AnError)
	r := setupRouter(repo)

	w := perform(r, http.MethodGet, "/api/v1/employees/count", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
