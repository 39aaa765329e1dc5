package reports

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"employee-portal/employee-portal-backend/internal/employees"
)

func TestRenderCache_Expiry(t *testing.T) {
	now := fixedNow
	cache := newRenderCache(time.Minute, func() time.Time { return now })

	require.True(t, cache.Set(&Report{Format: ExportFormatCSV, Rows: 3}, cache.Generation()))

	got, ok := cache.Get(ExportFormatCSV)
	require.True(t, ok)
	assert.Equal(t, 3, got.Rows)

	got.Rows = 99
	again, _ := cache.Get(ExportFormatCSV)
	assert.Equal(t, 3, again.Rows)

	now = now.Add(2 * time.Minute)
	_, ok = cache.Get(ExportFormatCSV)
	assert.False(t, ok)

	stats := cache.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 0, stats.Size)
}

func TestRenderCache_SetAfterClearIsDiscarded(t *testing.T) {
	cache := newRenderCache(time.Minute, time.Now)

	gen := cache.Generation()
	cache.Clear()

	assert.False(t, cache.Set(&Report{Format: ExportFormatPDF}, gen))
	_, ok := cache.Get(ExportFormatPDF)
	assert.False(t, ok)
}

// gatedSource holds the first FindAll until release is closed
type gatedSource struct {
	mu      sync.Mutex
	calls   int
	started chan struct{}
	release chan struct{}
}

func (g *gatedSource) FindAll(ctx context.Context) ([]employees.Employee, error) {
	g.mu.Lock()
	g.calls++
	first := g.calls == 1
	g.mu.Unlock()

	if first {
		close(g.started)
		<-g.release
		return []employees.Employee{{ID: 1, Name: "old"}}, nil
	}
	return []employees.Employee{{ID: 1, Name: "new"}}, nil
}

func TestGenerate_InvalidationDuringRender(t *testing.T) {
	src := &gatedSource{started: make(chan struct{}), release: make(chan struct{})}
	svc := NewService(src, nil, nil, DefaultOptions(), zap.NewNop()).WithCache(time.Minute)

	done := make(chan error, 1)
	go func() {
		_, err := svc.EmployeesCSV(context.Background())
		done <- err
	}()

	<-src.started
	svc.InvalidateCache()
	close(src.release)
	require.NoError(t, <-done)

	report, err := svc.EmployeesCSV(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(report.Data), "new")
	assert.NotContains(t, string(report.Data), "old")
}

func TestGenerate_ServedFromCache(t *testing.T) {
	src := new(MockSource)
	src.On("FindAll", mock.Anything).Return(staff(2), nil).Once()
	svc := NewService(src, nil, nil, DefaultOptions(), zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	svc.WithCache(time.Minute)

	first, err := svc.EmployeesCSV(context.Background())
	require.NoError(t, err)
	second, err := svc.EmployeesCSV(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Data, second.Data)
	src.AssertNumberOfCalls(t, "FindAll", 1)

	stats := svc.CacheStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, 1, stats.Size)
}

func TestGenerate_InvalidateCache(t *testing.T) {
	src := new(MockSource)
	src.On("FindAll", mock.Anything).Return(staff(1), nil)
	svc := NewService(src, nil, nil, DefaultOptions(), zap.NewNop()).WithCache(time.Minute)

	_, err := svc.EmployeesCSV(context.Background())
	require.NoError(t, err)
	svc.InvalidateCache()
	_, err = svc.EmployeesCSV(context.Background())
	require.NoError(t, err)

	src.AssertNumberOfCalls(t, "FindAll", 2)
}

func TestWithCache_Disabled(t *testing.T) {
	svc := newTestService(staff(1), nil, nil, DefaultOptions()).WithCache(0)

	_, err := svc.EmployeesCSV(context.Background())
	require.NoError(t, err)

	assert.Equal(t, CacheStats{}, svc.CacheStats())
	svc.InvalidateCache()
}

func TestHandler_ClearCache(t *testing.T) {
	svc := newTestService(staff(1), nil, nil, DefaultOptions()).WithCache(time.Minute)
	_, err := svc.EmployeesPDF(context.Background())
	require.NoError(t, err)
	r := setupRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/reports/cache", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"size":1`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/reports/cache", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, svc.CacheStats().Size)
}
