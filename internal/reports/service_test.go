package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"employee-portal/employee-portal-backend/internal/employees"
	"employee-portal/employee-portal-backend/internal/reports/delivery"
	"employee-portal/employee-portal-backend/internal/reports/events"
	"employee-portal/employee-portal-backend/pkg/storage"
)

type MockSource struct {
	mock.Mock
}

func (m *MockSource) FindAll(ctx context.Context) ([]employees.Employee, error) {
	args := m.Called(ctx)
	return args.Get(0).([]employees.Employee), args.Error(1)
}

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateRun(ctx context.Context, run *ReportRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRepository) ListRuns(ctx context.Context, limit int) ([]ReportRun, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]ReportRun), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg *delivery.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, bucket, key, contentType string, body io.Reader) error {
	args := m.Called(ctx, bucket, key, contentType, body)
	return args.Error(0)
}

type MockIndex struct {
	mock.Mock
}

func (m *MockIndex) Put(ctx context.Context, entry storage.ArchiveEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockIndex) List(ctx context.Context, limit int) ([]storage.ArchiveEntry, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]storage.ArchiveEntry), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, subject, text string) error {
	args := m.Called(ctx, subject, text)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(msg events.Message) error {
	args := m.Called(msg)
	return args.Error(0)
}

var fixedNow = time.Date(2024, 5, 6, 7, 8, 0, 0, time.UTC)
var fixedID = uuid.MustParse("00000000-0000-4000-8000-0000000000aa")

func staff(n int) []employees.Employee {
	list := make([]employees.Employee, n)
	for i := range list {
		list[i] = employees.Employee{
			ID:           i + 1,
			Name:         "Employee With A Rather Long Display Name",
			Age:          30,
			Salary:       50000.5,
			Designation:  "Engineer",
			Platform:     "Go",
			Sector:       "IT",
			MobileNumber: 9876543210,
			Email:        "someone@example.com",
			DepartmentID: 20,
			DeptName:     "Platform Engineering",
		}
	}
	return list
}

func newTestService(list []employees.Employee, repo Repository, mailer delivery.Mailer, opts Options) *Service {
	src := new(MockSource)
	src.On("FindAll", mock.Anything).Return(list, nil)
	svc := NewService(src, repo, mailer, opts, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	svc.newID = func() uuid.UUID { return fixedID }
	return svc
}

func TestEmployeesPDF(t *testing.T) {
	svc := newTestService(staff(100), nil, nil, DefaultOptions())

	report, err := svc.EmployeesPDF(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "employees.pdf", report.Filename)
	assert.Equal(t, "application/pdf", report.ContentType)
	assert.Equal(t, 100, report.Rows)
	assert.Greater(t, report.Pages, 1)
	assert.True(t, bytes.HasPrefix(report.Data, []byte("%PDF-")))
	assert.Empty(t, report.ArchiveKey)
}

func TestEmployeesPDF_Empty(t *testing.T) {
	svc := newTestService([]employees.Employee{}, nil, nil, DefaultOptions())

	report, err := svc.EmployeesPDF(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Rows)
	assert.Equal(t, 1, report.Pages)
}

func TestEmployeesExcel(t *testing.T) {
	svc := newTestService(staff(3), nil, nil, DefaultOptions())

	report, err := svc.EmployeesExcel(context.Background())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(report.Data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Employees")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, tableLabels, rows[0])
	assert.Equal(t, "Platform Engineering", rows[1][2])
}

func TestEmployeesCSV(t *testing.T) {
	svc := newTestService(staff(2), nil, nil, DefaultOptions())

	report, err := svc.EmployeesCSV(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "text/csv", report.ContentType)

	rows, err := csv.NewReader(bytes.NewReader(report.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"1", "Employee With A Rather Long Display Name", "Platform Engineering", "50000.50", "30", "Engineer", "IT", "someone@example.com", "20", "Go"}, rows[1])
}

func TestGenerate_UnsupportedFormat(t *testing.T) {
	svc := newTestService(staff(1), nil, nil, DefaultOptions())

	_, err := svc.Generate(context.Background(), ExportFormat("docx"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestGenerate_SourceError(t *testing.T) {
	src := new(MockSource)
	src.On("FindAll", mock.Anything).Return([]employees.Employee(nil), errors.New("db down"))
	repo := new(MockRepository)
	repo.On("CreateRun", mock.Anything, mock.MatchedBy(func(r *ReportRun) bool {
		return r.Status == ExecutionStatusFailed && strings.Contains(r.ErrorMessage, "db down")
	})).Return(nil).Once()

	svc := NewService(src, repo, nil, DefaultOptions(), zap.NewNop())
	_, err := svc.EmployeesPDF(context.Background())
	assert.Error(t, err)
	repo.AssertExpectations(t)
}

func TestGenerate_RecordsRun(t *testing.T) {
	repo := new(MockRepository)
	repo.On("CreateRun", mock.Anything, mock.MatchedBy(func(r *ReportRun) bool {
		return r.ID == fixedID &&
			r.Format == ExportFormatCSV &&
			r.Method == DeliveryMethodDownload &&
			r.Status == ExecutionStatusCompleted &&
			r.RecordCount == 2
	})).Return(nil).Once()

	svc := newTestService(staff(2), repo, nil, DefaultOptions())
	_, err := svc.EmployeesCSV(context.Background())
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestGenerate_PublishesRun(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Publish", mock.MatchedBy(func(msg events.Message) bool {
		run, ok := msg.Data.(*ReportRun)
		return ok && msg.Type == events.MessageTypeReportRun && run.Format == ExportFormatExcel
	})).Return(events.ErrBufferFull).Once()

	svc := newTestService(staff(1), nil, nil, DefaultOptions()).WithEvents(pub)
	_, err := svc.EmployeesExcel(context.Background())
	require.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestGenerate_Archives(t *testing.T) {
	opts := DefaultOptions()
	opts.ArchiveBucket = "hr-reports"
	wantKey := "reports/2024/05/06/00000000-0000-4000-8000-0000000000aa-employees.pdf"

	up := new(MockUploader)
	up.On("Upload", mock.Anything, "hr-reports", wantKey, "application/pdf", mock.Anything).Return(nil).Once()
	idx := new(MockIndex)
	idx.On("Put", mock.Anything, mock.MatchedBy(func(e storage.ArchiveEntry) bool {
		return e.Key == wantKey && e.Bucket == "hr-reports" && e.Format == "pdf" && e.Rows == 5
	})).Return(nil).Once()

	svc := newTestService(staff(5), nil, nil, opts).WithArchive(up, idx)
	report, err := svc.EmployeesPDF(context.Background())
	require.NoError(t, err)
	assert.Equal(t, wantKey, report.ArchiveKey)

	up.AssertExpectations(t)
	idx.AssertExpectations(t)
}

func TestGenerate_ArchiveFailureDoesNotFailReport(t *testing.T) {
	opts := DefaultOptions()
	opts.ArchiveBucket = "hr-reports"

	up := new(MockUploader)
	up.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("denied"))
	idx := new(MockIndex)

	svc := newTestService(staff(1), nil, nil, opts).WithArchive(up, idx)
	report, err := svc.EmployeesCSV(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.ArchiveKey)
	idx.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestEmailEmployeesPDF(t *testing.T) {
	mailer := new(MockMailer)
	mailer.On("Send", mock.Anything, mock.MatchedBy(func(m *delivery.Message) bool {
		return len(m.To) == 1 &&
			m.Subject == defaultEmailSubject &&
			len(m.Attachments) == 1 &&
			m.Attachments[0].Name == "employees.pdf" &&
			bytes.HasPrefix(m.Attachments[0].Data, []byte("%PDF-"))
	})).Return(nil).Once()

	repo := new(MockRepository)
	repo.On("CreateRun", mock.Anything, mock.MatchedBy(func(r *ReportRun) bool {
		return r.Method == DeliveryMethodEmail &&
			r.Status == ExecutionStatusCompleted &&
			string(r.Recipients) == `["hr@example.com"]`
	})).Return(nil).Once()

	notifier := new(MockNotifier)
	notifier.On("Notify", mock.Anything, defaultEmailSubject, mock.AnythingOfType("string")).Return(nil).Once()

	svc := newTestService(staff(4), repo, mailer, DefaultOptions()).WithNotifier(notifier)
	report, err := svc.EmailEmployeesPDF(context.Background(), EmailRequest{To: []string{"hr@example.com"}})
	require.NoError(t, err)
	assert.Equal(t, 4, report.Rows)

	mailer.AssertExpectations(t)
	repo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestEmailEmployeesPDF_SendFailure(t *testing.T) {
	mailer := new(MockMailer)
	mailer.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	repo := new(MockRepository)
	repo.On("CreateRun", mock.Anything, mock.MatchedBy(func(r *ReportRun) bool {
		return r.Status == ExecutionStatusFailed && r.ErrorMessage == "smtp down"
	})).Return(nil).Once()

	svc := newTestService(staff(1), repo, mailer, DefaultOptions())
	_, err := svc.EmailEmployeesPDF(context.Background(), EmailRequest{To: []string{"hr@example.com"}})
	assert.Error(t, err)
	repo.AssertExpectations(t)
}

func TestEmailEmployeesPDF_NoMailer(t *testing.T) {
	svc := newTestService(staff(1), nil, nil, DefaultOptions())

	_, err := svc.EmailEmployeesPDF(context.Background(), EmailRequest{To: []string{"hr@example.com"}})
	assert.ErrorIs(t, err, ErrMailerNotConfigured)
}

func TestListRunsAndArchive_Unconfigured(t *testing.T) {
	svc := newTestService(nil, nil, nil, DefaultOptions())

	runs, err := svc.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)

	entries, err := svc.ListArchive(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
