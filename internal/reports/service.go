package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"employee-portal/employee-portal-backend/internal/employees"
	"employee-portal/employee-portal-backend/internal/reports/delivery"
	"employee-portal/employee-portal-backend/internal/reports/events"
	"employee-portal/employee-portal-backend/internal/reports/export"
	"employee-portal/employee-portal-backend/pkg/storage"
)

const defaultEmailSubject = "Employees Report"

// EmployeeSource lists employees in stored order
type EmployeeSource interface {
	FindAll(ctx context.Context) ([]employees.Employee, error)
}

// Uploader stores archived report files
type Uploader interface {
	Upload(ctx context.Context, bucket, key, contentType string, body io.Reader) error
}

// ArchiveIndexer records archived report files
type ArchiveIndexer interface {
	Put(ctx context.Context, entry storage.ArchiveEntry) error
	List(ctx context.Context, limit int) ([]storage.ArchiveEntry, error)
}

// Notifier announces delivered reports
type Notifier interface {
	Notify(ctx context.Context, subject, text string) error
}

// Publisher streams report run events to live subscribers
type Publisher interface {
	Publish(msg events.Message) error
}

// Options configures report rendering and archiving
type Options struct {
	PDF           export.PDFOptions
	Excel         export.ExcelOptions
	CSV           export.CSVOptions
	ArchiveBucket string
	ArchivePrefix string
}

// DefaultOptions returns rendering defaults with archiving disabled
func DefaultOptions() Options {
	return Options{
		PDF:           export.DefaultPDFOptions(),
		Excel:         export.DefaultExcelOptions(),
		CSV:           export.DefaultCSVOptions(),
		ArchivePrefix: "reports",
	}
}

// Service renders, archives and delivers employee reports
type Service struct {
	source   EmployeeSource
	repo     Repository
	mailer   delivery.Mailer
	uploader Uploader
	index    ArchiveIndexer
	notifier Notifier
	events   Publisher
	cache    *renderCache
	options  Options
	now      func() time.Time
	newID    func() uuid.UUID
	logger   *zap.Logger
}

// NewService creates a new reports service. repo and mailer may be nil.
func NewService(source EmployeeSource, repo Repository, mailer delivery.Mailer, options Options, logger *zap.Logger) *Service {
	return &Service{
		source:  source,
		repo:    repo,
		mailer:  mailer,
		options: options,
		now:     time.Now,
		newID:   uuid.New,
		logger:  logger,
	}
}

// WithArchive enables upload of every generated report. index may be nil.
func (s *Service) WithArchive(uploader Uploader, index ArchiveIndexer) *Service {
	s.uploader = uploader
	s.index = index
	return s
}

// WithNotifier announces emailed reports through n
func (s *Service) WithNotifier(n Notifier) *Service {
	s.notifier = n
	return s
}

// WithEvents publishes every recorded run through p
func (s *Service) WithEvents(p Publisher) *Service {
	s.events = p
	return s
}

// WithCache keeps rendered reports for ttl. A non-positive ttl disables
// caching.
func (s *Service) WithCache(ttl time.Duration) *Service {
	if ttl <= 0 {
		s.cache = nil
		return s
	}
	s.cache = newRenderCache(ttl, func() time.Time { return s.now() })
	return s
}

// InvalidateCache drops every cached report
func (s *Service) InvalidateCache() {
	if s.cache != nil {
		s.cache.Clear()
		s.logger.Debug("Report cache invalidated")
	}
}

// CacheStats returns render cache counters, zero when caching is disabled
func (s *Service) CacheStats() CacheStats {
	if s.cache == nil {
		return CacheStats{}
	}
	return s.cache.Stats()
}

// =====================================================
// Rendering
// =====================================================

// Generate renders the employees report in format and archives it when
// archiving is enabled.
func (s *Service) Generate(ctx context.Context, format ExportFormat) (*Report, error) {
	start := s.now()
	report, err := s.generate(ctx, format, DeliveryMethodDownload, nil)
	if err != nil {
		return nil, err
	}
	s.recordRun(ctx, s.runFor(report, DeliveryMethodDownload, ExecutionStatusCompleted, nil), start, nil)
	return report, nil
}

// EmployeesPDF renders the paginated PDF report
func (s *Service) EmployeesPDF(ctx context.Context) (*Report, error) {
	return s.Generate(ctx, ExportFormatPDF)
}

// EmployeesExcel renders the spreadsheet export
func (s *Service) EmployeesExcel(ctx context.Context) (*Report, error) {
	return s.Generate(ctx, ExportFormatExcel)
}

// EmployeesCSV renders the CSV export
func (s *Service) EmployeesCSV(ctx context.Context) (*Report, error) {
	return s.Generate(ctx, ExportFormatCSV)
}

func (s *Service) generate(ctx context.Context, format ExportFormat, method DeliveryMethod, recipients []string) (*Report, error) {
	start := s.now()

	var gen uint64
	if s.cache != nil {
		if report, ok := s.cache.Get(format); ok {
			s.logger.Debug("Report served from cache", zap.String("format", string(format)))
			return report, nil
		}
		gen = s.cache.Generation()
	}

	report, err := s.render(ctx, format, start)
	if err != nil {
		s.recordRun(ctx, &ReportRun{
			Format:       format,
			Method:       method,
			Status:       ExecutionStatusFailed,
			ErrorMessage: err.Error(),
		}, start, recipients)
		return nil, err
	}

	s.archive(ctx, report)
	if s.cache != nil && !s.cache.Set(report, gen) {
		s.logger.Debug("Discarded report rendered before invalidation", zap.String("format", string(format)))
	}

	s.logger.Info("Report generated",
		zap.String("format", string(format)),
		zap.Int("rows", report.Rows),
		zap.Int("pages", report.Pages),
		zap.Int("bytes", len(report.Data)))

	return report, nil
}

func (s *Service) render(ctx context.Context, format ExportFormat, at time.Time) (*Report, error) {
	list, err := s.source.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load employees: %w", err)
	}

	report := &Report{
		Format:      format,
		Filename:    format.Filename(),
		ContentType: format.ContentType(),
		Rows:        len(list),
		GeneratedAt: at,
	}

	switch format {
	case ExportFormatPDF:
		report.Data, report.Pages, err = s.renderPDF(list, at)
	case ExportFormatExcel:
		report.Data, err = s.renderExcel(list)
	case ExportFormatCSV:
		report.Data, err = s.renderCSV(list)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *Service) renderPDF(list []employees.Employee, at time.Time) ([]byte, int, error) {
	gen := export.NewPDFGenerator(s.options.PDF)
	if err := gen.GenerateReport(pdfColumns, toRecords(list, pdfRecord), at); err != nil {
		return nil, 0, fmt.Errorf("failed to render pdf: %w", err)
	}
	data, err := gen.OutputToBytes()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to write pdf: %w", err)
	}
	return data, gen.PageCount(), nil
}

func (s *Service) renderExcel(list []employees.Employee) ([]byte, error) {
	exp, err := export.NewExcelExporter(s.options.Excel)
	if err != nil {
		return nil, err
	}
	defer exp.Close()

	if err := exp.Write(tableLabels, toRecords(list, tableRecord)); err != nil {
		return nil, fmt.Errorf("failed to render excel: %w", err)
	}
	return exp.OutputToBytes()
}

func (s *Service) renderCSV(list []employees.Employee) ([]byte, error) {
	var buf bytes.Buffer
	if err := export.NewCSVExporter(&buf, s.options.CSV).Write(tableLabels, toRecords(list, tableRecord)); err != nil {
		return nil, fmt.Errorf("failed to render csv: %w", err)
	}
	return buf.Bytes(), nil
}

// =====================================================
// Delivery
// =====================================================

// EmailEmployeesPDF renders the PDF report and mails it as an attachment
func (s *Service) EmailEmployeesPDF(ctx context.Context, req EmailRequest) (*Report, error) {
	return s.email(ctx, req, DeliveryMethodEmail)
}

// DeliverScheduled is EmailEmployeesPDF recorded as a scheduled run
func (s *Service) DeliverScheduled(ctx context.Context, req EmailRequest) (*Report, error) {
	return s.email(ctx, req, DeliveryMethodSchedule)
}

func (s *Service) email(ctx context.Context, req EmailRequest, method DeliveryMethod) (*Report, error) {
	if s.mailer == nil {
		return nil, ErrMailerNotConfigured
	}

	start := s.now()
	report, err := s.generate(ctx, ExportFormatPDF, method, req.To)
	if err != nil {
		return nil, err
	}

	subject := req.Subject
	if subject == "" {
		subject = defaultEmailSubject
	}
	msg := &delivery.Message{
		To:       req.To,
		Subject:  subject,
		HTMLBody: req.Body,
		Attachments: []delivery.Attachment{{
			Name:        report.Filename,
			Data:        report.Data,
			ContentType: report.ContentType,
		}},
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		s.recordRun(ctx, s.runFor(report, method, ExecutionStatusFailed, err), start, req.To)
		return nil, fmt.Errorf("failed to email report: %w", err)
	}

	s.recordRun(ctx, s.runFor(report, method, ExecutionStatusCompleted, nil), start, req.To)

	if s.notifier != nil {
		text := fmt.Sprintf("%s (%d rows, %d pages) sent to %d recipient(s)", report.Filename, report.Rows, report.Pages, len(req.To))
		if err := s.notifier.Notify(ctx, subject, text); err != nil {
			s.logger.Warn("Failed to publish delivery notification", zap.Error(err))
		}
	}

	return report, nil
}

// =====================================================
// History and archive
// =====================================================

// ListRuns returns recent report runs, newest first
func (s *Service) ListRuns(ctx context.Context, limit int) ([]ReportRun, error) {
	if s.repo == nil {
		return []ReportRun{}, nil
	}
	return s.repo.ListRuns(ctx, limit)
}

// ListArchive returns recently archived reports, newest first
func (s *Service) ListArchive(ctx context.Context, limit int) ([]storage.ArchiveEntry, error) {
	if s.index == nil {
		return []storage.ArchiveEntry{}, nil
	}
	return s.index.List(ctx, limit)
}

// archive uploads report when a bucket is configured. Failures are logged
// and leave ArchiveKey empty.
func (s *Service) archive(ctx context.Context, report *Report) {
	if s.uploader == nil || s.options.ArchiveBucket == "" {
		return
	}

	key := storage.ObjectKey(s.options.ArchivePrefix, report.GeneratedAt, s.newID(), report.Filename)
	if err := s.uploader.Upload(ctx, s.options.ArchiveBucket, key, report.ContentType, bytes.NewReader(report.Data)); err != nil {
		s.logger.Warn("Failed to archive report", zap.Error(err), zap.String("key", key))
		return
	}
	report.ArchiveKey = key

	if s.index == nil {
		return
	}
	err := s.index.Put(ctx, storage.ArchiveEntry{
		Key:         key,
		Bucket:      s.options.ArchiveBucket,
		Filename:    report.Filename,
		Format:      string(report.Format),
		Rows:        report.Rows,
		SizeBytes:   len(report.Data),
		GeneratedAt: report.GeneratedAt,
	})
	if err != nil {
		s.logger.Warn("Failed to index archived report", zap.Error(err), zap.String("key", key))
	}
}

func (s *Service) runFor(report *Report, method DeliveryMethod, status ExecutionStatus, err error) *ReportRun {
	run := &ReportRun{
		Format:        report.Format,
		Method:        method,
		Status:        status,
		RecordCount:   report.Rows,
		PageCount:     report.Pages,
		FileSizeBytes: int64(len(report.Data)),
		ArchiveKey:    report.ArchiveKey,
	}
	if err != nil {
		run.ErrorMessage = err.Error()
	}
	return run
}

func (s *Service) recordRun(ctx context.Context, run *ReportRun, start time.Time, recipients []string) {
	run.ID = s.newID()
	run.CreatedAt = start
	run.DurationMs = s.now().Sub(start).Milliseconds()
	if len(recipients) > 0 {
		if data, err := json.Marshal(recipients); err == nil {
			run.Recipients = data
		}
	}

	if s.repo != nil {
		if err := s.repo.CreateRun(ctx, run); err != nil {
			s.logger.Warn("Failed to record report run", zap.Error(err))
		}
	}

	if s.events != nil {
		msg := events.Message{Type: events.MessageTypeReportRun, Data: run, Timestamp: s.now()}
		if err := s.events.Publish(msg); err != nil {
			s.logger.Warn("Failed to publish report run", zap.Error(err))
		}
	}
}
