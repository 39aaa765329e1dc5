package reports

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"employee-portal/employee-portal-backend/internal/employees"
	"employee-portal/employee-portal-backend/internal/reports/layout"
)

// ErrUnsupportedFormat is returned for an unknown export format
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ErrMailerNotConfigured is returned by email delivery without a mail transport
var ErrMailerNotConfigured = errors.New("mail delivery is not configured")

// ExportFormat represents supported export formats
type ExportFormat string

const (
	ExportFormatCSV   ExportFormat = "csv"
	ExportFormatExcel ExportFormat = "excel"
	ExportFormatPDF   ExportFormat = "pdf"
)

// Filename returns the download name for the employees report
func (f ExportFormat) Filename() string {
	switch f {
	case ExportFormatExcel:
		return "employees.xlsx"
	case ExportFormatCSV:
		return "employees.csv"
	default:
		return "employees.pdf"
	}
}

// ContentType returns the MIME type of the format
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportFormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ExportFormatCSV:
		return "text/csv"
	default:
		return "application/pdf"
	}
}

// DeliveryMethod represents how a run left the service
type DeliveryMethod string

const (
	DeliveryMethodDownload DeliveryMethod = "download"
	DeliveryMethodEmail    DeliveryMethod = "email"
	DeliveryMethodSchedule DeliveryMethod = "schedule"
)

// ExecutionStatus represents the status of a report run
type ExecutionStatus string

const (
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// Report is a rendered employees report
type Report struct {
	Format      ExportFormat
	Filename    string
	ContentType string
	Data        []byte
	Rows        int
	Pages       int
	GeneratedAt time.Time
	ArchiveKey  string
}

// ReportRun records a single report generation
type ReportRun struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Format        ExportFormat    `gorm:"not null" json:"format"`
	Method        DeliveryMethod  `gorm:"not null" json:"method"`
	Status        ExecutionStatus `gorm:"not null;index" json:"status"`
	RecordCount   int             `json:"record_count"`
	PageCount     int             `json:"page_count"`
	FileSizeBytes int64           `json:"file_size_bytes"`
	ArchiveKey    string          `json:"archive_key,omitempty"`
	Recipients    datatypes.JSON  `gorm:"type:jsonb" json:"recipients,omitempty"`
	ErrorMessage  string          `json:"error_message,omitempty"`
	DurationMs    int64           `json:"duration_ms"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
}

// TableName pins the table name used by gorm
func (ReportRun) TableName() string {
	return "report_runs"
}

// EmailRequest is the body of POST /reports/employees/email
type EmailRequest struct {
	To      []string `json:"to" binding:"required,min=1,dive,email"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// pdfColumns is the fixed column set of the PDF report, widths in points.
var pdfColumns = []layout.Column{
	{Label: "ID", Width: 36},
	{Label: "Name", Width: 110},
	{Label: "Age", Width: 32},
	{Label: "Salary", Width: 60},
	{Label: "Designation", Width: 80},
	{Label: "Platform", Width: 80},
	{Label: "Sector", Width: 70},
	{Label: "Mobile", Width: 70},
	{Label: "Email", Width: 140},
	{Label: "DeptId", Width: 44},
	{Label: "DeptName", Width: 88},
}

// tableLabels is the column set of the Excel and CSV exports
var tableLabels = []string{
	"ID", "Name", "Dept", "Salary", "Age", "Designation", "Sector", "Email", "DepartmentId", "Platform",
}

func pdfRecord(e employees.Employee) layout.Record {
	return layout.Record{
		layout.Int(int64(e.ID)),
		layout.String(e.Name),
		layout.Int(int64(e.Age)),
		layout.Decimal(e.Salary),
		layout.String(e.Designation),
		layout.String(e.Platform),
		layout.String(e.Sector),
		layout.Int(e.MobileNumber),
		layout.String(e.Email),
		layout.Int(int64(e.DepartmentID)),
		layout.String(e.DeptName),
	}
}

func tableRecord(e employees.Employee) layout.Record {
	return layout.Record{
		layout.Int(int64(e.ID)),
		layout.String(e.Name),
		layout.String(e.DeptName),
		layout.Decimal(e.Salary),
		layout.Int(int64(e.Age)),
		layout.String(e.Designation),
		layout.String(e.Sector),
		layout.String(e.Email),
		layout.Int(int64(e.DepartmentID)),
		layout.String(e.Platform),
	}
}

func toRecords(list []employees.Employee, mapper func(employees.Employee) layout.Record) []layout.Record {
	recs := make([]layout.Record, len(list))
	for i, e := range list {
		recs[i] = mapper(e)
	}
	return recs
}
