package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"employee-portal/employee-portal-backend/internal/reports/layout"
)

// CSVExporter exports records to CSV format
type CSVExporter struct {
	writer  *csv.Writer
	options CSVOptions
}

// CSVOptions configures CSV export behavior
type CSVOptions struct {
	Delimiter     rune `json:"delimiter"`      // Field delimiter (default: comma)
	UseCRLF       bool `json:"use_crlf"`       // Use \r\n for line terminator
	IncludeHeader bool `json:"include_header"` // Include column headers
}

// DefaultCSVOptions returns default CSV export options
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Delimiter:     ',',
		IncludeHeader: true,
	}
}

// NewCSVExporter creates a new CSV exporter
func NewCSVExporter(w io.Writer, options CSVOptions) *CSVExporter {
	writer := csv.NewWriter(w)
	if options.Delimiter != 0 {
		writer.Comma = options.Delimiter
	}
	writer.UseCRLF = options.UseCRLF

	return &CSVExporter{
		writer:  writer,
		options: options,
	}
}

// Write writes the header (if enabled) and every record, then flushes.
func (e *CSVExporter) Write(labels []string, records []layout.Record) error {
	if e.options.IncludeHeader {
		if err := e.writer.Write(labels); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, rec := range records {
		if len(rec) != len(labels) {
			return &layout.RecordShapeError{Index: i, Fields: len(rec), Want: len(labels)}
		}
		if err := e.writer.Write(rec.Texts()); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	e.writer.Flush()
	return e.writer.Error()
}
