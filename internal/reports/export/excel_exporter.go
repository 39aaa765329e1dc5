package export

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"employee-portal/employee-portal-backend/internal/reports/layout"
)

// ExcelExporter writes records to a single unbounded worksheet
type ExcelExporter struct {
	file    *excelize.File
	options ExcelOptions
}

// ExcelOptions configures Excel export behavior
type ExcelOptions struct {
	SheetName    string            `json:"sheet_name"`
	FreezeHeader bool              `json:"freeze_header"`
	AutoWidth    bool              `json:"auto_width"`
	MinWidth     float64           `json:"min_width"`
	MaxWidth     float64           `json:"max_width"`
	HeaderStyle  *ExcelStyleConfig `json:"header_style,omitempty"`
}

// ExcelStyleConfig defines style for cells
type ExcelStyleConfig struct {
	FontBold  bool   `json:"font_bold"`
	FillColor string `json:"fill_color"`
	Alignment string `json:"alignment"` // left, center, right
}

// DefaultExcelOptions returns default Excel export options
func DefaultExcelOptions() ExcelOptions {
	return ExcelOptions{
		SheetName:    "Employees",
		FreezeHeader: true,
		AutoWidth:    true,
		MinWidth:     8,
		MaxWidth:     50,
		HeaderStyle: &ExcelStyleConfig{
			FontBold:  true,
			FillColor: "D9D9D9",
			Alignment: "center",
		},
	}
}

// NewExcelExporter creates a new Excel exporter
func NewExcelExporter(options ExcelOptions) (*ExcelExporter, error) {
	file := excelize.NewFile()

	// Rename the default sheet
	if err := file.SetSheetName("Sheet1", options.SheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	return &ExcelExporter{
		file:    file,
		options: options,
	}, nil
}

// Write writes the header row followed by one row per record. Numeric
// fields stay numeric in the workbook.
func (e *ExcelExporter) Write(labels []string, records []layout.Record) error {
	sheet := e.options.SheetName
	widths := make([]int, len(labels))

	headerStyleID := 0
	if e.options.HeaderStyle != nil {
		id, err := e.createStyle(e.options.HeaderStyle)
		if err != nil {
			return fmt.Errorf("failed to create header style: %w", err)
		}
		headerStyleID = id
	}

	for i, label := range labels {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := e.file.SetCellValue(sheet, cell, label); err != nil {
			return fmt.Errorf("failed to set header cell: %w", err)
		}
		if headerStyleID > 0 {
			if err := e.file.SetCellStyle(sheet, cell, cell, headerStyleID); err != nil {
				return fmt.Errorf("failed to style header cell: %w", err)
			}
		}
		widths[i] = utf8.RuneCountInString(label)
	}

	for r, rec := range records {
		if len(rec) != len(labels) {
			return &layout.RecordShapeError{Index: r, Fields: len(rec), Want: len(labels)}
		}
		for c, v := range rec {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := e.file.SetCellValue(sheet, cell, v.Interface()); err != nil {
				return fmt.Errorf("failed to set cell value: %w", err)
			}
			if n := utf8.RuneCountInString(v.Text()); n > widths[c] {
				widths[c] = n
			}
		}
	}

	if e.options.FreezeHeader {
		err := e.file.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		})
		if err != nil {
			return fmt.Errorf("failed to freeze header: %w", err)
		}
	}

	if e.options.AutoWidth {
		for i, w := range widths {
			col, err := excelize.ColumnNumberToName(i + 1)
			if err != nil {
				return err
			}
			if err := e.file.SetColWidth(sheet, col, col, e.clampWidth(float64(w)*1.2+2)); err != nil {
				return fmt.Errorf("failed to size column %s: %w", col, err)
			}
		}
	}

	return nil
}

func (e *ExcelExporter) clampWidth(w float64) float64 {
	if w < e.options.MinWidth {
		return e.options.MinWidth
	}
	if e.options.MaxWidth > 0 && w > e.options.MaxWidth {
		return e.options.MaxWidth
	}
	return w
}

// createStyle creates an Excel style from config
func (e *ExcelExporter) createStyle(config *ExcelStyleConfig) (int, error) {
	style := &excelize.Style{
		Font: &excelize.Font{Bold: config.FontBold},
	}
	if config.FillColor != "" {
		style.Fill = excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{config.FillColor},
		}
	}
	if config.Alignment != "" {
		style.Alignment = &excelize.Alignment{Horizontal: config.Alignment}
	}
	return e.file.NewStyle(style)
}

// OutputToBytes returns the workbook as bytes
func (e *ExcelExporter) OutputToBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := e.file.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Close closes the Excel file
func (e *ExcelExporter) Close() error {
	return e.file.Close()
}
