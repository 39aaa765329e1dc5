package layout

import "fmt"

// ConfigurationError reports invalid column or page geometry. It is returned
// before any record is laid out.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "layout configuration: " + e.Reason
}

// RecordShapeError reports a record whose field count does not match the
// column count.
type RecordShapeError struct {
	Index  int
	Fields int
	Want   int
}

func (e *RecordShapeError) Error() string {
	return fmt.Sprintf("record %d has %d fields, want %d", e.Index, e.Fields, e.Want)
}

func configErrorf(format string, args ...interface{}) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}
