package csvimport

import (
	"errors"
	"fmt"
	"strings"
)

// Row error codes
const (
	ErrCodeRequiredField = "ERR_IMPORT_REQUIRED_FIELD"
	ErrCodeInvalidType   = "ERR_IMPORT_INVALID_TYPE"
	ErrCodeInvalidLength = "ERR_IMPORT_INVALID_LENGTH"
	ErrCodeValidation    = "ERR_IMPORT_VALIDATION"
	ErrCodeMalformedRow  = "ERR_IMPORT_MALFORMED_ROW"
)

var (
	// ErrEmptyFile is returned when the CSV file is empty
	ErrEmptyFile = errors.New("CSV file is empty")

	// ErrInvalidEncoding is returned for files that are not UTF-8
	ErrInvalidEncoding = errors.New("CSV file must be UTF-8 encoded")

	// ErrMissingHeader is returned when the CSV file has no header row
	ErrMissingHeader = errors.New("CSV file missing header row")
)

// MissingColumnsError lists required header columns absent from a file
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "CSV file misses columns: " + strings.Join(e.Columns, ", ")
}

// RowError is an error in a specific row
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// Error implements the error interface
func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ErrorCollection collects row errors up to a limit and counts the rest
type ErrorCollection struct {
	errors     []RowError
	maxErrors  int
	totalCount int
}

// NewErrorCollection creates a new ErrorCollection
func NewErrorCollection(maxErrors int) *ErrorCollection {
	if maxErrors <= 0 {
		maxErrors = 100
	}
	return &ErrorCollection{
		errors:    make([]RowError, 0),
		maxErrors: maxErrors,
	}
}

// Add adds an error to the collection
func (ec *ErrorCollection) Add(err RowError) {
	ec.totalCount++
	if len(ec.errors) < ec.maxErrors {
		ec.errors = append(ec.errors, err)
	}
}

// AddRowError records a failure that concerns the whole row
func (ec *ErrorCollection) AddRowError(row int, err error) {
	ec.Add(RowError{Row: row, Code: ErrCodeValidation, Message: err.Error()})
}

// AddRequiredError adds a required field error
func (ec *ErrorCollection) AddRequiredError(row int, column string) {
	ec.Add(RowError{
		Row:     row,
		Column:  column,
		Code:    ErrCodeRequiredField,
		Message: fmt.Sprintf("field '%s' is required", column),
	})
}

// AddTypeError adds a type validation error
func (ec *ErrorCollection) AddTypeError(row int, column, expectedType, value string) {
	ec.Add(RowError{
		Row:     row,
		Column:  column,
		Code:    ErrCodeInvalidType,
		Message: fmt.Sprintf("expected %s", expectedType),
		Value:   value,
	})
}

// AddLengthError adds a length validation error
func (ec *ErrorCollection) AddLengthError(row int, column string, maxLen int) {
	ec.Add(RowError{
		Row:     row,
		Column:  column,
		Code:    ErrCodeInvalidLength,
		Message: fmt.Sprintf("length must be at most %d", maxLen),
	})
}

// Errors returns the collected errors
func (ec *ErrorCollection) Errors() []RowError {
	return ec.errors
}

// TotalCount returns the number of errors including those not kept
func (ec *ErrorCollection) TotalCount() int {
	return ec.totalCount
}

// HasErrors returns true if there are any errors
func (ec *ErrorCollection) HasErrors() bool {
	return ec.totalCount > 0
}

// IsTruncated reports whether errors beyond the limit were dropped
func (ec *ErrorCollection) IsTruncated() bool {
	return ec.totalCount > ec.maxErrors
}

// String returns a string representation of all errors
func (ec *ErrorCollection) String() string {
	if !ec.HasErrors() {
		return "no errors"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d error(s) found", ec.totalCount)
	if ec.IsTruncated() {
		fmt.Fprintf(&sb, " (showing first %d)", ec.maxErrors)
	}
	sb.WriteString(":\n")
	for _, err := range ec.errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}
