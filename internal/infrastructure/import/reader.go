package csvimport

import (
	"errors"
	"io"
)

// ReadOptions control how a file is read
type ReadOptions struct {
	Rules []FieldRule
	// Limit caps the data rows read; zero or less reads everything
	Limit     int
	MaxErrors int
	Parser    []ParserOption
}

// Result is a read file split into valid rows and row errors
type Result struct {
	Headers []string
	Rows    []*Row
	Errors  *ErrorCollection
	// Truncated is set when rows beyond Limit were left unread
	Truncated bool
}

// Read parses a whole file and validates every row. Files missing a
// required column fail as a whole.
func Read(r io.Reader, opts ReadOptions) (*Result, error) {
	parser, err := NewCSVParser(r, opts.Parser...)
	if err != nil {
		return nil, err
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, err
	}

	var required []string
	for _, rule := range opts.Rules {
		if rule.Required {
			required = append(required, rule.Column)
		}
	}
	if missing := parser.ValidateHeaders(required); len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	validator := NewFieldValidator(opts.Rules, opts.MaxErrors)
	result := &Result{Headers: parser.Headers(), Errors: validator.Errors()}
	read := 0
	for {
		row, err := parser.ReadRow()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result.Errors.Add(RowError{Row: parser.CurrentRow(), Code: ErrCodeMalformedRow, Message: err.Error()})
			continue
		}
		if row.IsEmpty() {
			continue
		}
		if opts.Limit > 0 && read >= opts.Limit {
			result.Truncated = true
			break
		}
		read++
		if validator.ValidateRow(row) {
			result.Rows = append(result.Rows, row)
		}
	}
	return result, nil
}
