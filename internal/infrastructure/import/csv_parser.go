// Package csvimport reads and writes the semicolon separated CSV files
// the tracker exchanges with spreadsheets.
package csvimport

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// DefaultDelimiter separates fields in tracker CSV files
const DefaultDelimiter = ';'

// CSVParser reads a header row followed by data rows
type CSVParser struct {
	delimiter  rune
	headerMap  map[string]int
	headers    []string
	currentRow int
	totalRows  int
	reader     *csv.Reader
}

// ParserOption is a functional option for CSVParser configuration
type ParserOption func(*CSVParser)

// WithDelimiter sets the field delimiter
func WithDelimiter(d rune) ParserOption {
	return func(p *CSVParser) {
		p.delimiter = d
	}
}

// NewCSVParser creates a parser. A UTF-8 BOM is skipped; other encodings
// are rejected.
func NewCSVParser(r io.Reader, opts ...ParserOption) (*CSVParser, error) {
	parser := &CSVParser{
		delimiter: DefaultDelimiter,
		headerMap: make(map[string]int),
	}
	for _, opt := range opts {
		opt(parser)
	}

	buf := bufio.NewReader(r)
	head, err := buf.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(head) >= 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = buf.Discard(3)
	}
	if err := validateUTF8(buf); err != nil {
		return nil, err
	}

	parser.reader = csv.NewReader(buf)
	parser.reader.Comma = parser.delimiter
	parser.reader.LazyQuotes = true
	parser.reader.TrimLeadingSpace = true
	parser.reader.FieldsPerRecord = -1
	return parser, nil
}

func validateUTF8(r *bufio.Reader) error {
	const checkSize = 4096
	content, err := r.Peek(checkSize)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file for encoding validation: %w", err)
	}
	if len(content) == 0 {
		return ErrEmptyFile
	}
	// a multibyte rune may straddle the peek boundary
	if len(content) == checkSize {
		for i := 0; i < utf8.UTFMax && len(content) > 0 && !utf8.Valid(content); i++ {
			content = content[:len(content)-1]
		}
	}
	if !utf8.Valid(content) {
		return ErrInvalidEncoding
	}
	return nil
}

// ParseHeader reads the header row
func (p *CSVParser) ParseHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	p.headers = make([]string, 0, len(record))
	for i, h := range record {
		header := strings.TrimSpace(h)
		p.headers = append(p.headers, header)
		p.headerMap[header] = i
	}
	if len(p.headers) == 0 || (len(p.headers) == 1 && p.headers[0] == "") {
		return ErrMissingHeader
	}
	p.currentRow = 1
	return nil
}

// Headers returns the parsed header names
func (p *CSVParser) Headers() []string {
	return p.headers
}

// HasHeader checks if a header exists
func (p *CSVParser) HasHeader(name string) bool {
	_, ok := p.headerMap[name]
	return ok
}

// ValidateHeaders returns the required headers the file lacks
func (p *CSVParser) ValidateHeaders(required []string) []string {
	var missing []string
	for _, h := range required {
		if !p.HasHeader(h) {
			missing = append(missing, h)
		}
	}
	return missing
}

// Row is a parsed data row keyed by header
type Row struct {
	LineNumber int
	Data       map[string]string
}

// Get returns the value of a column
func (r *Row) Get(header string) string {
	return r.Data[header]
}

// GetOrDefault returns the value of a column, or def when empty
func (r *Row) GetOrDefault(header, def string) string {
	if val := r.Data[header]; val != "" {
		return val
	}
	return def
}

// IsEmpty reports whether every value of the row is empty
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadRow reads the next data row. It returns io.EOF at the end.
func (p *CSVParser) ReadRow() (*Row, error) {
	record, err := p.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	p.currentRow++
	if err != nil {
		return nil, fmt.Errorf("error reading row %d: %w", p.currentRow, err)
	}
	p.totalRows++

	row := &Row{
		LineNumber: p.currentRow,
		Data:       make(map[string]string, len(p.headers)),
	}
	for i, header := range p.headers {
		if i < len(record) {
			row.Data[header] = strings.TrimSpace(record[i])
		} else {
			row.Data[header] = ""
		}
	}
	return row, nil
}

// CurrentRow returns the line number of the last row read
func (p *CSVParser) CurrentRow() int {
	return p.currentRow
}

// TotalRows returns the number of data rows read so far
func (p *CSVParser) TotalRows() int {
	return p.totalRows
}
