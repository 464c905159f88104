package csvimport

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var cellReplacer = strings.NewReplacer(`"`, "'", "\r\n", " ", "\n", " ", "\r", " ")

// Writer produces the tracker export format: every cell quoted, cells
// joined by semicolons, rows ended by CRLF. Double quotes inside cells
// become single quotes and line breaks become spaces, so no cell ever
// needs escaping.
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter writes header and returns a writer for the data rows
func NewWriter(w io.Writer, header ...string) *Writer {
	cw := &Writer{w: w}
	cells := make([]any, len(header))
	for i, h := range header {
		cells[i] = h
	}
	cw.WriteRow(cells...)
	return cw
}

// WriteRow writes one row. The first write error sticks and is returned
// by Err.
func (cw *Writer) WriteRow(cells ...any) {
	if cw.err != nil {
		return
	}
	var b strings.Builder
	for i, c := range cells {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteByte('"')
		b.WriteString(cellReplacer.Replace(FormatCell(c)))
		b.WriteByte('"')
	}
	b.WriteString("\r\n")
	_, cw.err = io.WriteString(cw.w, b.String())
}

// Err returns the first write error
func (cw *Writer) Err() error {
	return cw.err
}

// FormatCell renders a value the way the exports always have: booleans
// as True and False, missing values as None.
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case string:
		return x
	case bool:
		if x {
			return "True"
		}
		return "False"
	case decimal.Decimal:
		return x.StringFixed(2)
	case *decimal.Decimal:
		if x == nil {
			return "None"
		}
		return x.StringFixed(2)
	case time.Time:
		return x.Format("2006-01-02 15:04:05-07:00")
	case *time.Time:
		if x == nil {
			return "None"
		}
		return x.Format("2006-01-02 15:04:05-07:00")
	case *int64:
		if x == nil {
			return "None"
		}
		return fmt.Sprint(*x)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}
