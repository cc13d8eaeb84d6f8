// Package aggregate scans the records of one span into a station table.
package aggregate

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/jkroepke/1brc-stages/internal/measure"
	"github.com/jkroepke/1brc-stages/internal/span"
	"github.com/jkroepke/1brc-stages/internal/table"
)

var (
	ErrMalformedRecord  = errors.New("malformed record")
	ErrMissingDelimiter = errors.New("missing ';' delimiter")
	ErrInvalidName      = errors.New("station name must be 1 to 100 bytes")
)

// quoteLimit caps how much of an offending line a RecordError keeps.
const quoteLimit = 128

// RecordError reports a record that does not match "<name>;<temperature>".
// It matches both ErrMalformedRecord and its cause with errors.Is.
type RecordError struct {
	Offset int64
	Line   string
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("malformed record at offset %d %q: %v", e.Offset, e.Line, e.Err)
}

func (e *RecordError) Unwrap() []error {
	return []error{ErrMalformedRecord, e.Err}
}

func recordError(base int64, pos int, line []byte, err error) *RecordError {
	if len(line) > quoteLimit {
		line = line[:quoteLimit]
	}
	return &RecordError{Offset: base + int64(pos), Line: string(line), Err: err}
}

// Result is what one worker produces for its span.
type Result struct {
	Table *table.Table
	Lines int64
}

// Span copies s out of src into *buf, growing it when needed, and scans it
// into a fresh table. The table does not reference *buf afterwards.
func Span(src span.Source, s span.Span, buf *[]byte) (Result, error) {
	t := table.New()
	if s.Len() == 0 {
		return Result{Table: t}, nil
	}

	if int64(cap(*buf)) < s.Len() {
		*buf = make([]byte, s.Len())
	}
	data := (*buf)[:s.Len()]

	n, err := src.ReadAt(data, s.Start)
	if n < len(data) {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return Result{}, fmt.Errorf("read span %s: %w", s, err)
	}

	lines, err := Scan(data, s.Start, t)
	if err != nil {
		return Result{}, err
	}

	return Result{Table: t, Lines: lines}, nil
}

// Scan folds every record of data into t and returns the number of records.
// base is the offset of data[0] in the input and is only used in errors. The
// last record may omit its trailing '\n'.
func Scan(data []byte, base int64, t *table.Table) (int64, error) {
	var lines int64

	for pos := 0; pos < len(data); {
		line := data[pos:]
		next := len(data)
		if nl := bytes.IndexByte(line, '\n'); nl >= 0 {
			line = line[:nl]
			next = pos + nl + 1
		}

		sep := bytes.IndexByte(line, ';')
		if sep < 0 {
			return lines, recordError(base, pos, line, ErrMissingDelimiter)
		}

		name := line[:sep]
		if len(name) == 0 || len(name) > table.MaxNameLen {
			return lines, recordError(base, pos, line, ErrInvalidName)
		}

		temp, err := measure.ParseTemperature(line[sep+1:])
		if err != nil {
			return lines, recordError(base, pos, line, err)
		}

		if err := t.Add(name, temp); err != nil {
			return lines, fmt.Errorf("record at offset %d: %w", base+int64(pos), err)
		}

		lines++
		pos = next
	}

	return lines, nil
}
