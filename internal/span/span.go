// Package span divides an input into contiguous, line aligned byte ranges.
package span

import (
	"errors"
	"fmt"
	"io"
)

// Source is a read-only view of the input. *mmap.ReaderAt and *bytes.Reader
// both satisfy it.
type Source interface {
	io.ReaderAt
	Len() int
}

var ErrAlignment = errors.New("span boundary is not on a record boundary")

// window is larger than the longest possible record, so a boundary search
// normally needs a single read.
const window = 128

// Span is the half-open byte range [Start, End).
type Span struct {
	Start int64
	End   int64
}

func (s Span) Len() int64 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("[%d, %d)", s.Start, s.End)
}

// Plan cuts src into k = stages*workers contiguous spans. Each inner boundary
// is moved forward from src.Len()*i/k to just past the next '\n', so no record
// is split. Spans may be empty when the input holds fewer records than k.
// Span i belongs to stage i/workers.
func Plan(src Source, stages, workers int) ([]Span, error) {
	if stages < 1 || workers < 1 {
		return nil, fmt.Errorf("plan %d stages of %d workers: counts must be positive", stages, workers)
	}

	k := stages * workers

	size := int64(src.Len())
	bounds := make([]int64, k+1)
	bounds[k] = size

	for i := 1; i < k; i++ {
		prev := bounds[i-1]
		naive := size * int64(i) / int64(k)

		// naive is already a line start when the byte before it is '\n'
		from := naive - 1
		if from < prev {
			bounds[i] = prev
			continue
		}

		nl, err := indexNewline(src, from)
		if err != nil {
			return nil, err
		}
		if nl < 0 {
			bounds[i] = size
		} else {
			bounds[i] = nl + 1
		}
	}

	spans := make([]Span, k)
	for i := range spans {
		spans[i] = Span{Start: bounds[i], End: bounds[i+1]}
	}

	return spans, nil
}

// Verify checks that spans partition src exactly and every inner boundary
// follows a '\n'.
func Verify(src Source, spans []Span) error {
	size := int64(src.Len())
	var next int64
	var b [1]byte

	for i, s := range spans {
		if s.Start != next || s.End < s.Start || s.End > size {
			return fmt.Errorf("span %d %s after %d: %w", i, s, next, ErrAlignment)
		}
		if s.Start > 0 && s.Start < size {
			if _, err := src.ReadAt(b[:], s.Start-1); err != nil {
				return fmt.Errorf("span %d: %w", i, err)
			}
			if b[0] != '\n' {
				return fmt.Errorf("span %d %s: %w", i, s, ErrAlignment)
			}
		}
		next = s.End
	}

	if next != size {
		return fmt.Errorf("spans end at %d of %d: %w", next, size, ErrAlignment)
	}

	return nil
}

// indexNewline returns the offset of the first '\n' at or after off, or -1.
func indexNewline(src Source, off int64) (int64, error) {
	var buf [window]byte
	for {
		n, err := src.ReadAt(buf[:], off)
		for i := 0; i < n; i++ {
			if buf[i] == '\n' {
				return off + int64(i), nil
			}
		}
		if errors.Is(err, io.EOF) || (err == nil && n == 0) {
			return -1, nil
		}
		if err != nil {
			return -1, fmt.Errorf("read at %d: %w", off, err)
		}
		off += int64(n)
	}
}
