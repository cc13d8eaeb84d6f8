package stage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// DefaultSpanSize is the target number of bytes per span when the stage
// count is derived from the input size.
const DefaultSpanSize = 2_000_000

var ErrInvalidConfig = errors.New("invalid stage config")

type Config struct {
	// Workers is the number of spans scanned concurrently in one stage.
	Workers int
	// Stages is the number of sequential stages. Zero derives it from
	// SpanSize and the input size.
	Stages int
	// SpanSize is the target span length used when Stages is zero.
	SpanSize int64
	// Logger receives per-stage progress. Nil discards it.
	Logger *slog.Logger
}

// Resolve validates c and fills in the derived fields for an input of size
// bytes.
func (c Config) Resolve(size int64) (Config, error) {
	if c.Workers < 1 {
		return c, fmt.Errorf("%w: workers %d must be positive", ErrInvalidConfig, c.Workers)
	}
	if c.Stages < 0 {
		return c, fmt.Errorf("%w: stages %d must not be negative", ErrInvalidConfig, c.Stages)
	}
	if c.SpanSize < 0 {
		return c, fmt.Errorf("%w: span size %d must not be negative", ErrInvalidConfig, c.SpanSize)
	}

	if c.SpanSize == 0 {
		c.SpanSize = DefaultSpanSize
	}
	if c.Stages == 0 {
		c.Stages = stageCount(size, c.Workers, c.SpanSize)
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return c, nil
}

// stageCount is ceil(size / (workers*spanSize)), at least 1.
func stageCount(size int64, workers int, spanSize int64) int {
	perStage := int64(workers) * spanSize
	n := (size + perStage - 1) / perStage
	return int(max(n, 1))
}
