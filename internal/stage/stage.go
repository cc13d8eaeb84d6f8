// Package stage runs the span workers in barrier separated stages.
package stage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/errgroup"

	"github.com/jkroepke/1brc-stages/internal/aggregate"
	"github.com/jkroepke/1brc-stages/internal/span"
	"github.com/jkroepke/1brc-stages/internal/table"
)

// Result holds one table per span, in span order.
type Result struct {
	Tables []*table.Table
	Spans  []span.Span
	Lines  int64
	Config Config
}

// Run plans cfg.Stages*cfg.Workers spans over src and scans them, cfg.Workers
// at a time. Stage i+1 starts only after every worker of stage i returned.
// The first worker error aborts the run and no partial result is returned.
func Run(ctx context.Context, src span.Source, cfg Config) (*Result, error) {
	cfg, err := cfg.Resolve(int64(src.Len()))
	if err != nil {
		return nil, err
	}

	spans, err := span.Plan(src, cfg.Stages, cfg.Workers)
	if err != nil {
		return nil, err
	}
	if err := span.Verify(src, spans); err != nil {
		return nil, err
	}

	var (
		tables  = make([]*table.Table, len(spans))
		lines   = xsync.NewCounter()
		// workers hand their read buffer back for later stages to reuse
		buffers = sync.Pool{New: func() any { return new([]byte) }}
	)

	for s := 0; s < cfg.Stages; s++ {
		start := time.Now()
		stageLines := lines.Value()

		g, gctx := errgroup.WithContext(ctx)
		for w := 0; w < cfg.Workers; w++ {
			i := s*cfg.Workers + w
			sp := spans[i]

			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}

				buf := buffers.Get().(*[]byte)
				defer buffers.Put(buf)

				res, err := aggregate.Span(src, sp, buf)
				if err != nil {
					return fmt.Errorf("span %d %s: %w", i, sp, err)
				}

				tables[i] = res.Table
				lines.Add(res.Lines)
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("stage %d: %w", s, err)
		}

		cfg.Logger.Debug("stage completed",
			"stage", s,
			"spans", cfg.Workers,
			"lines", lines.Value()-stageLines,
			"duration", time.Since(start),
		)
	}

	return &Result{
		Tables: tables,
		Spans:  spans,
		Lines:  lines.Value(),
		Config: cfg,
	}, nil
}
