package stage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jkroepke/1brc-stages/internal/aggregate"
	"github.com/jkroepke/1brc-stages/internal/measure"
)

func input(lines int) []byte {
	var b bytes.Buffer
	for i := 0; i < lines; i++ {
		fmt.Fprintf(&b, "station-%02d;%d.%d\n", i%13, i%100-50, i%10)
	}
	return b.Bytes()
}

func TestRun(t *testing.T) {
	data := input(1000)

	res, err := Run(context.Background(), bytes.NewReader(data), Config{Workers: 4, Stages: 3})
	require.NoError(t, err)
	require.Len(t, res.Tables, 12)
	require.Len(t, res.Spans, 12)
	require.EqualValues(t, 1000, res.Lines)

	var count uint64
	for _, tb := range res.Tables {
		require.NotNil(t, tb)
		tb.Each(func(_ []byte, s measure.Stats) {
			count += s.Count
		})
	}
	require.EqualValues(t, 1000, count)
}

func TestRun_MoreSpansThanLines(t *testing.T) {
	data := []byte("A;1.0\nB;2.0\n")

	res, err := Run(context.Background(), bytes.NewReader(data), Config{Workers: 8, Stages: 2})
	require.NoError(t, err)
	require.Len(t, res.Tables, 16)
	require.EqualValues(t, 2, res.Lines)
}

func TestRun_Empty(t *testing.T) {
	res, err := Run(context.Background(), bytes.NewReader(nil), Config{Workers: 2})
	require.NoError(t, err)
	require.Equal(t, 1, res.Config.Stages)
	require.Zero(t, res.Lines)
	for _, tb := range res.Tables {
		require.Zero(t, tb.Len())
	}
}

func TestRun_MalformedAborts(t *testing.T) {
	data := append(input(500), "broken line\n"...)
	data = append(data, input(500)...)

	res, err := Run(context.Background(), bytes.NewReader(data), Config{Workers: 3, Stages: 4})
	require.Nil(t, res)
	require.ErrorIs(t, err, aggregate.ErrMalformedRecord)
	require.Contains(t, err.Error(), "stage ")
}

func TestRun_LogsEveryStage(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := Run(context.Background(), bytes.NewReader(input(100)), Config{Workers: 2, Stages: 5, Logger: logger})
	require.NoError(t, err)
	require.Equal(t, 5, strings.Count(logs.String(), "stage completed"))
}

func TestRun_InvalidConfig(t *testing.T) {
	_, err := Run(context.Background(), bytes.NewReader(nil), Config{})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfig_Resolve(t *testing.T) {
	for _, tc := range []struct {
		name   string
		cfg    Config
		size   int64
		stages int
	}{
		{"explicit", Config{Workers: 4, Stages: 7}, 1 << 30, 7},
		{"derived exact", Config{Workers: 2, SpanSize: 100}, 400, 2},
		{"derived rounds up", Config{Workers: 2, SpanSize: 100}, 401, 3},
		{"derived small", Config{Workers: 8, SpanSize: 100}, 1, 1},
		{"derived empty", Config{Workers: 8}, 0, 1},
		{"default span size", Config{Workers: 10}, 14_000_000_000, 700},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := tc.cfg.Resolve(tc.size)
			require.NoError(t, err)
			require.Equal(t, tc.stages, cfg.Stages)
			require.NotNil(t, cfg.Logger)
			require.Positive(t, cfg.SpanSize)
		})
	}
}

func TestConfig_ResolveInvalid(t *testing.T) {
	for _, cfg := range []Config{
		{Workers: 0},
		{Workers: 1, Stages: -1},
		{Workers: 1, SpanSize: -1},
	} {
		_, err := cfg.Resolve(10)
		require.ErrorIs(t, err, ErrInvalidConfig)
	}
}
