package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/profile"
	"golang.org/x/exp/mmap"

	"github.com/jkroepke/1brc-stages/internal/merge"
	"github.com/jkroepke/1brc-stages/internal/report"
	"github.com/jkroepke/1brc-stages/internal/stage"
)

type summary struct {
	size     int
	lines    int64
	stations int
	stages   int
	workers  int
}

func main() {
	var (
		cfg         stage.Config
		profileMode string
		verbose     bool
	)

	flag.IntVar(&cfg.Workers, "workers", runtime.NumCPU(), "spans scanned concurrently per stage")
	flag.IntVar(&cfg.Stages, "stages", 0, "sequential stages, 0 derives it from -span-size")
	flag.Int64Var(&cfg.SpanSize, "span-size", stage.DefaultSpanSize, "target bytes per span when -stages is 0")
	flag.StringVar(&profileMode, "profile", "", "write a cpu or mem profile to the working directory")
	flag.BoolVar(&verbose, "v", false, "log every stage")
	flag.Parse()

	fileName := "measurements.txt"
	if flag.NArg() > 0 {
		fileName = flag.Arg(0)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	cfg.Logger = logger

	stop, err := startProfile(profileMode)
	if err != nil {
		logger.Error("invalid flag", "err", err)
		os.Exit(2)
	}

	start := time.Now()
	sum, err := execute(fileName, os.Stdout, cfg)
	stop()

	if err != nil {
		logger.Error("run failed", "file", fileName, "err", err)
		os.Exit(1)
	}

	logger.Info("done",
		"size", humanize.Bytes(uint64(sum.size)),
		"lines", humanize.Comma(sum.lines),
		"stations", sum.stations,
		"stages", sum.stages,
		"workers", sum.workers,
		"elapsed", time.Since(start),
	)
}

func startProfile(mode string) (func(), error) {
	switch mode {
	case "":
		return func() {}, nil
	case "cpu":
		return profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop, nil
	case "mem":
		return profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop, nil
	default:
		return nil, fmt.Errorf("unknown profile mode %q", mode)
	}
}

func execute(fileName string, w io.Writer, cfg stage.Config) (summary, error) {
	file, err := mmap.Open(fileName)
	if err != nil {
		return summary{}, err
	}
	defer file.Close()

	res, err := stage.Run(context.Background(), file, cfg)
	if err != nil {
		return summary{}, err
	}

	global, err := merge.Reduce(res.Tables)
	if err != nil {
		return summary{}, err
	}

	if err := report.Render(w, global); err != nil {
		return summary{}, fmt.Errorf("write report: %w", err)
	}

	return summary{
		size:     file.Len(),
		lines:    res.Lines,
		stations: global.Len(),
		stages:   res.Config.Stages,
		workers:  res.Config.Workers,
	}, nil
}
