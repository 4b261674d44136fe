package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"colorpalette/internal/config"
	"colorpalette/internal/logging"
	"colorpalette/internal/worker"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	k := flag.Int("k", 0, "Number of colors to extract (2-8)")
	outputDir := flag.String("output", "", "Directory to save palettes (empty string keeps the configured one)")
	workers := flag.Int("workers", 0, "Number of images analysed in parallel")
	seed := flag.Uint64("seed", 0, "Random seed for centroid selection (0 = random)")
	samples := flag.Int("samples", 0, "Approximate number of pixels sampled per image")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] IMAGE...\n\nIMAGE is a file path, an http(s) URL or a data URL.\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: at least one image is required\n")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "k":
			cfg.K = *k
		case "output":
			cfg.OutputDir = *outputDir
		case "workers":
			cfg.Workers = *workers
		case "seed":
			cfg.Seed = *seed
		case "samples":
			cfg.MaxSamples = *samples
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting analysis",
		zap.Int("images", flag.NArg()),
		zap.Int("k", cfg.K),
		zap.Int("workers", cfg.Workers),
	)
	results, err := worker.Analyze(ctx, flag.Args(), cfg, &http.Client{Timeout: cfg.FetchTimeout}, logger)
	if err != nil {
		logger.Error("analysis failed", zap.Error(err))
		os.Exit(1)
	}

	for _, res := range results {
		fmt.Printf("%s (%d iterations, %d samples)\n", res.Source, res.Report.Iteration, res.Report.Samples)
		for _, sw := range res.Report.Palette.Dominant() {
			fmt.Printf("  %s  %5.1f%%  %4d px\n", sw.Hex, sw.Proportion*100, sw.Count)
		}
		if res.OutputDir != "" {
			fmt.Printf("  saved to %s\n", res.OutputDir)
		}
	}
	logger.Info("analysis complete", zap.String("palettes", strings.Join(outputs(results), ", ")))
}

func outputs(results []worker.Result) []string {
	var dirs []string
	for _, res := range results {
		if res.OutputDir != "" {
			dirs = append(dirs, res.OutputDir)
		}
	}
	return dirs
}
