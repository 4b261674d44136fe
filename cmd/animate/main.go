package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"colorpalette/internal/config"
	"colorpalette/internal/imageproc"
	"colorpalette/internal/logging"
	"colorpalette/internal/session"
	"colorpalette/internal/worker"
)

var (
	title = color.New(color.Bold)
	faint = color.New(color.Faint)
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	k := flag.Int("k", 0, "Number of colors to extract (2-8)")
	interval := flag.Duration("interval", 0, "Delay between iterations")
	seed := flag.Uint64("seed", 0, "Random seed for centroid selection (0 = random)")
	outputDir := flag.String("output", "", "Directory to save the final palette (empty = do not save)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: exactly one image (path, URL or data URL) is required\n")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg.OutputDir = *outputDir
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "k":
			cfg.K = *k
		case "interval":
			cfg.Interval = *interval
		case "seed":
			cfg.Seed = *seed
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

	if err := run(ctx, flag.Arg(0), cfg, logger); err != nil {
		logger.Error("animation failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, src string, cfg config.Config, logger *zap.Logger) error {
	loadCtx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout)
	img, err := imageproc.Load(loadCtx, src, &http.Client{Timeout: cfg.FetchTimeout})
	cancel()
	if err != nil {
		if strings.HasPrefix(src, "http") {
			return fmt.Errorf("failed to load image, try downloading and passing the file instead: %w", err)
		}
		return err
	}

	samples, err := imageproc.SampleImage(img, imageproc.Options{MaxSize: cfg.MaxSize, MaxSamples: cfg.MaxSamples})
	if err != nil {
		return err
	}

	s, err := session.New(worker.NewEngine(cfg.Seed, 0), samples, cfg.K,
		session.WithLogger(logger), session.WithName(worker.OutputName(0, src)))
	if err != nil {
		return err
	}

	title.Printf("K-Means color clustering: %d samples, K = %d\n", len(samples), cfg.K)
	faint.Println("commands: p = pause/continue, r = start over, q = quit")
	ctx, quit := context.WithCancel(ctx)
	defer quit()
	go readCommands(ctx, s, quit)

	for {
		if err := s.Run(ctx, cfg.Interval, render); err != nil {
			return nil
		}
		if s.Phase() == session.PhaseComplete {
			break
		}
	}

	printPalette(s.Report().Palette)
	if cfg.OutputDir != "" {
		return s.Save(cfg.OutputDir)
	}
	return nil
}

// readCommands toggles pause, resets or quits the session from stdin lines.
func readCommands(ctx context.Context, s *session.Session, quit context.CancelFunc) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		switch strings.TrimSpace(scanner.Text()) {
		case "p":
			if s.Paused() {
				s.Resume()
				faint.Println("continuing")
			} else {
				s.Pause()
				faint.Println("paused")
			}
		case "r":
			if err := s.Reset(); err == nil {
				faint.Println("starting over")
			}
		case "q":
			quit()
			return
		}
	}
}

func render(snap session.Snapshot) {
	title.Printf("Color Clusters (Iteration %d)\n", snap.Iteration)
	for _, sw := range snap.Palette.Swatches {
		fmt.Printf("  %s %s %d pixels\n", swatch(sw), sw.Hex, sw.Count)
	}
}

func printPalette(p imageproc.Palette) {
	title.Println("Final Color Palette")
	for _, sw := range p.Dominant() {
		fmt.Printf("  %s %s %5.1f%%\n", swatch(sw), sw.Hex, sw.Proportion*100)
	}
}

func swatch(sw imageproc.Swatch) string {
	return color.BgRGB(int(sw.Color.R), int(sw.Color.G), int(sw.Color.B)).Sprint("        ")
}
