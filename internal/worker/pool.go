package worker

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"colorpalette/internal/config"
	"colorpalette/internal/imageproc"
	"colorpalette/internal/kmeans"
	"colorpalette/internal/session"
)

// Result is the outcome of analysing one image.
type Result struct {
	Source    string
	OutputDir string
	Report    session.Report
}

// Analyze clusters every source to convergence with up to cfg.Workers images
// in flight. Each image gets its own engine and session; results keep the
// order of sources. The first failure cancels the rest.
func Analyze(ctx context.Context, sources []string, cfg config.Config, client *http.Client, logger *zap.Logger) ([]Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	results := make([]Result, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)

	for i, src := range sources {
		g.Go(func() error {
			res, err := analyzeOne(ctx, i, src, cfg, client, logger)
			if err != nil {
				return fmt.Errorf("%s: %w", src, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func analyzeOne(ctx context.Context, idx int, src string, cfg config.Config, client *http.Client, logger *zap.Logger) (Result, error) {
	loadCtx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout)
	defer cancel()

	img, err := imageproc.Load(loadCtx, src, client)
	if err != nil {
		return Result{}, err
	}
	samples, err := imageproc.SampleImage(img, imageproc.Options{
		MaxSize:    cfg.MaxSize,
		MaxSamples: cfg.MaxSamples,
	})
	if err != nil {
		return Result{}, err
	}

	name := OutputName(idx, src)
	s, err := session.New(NewEngine(cfg.Seed, idx), samples, cfg.K,
		session.WithLogger(logger), session.WithName(name))
	if err != nil {
		return Result{}, err
	}
	if _, err := s.RunToCompletion(ctx); err != nil {
		return Result{}, err
	}

	res := Result{Source: src, Report: s.Report()}
	if cfg.OutputDir != "" {
		res.OutputDir = filepath.Join(cfg.OutputDir, name)
		if err := s.Save(res.OutputDir); err != nil {
			return Result{}, err
		}
	}
	return res, nil
}

// NewEngine returns an engine seeded from seed and the job index, or a
// randomly seeded one when seed is zero.
func NewEngine(seed uint64, idx int) *kmeans.Engine {
	if seed == 0 {
		return kmeans.New()
	}
	return kmeans.New(kmeans.WithRand(rand.New(rand.NewPCG(seed, uint64(idx)))))
}

// OutputName derives a directory name for the idx-th source.
func OutputName(idx int, src string) string {
	base := "image"
	if !strings.HasPrefix(src, "data:") {
		b := filepath.Base(strings.TrimRight(src, "/"))
		if i := strings.IndexAny(b, "?#"); i >= 0 {
			b = b[:i]
		}
		b = strings.TrimSuffix(b, filepath.Ext(b))
		if b != "" && b != "." && b != string(filepath.Separator) {
			base = b
		}
	}
	return strconv.Itoa(idx) + "_" + base
}
