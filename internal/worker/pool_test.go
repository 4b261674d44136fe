package worker

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"colorpalette/internal/config"
)

func writeHalves(t *testing.T, dir, name string, left, right color.RGBA) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			c := left
			if x >= 10 {
				c = right
			}
			img.SetRGBA(x, y, c)
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestAnalyze(t *testing.T) {
	in := t.TempDir()
	sources := []string{
		writeHalves(t, in, "a.png", color.RGBA{255, 0, 0, 255}, color.RGBA{0, 0, 255, 255}),
		writeHalves(t, in, "b.png", color.RGBA{0, 255, 0, 255}, color.RGBA{0, 0, 0, 255}),
		writeHalves(t, in, "c.png", color.RGBA{9, 9, 9, 255}, color.RGBA{200, 200, 200, 255}),
	}

	cfg := config.Default()
	cfg.K = 2
	cfg.Seed = 7
	cfg.Workers = 2
	cfg.OutputDir = t.TempDir()

	results, err := Analyze(context.Background(), sources, cfg, nil, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.Len(t, results, len(sources))

	for i, res := range results {
		assert.Equal(t, sources[i], res.Source)
		assert.True(t, res.Report.Converged)
		assert.Equal(t, 400, res.Report.Samples)
		total := 0
		for _, sw := range res.Report.Palette.Swatches {
			total += sw.Count
		}
		assert.Equal(t, 400, total)
		assert.FileExists(t, filepath.Join(res.OutputDir, "palette.json"))
		assert.FileExists(t, filepath.Join(res.OutputDir, "palette.png"))
	}
	assert.Equal(t, filepath.Join(cfg.OutputDir, "1_b"), results[1].OutputDir)
}

func TestAnalyzeSeedIsDeterministic(t *testing.T) {
	src := writeHalves(t, t.TempDir(), "a.png", color.RGBA{255, 0, 0, 255}, color.RGBA{0, 0, 255, 255})
	cfg := config.Default()
	cfg.Seed = 99
	cfg.OutputDir = ""

	first, err := Analyze(context.Background(), []string{src}, cfg, nil, nil)
	require.NoError(t, err)
	second, err := Analyze(context.Background(), []string{src}, cfg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, first[0].Report, second[0].Report)
	assert.Empty(t, first[0].OutputDir)
}

func TestAnalyzeFailure(t *testing.T) {
	in := t.TempDir()
	good := writeHalves(t, in, "good.png", color.RGBA{255, 0, 0, 255}, color.RGBA{0, 0, 255, 255})
	bad := filepath.Join(in, "missing.png")

	cfg := config.Default()
	cfg.OutputDir = ""
	_, err := Analyze(context.Background(), []string{good, bad}, cfg, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "missing.png")
}

func TestAnalyzeRejectsInvalidConfig(t *testing.T) {
	src := writeHalves(t, t.TempDir(), "a.png", color.RGBA{255, 0, 0, 255}, color.RGBA{0, 0, 255, 255})
	test := []struct {
		name   string
		modify func(*config.Config)
	}{
		{"no_workers", func(c *config.Config) { c.Workers = 0 }},
		{"no_fetch_timeout", func(c *config.Config) { c.FetchTimeout = 0 }},
		{"k_out_of_range", func(c *config.Config) { c.K = 0 }},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.OutputDir = ""
			tt.modify(&cfg)

			done := make(chan error, 1)
			go func() {
				_, err := Analyze(context.Background(), []string{src}, cfg, nil, nil)
				done <- err
			}()
			select {
			case err := <-done:
				assert.ErrorIs(t, err, config.ErrInvalidConfig)
			case <-time.After(2 * time.Second):
				t.Fatal("Analyze did not return")
			}
		})
	}
}

func TestOutputName(t *testing.T) {
	test := []struct {
		idx  int
		src  string
		want string
	}{
		{0, "/tmp/photos/sunset.jpg", "0_sunset"},
		{3, "https://example.com/img/cat.png?size=large", "3_cat"},
		{1, "data:image/png;base64,AAAA", "1_image"},
		{2, "https://example.com/", "2_example"},
	}
	for _, tt := range test {
		assert.Equal(t, tt.want, OutputName(tt.idx, tt.src))
	}
}
