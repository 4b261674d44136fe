// Package session drives a clustering run for presentation: it owns the
// current state, paces steps on a ticker and keeps a per-step history.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"colorpalette/internal/imageproc"
	"colorpalette/internal/kmeans"
)

const (
	DefaultInterval = 500 * time.Millisecond

	paletteFile = "palette.json"
	stripFile   = "palette.png"
	stripWidth  = 600
	stripHeight = 100
)

type Phase string

const (
	PhaseProcessing Phase = "processing"
	PhaseComplete   Phase = "complete"
)

// Snapshot is the presentable result of one step.
type Snapshot struct {
	Iteration int               `json:"iteration"`
	Converged bool              `json:"converged"`
	Palette   imageproc.Palette `json:"palette"`
}

// Report is what Save writes to palette.json.
type Report struct {
	Name      string            `json:"name,omitempty"`
	K         int               `json:"k"`
	Samples   int               `json:"samples"`
	Iteration int               `json:"iteration"`
	Converged bool              `json:"converged"`
	Palette   imageproc.Palette `json:"palette"`
	Dominant  []string          `json:"dominant"`
}

type Option func(*Session)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithName labels the session in logs and reports.
func WithName(name string) Option {
	return func(s *Session) {
		s.name = name
	}
}

// Session serialises every step of one run. It is safe for concurrent use.
type Session struct {
	engine  *kmeans.Engine
	samples []kmeans.Color
	k       int
	name    string
	logger  *zap.Logger

	mu      sync.Mutex
	state   *kmeans.State
	history []Snapshot
	paused  bool
}

// New initializes a run over samples. The engine must not be shared with
// another session.
func New(engine *kmeans.Engine, samples []kmeans.Color, k int, opts ...Option) (*Session, error) {
	s := &Session{
		engine:  engine,
		samples: samples,
		k:       k,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Reset(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset discards the run and starts again from freshly seeded centroids.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.engine.Initialize(s.samples, s.k)
	if err != nil {
		return fmt.Errorf("error initializing clustering: %w", err)
	}
	s.state = state
	s.history = nil
	s.paused = false
	s.logger.Debug("clustering initialized",
		zap.String("name", s.name),
		zap.Int("k", s.k),
		zap.Int("samples", len(s.samples)),
		zap.Stringers("centroids", state.Centroids()),
	)
	return nil
}

// Step advances the run by one iteration. Once the run has converged it
// returns the final snapshot without stepping.
func (s *Session) Step() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Converged() && len(s.history) > 0 {
		return s.history[len(s.history)-1]
	}

	s.state = s.engine.Step(s.state)
	snap := Snapshot{
		Iteration: s.state.Iteration(),
		Converged: s.state.Converged(),
		Palette:   imageproc.Describe(s.state),
	}
	s.history = append(s.history, snap)

	s.logger.Debug("clustering step",
		zap.String("name", s.name),
		zap.Int("iteration", snap.Iteration),
		zap.Ints("counts", s.state.Counts()),
		zap.Float64("inertia", snap.Palette.Inertia),
	)
	if snap.Converged {
		s.logger.Info("clustering complete",
			zap.String("name", s.name),
			zap.Int("iterations", snap.Iteration),
		)
	}
	return snap
}

// Run steps the session every interval until it converges or ctx is done.
// Ticks are skipped while the session is paused. onStep may be nil.
func (s *Session) Run(ctx context.Context, interval time.Duration, onStep func(Snapshot)) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if s.Phase() == PhaseComplete {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if s.Paused() {
				continue
			}
			snap := s.Step()
			if onStep != nil {
				onStep(snap)
			}
			if snap.Converged {
				return nil
			}
		}
	}
}

// RunToCompletion steps without pacing until the run converges.
func (s *Session) RunToCompletion(ctx context.Context) (Snapshot, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Snapshot{}, err
		}
		if snap := s.Step(); snap.Converged {
			return snap, nil
		}
	}
}

func (s *Session) Pause() {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
}

func (s *Session) Resume() {
	s.mu.Lock()
	s.paused = false
	s.mu.Unlock()
}

func (s *Session) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Converged() {
		return PhaseComplete
	}
	return PhaseProcessing
}

// State returns the current clustering state.
func (s *Session) State() *kmeans.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// History returns a copy of the snapshots recorded since the last reset.
func (s *Session) History() []Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	historyCopy := make([]Snapshot, len(s.history))
	copy(historyCopy, s.history)
	return historyCopy
}

// Report summarises the current state.
func (s *Session) Report() Report {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	p := imageproc.Describe(state)
	dominant := make([]string, 0, len(p.Swatches))
	for _, sw := range p.Dominant() {
		dominant = append(dominant, sw.Hex)
	}
	return Report{
		Name:      s.name,
		K:         s.k,
		Samples:   len(s.samples),
		Iteration: state.Iteration(),
		Converged: state.Converged(),
		Palette:   p,
		Dominant:  dominant,
	}
}

// Save writes palette.json and a palette.png swatch strip into dir.
func (s *Session) Save(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}

	report := s.Report()
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling palette: %w", err)
	}
	resultsFile := filepath.Join(dir, paletteFile)
	if err := os.WriteFile(resultsFile, data, 0644); err != nil {
		return fmt.Errorf("error writing palette file: %w", err)
	}

	stripPath := filepath.Join(dir, stripFile)
	file, err := os.Create(stripPath)
	if err != nil {
		return fmt.Errorf("error creating palette image: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, imageproc.RenderStrip(report.Palette, stripWidth, stripHeight)); err != nil {
		return fmt.Errorf("error encoding palette image: %w", err)
	}

	s.logger.Info("palette saved",
		zap.String("name", s.name),
		zap.String("json", resultsFile),
		zap.String("image", stripPath),
	)
	return nil
}
