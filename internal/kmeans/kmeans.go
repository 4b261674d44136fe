// Package kmeans implements step-wise K-Means clustering over RGB colours.
//
// The engine never advances on its own: a driver calls Step once per
// iteration and decides how to pace the run.
package kmeans

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

const (
	// ConvergenceThreshold is the largest centroid movement, in RGB units,
	// still considered stable.
	ConvergenceThreshold = 1.0
	// MaxIterations caps every run regardless of centroid movement. The step
	// that brings the counter to MaxIterations is the last one, so a run
	// performs at most MaxIterations steps.
	MaxIterations = 50
)

// ErrInvalidArgument is returned by Initialize for empty samples or an out of range k.
var ErrInvalidArgument = errors.New("invalid argument")

// Source is the random source used for centroid seeding.
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

type Option func(*Engine)

// WithRand replaces the engine's random source.
func WithRand(src Source) Option {
	return func(e *Engine) {
		if src != nil {
			e.rnd = src
		}
	}
}

// Engine runs Lloyd's algorithm one iteration at a time.
// An Engine is not safe for concurrent use.
type Engine struct {
	rnd Source
}

func New(opts ...Option) *Engine {
	e := &Engine{
		rnd: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initialize picks k centroids uniformly from samples, with replacement,
// so two centroids may start on the same colour.
func (e *Engine) Initialize(samples []Color, k int) (*State, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no samples", ErrInvalidArgument)
	}
	if k < 1 || k > len(samples) {
		return nil, fmt.Errorf("%w: k=%d must be in [1, %d]", ErrInvalidArgument, k, len(samples))
	}

	centroids := make([]Color, k)
	for i := range centroids {
		centroids[i] = samples[e.rnd.IntN(len(samples))]
	}

	return &State{
		samples:   samples,
		centroids: centroids,
	}, nil
}

// Step advances s by one full iteration and returns the new state.
// s is left untouched. Stepping a converged state returns an identical copy.
func (e *Engine) Step(s *State) *State {
	if s.converged {
		return s.clone()
	}

	assignment, clusters := assign(s.samples, s.centroids)
	next := e.update(s.samples, clusters)

	converged := stable(s.centroids, next)
	iteration := s.iteration + 1
	if iteration >= MaxIterations {
		converged = true
	}

	return &State{
		samples:    s.samples,
		centroids:  next,
		assignment: assignment,
		clusters:   clusters,
		iteration:  iteration,
		converged:  converged,
	}
}

// Run initializes a state and steps it until it converges.
func (e *Engine) Run(samples []Color, k int) (*State, error) {
	s, err := e.Initialize(samples, k)
	if err != nil {
		return nil, err
	}
	for !s.converged {
		s = e.Step(s)
	}
	return s, nil
}

// IsConverged reports whether s has reached its terminal state.
func IsConverged(s *State) bool {
	return s != nil && s.converged
}

// assign maps every sample to its nearest centroid. Ties keep the lowest index.
func assign(samples, centroids []Color) ([]int, [][]int) {
	assignment := make([]int, len(samples))
	clusters := make([][]int, len(centroids))

	for i, px := range samples {
		best := 0
		minDist := math.Inf(1)
		for j, c := range centroids {
			if d := Distance(px, c); d < minDist {
				minDist = d
				best = j
			}
		}
		assignment[i] = best
		clusters[best] = append(clusters[best], i)
	}
	return assignment, clusters
}

// update recomputes each centroid as the rounded channel mean of its members.
// Empty clusters are re-seeded from the full sample set.
func (e *Engine) update(samples []Color, clusters [][]int) []Color {
	next := make([]Color, len(clusters))
	for i, members := range clusters {
		if len(members) == 0 {
			next[i] = samples[e.rnd.IntN(len(samples))]
			continue
		}

		var sum [3]int
		for _, idx := range members {
			px := samples[idx]
			sum[0] += int(px.R)
			sum[1] += int(px.G)
			sum[2] += int(px.B)
		}
		n := float64(len(members))
		next[i] = Color{
			R: uint8(math.Round(float64(sum[0]) / n)),
			G: uint8(math.Round(float64(sum[1]) / n)),
			B: uint8(math.Round(float64(sum[2]) / n)),
		}
	}
	return next
}

func stable(prev, next []Color) bool {
	for i := range prev {
		if Distance(prev[i], next[i]) >= ConvergenceThreshold {
			return false
		}
	}
	return true
}
