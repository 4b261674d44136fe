package kmeans

import "slices"

// State is one snapshot of a clustering run. States are never modified
// after the engine returns them; accessors hand out copies.
type State struct {
	samples    []Color
	centroids  []Color
	assignment []int
	clusters   [][]int
	iteration  int
	converged  bool
}

// K is the number of centroids.
func (s *State) K() int { return len(s.centroids) }

func (s *State) Iteration() int { return s.iteration }

func (s *State) Converged() bool { return s.converged }

// Samples returns the input samples. The slice is shared by every state of
// the run and must not be modified.
func (s *State) Samples() []Color { return s.samples }

func (s *State) Centroids() []Color { return slices.Clone(s.centroids) }

// Assignment maps sample index to centroid index. It is nil before the first step.
func (s *State) Assignment() []int { return slices.Clone(s.assignment) }

// Clusters returns the member sample indices of every centroid, in ascending
// sample order. It is nil before the first step.
func (s *State) Clusters() [][]int {
	if s.clusters == nil {
		return nil
	}
	out := make([][]int, len(s.clusters))
	for i, members := range s.clusters {
		out[i] = slices.Clone(members)
	}
	return out
}

// Counts returns the member count of every cluster.
func (s *State) Counts() []int {
	counts := make([]int, len(s.centroids))
	for i, members := range s.clusters {
		counts[i] = len(members)
	}
	return counts
}

func (s *State) clone() *State {
	return &State{
		samples:    s.samples,
		centroids:  slices.Clone(s.centroids),
		assignment: slices.Clone(s.assignment),
		clusters:   s.Clusters(),
		iteration:  s.iteration,
		converged:  s.converged,
	}
}
