package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// sampler lets keep out of every window events through. A zero window
// disables sampling.
type sampler struct {
	keep   atomic.Int64
	window atomic.Int64
	seen   atomic.Uint64
}

func newSampler(keep, window int) *sampler {
	s := &sampler{}
	s.Set(keep, window)
	return s
}

func (s *sampler) Set(keep, window int) {
	if keep <= 0 || window <= 0 {
		keep, window = 0, 0
	}
	if keep > window {
		keep = window
	}
	s.keep.Store(int64(keep))
	s.window.Store(int64(window))
	s.seen.Store(0)
}

func (s *sampler) Allow() bool {
	window := s.window.Load()
	if window == 0 {
		return true
	}
	pos := (s.seen.Add(1) - 1) % uint64(window)
	return int64(pos) < s.keep.Load()
}

// parseRatio accepts "k/n" or "n" (meaning 1/n). Invalid input yields 0, 0.
func parseRatio(ratio string) (int, int) {
	ratio = strings.TrimSpace(ratio)
	if keep, window, ok := strings.Cut(ratio, "/"); ok {
		k, err1 := strconv.Atoi(strings.TrimSpace(keep))
		w, err2 := strconv.Atoi(strings.TrimSpace(window))
		if err1 != nil || err2 != nil {
			return 0, 0
		}
		return k, w
	}
	if n, err := strconv.Atoi(ratio); err == nil && n > 0 {
		return 1, n
	}
	return 0, 0
}
