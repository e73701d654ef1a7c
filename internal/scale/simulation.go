package scale

import (
	"math/rand/v2"
)

const (
	DefaultSimulationBaseline = 25000
	simulationStep            = 10
)

// simulator produces a random walk standing in for the indicator.
type simulator struct {
	baseline int
	base     int
	rng      *rand.Rand
}

func newSimulator(baseline int, rng *rand.Rand) *simulator {
	if baseline < 0 {
		baseline = 0
	}
	return &simulator{baseline: baseline, base: baseline, rng: rng}
}

func (s *simulator) reset() {
	s.base = s.baseline
}

func (s *simulator) next() float64 {
	s.base += s.rng.IntN(2*simulationStep+1) - simulationStep
	if s.base < 0 {
		s.base = 0
	}
	return float64(s.base)
}
