package scale

import "math"

const (
	StabilityWindow    = 5
	StabilityTolerance = 5.0
)

// StabilityFilter decides whether the last StabilityWindow samples have
// settled. The window slides on every sample. StableWeight keeps the last
// stable value while the reading is unsettled.
type StabilityFilter struct {
	samples      []float64
	stableWeight float64
}

func NewStabilityFilter() *StabilityFilter {
	return &StabilityFilter{samples: make([]float64, 0, StabilityWindow)}
}

func (f *StabilityFilter) Ingest(sample WeightSample) WeightUpdate {
	if len(f.samples) == StabilityWindow {
		copy(f.samples, f.samples[1:])
		f.samples = f.samples[:StabilityWindow-1]
	}
	f.samples = append(f.samples, sample.Value)

	stable := f.isStable()
	if stable {
		f.stableWeight = math.Round(f.mean())
	}

	return WeightUpdate{
		Weight:       sample.Value,
		Stable:       stable,
		StableWeight: f.stableWeight,
		Timestamp:    sample.Timestamp,
	}
}

// Reset empties the window. The remembered stable weight is kept.
func (f *StabilityFilter) Reset() {
	f.samples = f.samples[:0]
}

func (f *StabilityFilter) StableWeight() float64 {
	return f.stableWeight
}

func (f *StabilityFilter) isStable() bool {
	if len(f.samples) < StabilityWindow {
		return false
	}

	mean := f.mean()
	for _, v := range f.samples {
		if math.Abs(v-mean) > StabilityTolerance {
			return false
		}
	}

	return true
}

func (f *StabilityFilter) mean() float64 {
	var sum float64
	for _, v := range f.samples {
		sum += v
	}
	return sum / float64(len(f.samples))
}
