package scale

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func feed(f *StabilityFilter, values ...float64) WeightUpdate {
	var last WeightUpdate
	for _, v := range values {
		last = f.Ingest(WeightSample{Value: v, Timestamp: time.Now()})
	}
	return last
}

func TestStabilityFilter_StablePlateau(t *testing.T) {
	f := NewStabilityFilter()

	u := feed(f, 39170, 39172, 39168, 39171, 39169)

	assert.True(t, u.Stable)
	assert.Equal(t, 39170.0, u.StableWeight)
	assert.Equal(t, 39169.0, u.Weight)
}

func TestStabilityFilter_NotStableUntilWindowFull(t *testing.T) {
	f := NewStabilityFilter()

	for i := 0; i < StabilityWindow-1; i++ {
		u := f.Ingest(WeightSample{Value: 1000})
		assert.False(t, u.Stable, "sample %d", i)
		assert.Zero(t, u.StableWeight)
	}

	assert.True(t, f.Ingest(WeightSample{Value: 1000}).Stable)
}

func TestStabilityFilter_OutlierBreaksStabilityForOneWindow(t *testing.T) {
	f := NewStabilityFilter()
	feed(f, 1000, 1000, 1000, 1000, 1000)

	u := f.Ingest(WeightSample{Value: 1020})
	assert.False(t, u.Stable)
	assert.Equal(t, 1000.0, u.StableWeight, "stable weight is remembered while unsettled")

	for i := 0; i < StabilityWindow-1; i++ {
		u = f.Ingest(WeightSample{Value: 1000})
		assert.False(t, u.Stable, "outlier still inside the window after %d samples", i+1)
		assert.Equal(t, 1000.0, u.StableWeight)
	}

	u = f.Ingest(WeightSample{Value: 1000})
	assert.True(t, u.Stable)
}

func TestStabilityFilter_NewPlateauReplacesStableWeight(t *testing.T) {
	f := NewStabilityFilter()
	feed(f, 500, 500, 500, 500, 500)

	u := feed(f, 800, 801, 799, 800)
	assert.False(t, u.Stable)
	assert.Equal(t, 500.0, u.StableWeight)

	u = feed(f, 802)
	assert.True(t, u.Stable)
	assert.Equal(t, 800.0, u.StableWeight)
}

func TestStabilityFilter_ToleranceBoundary(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		stable bool
	}{
		{name: "exactly five from mean", values: []float64{995, 1005, 1000, 1000, 1000}, stable: true},
		{name: "just over five from mean", values: []float64{1000, 1000, 1000, 1000, 1007}, stable: false},
		{name: "rounded mean", values: []float64{10, 10, 11, 11, 11}, stable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := feed(NewStabilityFilter(), tt.values...)
			assert.Equal(t, tt.stable, u.Stable)
		})
	}
}

func TestStabilityFilter_ResetKeepsStableWeight(t *testing.T) {
	f := NewStabilityFilter()
	feed(f, 200, 200, 200, 200, 200)

	f.Reset()

	u := f.Ingest(WeightSample{Value: 200})
	assert.False(t, u.Stable)
	assert.Equal(t, 200.0, u.StableWeight)
	assert.Equal(t, 200.0, f.StableWeight())
}
