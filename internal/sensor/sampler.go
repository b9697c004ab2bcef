package sensor

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/chrissnell/rangesensor/internal/adc"
	"gonum.org/v1/gonum/stat"
)

const (
	// interSampleDelay spaces raw ADC reads so oversampling doesn't just
	// capture correlated noise.
	interSampleDelay = time.Millisecond

	// voltageHistorySize bounds the recent-voltage buffer used for noise
	// statistics.
	voltageHistorySize = 10
)

// Sampler draws raw voltages from a VoltageSource and reduces them to a
// single outlier-filtered average.
type Sampler struct {
	source  adc.VoltageSource
	history *ring
}

// NewSampler creates a Sampler reading from the given source.
func NewSampler(source adc.VoltageSource) *Sampler {
	return &Sampler{
		source:  source,
		history: newRing(voltageHistorySize),
	}
}

// Sample draws count raw voltages, rejects IQR outliers, and returns the mean
// of the survivors. If filtering would discard every sample (all-equal or
// tiny sets), the unfiltered set is used instead. The result is appended to
// the bounded voltage history. For count < 1, a single sample is drawn.
func (s *Sampler) Sample(ctx context.Context, count int) (float64, error) {
	if count < 1 {
		count = 1
	}

	raw := make([]float64, 0, count)
	for i := 0; i < count; i++ {
		v, err := s.source.ReadVoltage()
		if err != nil {
			return 0, fmt.Errorf("raw sample %d/%d: %w", i+1, count, err)
		}
		raw = append(raw, v)

		if i < count-1 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(interSampleDelay):
			}
		}
	}

	voltage := stat.Mean(rejectOutliers(raw), nil)
	s.history.Push(voltage)
	return voltage, nil
}

// rejectOutliers discards samples outside [Q1-1.5·IQR, Q3+1.5·IQR]. Falls
// back to the full set when nothing survives.
func rejectOutliers(samples []float64) []float64 {
	if len(samples) < 2 {
		return samples
	}

	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	q1 := stat.Quantile(0.25, stat.LinInterp, sorted, nil)
	q3 := stat.Quantile(0.75, stat.LinInterp, sorted, nil)
	iqr := q3 - q1
	lower := q1 - 1.5*iqr
	upper := q3 + 1.5*iqr

	filtered := make([]float64, 0, len(samples))
	for _, v := range samples {
		if v >= lower && v <= upper {
			filtered = append(filtered, v)
		}
	}
	if len(filtered) == 0 {
		return samples
	}
	return filtered
}

// NoiseStdev returns the standard deviation over the recent voltage history,
// or 0 when fewer than two averaged samples exist.
func (s *Sampler) NoiseStdev() float64 {
	vals := s.history.Values()
	if len(vals) < 2 {
		return 0
	}
	return stat.PopStdDev(vals, nil)
}

// History returns the recent averaged voltages, oldest first.
func (s *Sampler) History() []float64 {
	return s.history.Values()
}
