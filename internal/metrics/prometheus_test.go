package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/idgaron/Capstone-Software/internal/models"
)

func TestUpdateFrameMetrics(t *testing.T) {
	before := testutil.ToFloat64(SpectrumUpdates)

	UpdateFrameMetrics(models.Frame{
		Peak:  models.Peak{Bin: 25, Frequency: 62.5, Magnitude: 0.5},
		Stats: models.WindowStats{Mean: 1.5, StdDev: 0.25, Count: 200},
	})

	if got := testutil.ToFloat64(SpectrumUpdates) - before; got != 1 {
		t.Errorf("Expected 1 spectrum update, got %f", got)
	}
	if got := testutil.ToFloat64(PeakFrequency); got != 62.5 {
		t.Errorf("Expected peak frequency 62.5, got %f", got)
	}
	if got := testutil.ToFloat64(WindowMean); got != 1.5 {
		t.Errorf("Expected window mean 1.5, got %f", got)
	}
}

func TestUpdateFrameMetrics_NoPeakKeepsPrevious(t *testing.T) {
	UpdateFrameMetrics(models.Frame{Peak: models.Peak{Bin: 3, Frequency: 10, Magnitude: 2}})
	UpdateFrameMetrics(models.Frame{Peak: models.Peak{Bin: -1}})

	if got := testutil.ToFloat64(PeakFrequency); got != 10 {
		t.Errorf("Expected peak frequency to stay at 10, got %f", got)
	}
}
