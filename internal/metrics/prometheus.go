// Package metrics реализует экспорт метрик в Prometheus
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/idgaron/Capstone-Software/internal/models"
)

// Prometheus метрики
var (
	// RequestsTotal общее количество запросов
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spectrum_monitor_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"endpoint", "method", "status"},
	)

	// RequestDuration длительность запросов
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spectrum_monitor_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"endpoint", "method"},
	)

	// LinesRead количество прочитанных строк
	LinesRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spectrum_monitor_lines_read_total",
			Help: "Total number of lines read from the source",
		},
	)

	// RecordsIngested количество разобранных записей
	RecordsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spectrum_monitor_records_ingested_total",
			Help: "Total number of well-formed records pushed into the window",
		},
	)

	// MalformedLines количество отброшенных строк
	MalformedLines = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spectrum_monitor_malformed_lines_total",
			Help: "Total number of lines dropped as malformed",
		},
	)

	// SpectrumUpdates количество пересчетов спектра
	SpectrumUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spectrum_monitor_spectrum_updates_total",
			Help: "Total number of spectrum recomputations",
		},
	)

	// RenderErrors ошибки отрисовки по приемникам
	RenderErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spectrum_monitor_render_errors_total",
			Help: "Total number of failed frame renders",
		},
	)

	// CacheWrites записи кадров в Redis
	CacheWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spectrum_monitor_cache_writes_total",
			Help: "Frame writes to Redis by result",
		},
		[]string{"result"},
	)

	// PeakFrequency частота доминирующего бина
	PeakFrequency = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spectrum_monitor_peak_frequency_hz",
			Help: "Frequency of the dominant spectral bin",
		},
	)

	// PeakMagnitude амплитуда доминирующего бина
	PeakMagnitude = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spectrum_monitor_peak_magnitude",
			Help: "Magnitude of the dominant spectral bin",
		},
	)

	// WindowMean среднее по окну
	WindowMean = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spectrum_monitor_window_mean",
			Help: "Mean of the samples in the window",
		},
	)

	// WindowStdDev стандартное отклонение по окну
	WindowStdDev = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spectrum_monitor_window_stddev",
			Help: "Standard deviation of the samples in the window",
		},
	)

	// ActiveGoroutines количество активных горутин
	ActiveGoroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spectrum_monitor_active_goroutines",
			Help: "Number of active goroutines",
		},
	)

	// SpectrumLatency время расчета спектра
	SpectrumLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "spectrum_monitor_spectrum_latency_seconds",
			Help:    "Spectrum computation latency in seconds",
			Buckets: []float64{.00005, .0001, .0005, .001, .005, .01, .025, .05},
		},
	)
)

// UpdateFrameMetrics обновляет метрики по новому кадру
func UpdateFrameMetrics(frame models.Frame) {
	SpectrumUpdates.Inc()
	WindowMean.Set(frame.Stats.Mean)
	WindowStdDev.Set(frame.Stats.StdDev)
	if frame.Peak.Bin >= 0 {
		PeakFrequency.Set(frame.Peak.Frequency)
		PeakMagnitude.Set(frame.Peak.Magnitude)
	}
}
