// Package monitor реализует основной цикл: чтение строк, разбор,
// накопление окна и периодический пересчет спектра с отрисовкой.
package monitor

import (
	"context"
	"io"
	"sync"
	"time"

	"emperror.dev/errors"
	log "github.com/sirupsen/logrus"

	"github.com/idgaron/Capstone-Software/internal/analytics"
	"github.com/idgaron/Capstone-Software/internal/ingest"
	"github.com/idgaron/Capstone-Software/internal/metrics"
	"github.com/idgaron/Capstone-Software/internal/models"
	"github.com/idgaron/Capstone-Software/internal/render"
	"github.com/idgaron/Capstone-Software/internal/source"
)

// ErrInvalidOptions возвращается при некорректных параметрах цикла
var ErrInvalidOptions = errors.NewPlain("invalid monitor options")

// TimeAxis определяет ось времени в кадре
type TimeAxis string

const (
	// TimeAxisIndex ось 0..W-1
	TimeAxisIndex TimeAxis = "index"
	// TimeAxisTimestamp метки времени записей, умноженные на TimestampScale
	TimeAxisTimestamp TimeAxis = "timestamp"
)

// Причины остановки цикла
const (
	StopContext    = "context"
	StopEOF        = "eof"
	StopThreshold  = "timestamp_threshold"
	StopMaxRecords = "max_records"
	StopError      = "error"
)

// Options задает параметры цикла
type Options struct {
	UpdateInterval int      `yaml:"update_interval"`
	TimeAxis       TimeAxis `yaml:"time_axis"`
	TimestampScale float64  `yaml:"timestamp_scale"`
	// StopAtTimestamp останавливает цикл после первой записи с меткой больше порога; 0 отключает
	StopAtTimestamp float64 `yaml:"stop_at_timestamp"`
	// MaxRecords ограничивает число принятых записей; 0 без ограничения
	MaxRecords uint64 `yaml:"max_records"`
}

// Validate проверяет параметры цикла
func (o Options) Validate() error {
	if o.UpdateInterval <= 0 {
		return errors.Wrapf(ErrInvalidOptions, "update interval must be > 0: %d", o.UpdateInterval)
	}
	switch o.TimeAxis {
	case "", TimeAxisIndex, TimeAxisTimestamp:
	default:
		return errors.Wrapf(ErrInvalidOptions, "unknown time axis %q", string(o.TimeAxis))
	}
	if o.TimestampScale < 0 {
		return errors.Wrapf(ErrInvalidOptions, "timestamp scale must be >= 0: %f", o.TimestampScale)
	}
	return nil
}

// Summary итог работы цикла
type Summary struct {
	Lines        uint64 `json:"lines"`
	Records      uint64 `json:"records"`
	Malformed    uint64 `json:"malformed"`
	Updates      uint64 `json:"updates"`
	RenderErrors uint64 `json:"render_errors"`
	StopReason   string `json:"stop_reason"`
}

// Monitor связывает источник строк, разбор, анализатор и поверхности отрисовки.
// Run вызывается один раз.
type Monitor struct {
	src      source.LineSource
	ingestor *ingest.Ingestor
	analyzer *analytics.Analyzer
	renderer render.Renderer
	opts     Options

	times     *analytics.SlidingWindow
	indexAxis []float64
	seq       uint64
	summary   Summary
	closeOnce sync.Once
}

// New создает цикл монитора
func New(src source.LineSource, ingestor *ingest.Ingestor, analyzer *analytics.Analyzer, renderer render.Renderer, opts Options) (*Monitor, error) {
	if src == nil || ingestor == nil || analyzer == nil || renderer == nil {
		return nil, errors.Wrap(ErrInvalidOptions, "source, ingestor, analyzer and renderer are required")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.TimeAxis == "" {
		opts.TimeAxis = TimeAxisIndex
	}
	if opts.TimestampScale == 0 {
		opts.TimestampScale = 1
	}

	w := analyzer.WindowSize()
	m := &Monitor{
		src:      src,
		ingestor: ingestor,
		analyzer: analyzer,
		renderer: renderer,
		opts:     opts,
	}

	if opts.TimeAxis == TimeAxisTimestamp {
		m.times = analytics.NewSlidingWindow(w)
	} else {
		m.indexAxis = make([]float64, w)
		for i := range m.indexAxis {
			m.indexAxis[i] = float64(i)
		}
	}

	return m, nil
}

// Run читает источник до отмены контекста, конца потока или условия остановки.
// Источник закрывается при любом исходе.
func (m *Monitor) Run(ctx context.Context) (Summary, error) {
	defer m.closeSource()

	// Закрытие источника прерывает заблокированное чтение
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.closeSource()
		case <-done:
		}
	}()

	started := time.Now()
	log.Infof("Monitor started: window %d, sample rate %.2f Hz, update every %d samples",
		m.analyzer.WindowSize(), m.analyzer.SampleRate(), m.opts.UpdateInterval)

	reason, err := m.loop(ctx)
	m.summary.StopReason = reason

	log.WithFields(log.Fields{
		"lines":     m.summary.Lines,
		"records":   m.summary.Records,
		"malformed": m.summary.Malformed,
		"updates":   m.summary.Updates,
		"reason":    reason,
		"elapsed":   time.Since(started).String(),
	}).Info("Monitor stopped")

	return m.summary, err
}

func (m *Monitor) loop(ctx context.Context) (string, error) {
	for {
		line, err := m.src.ReadLine(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return StopContext, nil
			}
			if errors.Is(err, io.EOF) {
				return StopEOF, nil
			}
			return StopError, errors.Wrap(err, "read source")
		}

		m.summary.Lines++
		metrics.LinesRead.Inc()

		rec, ok := m.ingestor.Parse(line)
		if !ok {
			m.summary.Malformed++
			metrics.MalformedLines.Inc()
			log.WithField("line", line).Debug("Dropped malformed line")
			continue
		}

		m.push(rec)

		if m.analyzer.DueForUpdate(m.opts.UpdateInterval) && m.analyzer.Full() {
			if err := m.update(ctx); err != nil {
				return StopError, err
			}
		}

		if m.opts.StopAtTimestamp != 0 && rec.Timestamp > m.opts.StopAtTimestamp {
			return StopThreshold, nil
		}
		if m.opts.MaxRecords > 0 && m.summary.Records >= m.opts.MaxRecords {
			return StopMaxRecords, nil
		}
	}
}

func (m *Monitor) push(rec models.Record) {
	m.analyzer.Push(rec.Value)
	if m.times != nil {
		m.times.Add(rec.Timestamp * m.opts.TimestampScale)
	}
	m.summary.Records++
	metrics.RecordsIngested.Inc()
}

// update пересчитывает спектр и передает кадр поверхностям отрисовки
func (m *Monitor) update(ctx context.Context) error {
	start := time.Now()
	spectrum, err := m.analyzer.ComputeSpectrum()
	if err != nil {
		return errors.Wrap(err, "compute spectrum")
	}
	metrics.SpectrumLatency.Observe(time.Since(start).Seconds())

	samples := m.analyzer.Snapshot()
	m.seq++
	frame := models.Frame{
		Seq:       m.seq,
		Pushes:    m.analyzer.Pushes(),
		CreatedAt: time.Now(),
		TimeAxis:  m.timeAxis(len(samples)),
		Samples:   samples,
		Spectrum:  spectrum,
		Peak:      m.analyzer.Peak(spectrum),
		Stats:     m.analyzer.Stats(),
	}

	m.summary.Updates++
	metrics.UpdateFrameMetrics(frame)

	if err := m.renderer.Update(ctx, frame); err != nil {
		m.summary.RenderErrors++
		metrics.RenderErrors.Inc()
		log.WithError(err).WithField("seq", frame.Seq).Error("Failed to render frame")
	}
	return nil
}

// timeAxis возвращает ось времени длины n; недостающие метки слева дополняются нулями
func (m *Monitor) timeAxis(n int) []float64 {
	if m.times == nil {
		axis := make([]float64, n)
		copy(axis, m.indexAxis)
		return axis
	}

	values := m.times.Values()
	if len(values) >= n {
		return values[len(values)-n:]
	}
	axis := make([]float64, n)
	copy(axis[n-len(values):], values)
	return axis
}

func (m *Monitor) closeSource() {
	m.closeOnce.Do(func() {
		if err := m.src.Close(); err != nil {
			log.Warnf("Failed to close source: %v", err)
		}
	})
}
