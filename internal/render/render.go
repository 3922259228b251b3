// Package render описывает поверхности отрисовки кадров и их композицию
package render

import (
	"context"

	"emperror.dev/errors"
	log "github.com/sirupsen/logrus"

	"github.com/idgaron/Capstone-Software/internal/models"
)

// Renderer получает каждый новый кадр анализа
type Renderer interface {
	Update(ctx context.Context, frame models.Frame) error
}

// RendererFunc адаптирует функцию к интерфейсу Renderer
type RendererFunc func(ctx context.Context, frame models.Frame) error

// Update вызывает f
func (f RendererFunc) Update(ctx context.Context, frame models.Frame) error {
	return f(ctx, frame)
}

// Multi передает кадр всем приемникам по очереди.
// Ошибка одного приемника не мешает остальным.
type Multi []Renderer

// Update рассылает кадр и объединяет ошибки
func (m Multi) Update(ctx context.Context, frame models.Frame) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Update(ctx, frame); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Combine(errs...)
}

// LogRenderer пишет краткую сводку кадра в лог
type LogRenderer struct {
	logger log.FieldLogger
	level  log.Level
}

// NewLogRenderer создает приемник поверх logrus
func NewLogRenderer(logger log.FieldLogger, level log.Level) *LogRenderer {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &LogRenderer{logger: logger, level: level}
}

// Update логирует пик, статистику окна и число бинов
func (l *LogRenderer) Update(_ context.Context, frame models.Frame) error {
	entry := l.logger.WithFields(log.Fields{
		"seq":       frame.Seq,
		"pushes":    frame.Pushes,
		"bins":      frame.Spectrum.Len(),
		"mean":      frame.Stats.Mean,
		"std_dev":   frame.Stats.StdDev,
		"peak_hz":   frame.Peak.Frequency,
		"peak_mag":  frame.Peak.Magnitude,
		"peak_bin":  frame.Peak.Bin,
		"n_samples": len(frame.Samples),
	})

	switch l.level {
	case log.DebugLevel, log.TraceLevel:
		entry.Debug("Spectrum updated")
	default:
		entry.Info("Spectrum updated")
	}
	return nil
}
