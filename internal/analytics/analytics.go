// Package analytics реализует скользящее окно отсчетов и спектральный анализ окна.
// Analyzer рассчитан на вызовы из одного цикла и не защищен мьютексом.
package analytics

import (
	"math"

	"emperror.dev/errors"

	"github.com/idgaron/Capstone-Software/internal/models"
)

var (
	// ErrWindowNotFull возвращается, если спектр запрошен до заполнения окна.
	// Это ошибка вызывающего кода, а не внешний шум.
	ErrWindowNotFull = errors.NewPlain("window is not full")
	// ErrInvalidConfig возвращается при некорректных параметрах анализатора
	ErrInvalidConfig = errors.NewPlain("invalid analyzer config")
)

// SlidingWindow реализует скользящее окно фиксированной емкости (кольцевой буфер)
type SlidingWindow struct {
	values []float64
	size   int
	index  int
	count  int
	sum    float64
	sumSq  float64
}

// NewSlidingWindow создает новое скользящее окно заданного размера
func NewSlidingWindow(size int) *SlidingWindow {
	if size < 1 {
		size = 1
	}
	return &SlidingWindow{
		values: make([]float64, size),
		size:   size,
	}
}

// Add добавляет новое значение в окно, вытесняя самое старое при заполнении
func (sw *SlidingWindow) Add(value float64) {
	if sw.count >= sw.size {
		// Удаляем старое значение из статистики
		oldValue := sw.values[sw.index]
		sw.sum -= oldValue
		sw.sumSq -= oldValue * oldValue
	} else {
		sw.count++
	}

	sw.values[sw.index] = value
	sw.sum += value
	sw.sumSq += value * value

	sw.index = (sw.index + 1) % sw.size

	// На каждом обороте кольца суммы пересчитываются заново, чтобы не копить ошибку округления
	if sw.index == 0 {
		sw.recompute()
	}
}

func (sw *SlidingWindow) recompute() {
	sw.sum, sw.sumSq = 0, 0
	for _, v := range sw.values[:sw.count] {
		sw.sum += v
		sw.sumSq += v * v
	}
}

// Fill заполняет окно целиком одним значением
func (sw *SlidingWindow) Fill(value float64) {
	for i := range sw.values {
		sw.values[i] = value
	}
	sw.index = 0
	sw.count = sw.size
	sw.sum = value * float64(sw.size)
	sw.sumSq = value * value * float64(sw.size)
}

// Values возвращает копию содержимого окна от старого к новому
func (sw *SlidingWindow) Values() []float64 {
	out := make([]float64, sw.count)
	if sw.count < sw.size {
		copy(out, sw.values[:sw.count])
		return out
	}
	n := copy(out, sw.values[sw.index:])
	copy(out[n:], sw.values[:sw.index])
	return out
}

// Mean возвращает среднее значение (rolling average)
func (sw *SlidingWindow) Mean() float64 {
	if sw.count == 0 {
		return 0
	}
	return sw.sum / float64(sw.count)
}

// StdDev возвращает стандартное отклонение
func (sw *SlidingWindow) StdDev() float64 {
	if sw.count < 2 {
		return 0
	}
	n := float64(sw.count)
	variance := (sw.sumSq - (sw.sum*sw.sum)/n) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// Count возвращает количество элементов в окне
func (sw *SlidingWindow) Count() int {
	return sw.count
}

// Size возвращает емкость окна
func (sw *SlidingWindow) Size() int {
	return sw.size
}

// Full сообщает, заполнено ли окно
func (sw *SlidingWindow) Full() bool {
	return sw.count == sw.size
}

// Config задает параметры анализатора
type Config struct {
	WindowSize   int             `yaml:"window_size"`
	SampleRate   float64         `yaml:"sample_rate"`
	Normalize    bool            `yaml:"normalize"`
	PositiveOnly bool            `yaml:"positive_only"`
	Prefill      bool            `yaml:"prefill"`
	Layout       FrequencyLayout `yaml:"frequency_layout"`
	Taper        Taper           `yaml:"taper"`
}

// Analyzer владеет скользящим окном и считает спектр по запросу
type Analyzer struct {
	cfg    Config
	window *SlidingWindow
	pushes uint64
	fft    transform
	freqs  []float64
	taper  []float64
}

// Validate проверяет размер окна, частоту дискретизации, раскладку частот и окно взвешивания
func (c Config) Validate() error {
	if c.WindowSize <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "window size must be > 0: %d", c.WindowSize)
	}
	if !(c.SampleRate > 0) || math.IsInf(c.SampleRate, 0) {
		return errors.Wrapf(ErrInvalidConfig, "sample rate must be finite and > 0: %f", c.SampleRate)
	}
	if err := c.Layout.validate(); err != nil {
		return err
	}
	if _, err := c.Taper.coefficients(1); err != nil {
		return err
	}
	return nil
}

// NewAnalyzer создает анализатор; FFT-план строится один раз
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	taper, err := cfg.Taper.coefficients(cfg.WindowSize)
	if err != nil {
		return nil, err
	}

	a := &Analyzer{
		cfg:    cfg,
		window: NewSlidingWindow(cfg.WindowSize),
		fft:    newTransform(cfg.WindowSize),
		freqs:  frequencyAxis(cfg.WindowSize, cfg.SampleRate, cfg.Layout),
		taper:  taper,
	}

	// Предзаполнение нулями позволяет считать спектр до прихода W отсчетов
	if cfg.Prefill {
		a.window.Fill(0)
	}

	return a, nil
}

// Push добавляет один отсчет измерения
func (a *Analyzer) Push(value float64) {
	a.window.Add(value)
	a.pushes++
}

// Pushes возвращает количество отсчетов, добавленных с момента создания
func (a *Analyzer) Pushes() uint64 {
	return a.pushes
}

// DueForUpdate возвращает true, когда число добавлений кратно интервалу обновления
func (a *Analyzer) DueForUpdate(interval int) bool {
	if interval <= 0 || a.pushes == 0 {
		return false
	}
	return a.pushes%uint64(interval) == 0
}

// Len возвращает текущее число отсчетов в окне
func (a *Analyzer) Len() int {
	return a.window.Count()
}

// Full сообщает, содержит ли окно W отсчетов
func (a *Analyzer) Full() bool {
	return a.window.Full()
}

// WindowSize возвращает W
func (a *Analyzer) WindowSize() int {
	return a.cfg.WindowSize
}

// SampleRate возвращает F в герцах
func (a *Analyzer) SampleRate() float64 {
	return a.cfg.SampleRate
}

// Snapshot возвращает копию окна от старого к новому
func (a *Analyzer) Snapshot() []float64 {
	return a.window.Values()
}

// Peak возвращает доминирующий бин спектра в диапазоне (0, F/2]
func (a *Analyzer) Peak(s models.Spectrum) models.Peak {
	return FindPeak(s, a.cfg.SampleRate/2, true)
}

// Stats возвращает среднее и стандартное отклонение окна
func (a *Analyzer) Stats() models.WindowStats {
	return models.WindowStats{
		Mean:   a.window.Mean(),
		StdDev: a.window.StdDev(),
		Count:  a.window.Count(),
	}
}

// ComputeSpectrum считает амплитудный спектр текущего окна.
// До заполнения окна возвращает ErrWindowNotFull.
func (a *Analyzer) ComputeSpectrum() (models.Spectrum, error) {
	w := a.cfg.WindowSize
	if a.window.Count() < w {
		return models.Spectrum{}, errors.Wrapf(ErrWindowNotFull, "have %d of %d samples", a.window.Count(), w)
	}

	input := a.window.Values()
	if a.taper != nil {
		applyTaper(input, a.taper)
	}

	coeffs, err := a.fft.forward(input)
	if err != nil {
		return models.Spectrum{}, errors.Wrap(err, "spectrum transform")
	}

	mags := magnitudes(coeffs)
	if a.cfg.Normalize {
		n := float64(w)
		for k := range mags {
			mags[k] /= n
		}
	}

	return selectBins(a.freqs, mags, a.cfg.PositiveOnly), nil
}
