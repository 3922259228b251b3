package analytics

import (
	"emperror.dev/errors"
	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-vecmath"
	"github.com/mjibson/go-dsp/fft"

	"github.com/idgaron/Capstone-Software/internal/models"
)

// FrequencyLayout определяет, как номер бина переводится в частоту
type FrequencyLayout string

const (
	// LayoutLinear: f[k] = k*F/W для k = 0..W-1
	LayoutLinear FrequencyLayout = "linear"
	// LayoutSigned: бины выше W/2 получают отрицательные частоты (k-W)*F/W
	LayoutSigned FrequencyLayout = "signed"
)

func (l FrequencyLayout) validate() error {
	switch l {
	case "", LayoutLinear, LayoutSigned:
		return nil
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown frequency layout %q", string(l))
	}
}

// transform считает прямое ДПФ вещественного окна
type transform interface {
	forward(x []float64) ([]complex128, error)
}

// planTransform использует заранее построенный FFT-план
type planTransform struct {
	plan *algofft.Plan[complex128]
	in   []complex128
}

func (p *planTransform) forward(x []float64) ([]complex128, error) {
	for i, v := range x {
		p.in[i] = complex(v, 0)
	}
	out := make([]complex128, len(x))
	if err := p.plan.Forward(out, p.in); err != nil {
		return nil, err
	}
	return out, nil
}

// realTransform работает с окном произвольной длины
type realTransform struct{}

func (realTransform) forward(x []float64) ([]complex128, error) {
	return fft.FFTReal(x), nil
}

// newTransform строит план algo-fft только для степеней двойки:
// на смешанных радиксах (40, 200, 1000, ...) план дает неверные коэффициенты.
// Остальные размеры считаются через go-dsp.
func newTransform(n int) transform {
	if !isPowerOfTwo(n) {
		return realTransform{}
	}
	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return realTransform{}
	}
	return &planTransform{plan: plan, in: make([]complex128, n)}
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func frequencyAxis(n int, sampleRate float64, layout FrequencyLayout) []float64 {
	freqs := make([]float64, n)
	positive := (n-1)/2 + 1
	for k := range freqs {
		bin := k
		if layout == LayoutSigned && k >= positive {
			bin = k - n
		}
		freqs[k] = float64(bin) * sampleRate / float64(n)
	}
	return freqs
}

func magnitudes(coeffs []complex128) []float64 {
	n := len(coeffs)
	out := make([]float64, n)
	parts := make([]float64, 2*n)
	re, im := parts[:n], parts[n:]
	for i, c := range coeffs {
		re[i] = real(c)
		im[i] = imag(c)
	}
	vecmath.Magnitude(out, re, im)
	return out
}

func selectBins(freqs, mags []float64, positiveOnly bool) models.Spectrum {
	if !positiveOnly {
		return models.Spectrum{
			Frequencies: append([]float64(nil), freqs...),
			Magnitudes:  mags,
		}
	}

	out := models.Spectrum{
		Frequencies: make([]float64, 0, len(freqs)),
		Magnitudes:  make([]float64, 0, len(mags)),
	}
	for k, f := range freqs {
		if f >= 0 {
			out.Frequencies = append(out.Frequencies, f)
			out.Magnitudes = append(out.Magnitudes, mags[k])
		}
	}
	return out
}

// FindPeak возвращает бин с наибольшей амплитудой среди частот [0, maxFreq].
// При skipDC нулевая частота не рассматривается. Bin = -1, если подходящих бинов нет.
func FindPeak(s models.Spectrum, maxFreq float64, skipDC bool) models.Peak {
	peak := models.Peak{Bin: -1}
	for k, f := range s.Frequencies {
		if f < 0 || f > maxFreq || (skipDC && f == 0) {
			continue
		}
		if peak.Bin < 0 || s.Magnitudes[k] > peak.Magnitude {
			peak = models.Peak{Bin: k, Frequency: f, Magnitude: s.Magnitudes[k]}
		}
	}
	return peak
}
