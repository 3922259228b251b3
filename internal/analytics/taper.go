package analytics

import (
	"emperror.dev/errors"
	"github.com/cwbudde/algo-dsp/dsp/window"
	"github.com/cwbudde/algo-vecmath"
)

// Taper задает оконную функцию, применяемую к копии окна перед ДПФ
type Taper string

const (
	TaperNone     Taper = "none"
	TaperHann     Taper = "hann"
	TaperHamming  Taper = "hamming"
	TaperBlackman Taper = "blackman"
	TaperFlatTop  Taper = "flattop"
)

var taperTypes = map[Taper]window.Type{
	TaperHann:     window.TypeHann,
	TaperHamming:  window.TypeHamming,
	TaperBlackman: window.TypeBlackman,
	TaperFlatTop:  window.TypeFlatTop,
}

// coefficients возвращает периодическую форму окна длины n или nil для TaperNone
func (t Taper) coefficients(n int) ([]float64, error) {
	if t == "" || t == TaperNone {
		return nil, nil
	}
	winType, ok := taperTypes[t]
	if !ok {
		return nil, errors.Wrapf(ErrInvalidConfig, "unknown taper %q", string(t))
	}

	coeffs := window.Generate(winType, n, window.WithPeriodic())
	if len(coeffs) != n {
		return nil, errors.Wrapf(ErrInvalidConfig, "invalid taper length: %d", n)
	}
	return coeffs, nil
}

func applyTaper(samples, coeffs []float64) {
	vecmath.MulBlockInPlace(samples, coeffs)
}
