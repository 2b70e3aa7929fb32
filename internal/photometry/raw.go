package photometry

import (
	"math"

	"github.com/boom-astro/babamul/internal/domain"
)

// Raw is one of the three wire shapes of a light-curve point:
// Detection, NonDetection or Forced.
type Raw interface {
	rawPhotometry()
}

// Detection is a prior alert detection (prv_candidates).
type Detection struct {
	JD         float64     `json:"jd"`
	PSFFlux    float64     `json:"psfFlux"`
	PSFFluxErr float64     `json:"psfFluxErr"`
	Band       domain.Band `json:"band"`
	RA         float64     `json:"ra"`
	Dec        float64     `json:"dec"`
}

// NonDetection is an upper limit (prv_nondetections).
type NonDetection struct {
	JD         float64     `json:"jd"`
	PSFFluxErr float64     `json:"psfFluxErr"`
	Band       domain.Band `json:"band"`
}

// Forced is a forced-photometry measurement (fp_hists). PSFFlux is nil
// when the pipeline could not measure a flux at the position.
type Forced struct {
	JD         float64     `json:"jd"`
	PSFFlux    *float64    `json:"psfFlux"`
	PSFFluxErr float64     `json:"psfFluxErr"`
	Band       domain.Band `json:"band"`
}

func (Detection) rawPhotometry()    {}
func (NonDetection) rawPhotometry() {}
func (Forced) rawPhotometry()       {}

// Reconcile dispatches r to its reconciliation function.
func Reconcile(r Raw, zeroPoint float64) domain.Photometry {
	switch v := r.(type) {
	case Detection:
		return FromDetection(v, zeroPoint)
	case NonDetection:
		return FromNonDetection(v, zeroPoint)
	case Forced:
		return FromForced(v, zeroPoint)
	}
	panic("photometry: unknown raw variant")
}

// FromDetection converts a detection. The magnitude is computed from |flux|
// and IsDiffPos records the sign of the difference flux.
func FromDetection(d Detection, zeroPoint float64) domain.Photometry {
	mag, magErr := FluxToMag(math.Abs(d.PSFFlux*FluxScale), d.PSFFluxErr*FluxScale, zeroPoint)
	return domain.Photometry{
		JD:         d.JD,
		MagPSF:     &mag,
		SigmaPSF:   &magErr,
		IsDiffPos:  ptr(d.PSFFlux > 0),
		PSFFlux:    ptr(d.PSFFlux),
		PSFFluxErr: d.PSFFluxErr,
		Band:       d.Band,
		ZP:         zeroPoint,
		RA:         ptr(d.RA),
		Dec:        ptr(d.Dec),
		SNR:        ptr(SNR(d.PSFFlux, d.PSFFluxErr)),
	}
}

// FromNonDetection converts an upper limit. Only DiffMagLim is derived.
func FromNonDetection(n NonDetection, zeroPoint float64) domain.Photometry {
	lim := FluxErrToLimit(n.PSFFluxErr*FluxScale, zeroPoint)
	return domain.Photometry{
		JD:         n.JD,
		DiffMagLim: &lim,
		PSFFluxErr: n.PSFFluxErr,
		Band:       n.Band,
		ZP:         zeroPoint,
	}
}

// FromForced converts forced photometry. Points with SNR below
// DetectionThreshold become limits, the rest become detections.
// A missing or NaN flux counts as zero signal.
func FromForced(f Forced, zeroPoint float64) domain.Photometry {
	flux := 0.0
	if f.PSFFlux != nil && !math.IsNaN(*f.PSFFlux) {
		flux = *f.PSFFlux
	}
	snr := SNR(flux, f.PSFFluxErr)

	p := domain.Photometry{
		JD:         f.JD,
		PSFFluxErr: f.PSFFluxErr,
		Band:       f.Band,
		ZP:         zeroPoint,
		SNR:        &snr,
	}
	if f.PSFFlux != nil {
		p.PSFFlux = ptr(*f.PSFFlux)
	}

	if snr < DetectionThreshold {
		lim := FluxErrToLimit(f.PSFFluxErr*FluxScale, zeroPoint)
		p.DiffMagLim = &lim
		return p
	}

	mag, magErr := FluxToMag(math.Abs(flux*FluxScale), f.PSFFluxErr*FluxScale, zeroPoint)
	p.MagPSF = &mag
	p.SigmaPSF = &magErr
	return p
}

// ReconcileAll converts a homogeneous list, preserving order.
func ReconcileAll[T Raw](raw []T, zeroPoint float64) []domain.Photometry {
	out := make([]domain.Photometry, len(raw))
	for i, r := range raw {
		out[i] = Reconcile(r, zeroPoint)
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}
