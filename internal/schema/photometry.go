package schema

import (
	"math"

	"github.com/boom-astro/babamul/internal/photometry"
)

// Photometry list keys shared by alerts, survey matches and the per-object endpoint.
const (
	KeyDetections    = "prv_candidates"
	KeyNonDetections = "prv_nondetections"
	KeyForced        = "fp_hists"
)

// Detections validates a prv_candidates list.
func Detections(path string, list []any) ([]photometry.Detection, error) {
	return bindList(path, list, func(p string, d *photometry.Detection) error {
		if math.IsNaN(d.PSFFlux) {
			return invalid(Join(p, "psfFlux"), "flux is NaN")
		}
		return finiteError(p, d.PSFFluxErr)
	})
}

// NonDetections validates a prv_nondetections list.
func NonDetections(path string, list []any) ([]photometry.NonDetection, error) {
	return bindList(path, list, func(p string, n *photometry.NonDetection) error {
		return finiteError(p, n.PSFFluxErr)
	})
}

// Forced validates an fp_hists list.
func Forced(path string, list []any) ([]photometry.Forced, error) {
	return bindList(path, list, func(p string, f *photometry.Forced) error {
		return finiteError(p, f.PSFFluxErr)
	})
}

func finiteError(path string, fluxErr float64) error {
	if math.IsNaN(fluxErr) {
		return invalid(Join(path, "psfFluxErr"), "flux error is NaN")
	}
	return nil
}

func bindList[T any](path string, list []any, check func(string, *T) error) ([]T, error) {
	out := make([]T, len(list))
	for i, item := range list {
		itemPath := Index(path, i)
		rec, err := AsRecord(itemPath, item)
		if err != nil {
			return nil, err
		}
		if err := Bind(itemPath, rec, &out[i]); err != nil {
			return nil, err
		}
		if err := check(itemPath, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// History reads and reconciles the photometry lists of rec at zeroPoint.
// withNonDetections is false for LSST records, which never carry limits.
// present is false when every list is absent or null.
func History(path string, rec Record, zeroPoint float64, withNonDetections bool) (h photometry.History, present bool, err error) {
	if list, ok, err := OptionalList(rec, Join(path, KeyDetections), KeyDetections); err != nil {
		return h, false, err
	} else if ok {
		raw, err := Detections(Join(path, KeyDetections), list)
		if err != nil {
			return h, false, err
		}
		h.Detections = photometry.ReconcileAll(raw, zeroPoint)
		present = true
	}

	if list, ok, err := OptionalList(rec, Join(path, KeyForced), KeyForced); err != nil {
		return h, false, err
	} else if ok {
		raw, err := Forced(Join(path, KeyForced), list)
		if err != nil {
			return h, false, err
		}
		h.Forced = photometry.ReconcileAll(raw, zeroPoint)
		present = true
	}

	if !withNonDetections {
		return h, present, nil
	}

	if list, ok, err := OptionalList(rec, Join(path, KeyNonDetections), KeyNonDetections); err != nil {
		return h, false, err
	} else if ok {
		raw, err := NonDetections(Join(path, KeyNonDetections), list)
		if err != nil {
			return h, false, err
		}
		h.NonDetections = photometry.ReconcileAll(raw, zeroPoint)
		present = true
	}

	return h, present, nil
}
