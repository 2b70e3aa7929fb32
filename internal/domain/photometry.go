package domain

import "time"

// Photometry is one point of a reconciled light curve.
// Detections carry MagPSF/SigmaPSF, limits carry DiffMagLim. Never both.
type Photometry struct {
	JD         float64  `json:"jd"`
	MagPSF     *float64 `json:"magpsf"`
	SigmaPSF   *float64 `json:"sigmapsf"`
	IsDiffPos  *bool    `json:"isdiffpos"`
	DiffMagLim *float64 `json:"diffmaglim"`
	PSFFlux    *float64 `json:"psfFlux"`    // raw units, nJy-scaled
	PSFFluxErr float64  `json:"psfFluxErr"` // raw units, nJy-scaled
	Band       Band     `json:"band"`
	ZP         float64  `json:"zp"`
	RA         *float64 `json:"ra"`
	Dec        *float64 `json:"dec"`
	SNR        *float64 `json:"snr"`
}

// IsDetection reports whether the point carries a magnitude.
func (p *Photometry) IsDetection() bool {
	return p.MagPSF != nil
}

// Datetime returns the observation time.
func (p *Photometry) Datetime() time.Time {
	return JDToTime(p.JD)
}
