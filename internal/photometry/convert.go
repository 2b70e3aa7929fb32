// Package photometry converts raw survey flux measurements into reconciled
// light-curve points and combines them into a single time series.
package photometry

import "math"

// FluxScale converts raw nJy-scaled flux to the units of the survey zero points.
const FluxScale = 1e-9

// DetectionThreshold is the SNR below which forced photometry is reported as a limit.
const DetectionThreshold = 3.0

// FluxToMag converts a flux and its error to an AB magnitude and magnitude error.
// Non-positive flux has no magnitude and yields (+Inf, 0).
// Both inputs must already be scaled by FluxScale.
func FluxToMag(flux, fluxErr, zeroPoint float64) (mag, magErr float64) {
	if flux <= 0 {
		return math.Inf(1), 0
	}
	mag = zeroPoint - 2.5*math.Log10(flux)
	magErr = (2.5 / math.Ln10) * (fluxErr / flux)
	return mag, magErr
}

// FluxErrToLimit returns the 3-sigma limiting magnitude for a flux error.
// Non-positive errors yield +Inf.
func FluxErrToLimit(fluxErr, zeroPoint float64) float64 {
	if fluxErr <= 0 {
		return math.Inf(1)
	}
	return zeroPoint - 2.5*math.Log10(3*fluxErr)
}

// SNR returns |flux| / fluxErr, or 0 when fluxErr is not positive.
func SNR(flux, fluxErr float64) float64 {
	if fluxErr <= 0 {
		return 0
	}
	return math.Abs(flux) / fluxErr
}
