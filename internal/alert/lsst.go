package alert

import (
	"github.com/boom-astro/babamul/internal/domain"
	"github.com/boom-astro/babamul/internal/photometry"
)

// LsstAlert is an LSST alert. Its history never has non-detections.
type LsstAlert struct {
	core

	Candidate       domain.LsstCandidate
	Properties      domain.LsstAlertProperties
	ZtfMatch        *ZtfMatch
	Classifications map[string]float64
}

var _ Alert = (*LsstAlert)(nil)

// DRB returns the reliability score.
func (a *LsstAlert) DRB() *float64 {
	return a.Candidate.Reliability
}

// Summary implements Alert. Band is empty when the source has none.
func (a *LsstAlert) Summary() Summary {
	c := &a.Candidate
	s := Summary{
		Survey:   domain.SurveyLSST,
		ObjectID: a.objectID,
		Candid:   a.candid,
		JD:       c.JD,
		Time:     c.Datetime(),
		RA:       c.RA,
		Dec:      c.Dec,
		MagPSF:   c.MagPSF,
		SigmaPSF: c.SigmaPSF,
		DRB:      c.Reliability,
	}
	if c.Band != nil {
		s.Band = *c.Band
	}
	return s
}

// ZtfMatch is the ZTF object matched to an LSST alert.
type ZtfMatch struct {
	ObjectID string
	RA       float64
	Dec      float64
	History  photometry.History // at the ZTF zero point
}

// Photometry returns the match's combined light curve.
func (m *ZtfMatch) Photometry(dedup bool) []domain.Photometry {
	return photometry.Combine(m.History, dedup)
}
