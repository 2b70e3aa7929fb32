package alert

import (
	"github.com/boom-astro/babamul/internal/domain"
	"github.com/boom-astro/babamul/internal/photometry"
)

// ZtfAlert is a ZTF alert.
type ZtfAlert struct {
	core

	Candidate       domain.ZtfCandidate
	Properties      domain.ZtfAlertProperties
	LsstMatch       *LsstMatch         // same-epoch LSST counterpart, if any
	Classifications map[string]float64 // classifier scores, REST alerts only
}

var _ Alert = (*ZtfAlert)(nil)

// DRB returns the deep-learning real-bogus score.
func (a *ZtfAlert) DRB() *float64 {
	return a.Candidate.DRB
}

// Summary implements Alert.
func (a *ZtfAlert) Summary() Summary {
	c := &a.Candidate
	return Summary{
		Survey:   domain.SurveyZTF,
		ObjectID: a.objectID,
		Candid:   a.candid,
		JD:       c.JD,
		Time:     c.Datetime(),
		RA:       c.RA,
		Dec:      c.Dec,
		MagPSF:   c.MagPSF,
		SigmaPSF: c.SigmaPSF,
		Band:     c.Band,
		DRB:      c.DRB,
	}
}

// LsstMatch is the LSST object matched to a ZTF alert.
type LsstMatch struct {
	ObjectID string
	RA       float64
	Dec      float64
	History  photometry.History // at the LSST zero point
}

// Photometry returns the match's combined light curve.
func (m *LsstMatch) Photometry(dedup bool) []domain.Photometry {
	return photometry.Combine(m.History, dedup)
}
