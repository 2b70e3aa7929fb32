package domain

// BandRateProperties describes a linear magnitude trend fitted in one band.
type BandRateProperties struct {
	Rate      float64  `json:"rate"`
	RateError float64  `json:"rate_error"`
	RedChi2   *float64 `json:"red_chi2"`
	NbData    int32    `json:"nb_data"`
	DT        float64  `json:"dt"`
}

// BandProperties summarizes the light curve in one band.
type BandProperties struct {
	PeakJD     float64             `json:"peak_jd"`
	PeakMag    float64             `json:"peak_mag"`
	PeakMagErr float64             `json:"peak_mag_err"`
	DT         float64             `json:"dt"`
	Rising     *BandRateProperties `json:"rising"`
	Fading     *BandRateProperties `json:"fading"`
}

// PerBandProperties holds BandProperties for every band that has data.
type PerBandProperties struct {
	G *BandProperties `json:"g"`
	R *BandProperties `json:"r"`
	I *BandProperties `json:"i"`
	Z *BandProperties `json:"z"`
	Y *BandProperties `json:"y"`
	U *BandProperties `json:"u"`
}

// Band returns the properties for b, or nil if the band has no data.
func (p *PerBandProperties) Band(b Band) *BandProperties {
	if p == nil {
		return nil
	}
	switch b {
	case BandG:
		return p.G
	case BandR:
		return p.R
	case BandI:
		return p.I
	case BandZ:
		return p.Z
	case BandY:
		return p.Y
	case BandU:
		return p.U
	}
	return nil
}

// ZtfAlertProperties are the broker-computed classification flags for a ZTF alert.
type ZtfAlertProperties struct {
	Rock                 bool               `json:"rock"`
	Star                 bool               `json:"star"`
	NearBrightStar       bool               `json:"near_brightstar"`
	Stationary           bool               `json:"stationary"`
	PhotStats            PerBandProperties  `json:"photstats"`
	MultiSurveyPhotStats *PerBandProperties `json:"multisurvey_photstats"`
}

// LsstAlertProperties are the broker-computed classification flags for an LSST alert.
type LsstAlertProperties struct {
	Rock                 bool              `json:"rock"`
	Stationary           bool              `json:"stationary"`
	Star                 *bool             `json:"star"`
	NearBrightStar       *bool             `json:"near_brightstar"`
	PhotStats            PerBandProperties `json:"photstats"`
	MultiSurveyPhotStats PerBandProperties `json:"multisurvey_photstats"`
}
