package domain

import (
	"fmt"
	"strings"
)

// Survey identifies the alert-producing survey.
type Survey string

const (
	SurveyZTF  Survey = "ZTF"
	SurveyLSST Survey = "LSST"
)

// Photometric zero points used to convert scaled flux to AB magnitude.
const (
	ZtfZeroPoint  = 23.9
	LsstZeroPoint = 8.9
)

// ParseSurvey accepts "ztf"/"lsst" in any case.
func ParseSurvey(s string) (Survey, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(SurveyZTF):
		return SurveyZTF, nil
	case string(SurveyLSST):
		return SurveyLSST, nil
	}
	return "", fmt.Errorf("%w: unknown survey %q", ErrInvalidQuery, s)
}

// String returns the string representation of Survey.
func (s Survey) String() string {
	return string(s)
}

// Slug returns the lowercase form used in REST paths and topic names.
func (s Survey) Slug() string {
	return strings.ToLower(string(s))
}

// ZeroPoint returns the survey's flux zero point, or 0 for an unknown survey.
func (s Survey) ZeroPoint() float64 {
	switch s {
	case SurveyZTF:
		return ZtfZeroPoint
	case SurveyLSST:
		return LsstZeroPoint
	}
	return 0
}

// Band is a photometric filter.
type Band string

const (
	BandG Band = "g"
	BandR Band = "r"
	BandI Band = "i"
	BandZ Band = "z"
	BandY Band = "y"
	BandU Band = "u"
)

// Bands lists every band in display order.
var Bands = []Band{BandG, BandR, BandI, BandZ, BandY, BandU}

// ParseBand returns the Band for s or an error if s is not a known filter.
func ParseBand(s string) (Band, error) {
	b := Band(s)
	if !b.IsValid() {
		return "", fmt.Errorf("unknown band %q", s)
	}
	return b, nil
}

// String returns the string representation of Band.
func (b Band) String() string {
	return string(b)
}

// IsValid checks if the band is one of the known filters.
func (b Band) IsValid() bool {
	switch b {
	case BandG, BandR, BandI, BandZ, BandY, BandU:
		return true
	}
	return false
}
