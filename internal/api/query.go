package api

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/boom-astro/babamul/internal/domain"
)

// MaxRadiusArcsec is the largest cone the service accepts.
const MaxRadiusArcsec = 600.0

// Object search limits.
const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 100
)

// AlertQuery filters an alert search. Either ObjectID or a complete cone
// (RA, Dec and RadiusArcsec) is required. Nil bounds are not sent.
type AlertQuery struct {
	ObjectID     string
	RA           *float64 // degrees
	Dec          *float64 // degrees
	RadiusArcsec *float64
	StartJD      *float64
	EndJD        *float64
	MinMagPSF    *float64
	MaxMagPSF    *float64
	MinDRB       *float64
	MaxDRB       *float64
}

// ObjectQuery returns a query for the alerts of one object.
func ObjectQuery(objectID string) AlertQuery {
	return AlertQuery{ObjectID: objectID}
}

// ConeQuery returns a query for alerts within radiusArcsec of (ra, dec).
func ConeQuery(ra, dec, radiusArcsec float64) AlertQuery {
	return AlertQuery{RA: &ra, Dec: &dec, RadiusArcsec: &radiusArcsec}
}

// Between restricts the query to start <= jd <= end.
func (q AlertQuery) Between(startJD, endJD float64) AlertQuery {
	q.StartJD, q.EndJD = &startJD, &endJD
	return q
}

// MagRange restricts the query to min <= magpsf <= max.
func (q AlertQuery) MagRange(minMag, maxMag float64) AlertQuery {
	q.MinMagPSF, q.MaxMagPSF = &minMag, &maxMag
	return q
}

// DRBRange restricts the query to min <= drb <= max.
func (q AlertQuery) DRBRange(minDRB, maxDRB float64) AlertQuery {
	q.MinDRB, q.MaxDRB = &minDRB, &maxDRB
	return q
}

func (q AlertQuery) hasCone() bool {
	return q.RA != nil && q.Dec != nil && q.RadiusArcsec != nil
}

// Validate rejects queries the service would refuse. Errors wrap domain.ErrInvalidQuery.
func (q AlertQuery) Validate() error {
	anyCone := q.RA != nil || q.Dec != nil || q.RadiusArcsec != nil
	if anyCone && !q.hasCone() {
		return fmt.Errorf("%w: a cone needs ra, dec and radius_arcsec", domain.ErrInvalidQuery)
	}
	if q.ObjectID == "" && !q.hasCone() {
		return fmt.Errorf("%w: object_id or ra, dec and radius_arcsec is required", domain.ErrInvalidQuery)
	}
	if q.hasCone() {
		if err := validateCone(*q.RA, *q.Dec, *q.RadiusArcsec); err != nil {
			return err
		}
	}
	for _, r := range []struct {
		name     string
		min, max *float64
	}{
		{"jd", q.StartJD, q.EndJD},
		{"magpsf", q.MinMagPSF, q.MaxMagPSF},
		{"drb", q.MinDRB, q.MaxDRB},
	} {
		if r.min != nil && r.max != nil && *r.min > *r.max {
			return fmt.Errorf("%w: %s range is empty (%g > %g)", domain.ErrInvalidQuery, r.name, *r.min, *r.max)
		}
	}
	return nil
}

func validateCone(ra, dec, radius float64) error {
	if ra < 0 || ra >= 360 {
		return fmt.Errorf("%w: ra must be in [0, 360), got %g", domain.ErrInvalidQuery, ra)
	}
	if dec < -90 || dec > 90 {
		return fmt.Errorf("%w: dec must be in [-90, 90], got %g", domain.ErrInvalidQuery, dec)
	}
	return validateRadius(radius)
}

func validateRadius(radius float64) error {
	if radius <= 0 || radius > MaxRadiusArcsec {
		return fmt.Errorf("%w: radius_arcsec must be in (0, %g], got %g", domain.ErrInvalidQuery, MaxRadiusArcsec, radius)
	}
	return nil
}

// Values encodes the query parameters.
func (q AlertQuery) Values() url.Values {
	v := url.Values{}
	if q.ObjectID != "" {
		v.Set("object_id", q.ObjectID)
	}
	set := func(key string, f *float64) {
		if f != nil {
			v.Set(key, strconv.FormatFloat(*f, 'f', -1, 64))
		}
	}
	set("ra", q.RA)
	set("dec", q.Dec)
	set("radius_arcsec", q.RadiusArcsec)
	set("start_jd", q.StartJD)
	set("end_jd", q.EndJD)
	set("min_magpsf", q.MinMagPSF)
	set("max_magpsf", q.MaxMagPSF)
	set("min_drb", q.MinDRB)
	set("max_drb", q.MaxDRB)
	return v
}

// clampLimit bounds an object search limit to [1, MaxSearchLimit].
func clampLimit(limit int) int {
	return max(1, min(limit, MaxSearchLimit))
}
