package alert

import (
	"fmt"

	"github.com/boom-astro/babamul/internal/domain"
	"github.com/boom-astro/babamul/internal/photometry"
	"github.com/boom-astro/babamul/internal/schema"
)

// Decode validates rec as an alert of the given survey and builds the unified model.
// Any validation failure is a *domain.DeserializationError; no partial alert is returned.
func Decode(survey domain.Survey, rec schema.Record, opts ...Option) (Alert, error) {
	switch survey {
	case domain.SurveyZTF:
		return DecodeZtf(rec, opts...)
	case domain.SurveyLSST:
		return DecodeLsst(rec, opts...)
	}
	return nil, fmt.Errorf("%w: unknown survey %q", domain.ErrConfiguration, survey)
}

// DecodeZtf validates and builds a ZTF alert.
func DecodeZtf(rec schema.Record, opts ...Option) (*ZtfAlert, error) {
	a := &ZtfAlert{}
	if err := decodeCore(&a.core, domain.SurveyZTF, rec, true); err != nil {
		return nil, err
	}

	candidate, err := schema.RequiredRecord(rec, "candidate", "candidate")
	if err != nil {
		return nil, err
	}
	if err := schema.Bind("candidate", candidate, &a.Candidate); err != nil {
		return nil, err
	}

	props, err := schema.RequiredRecord(rec, "properties", "properties")
	if err != nil {
		return nil, err
	}
	if err := schema.Bind("properties", props, &a.Properties); err != nil {
		return nil, err
	}

	matches, err := schema.OptionalRecord(rec, "survey_matches", "survey_matches")
	if err != nil {
		return nil, err
	}
	if matches != nil {
		m, err := schema.OptionalRecord(matches, "survey_matches.lsst", "lsst")
		if err != nil {
			return nil, err
		}
		if m != nil {
			a.LsstMatch, err = decodeLsstMatch("survey_matches.lsst", m)
			if err != nil {
				return nil, err
			}
		}
	}

	if a.Classifications, err = decodeClassifications(rec); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		opt(&a.core)
	}
	return a, nil
}

// DecodeLsst validates and builds an LSST alert.
func DecodeLsst(rec schema.Record, opts ...Option) (*LsstAlert, error) {
	a := &LsstAlert{}
	if err := decodeCore(&a.core, domain.SurveyLSST, rec, false); err != nil {
		return nil, err
	}

	candidate, err := schema.RequiredRecord(rec, "candidate", "candidate")
	if err != nil {
		return nil, err
	}
	if err := schema.Bind("candidate", candidate, &a.Candidate); err != nil {
		return nil, err
	}

	props, err := schema.RequiredRecord(rec, "properties", "properties")
	if err != nil {
		return nil, err
	}
	if err := schema.Bind("properties", props, &a.Properties); err != nil {
		return nil, err
	}

	matches, err := schema.OptionalRecord(rec, "survey_matches", "survey_matches")
	if err != nil {
		return nil, err
	}
	if matches != nil {
		m, err := schema.OptionalRecord(matches, "survey_matches.ztf", "ztf")
		if err != nil {
			return nil, err
		}
		if m != nil {
			a.ZtfMatch, err = decodeZtfMatch("survey_matches.ztf", m)
			if err != nil {
				return nil, err
			}
		}
	}

	if a.Classifications, err = decodeClassifications(rec); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		opt(&a.core)
	}
	return a, nil
}

// decodeCore reads ids, embedded photometry and cutouts.
func decodeCore(c *core, survey domain.Survey, rec schema.Record, withNonDetections bool) error {
	c.survey = survey

	candid, err := decodeCandid(rec)
	if err != nil {
		return err
	}
	c.candid = candid

	v, ok := schema.Lookup(rec, "objectId", "object_id")
	if !ok || v == nil {
		return schema.Missing("objectId")
	}
	if c.objectID, err = schema.String("objectId", v); err != nil {
		return err
	}

	h, present, err := schema.History("", rec, survey.ZeroPoint(), withNonDetections)
	if err != nil {
		return err
	}
	if present {
		c.history.Set(h)
	}

	co, err := schema.Cutouts(rec, candid)
	if err != nil {
		return err
	}
	if co.Complete() {
		c.cutouts.Set(co)
	}
	return nil
}

// decodeCandid reads candid, then an integral _id, then the id of the latest
// candidate, which is where object documents carry it.
func decodeCandid(rec schema.Record) (int64, error) {
	if v, ok := schema.Lookup(rec, "candid"); ok && v != nil {
		return schema.Int("candid", v)
	}
	if v, ok := schema.Lookup(rec, "_id"); ok && v != nil {
		if id, err := schema.Int("_id", v); err == nil {
			return id, nil
		}
	}
	if cand, err := schema.OptionalRecord(rec, "candidate", "candidate"); err == nil && cand != nil {
		if v, ok := schema.Lookup(cand, "candid", "diaSourceId"); ok && v != nil {
			return schema.Int("candidate.candid", v)
		}
	}
	return 0, schema.Missing("candid")
}

func decodeLsstMatch(path string, rec schema.Record) (*LsstMatch, error) {
	m := &LsstMatch{}
	var err error
	if m.ObjectID, m.RA, m.Dec, err = decodeMatchHeader(path, rec); err != nil {
		return nil, err
	}
	if err := requireLists(path, rec, schema.KeyDetections, schema.KeyForced); err != nil {
		return nil, err
	}
	if m.History, _, err = schema.History(path, rec, domain.LsstZeroPoint, false); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeZtfMatch(path string, rec schema.Record) (*ZtfMatch, error) {
	m := &ZtfMatch{}
	var err error
	if m.ObjectID, m.RA, m.Dec, err = decodeMatchHeader(path, rec); err != nil {
		return nil, err
	}
	if err := requireLists(path, rec, schema.KeyDetections, schema.KeyNonDetections, schema.KeyForced); err != nil {
		return nil, err
	}
	if m.History, _, err = schema.History(path, rec, domain.ZtfZeroPoint, true); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeMatchHeader(path string, rec schema.Record) (objectID string, ra, dec float64, err error) {
	header := struct {
		ObjectID string  `json:"objectId" alias:"object_id"`
		RA       float64 `json:"ra"`
		Dec      float64 `json:"dec"`
	}{}
	if err := schema.Bind(path, rec, &header); err != nil {
		return "", 0, 0, err
	}
	return header.ObjectID, header.RA, header.Dec, nil
}

func requireLists(path string, rec schema.Record, keys ...string) error {
	for _, k := range keys {
		v, ok := schema.Lookup(rec, k)
		if !ok || v == nil {
			return schema.Missing(schema.Join(path, k))
		}
	}
	return nil
}

func decodeClassifications(rec schema.Record) (map[string]float64, error) {
	holder := struct {
		Classifications map[string]float64 `json:"classifications"`
	}{}
	if err := schema.Bind("", rec, &holder); err != nil {
		return nil, err
	}
	return holder.Classifications, nil
}

// WithHistory returns an option that preloads photometry, skipping any backfill.
func WithHistory(h photometry.History) Option {
	return func(c *core) {
		if c.survey == domain.SurveyLSST {
			h.NonDetections = nil
		}
		c.history.Set(h)
	}
}
