package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/boom-astro/babamul/internal/alert"
	"github.com/boom-astro/babamul/internal/domain"
	"github.com/boom-astro/babamul/internal/observability"
	"github.com/boom-astro/babamul/internal/photometry"
	"github.com/boom-astro/babamul/internal/schema"
	"github.com/boom-astro/babamul/internal/storage"
)

func surveyPath(survey domain.Survey, parts ...string) string {
	p := "/babamul/surveys/" + survey.Slug()
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

// GetAlerts returns the alerts matching q. The alerts are bound to this
// client for lazy access.
func (c *Client) GetAlerts(ctx context.Context, survey domain.Survey, q AlertQuery) ([]alert.Alert, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var out any
	err := c.do(ctx, call{
		op:     "get_alerts",
		method: http.MethodGet,
		path:   surveyPath(survey, "alerts"),
		query:  q.Values(),
	}, &out)
	if err != nil {
		return nil, err
	}

	list, err := payloadList("alerts", out)
	if err != nil {
		return nil, err
	}
	return c.decodeAlerts(survey, "alerts", list)
}

// ConeSearch returns alerts within radiusArcsec of (ra, dec). Other filters
// of q apply; its cone fields are replaced.
func (c *Client) ConeSearch(ctx context.Context, survey domain.Survey, ra, dec, radiusArcsec float64, q AlertQuery) ([]alert.Alert, error) {
	q.RA, q.Dec, q.RadiusArcsec = &ra, &dec, &radiusArcsec
	return c.GetAlerts(ctx, survey, q)
}

func (c *Client) decodeAlerts(survey domain.Survey, path string, list []any) ([]alert.Alert, error) {
	alerts := make([]alert.Alert, 0, len(list))
	for i, item := range list {
		itemPath := schema.Index(path, i)
		rec, err := schema.AsRecord(itemPath, item)
		if err != nil {
			return nil, err
		}
		a, err := alert.Decode(survey, rec, alert.WithFetcher(c))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", itemPath, err)
		}
		alerts = append(alerts, a)
	}
	return alerts, nil
}

// GetCutouts returns the image stamps of an alert.
func (c *Client) GetCutouts(ctx context.Context, survey domain.Survey, candid int64) (*domain.Cutouts, error) {
	if c.cache != nil {
		co, err := c.cache.GetCutouts(ctx, survey, candid)
		switch {
		case err == nil:
			observability.RecordCutoutCache(true)
			return co, nil
		case errors.Is(err, storage.ErrNotFound):
			observability.RecordCutoutCache(false)
		default:
			c.logger.Warn().Err(err).Str("survey", survey.String()).Int64("candid", candid).Msg("cutout cache read failed")
		}
	}

	var out any
	err := c.do(ctx, call{
		op:     "get_cutouts",
		method: http.MethodGet,
		path:   surveyPath(survey, "alerts", strconv.FormatInt(candid, 10), "cutouts"),
	}, &out)
	if err != nil {
		return nil, err
	}

	rec, err := payloadRecord("cutouts", out)
	if err != nil {
		return nil, err
	}
	co, err := schema.Cutouts(rec, candid)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.PutCutouts(ctx, survey, co); err != nil {
			c.logger.Warn().Err(err).Str("survey", survey.String()).Int64("candid", candid).Msg("cutout cache write failed")
		}
	}
	return co, nil
}

// GetCutoutsForAlert returns the image stamps of a.
func (c *Client) GetCutoutsForAlert(ctx context.Context, a alert.Alert) (*domain.Cutouts, error) {
	return c.GetCutouts(ctx, a.Survey(), a.Candid())
}

// GetObject returns the latest alert of an object with its full photometry
// history and cutouts.
func (c *Client) GetObject(ctx context.Context, survey domain.Survey, objectID string) (alert.Alert, error) {
	var out any
	err := c.do(ctx, call{
		op:     "get_object",
		method: http.MethodGet,
		path:   surveyPath(survey, "objects", objectID),
	}, &out)
	if err != nil {
		return nil, err
	}

	rec, err := payloadRecord("object", out)
	if err != nil {
		return nil, err
	}
	return alert.Decode(survey, rec, alert.WithFetcher(c))
}

// GetObjectForAlert returns the full object a belongs to.
func (c *Client) GetObjectForAlert(ctx context.Context, a alert.Alert) (alert.Alert, error) {
	return c.GetObject(ctx, a.Survey(), a.ObjectID())
}

// SearchObjects returns objects whose id starts with objectID, across both
// surveys. limit is clamped to [1, MaxSearchLimit].
func (c *Client) SearchObjects(ctx context.Context, objectID string, limit int) ([]domain.ObjectSearchResult, error) {
	var out any
	err := c.do(ctx, call{
		op:     "search_objects",
		method: http.MethodGet,
		path:   "/babamul/objects",
		query:  url.Values{"object_id": {objectID}, "limit": {strconv.Itoa(clampLimit(limit))}},
	}, &out)
	if err != nil {
		return nil, err
	}

	list, err := payloadList("objects", out)
	if err != nil {
		return nil, err
	}
	results := make([]domain.ObjectSearchResult, len(list))
	for i, item := range list {
		path := schema.Index("objects", i)
		rec, err := schema.AsRecord(path, item)
		if err != nil {
			return nil, err
		}
		r := &results[i]
		if err := schema.Bind(path, rec, r); err != nil {
			return nil, err
		}
		s, err := domain.ParseSurvey(string(r.Survey))
		if err != nil {
			return nil, &domain.DeserializationError{Path: schema.Join(path, "survey"), Reason: err.Error()}
		}
		r.Survey = s
	}
	return results, nil
}

// GetPhotometry returns the full photometry history of an object.
// LSST histories carry no non-detections.
func (c *Client) GetPhotometry(ctx context.Context, survey domain.Survey, objectID string) (photometry.History, error) {
	var out any
	err := c.do(ctx, call{
		op:     "get_photometry",
		method: http.MethodGet,
		path:   surveyPath(survey, "objects", objectID, "photometry"),
	}, &out)
	if err != nil {
		return photometry.History{}, err
	}

	rec, err := payloadRecord("photometry", out)
	if err != nil {
		return photometry.History{}, err
	}
	h, _, err := schema.History("photometry", rec, survey.ZeroPoint(), survey == domain.SurveyZTF)
	return h, err
}

// GetCrossMatches returns the catalog counterparts of an object, or nil if
// the service has none.
func (c *Client) GetCrossMatches(ctx context.Context, survey domain.Survey, objectID string) (*domain.CrossMatches, error) {
	var out any
	err := c.do(ctx, call{
		op:     "get_cross_matches",
		method: http.MethodGet,
		path:   surveyPath(survey, "objects", objectID, "cross-matches"),
	}, &out)
	if err != nil {
		return nil, err
	}
	return decodeCrossMatches("cross_matches", payload(out))
}

func decodeCrossMatches(path string, v any) (*domain.CrossMatches, error) {
	if v == nil {
		return nil, nil
	}
	rec, err := schema.AsRecord(path, v)
	if err != nil {
		return nil, err
	}
	cm := &domain.CrossMatches{}
	if err := schema.Bind(path, rec, cm); err != nil {
		return nil, err
	}
	return cm, nil
}
