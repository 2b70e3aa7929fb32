// Package alert provides the unified alert model for both surveys.
//
// An Alert is constructed from a validated record and exposes its combined
// light curve, cutouts and archival cross-matches. Data the record did not
// carry is fetched on first access through a Fetcher and cached on the alert.
// Alerts are not safe for concurrent use.
package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boom-astro/babamul/internal/domain"
	"github.com/boom-astro/babamul/internal/photometry"
)

// Fetcher retrieves data that an alert did not carry.
// internal/api.Client implements it.
type Fetcher interface {
	// GetPhotometry returns the full photometry history of an object.
	GetPhotometry(ctx context.Context, survey domain.Survey, objectID string) (photometry.History, error)

	// GetCutouts returns the image stamps of an alert.
	GetCutouts(ctx context.Context, survey domain.Survey, candid int64) (*domain.Cutouts, error)

	// GetCrossMatches returns the catalog counterparts of an object, or nil if it has none.
	GetCrossMatches(ctx context.Context, survey domain.Survey, objectID string) (*domain.CrossMatches, error)

	// GetCrossMatchesBulk returns counterparts keyed by object id, using at most
	// concurrency parallel requests. Objects without counterparts are absent.
	GetCrossMatchesBulk(ctx context.Context, survey domain.Survey, objectIDs []string, concurrency int) (map[string]*domain.CrossMatches, error)
}

// Alert is either a *ZtfAlert or an *LsstAlert.
type Alert interface {
	Survey() domain.Survey
	Candid() int64
	ObjectID() string
	Topic() string

	// Summary returns the fields shared by both surveys.
	Summary() Summary

	// DRB returns the survey's real-bogus or reliability score, if any.
	DRB() *float64

	// Photometry returns the combined light curve sorted by JD.
	// With dedup set, only the first point for each (jd, band) is kept.
	Photometry(ctx context.Context, dedup bool) ([]domain.Photometry, error)

	// Cutouts returns the image stamps, fetching them if any is missing.
	Cutouts(ctx context.Context) (*domain.Cutouts, error)

	// CrossMatches returns archival counterparts, fetching them once.
	// A nil result means the object has none.
	CrossMatches(ctx context.Context) (*domain.CrossMatches, error)

	base() *core
}

// Summary is the survey-independent view of an alert.
type Summary struct {
	Survey   domain.Survey `json:"survey"`
	ObjectID string        `json:"objectId"`
	Candid   int64         `json:"candid"`
	JD       float64       `json:"jd"`
	Time     time.Time     `json:"time"`
	RA       float64       `json:"ra"`
	Dec      float64       `json:"dec"`
	MagPSF   float64       `json:"magpsf"`
	SigmaPSF float64       `json:"sigmapsf"`
	Band     domain.Band   `json:"band"`
	DRB      *float64      `json:"drb"`
}

// Option configures a decoded alert.
type Option func(*core)

// WithFetcher binds the collaborator used by lazy accessors.
func WithFetcher(f Fetcher) Option {
	return func(c *core) {
		c.fetcher = f
	}
}

// WithTopic records the stream topic the alert was read from.
func WithTopic(topic string) Option {
	return func(c *core) {
		c.topic = topic
	}
}

// ErrNoFetcher is returned when a lazy accessor needs data but no Fetcher is bound.
var ErrNoFetcher = fmt.Errorf("%w: alert has no fetcher bound", domain.ErrConfiguration)

// core holds what both survey variants share.
type core struct {
	survey   domain.Survey
	candid   int64
	objectID string
	topic    string
	fetcher  Fetcher

	history      Cell[photometry.History]
	cutouts      Cell[*domain.Cutouts]
	crossMatches Cell[*domain.CrossMatches]
}

func (c *core) base() *core { return c }

// Survey returns the survey tag.
func (c *core) Survey() domain.Survey { return c.survey }

// Candid returns the unique candidate id.
func (c *core) Candid() int64 { return c.candid }

// ObjectID returns the object id shared by all alerts of one source.
func (c *core) ObjectID() string { return c.objectID }

// Topic returns the stream topic, or "" for alerts from the REST API.
func (c *core) Topic() string { return c.topic }

// History returns the embedded or backfilled photometry lists.
// ok is false until the lists are known.
func (c *core) History() (h photometry.History, ok bool) {
	return c.history.Value()
}

// HistoryState reports whether the photometry lists are loaded.
func (c *core) HistoryState() CellState { return c.history.State() }

// CutoutsState reports whether the cutouts are loaded.
func (c *core) CutoutsState() CellState { return c.cutouts.State() }

// CrossMatchesState reports whether cross-matches are loaded.
func (c *core) CrossMatchesState() CellState { return c.crossMatches.State() }

// SetCrossMatches stores cross-matches obtained elsewhere. nil records "none".
func (c *core) SetCrossMatches(cm *domain.CrossMatches) {
	if cm == nil {
		c.crossMatches.SetEmpty()
		return
	}
	c.crossMatches.Set(cm)
}

// Photometry implements Alert.
func (c *core) Photometry(ctx context.Context, dedup bool) ([]domain.Photometry, error) {
	if !c.history.Fetched() {
		if c.fetcher == nil {
			return nil, ErrNoFetcher
		}
		h, err := c.fetcher.GetPhotometry(ctx, c.survey, c.objectID)
		if err != nil {
			return nil, fmt.Errorf("backfill photometry for %s: %w", c.objectID, err)
		}
		if c.survey == domain.SurveyLSST {
			h.NonDetections = nil
		}
		c.history.Set(h)
	}
	h, _ := c.history.Value()
	return photometry.Combine(h, dedup), nil
}

// Cutouts implements Alert.
func (c *core) Cutouts(ctx context.Context) (*domain.Cutouts, error) {
	if co, ok := c.cutouts.Value(); ok {
		return co, nil
	}
	if c.fetcher == nil {
		return nil, ErrNoFetcher
	}
	co, err := c.fetcher.GetCutouts(ctx, c.survey, c.candid)
	if err != nil {
		return nil, fmt.Errorf("fetch cutouts for %d: %w", c.candid, err)
	}
	c.cutouts.Set(co)
	return co, nil
}

// CrossMatches implements Alert. An object unknown to the cross-match
// service is cached as having no counterparts.
func (c *core) CrossMatches(ctx context.Context) (*domain.CrossMatches, error) {
	if c.crossMatches.Fetched() {
		cm, _ := c.crossMatches.Value()
		return cm, nil
	}
	if c.fetcher == nil {
		return nil, ErrNoFetcher
	}
	cm, err := c.fetcher.GetCrossMatches(ctx, c.survey, c.objectID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		cm = nil
	case err != nil:
		return nil, fmt.Errorf("fetch cross-matches for %s: %w", c.objectID, err)
	}
	c.SetCrossMatches(cm)
	return cm, nil
}
