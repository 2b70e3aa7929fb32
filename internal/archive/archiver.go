// Package archive persists consumed alerts and their light curves.
package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/boom-astro/babamul/internal/alert"
	"github.com/boom-astro/babamul/internal/domain"
	"github.com/boom-astro/babamul/internal/observability"
	"github.com/boom-astro/babamul/internal/storage"
)

// Archiver writes alerts to an AlertStore and their deduplicated light
// curves to a PhotometryStore. Either store may be nil to skip it.
type Archiver struct {
	alerts     storage.AlertStore
	photometry storage.PhotometryStore
	now        func() time.Time
	logger     zerolog.Logger
}

// Options contains configuration for creating an Archiver.
type Options struct {
	AlertStore      storage.AlertStore
	PhotometryStore storage.PhotometryStore

	// Now stamps ReceivedAt. Defaults to time.Now.
	Now func() time.Time

	// Logger defaults to the global zerolog logger.
	Logger *zerolog.Logger
}

// Result reports what one Archive call wrote.
type Result struct {
	AlertStored       bool // false when the alert was already archived
	Points            int  // light-curve points upserted
	LightCurveSkipped bool // history was not inline and no fetcher was set
}

// NewArchiver creates an Archiver.
func NewArchiver(opts Options) *Archiver {
	a := &Archiver{
		alerts:     opts.AlertStore,
		photometry: opts.PhotometryStore,
		now:        opts.Now,
		logger:     log.Logger,
	}
	if a.now == nil {
		a.now = time.Now
	}
	if opts.Logger != nil {
		a.logger = *opts.Logger
	}
	return a
}

// Archive stores al. A redelivered alert is not an error: the alert row is
// kept as first seen and the light curve is upserted again. When the alert
// carries no history and cannot fetch it, only the row is stored.
func (a *Archiver) Archive(ctx context.Context, al alert.Alert) (Result, error) {
	var res Result
	survey := al.Survey()

	if a.alerts != nil {
		err := a.alerts.Insert(ctx, Row(al, a.now()))
		switch {
		case err == nil:
			res.AlertStored = true
		case errors.Is(err, storage.ErrDuplicateKey):
			a.logger.Debug().
				Str("survey", survey.String()).
				Int64("candid", al.Candid()).
				Msg("alert already archived")
		default:
			observability.RecordArchiveError("alerts")
			return res, fmt.Errorf("archive alert %d: %w", al.Candid(), err)
		}
	}

	if a.photometry != nil {
		lc, err := al.Photometry(ctx, true)
		switch {
		case errors.Is(err, alert.ErrNoFetcher):
			a.logger.Warn().
				Str("object_id", al.ObjectID()).
				Int64("candid", al.Candid()).
				Msg("light curve not in alert and no fetcher set, skipping it")
			res.LightCurveSkipped = true
			observability.RecordAlertArchived(survey.String(), 0)
			return res, nil
		case err != nil:
			observability.RecordArchiveError("photometry")
			return res, fmt.Errorf("light curve of %s: %w", al.ObjectID(), err)
		}
		points := Points(survey, al.ObjectID(), lc)
		if err := a.photometry.InsertBulk(ctx, points); err != nil {
			observability.RecordArchiveError("photometry")
			return res, fmt.Errorf("archive light curve of %s: %w", al.ObjectID(), err)
		}
		res.Points = len(points)
	}

	observability.RecordAlertArchived(survey.String(), res.Points)
	return res, nil
}

// Handle archives al and logs failures. Its signature matches stream.Handler;
// archive errors are returned so the caller decides whether to stop.
func (a *Archiver) Handle(ctx context.Context, al alert.Alert) error {
	res, err := a.Archive(ctx, al)
	if err != nil {
		a.logger.Error().Err(err).
			Str("survey", al.Survey().String()).
			Str("object_id", al.ObjectID()).
			Int64("candid", al.Candid()).
			Msg("archive failed")
		return err
	}
	a.logger.Debug().
		Str("object_id", al.ObjectID()).
		Int64("candid", al.Candid()).
		Bool("stored", res.AlertStored).
		Int("points", res.Points).
		Bool("light_curve_skipped", res.LightCurveSkipped).
		Msg("alert archived")
	return nil
}

// LightCurve reads an archived object's light curve back, ordered by jd.
func (a *Archiver) LightCurve(ctx context.Context, survey domain.Survey, objectID string) ([]domain.Photometry, error) {
	if a.photometry == nil {
		return nil, fmt.Errorf("%w: no photometry store configured", domain.ErrConfiguration)
	}
	points, err := a.photometry.GetByObjectID(ctx, survey, objectID)
	if err != nil {
		return nil, fmt.Errorf("read light curve of %s: %w", objectID, err)
	}
	lc := make([]domain.Photometry, len(points))
	for i, p := range points {
		lc[i] = p.Photometry
	}
	return lc, nil
}

// Row builds the archive row of al, received at t.
func Row(al alert.Alert, t time.Time) *domain.ArchivedAlert {
	s := al.Summary()
	return &domain.ArchivedAlert{
		Survey:     s.Survey,
		Candid:     s.Candid,
		ObjectID:   s.ObjectID,
		Topic:      al.Topic(),
		JD:         s.JD,
		RA:         s.RA,
		Dec:        s.Dec,
		MagPSF:     s.MagPSF,
		SigmaPSF:   s.SigmaPSF,
		Band:       s.Band,
		DRB:        s.DRB,
		ReceivedAt: t.UnixMilli(),
	}
}

// Points keys a light curve by object.
func Points(survey domain.Survey, objectID string, lc []domain.Photometry) []*domain.ArchivedPoint {
	points := make([]*domain.ArchivedPoint, len(lc))
	for i := range lc {
		points[i] = &domain.ArchivedPoint{
			Survey:     survey,
			ObjectID:   objectID,
			Photometry: lc[i],
		}
	}
	return points
}
