package storage

import (
	"context"

	"github.com/boom-astro/babamul/internal/domain"
)

// AlertStore provides access to archived alerts.
type AlertStore interface {
	// Insert adds a new alert. Returns ErrDuplicateKey if (survey, candid) exists.
	Insert(ctx context.Context, a *domain.ArchivedAlert) error

	// GetByCandid retrieves an alert by survey and candid. Returns ErrNotFound if not exists.
	GetByCandid(ctx context.Context, survey domain.Survey, candid int64) (*domain.ArchivedAlert, error)

	// GetByObjectID retrieves all alerts of an object, ordered by jd ASC.
	GetByObjectID(ctx context.Context, survey domain.Survey, objectID string) ([]*domain.ArchivedAlert, error)

	// GetByJDRange retrieves alerts of a survey with jd within [start, end] (inclusive), ordered by jd ASC.
	GetByJDRange(ctx context.Context, survey domain.Survey, start, end float64) ([]*domain.ArchivedAlert, error)
}

// PhotometryStore provides access to archived light curves.
// Points are keyed by (survey, objectId, jd, band); inserting an existing key replaces it.
type PhotometryStore interface {
	// InsertBulk upserts multiple points.
	InsertBulk(ctx context.Context, points []*domain.ArchivedPoint) error

	// GetByObjectID retrieves all points of an object, ordered by jd ASC.
	GetByObjectID(ctx context.Context, survey domain.Survey, objectID string) ([]*domain.ArchivedPoint, error)
}

// CutoutCache caches alert image stamps.
type CutoutCache interface {
	// GetCutouts returns cached stamps. Returns ErrNotFound on a miss.
	GetCutouts(ctx context.Context, survey domain.Survey, candid int64) (*domain.Cutouts, error)

	// PutCutouts stores stamps, replacing any cached entry.
	PutCutouts(ctx context.Context, survey domain.Survey, c *domain.Cutouts) error
}
