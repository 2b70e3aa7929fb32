package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/boom-astro/babamul/internal/domain"
	"github.com/boom-astro/babamul/internal/storage"
)

// AlertStore implements storage.AlertStore using PostgreSQL.
type AlertStore struct {
	pool *Pool
}

// NewAlertStore creates a new AlertStore.
func NewAlertStore(pool *Pool) *AlertStore {
	return &AlertStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AlertStore = (*AlertStore)(nil)

const alertColumns = `survey, candid, object_id, topic, jd, ra, dec, magpsf, sigmapsf, band, drb, received_at`

// Insert adds a new alert. Returns ErrDuplicateKey if (survey, candid) exists.
func (s *AlertStore) Insert(ctx context.Context, a *domain.ArchivedAlert) error {
	if a == nil || a.Survey == "" || a.ObjectID == "" {
		return storage.ErrInvalidInput
	}
	defer s.pool.observe("insert_alert")()

	query := `
		INSERT INTO alerts (` + alertColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := s.pool.Exec(ctx, query,
		string(a.Survey),
		a.Candid,
		a.ObjectID,
		a.Topic,
		a.JD,
		a.RA,
		a.Dec,
		a.MagPSF,
		a.SigmaPSF,
		string(a.Band),
		a.DRB,
		a.ReceivedAt,
	)
	return storeError(err, "insert alert")
}

// GetByCandid retrieves an alert by survey and candid. Returns ErrNotFound if not exists.
func (s *AlertStore) GetByCandid(ctx context.Context, survey domain.Survey, candid int64) (*domain.ArchivedAlert, error) {
	defer s.pool.observe("get_alert")()

	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE survey = $1 AND candid = $2
	`

	a, err := scanAlert(s.pool.QueryRow(ctx, query, string(survey), candid))
	if err != nil {
		return nil, storeError(err, "get alert by candid")
	}
	return a, nil
}

// GetByObjectID retrieves all alerts of an object, ordered by jd ASC.
func (s *AlertStore) GetByObjectID(ctx context.Context, survey domain.Survey, objectID string) ([]*domain.ArchivedAlert, error) {
	defer s.pool.observe("get_alerts_by_object")()

	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE survey = $1 AND object_id = $2
		ORDER BY jd ASC, candid ASC
	`

	rows, err := s.pool.Query(ctx, query, string(survey), objectID)
	if err != nil {
		return nil, fmt.Errorf("query alerts by object: %w", err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// GetByJDRange retrieves alerts of a survey with jd within [start, end] (inclusive).
func (s *AlertStore) GetByJDRange(ctx context.Context, survey domain.Survey, start, end float64) ([]*domain.ArchivedAlert, error) {
	defer s.pool.observe("get_alerts_by_jd")()

	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE survey = $1 AND jd >= $2 AND jd <= $3
		ORDER BY jd ASC, candid ASC
	`

	rows, err := s.pool.Query(ctx, query, string(survey), start, end)
	if err != nil {
		return nil, fmt.Errorf("query alerts by jd range: %w", err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// scanAlert scans a single row into ArchivedAlert.
func scanAlert(row pgx.Row) (*domain.ArchivedAlert, error) {
	var a domain.ArchivedAlert
	var survey, band string

	err := row.Scan(
		&survey, &a.Candid, &a.ObjectID, &a.Topic,
		&a.JD, &a.RA, &a.Dec, &a.MagPSF, &a.SigmaPSF,
		&band, &a.DRB, &a.ReceivedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Survey = domain.Survey(survey)
	a.Band = domain.Band(band)
	return &a, nil
}

// scanAlerts scans multiple rows.
func scanAlerts(rows pgx.Rows) ([]*domain.ArchivedAlert, error) {
	var alerts []*domain.ArchivedAlert

	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert row: %w", err)
		}
		alerts = append(alerts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alert rows: %w", err)
	}

	return alerts, nil
}
