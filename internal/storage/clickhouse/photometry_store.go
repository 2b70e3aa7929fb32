package clickhouse

import (
	"context"
	"fmt"

	"github.com/boom-astro/babamul/internal/domain"
	"github.com/boom-astro/babamul/internal/storage"
)

// PhotometryStore implements storage.PhotometryStore using a ReplacingMergeTree.
type PhotometryStore struct {
	conn *Conn
}

// NewPhotometryStore creates a new PhotometryStore.
func NewPhotometryStore(conn *Conn) *PhotometryStore {
	return &PhotometryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PhotometryStore = (*PhotometryStore)(nil)

// chRows is the subset of driver.Rows the scanners use.
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// InsertBulk upserts points keyed by (survey, object_id, jd, band).
// Intra-batch duplicates keep the last point.
func (s *PhotometryStore) InsertBulk(ctx context.Context, points []*domain.ArchivedPoint) error {
	if len(points) == 0 {
		return nil
	}
	for _, p := range points {
		if p == nil || p.Survey == "" || p.ObjectID == "" {
			return storage.ErrInvalidInput
		}
	}
	defer s.conn.observe("insert_photometry")()

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO photometry (
			survey, object_id, jd, band, magpsf, sigmapsf, isdiffpos, diffmaglim,
			psf_flux, psf_flux_err, zp, ra, dec, snr
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		err = batch.Append(
			string(p.Survey), p.ObjectID, p.JD, string(p.Band),
			p.MagPSF, p.SigmaPSF, isDiffPosToUInt8(p.IsDiffPos), p.DiffMagLim,
			p.PSFFlux, p.PSFFluxErr, p.ZP, p.RA, p.Dec, p.SNR,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByObjectID retrieves all points of an object, ordered by jd ASC.
func (s *PhotometryStore) GetByObjectID(ctx context.Context, survey domain.Survey, objectID string) ([]*domain.ArchivedPoint, error) {
	defer s.conn.observe("get_photometry")()

	query := `
		SELECT survey, object_id, jd, band, magpsf, sigmapsf, isdiffpos, diffmaglim,
			psf_flux, psf_flux_err, zp, ra, dec, snr
		FROM photometry FINAL
		WHERE survey = ? AND object_id = ?
		ORDER BY jd ASC, band ASC
	`

	rows, err := s.conn.Query(ctx, query, string(survey), objectID)
	if err != nil {
		return nil, fmt.Errorf("query photometry by object: %w", err)
	}
	defer rows.Close()

	return scanPhotometry(rows)
}

// scanPhotometry scans multiple rows.
func scanPhotometry(rows chRows) ([]*domain.ArchivedPoint, error) {
	points := []*domain.ArchivedPoint{}

	for rows.Next() {
		var p domain.ArchivedPoint
		var survey, band string
		var isDiffPos *uint8

		err := rows.Scan(
			&survey, &p.ObjectID, &p.JD, &band,
			&p.MagPSF, &p.SigmaPSF, &isDiffPos, &p.DiffMagLim,
			&p.PSFFlux, &p.PSFFluxErr, &p.ZP, &p.RA, &p.Dec, &p.SNR,
		)
		if err != nil {
			return nil, fmt.Errorf("scan photometry row: %w", err)
		}

		p.Survey = domain.Survey(survey)
		p.Band = domain.Band(band)
		if isDiffPos != nil {
			v := *isDiffPos == 1
			p.IsDiffPos = &v
		}
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate photometry rows: %w", err)
	}

	return points, nil
}

func isDiffPosToUInt8(b *bool) *uint8 {
	if b == nil {
		return nil
	}
	var v uint8
	if *b {
		v = 1
	}
	return &v
}
