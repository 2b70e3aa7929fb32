package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boom-astro/babamul/internal/alert"
	"github.com/boom-astro/babamul/internal/domain"
	"github.com/boom-astro/babamul/internal/schema"
	"github.com/boom-astro/babamul/internal/storage"
	"github.com/boom-astro/babamul/internal/storage/memory"
)

var receivedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func ztfRecord(objectID string, candid int64) schema.Record {
	return schema.Record{
		"candid":   candid,
		"objectId": objectID,
		"candidate": schema.Record{
			"jd":         2460000.5,
			"fid":        int32(2),
			"pid":        int64(12345),
			"diffmaglim": 20.5,
			"programid":  int32(1),
			"candid":     candid,
			"isdiffpos":  true,
			"ra":         150.1,
			"dec":        2.2,
			"magpsf":     18.5,
			"sigmapsf":   0.05,
			"ranr":       150.1,
			"decnr":      2.2,
			"ndethist":   int32(3),
			"ncovhist":   int32(10),
			"nmtchps":    int32(2),
			"drb":        0.97,
			"psfFlux":    100.0,
			"psfFluxErr": 5.0,
			"snr":        20.0,
			"band":       "r",
		},
		"properties": schema.Record{
			"rock":            false,
			"star":            false,
			"near_brightstar": false,
			"stationary":      true,
			"photstats":       schema.Record{},
		},
		"prv_candidates": []any{
			schema.Record{"jd": 2459999.5, "psfFlux": 100.0, "psfFluxErr": 5.0, "band": "r", "ra": 150.1, "dec": 2.2},
			schema.Record{"jd": 2460000.5, "psfFlux": 120.0, "psfFluxErr": 5.0, "band": "r", "ra": 150.1, "dec": 2.2},
		},
		"fp_hists": []any{
			// Same epoch as a detection, dropped by deduplication.
			schema.Record{"jd": 2460000.5, "psfFlux": 118.0, "psfFluxErr": 5.0, "band": "r"},
			schema.Record{"jd": 2459998.5, "psfFlux": 5.0, "psfFluxErr": 5.0, "band": "g"},
		},
	}
}

func decodeZtf(t *testing.T, rec schema.Record) alert.Alert {
	t.Helper()
	a, err := alert.Decode(domain.SurveyZTF, rec, alert.WithTopic("babamul.ztf.no-lsst-match.hosted"))
	require.NoError(t, err)
	return a
}

func newTestArchiver(alerts storage.AlertStore, phot storage.PhotometryStore) *Archiver {
	return NewArchiver(Options{
		AlertStore:      alerts,
		PhotometryStore: phot,
		Now:             func() time.Time { return receivedAt },
	})
}

func TestArchiver_Archive(t *testing.T) {
	alerts := memory.NewAlertStore()
	phot := memory.NewPhotometryStore()
	arch := newTestArchiver(alerts, phot)
	ctx := context.Background()

	res, err := arch.Archive(ctx, decodeZtf(t, ztfRecord("ZTF24aaaaaaa", 100)))
	require.NoError(t, err)
	assert.True(t, res.AlertStored)
	assert.Equal(t, 3, res.Points)

	row, err := alerts.GetByCandid(ctx, domain.SurveyZTF, 100)
	require.NoError(t, err)
	assert.Equal(t, "ZTF24aaaaaaa", row.ObjectID)
	assert.Equal(t, "babamul.ztf.no-lsst-match.hosted", row.Topic)
	assert.Equal(t, 18.5, row.MagPSF)
	assert.Equal(t, domain.BandR, row.Band)
	assert.Equal(t, receivedAt.UnixMilli(), row.ReceivedAt)
	require.NotNil(t, row.DRB)
	assert.Equal(t, 0.97, *row.DRB)

	lc, err := arch.LightCurve(ctx, domain.SurveyZTF, "ZTF24aaaaaaa")
	require.NoError(t, err)
	require.Len(t, lc, 3)
	assert.Equal(t, 2459998.5, lc[0].JD)
	assert.False(t, lc[0].IsDetection(), "snr 1 forced point is a limit")
	assert.True(t, lc[2].IsDetection())
	assert.NotNil(t, lc[2].RA, "the detection wins the shared epoch")
}

func TestArchiver_Redelivery(t *testing.T) {
	alerts := memory.NewAlertStore()
	phot := memory.NewPhotometryStore()
	arch := newTestArchiver(alerts, phot)
	ctx := context.Background()

	_, err := arch.Archive(ctx, decodeZtf(t, ztfRecord("ZTF24aaaaaaa", 100)))
	require.NoError(t, err)

	res, err := arch.Archive(ctx, decodeZtf(t, ztfRecord("ZTF24aaaaaaa", 100)))
	require.NoError(t, err)
	assert.False(t, res.AlertStored)
	assert.Equal(t, 3, res.Points)
	assert.Equal(t, 1, alerts.Len())

	lc, err := arch.LightCurve(ctx, domain.SurveyZTF, "ZTF24aaaaaaa")
	require.NoError(t, err)
	assert.Len(t, lc, 3)
}

func TestArchiver_GrowingLightCurve(t *testing.T) {
	phot := memory.NewPhotometryStore()
	arch := newTestArchiver(memory.NewAlertStore(), phot)
	ctx := context.Background()

	_, err := arch.Archive(ctx, decodeZtf(t, ztfRecord("ZTF24aaaaaaa", 100)))
	require.NoError(t, err)

	next := ztfRecord("ZTF24aaaaaaa", 101)
	next["prv_candidates"] = append(next["prv_candidates"].([]any),
		schema.Record{"jd": 2460001.5, "psfFlux": 150.0, "psfFluxErr": 5.0, "band": "g", "ra": 150.1, "dec": 2.2})
	_, err = arch.Archive(ctx, decodeZtf(t, next))
	require.NoError(t, err)

	lc, err := arch.LightCurve(ctx, domain.SurveyZTF, "ZTF24aaaaaaa")
	require.NoError(t, err)
	assert.Len(t, lc, 4)
}

func TestArchiver_NilStoresSkipped(t *testing.T) {
	arch := newTestArchiver(nil, nil)

	res, err := arch.Archive(context.Background(), decodeZtf(t, ztfRecord("ZTF24aaaaaaa", 100)))
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)

	_, err = arch.LightCurve(context.Background(), domain.SurveyZTF, "ZTF24aaaaaaa")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestArchiver_MissingHistoryWithoutFetcher(t *testing.T) {
	rec := ztfRecord("ZTF24aaaaaaa", 100)
	delete(rec, "prv_candidates")
	delete(rec, "fp_hists")

	alerts := memory.NewAlertStore()
	arch := newTestArchiver(alerts, memory.NewPhotometryStore())
	ctx := context.Background()

	res, err := arch.Archive(ctx, decodeZtf(t, rec))
	require.NoError(t, err)
	assert.Equal(t, Result{AlertStored: true, LightCurveSkipped: true}, res)
	assert.Equal(t, 1, alerts.Len())

	lc, err := arch.LightCurve(ctx, domain.SurveyZTF, "ZTF24aaaaaaa")
	require.NoError(t, err)
	assert.Empty(t, lc)

	// The stream handler keeps going.
	require.NoError(t, arch.Handle(ctx, decodeZtf(t, ztfRecord("ZTF24aaaaaab", 101))))
	assert.Equal(t, 2, alerts.Len())
}

type failingAlertStore struct {
	storage.AlertStore
	err error
}

func (s failingAlertStore) Insert(context.Context, *domain.ArchivedAlert) error {
	return s.err
}

func TestArchiver_StoreFailure(t *testing.T) {
	boom := errors.New("connection reset")
	phot := memory.NewPhotometryStore()
	arch := newTestArchiver(failingAlertStore{err: boom}, phot)

	a := decodeZtf(t, ztfRecord("ZTF24aaaaaaa", 100))
	err := arch.Handle(context.Background(), a)
	assert.ErrorIs(t, err, boom)

	lc, err := phot.GetByObjectID(context.Background(), domain.SurveyZTF, "ZTF24aaaaaaa")
	require.NoError(t, err)
	assert.Empty(t, lc, "light curve is not written after the alert row fails")
}

func TestPoints(t *testing.T) {
	lc := []domain.Photometry{{JD: 1, Band: domain.BandG}, {JD: 2, Band: domain.BandR}}
	points := Points(domain.SurveyLSST, "3141", lc)
	require.Len(t, points, 2)
	assert.Equal(t, domain.SurveyLSST, points[1].Survey)
	assert.Equal(t, "3141", points[1].ObjectID)
	assert.Equal(t, domain.PointKey{JD: 2, Band: domain.BandR}, points[1].Key())
}
