package alert

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/boom-astro/babamul/internal/domain"
	"github.com/boom-astro/babamul/internal/photometry"
	"github.com/boom-astro/babamul/internal/schema"
)

// MockFetcher is a testify mock of Fetcher.
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) GetPhotometry(ctx context.Context, survey domain.Survey, objectID string) (photometry.History, error) {
	args := m.Called(ctx, survey, objectID)
	return args.Get(0).(photometry.History), args.Error(1)
}

func (m *MockFetcher) GetCutouts(ctx context.Context, survey domain.Survey, candid int64) (*domain.Cutouts, error) {
	args := m.Called(ctx, survey, candid)
	co, _ := args.Get(0).(*domain.Cutouts)
	return co, args.Error(1)
}

func (m *MockFetcher) GetCrossMatches(ctx context.Context, survey domain.Survey, objectID string) (*domain.CrossMatches, error) {
	args := m.Called(ctx, survey, objectID)
	cm, _ := args.Get(0).(*domain.CrossMatches)
	return cm, args.Error(1)
}

func (m *MockFetcher) GetCrossMatchesBulk(ctx context.Context, survey domain.Survey, objectIDs []string, concurrency int) (map[string]*domain.CrossMatches, error) {
	args := m.Called(ctx, survey, objectIDs, concurrency)
	got, _ := args.Get(0).(map[string]*domain.CrossMatches)
	return got, args.Error(1)
}

func ztfCandidateRecord() schema.Record {
	return schema.Record{
		"jd":         2460000.5,
		"fid":        int32(1),
		"pid":        int64(12345),
		"diffmaglim": 20.5,
		"programid":  int32(1),
		"candid":     int64(2000000000000001),
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
		"band":       "g",
	}
}

func ztfPropertiesRecord() schema.Record {
	return schema.Record{
		"rock":            false,
		"star":            false,
		"near_brightstar": false,
		"stationary":      true,
		"photstats": schema.Record{
			"g": schema.Record{
				"peak_jd":      2460000.5,
				"peak_mag":     18.5,
				"peak_mag_err": 0.05,
				"dt":           3.0,
				"rising":       nil,
				"fading": schema.Record{
					"rate":       0.1,
					"rate_error": 0.01,
					"red_chi2":   nil,
					"nb_data":    int32(4),
					"dt":         3.0,
				},
			},
		},
	}
}

// ztfRecord returns a minimal valid ZTF alert without photometry lists or cutouts.
func ztfRecord(objectID string, candid int64) schema.Record {
	return schema.Record{
		"candid":     candid,
		"objectId":   objectID,
		"candidate":  ztfCandidateRecord(),
		"properties": ztfPropertiesRecord(),
	}
}

func lsstRecord(objectID string, candid int64) schema.Record {
	return schema.Record{
		"candid":   candid,
		"objectId": objectID,
		"candidate": schema.Record{
			"diaSourceId":    candid,
			"visit":          int64(7),
			"detector":       int32(42),
			"midpointMjdTai": 60000.0,
			"ra":             10.0,
			"dec":            -30.0,
			"objectId":       objectID,
			"jd":             2460000.5,
			"magpsf":         21.0,
			"sigmapsf":       0.1,
			"diffmaglim":     24.0,
			"isdiffpos":      true,
			"snr":            10.0,
			"magap":          21.1,
			"sigmagap":       0.1,
			"reliability":    0.8,
			"band":           "r",
		},
		"properties": schema.Record{
			"rock":                  false,
			"stationary":            false,
			"photstats":             schema.Record{},
			"multisurvey_photstats": schema.Record{},
		},
	}
}

func detectionRecord(jd float64, band string) schema.Record {
	return schema.Record{"jd": jd, "psfFlux": 100.0, "psfFluxErr": 5.0, "band": band, "ra": 1.0, "dec": 2.0}
}

func forcedRecord(jd float64, band string) schema.Record {
	return schema.Record{"jd": jd, "psfFlux": 100.0, "psfFluxErr": 5.0, "band": band}
}

func nonDetectionRecord(jd float64, band string) schema.Record {
	return schema.Record{"jd": jd, "psfFluxErr": 2.0, "band": band}
}
