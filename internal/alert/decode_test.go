package alert

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boom-astro/babamul/internal/domain"
	"github.com/boom-astro/babamul/internal/schema"
)

func TestDecodeZtf_Minimal(t *testing.T) {
	a, err := DecodeZtf(ztfRecord("ZTF24aaaaaaa", 42), WithTopic("babamul.ztf.no-lsst-match.hosted"))
	require.NoError(t, err)

	assert.Equal(t, domain.SurveyZTF, a.Survey())
	assert.Equal(t, int64(42), a.Candid())
	assert.Equal(t, "ZTF24aaaaaaa", a.ObjectID())
	assert.Equal(t, "babamul.ztf.no-lsst-match.hosted", a.Topic())
	assert.Equal(t, int32(1), a.Candidate.FID)
	assert.Equal(t, domain.BandG, a.Candidate.Band)
	require.NotNil(t, a.DRB())
	assert.Equal(t, 0.97, *a.DRB())
	assert.Nil(t, a.Candidate.SSNameNR)
	assert.Nil(t, a.Candidate.JDStartHist)
	require.NotNil(t, a.Properties.PhotStats.G)
	assert.Nil(t, a.Properties.PhotStats.R)
	assert.Nil(t, a.Properties.PhotStats.G.Rising)
	require.NotNil(t, a.Properties.PhotStats.G.Fading)
	assert.Equal(t, int32(4), a.Properties.PhotStats.G.Fading.NbData)
	assert.Nil(t, a.Properties.MultiSurveyPhotStats)
	assert.Equal(t, Unfetched, a.HistoryState())
	assert.Equal(t, Unfetched, a.CutoutsState())
	assert.Equal(t, Unfetched, a.CrossMatchesState())
}

func TestDecodeZtf_Aliases(t *testing.T) {
	rec := ztfRecord("", 0)
	delete(rec, "candid")
	delete(rec, "objectId")
	rec["_id"] = int64(7)
	rec["object_id"] = "ZTF24alias"
	rec["cutout_science"] = []byte("s")
	rec["cutout_template"] = []byte("t")
	rec["cutout_difference"] = []byte("d")

	a, err := DecodeZtf(rec)
	require.NoError(t, err)

	assert.Equal(t, int64(7), a.Candid())
	assert.Equal(t, "ZTF24alias", a.ObjectID())
	assert.Equal(t, FetchedPresent, a.CutoutsState())
}

func TestDecodeZtf_EmbeddedPhotometry(t *testing.T) {
	rec := ztfRecord("ZTF24phot", 1)
	rec["prv_candidates"] = []any{detectionRecord(1, "g")}
	rec["fp_hists"] = []any{forcedRecord(1, "g")}
	rec["prv_nondetections"] = []any{nonDetectionRecord(2, "r")}

	a, err := DecodeZtf(rec)
	require.NoError(t, err)

	h, ok := a.History()
	require.True(t, ok)
	require.Len(t, h.Detections, 1)
	require.Len(t, h.Forced, 1)
	require.Len(t, h.NonDetections, 1)
	assert.InDelta(t, 23.9-2.5*math.Log10(100e-9), *h.Detections[0].MagPSF, 1e-9)
	assert.Equal(t, domain.ZtfZeroPoint, h.NonDetections[0].ZP)
}

func TestDecodeZtf_EmptyListCountsAsPopulated(t *testing.T) {
	rec := ztfRecord("ZTF24empty", 1)
	rec["prv_candidates"] = []any{}

	a, err := DecodeZtf(rec)
	require.NoError(t, err)
	assert.Equal(t, FetchedPresent, a.HistoryState())
}

func TestDecodeZtf_AvroUnionWrappers(t *testing.T) {
	rec := ztfRecord("ZTF24union", 1)
	cand := rec["candidate"].(schema.Record)
	cand["drb"] = map[string]any{"double": 0.5}
	cand["ssnamenr"] = map[string]any{"string": "2004 AB"}
	rec["survey_matches"] = map[string]any{"lsst": nil}

	a, err := DecodeZtf(rec)
	require.NoError(t, err)
	assert.Equal(t, 0.5, *a.DRB())
	assert.Equal(t, "2004 AB", *a.Candidate.SSNameNR)
	assert.Nil(t, a.LsstMatch)
}

func TestDecodeZtf_LsstMatch(t *testing.T) {
	rec := ztfRecord("ZTF24match", 1)
	rec["survey_matches"] = schema.Record{
		"lsst": schema.Record{
			"object_id":      "313853468366749749",
			"ra":             150.1,
			"dec":            2.2,
			"prv_candidates": []any{detectionRecord(3, "r")},
			"fp_hists":       []any{},
		},
	}

	a, err := DecodeZtf(rec)
	require.NoError(t, err)
	require.NotNil(t, a.LsstMatch)
	assert.Equal(t, "313853468366749749", a.LsstMatch.ObjectID)
	lc := a.LsstMatch.Photometry(true)
	require.Len(t, lc, 1)
	assert.Equal(t, domain.LsstZeroPoint, lc[0].ZP)
}

func TestDecodeZtf_Errors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(schema.Record)
		wantPath string
	}{
		{"missing candid", func(r schema.Record) {
			delete(r, "candid")
			delete(r["candidate"].(schema.Record), "candid")
		}, "candid"},
		{"missing candidate", func(r schema.Record) { delete(r, "candidate") }, "candidate"},
		{"missing jd", func(r schema.Record) { delete(r["candidate"].(schema.Record), "jd") }, "candidate.jd"},
		{"null required field", func(r schema.Record) { r["candidate"].(schema.Record)["ra"] = nil }, "candidate.ra"},
		{"wrong type", func(r schema.Record) { r["candidate"].(schema.Record)["magpsf"] = "bright" }, "candidate.magpsf"},
		{"fid overflow", func(r schema.Record) { r["candidate"].(schema.Record)["fid"] = int64(math.MaxInt32) + 1 }, "candidate.fid"},
		{"unknown band", func(r schema.Record) { r["candidate"].(schema.Record)["band"] = "q" }, "candidate.band"},
		{"properties flag", func(r schema.Record) { delete(r["properties"].(schema.Record), "rock") }, "properties.rock"},
		{"detection without flux", func(r schema.Record) {
			r["prv_candidates"] = []any{schema.Record{"jd": 1.0, "psfFluxErr": 1.0, "band": "g", "ra": 0.0, "dec": 0.0}}
		}, "prv_candidates[0].psfFlux"},
		{"nan flux error", func(r schema.Record) {
			r["fp_hists"] = []any{schema.Record{"jd": 1.0, "psfFlux": 1.0, "psfFluxErr": math.NaN(), "band": "g"}}
		}, "fp_hists[0].psfFluxErr"},
		{"list is not a list", func(r schema.Record) { r["prv_nondetections"] = "nope" }, "prv_nondetections"},
		{"match without lists", func(r schema.Record) {
			r["survey_matches"] = schema.Record{"lsst": schema.Record{"objectId": "x", "ra": 1.0, "dec": 1.0}}
		}, "survey_matches.lsst.prv_candidates"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ztfRecord("ZTF24err", 1)
			tt.mutate(rec)

			a, err := DecodeZtf(rec)
			require.Error(t, err)
			assert.Nil(t, a)
			assert.True(t, errors.Is(err, domain.ErrDeserialization))

			var derr *domain.DeserializationError
			require.True(t, errors.As(err, &derr))
			assert.Equal(t, tt.wantPath, derr.Path)
		})
	}
}

func TestDecodeLsst(t *testing.T) {
	rec := lsstRecord("313853468366749749", 99)
	rec["prv_candidates"] = []any{detectionRecord(1, "r")}
	rec["prv_nondetections"] = []any{nonDetectionRecord(2, "r")}
	rec["classifications"] = map[string]any{"acai_h": 0.9}

	a, err := DecodeLsst(rec)
	require.NoError(t, err)

	assert.Equal(t, domain.SurveyLSST, a.Survey())
	assert.Equal(t, int32(42), a.Candidate.Detector)
	require.NotNil(t, a.Candidate.Band)
	assert.Equal(t, domain.BandR, *a.Candidate.Band)
	assert.Equal(t, 0.8, *a.DRB())
	assert.Equal(t, 0.9, a.Classifications["acai_h"])

	h, ok := a.History()
	require.True(t, ok)
	assert.Len(t, h.Detections, 1)
	assert.Empty(t, h.NonDetections, "LSST alerts carry no non-detections")
	assert.Equal(t, domain.LsstZeroPoint, h.Detections[0].ZP)

	s := a.Summary()
	assert.Equal(t, domain.BandR, s.Band)
	assert.Equal(t, 21.0, s.MagPSF)
	assert.Equal(t, 2023, s.Time.Year())
}

func TestDecodeLsst_NullBand(t *testing.T) {
	rec := lsstRecord("313853468366749749", 99)
	rec["candidate"].(schema.Record)["band"] = nil

	a, err := DecodeLsst(rec)
	require.NoError(t, err)
	assert.Nil(t, a.Candidate.Band)
	assert.Empty(t, a.Summary().Band)
}

func TestDecode_Dispatch(t *testing.T) {
	a, err := Decode(domain.SurveyLSST, lsstRecord("1", 1))
	require.NoError(t, err)
	_, ok := a.(*LsstAlert)
	assert.True(t, ok)

	_, err = Decode(domain.Survey("DECAM"), lsstRecord("1", 1))
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}
