package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boom-astro/babamul/internal/domain"
	"github.com/boom-astro/babamul/internal/storage"
)

func point(objectID string, jd float64, band domain.Band, mag float64) *domain.ArchivedPoint {
	sigma := 0.1
	return &domain.ArchivedPoint{
		Survey:   domain.SurveyZTF,
		ObjectID: objectID,
		Photometry: domain.Photometry{
			JD:       jd,
			MagPSF:   &mag,
			SigmaPSF: &sigma,
			Band:     band,
			ZP:       domain.ZtfZeroPoint,
		},
	}
}

func TestPhotometryStore_InsertBulkAndGet(t *testing.T) {
	store := NewPhotometryStore()
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.ArchivedPoint{
		point("obj", 2, domain.BandR, 18.0),
		point("obj", 1, domain.BandR, 18.5),
		point("obj", 1, domain.BandG, 19.0),
		point("other", 1, domain.BandG, 17.0),
	})
	require.NoError(t, err)

	got, err := store.GetByObjectID(ctx, domain.SurveyZTF, "obj")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, domain.PointKey{JD: 1, Band: domain.BandG}, got[0].Key())
	assert.Equal(t, domain.PointKey{JD: 1, Band: domain.BandR}, got[1].Key())
	assert.Equal(t, domain.PointKey{JD: 2, Band: domain.BandR}, got[2].Key())
}

func TestPhotometryStore_UpsertReplaces(t *testing.T) {
	store := NewPhotometryStore()
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, []*domain.ArchivedPoint{point("obj", 1, domain.BandR, 18.5)}))
	require.NoError(t, store.InsertBulk(ctx, []*domain.ArchivedPoint{point("obj", 1, domain.BandR, 17.0)}))

	got, err := store.GetByObjectID(ctx, domain.SurveyZTF, "obj")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 17.0, *got[0].MagPSF)
}

func TestPhotometryStore_InvalidBatchRejected(t *testing.T) {
	store := NewPhotometryStore()
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.ArchivedPoint{point("obj", 1, domain.BandR, 18.5), {}})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	got, err := store.GetByObjectID(ctx, domain.SurveyZTF, "obj")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPhotometryStore_UnknownObject(t *testing.T) {
	store := NewPhotometryStore()
	got, err := store.GetByObjectID(context.Background(), domain.SurveyLSST, "missing")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
