package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/boom-astro/babamul/internal/domain"
	"github.com/boom-astro/babamul/internal/storage"
)

type objectKey struct {
	survey   domain.Survey
	objectID string
}

// PhotometryStore is an in-memory implementation of storage.PhotometryStore.
type PhotometryStore struct {
	mu   sync.RWMutex
	data map[objectKey]map[domain.PointKey]*domain.ArchivedPoint
}

// NewPhotometryStore creates a new in-memory photometry store.
func NewPhotometryStore() *PhotometryStore {
	return &PhotometryStore{
		data: make(map[objectKey]map[domain.PointKey]*domain.ArchivedPoint),
	}
}

// InsertBulk upserts points keyed by (survey, objectId, jd, band).
// The whole batch is rejected if any point is invalid.
func (s *PhotometryStore) InsertBulk(_ context.Context, points []*domain.ArchivedPoint) error {
	for _, p := range points {
		if p == nil || p.Survey == "" || p.ObjectID == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range points {
		k := objectKey{p.Survey, p.ObjectID}
		obj, ok := s.data[k]
		if !ok {
			obj = make(map[domain.PointKey]*domain.ArchivedPoint)
			s.data[k] = obj
		}
		pointCopy := *p
		obj[p.Key()] = &pointCopy
	}
	return nil
}

// GetByObjectID retrieves all points of an object, ordered by jd ASC.
func (s *PhotometryStore) GetByObjectID(_ context.Context, survey domain.Survey, objectID string) ([]*domain.ArchivedPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj := s.data[objectKey{survey, objectID}]
	result := make([]*domain.ArchivedPoint, 0, len(obj))
	for _, p := range obj {
		pointCopy := *p
		result = append(result, &pointCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].JD != result[j].JD {
			return result[i].JD < result[j].JD
		}
		return result[i].Band < result[j].Band
	})
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.PhotometryStore = (*PhotometryStore)(nil)
