package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/boom-astro/babamul/internal/domain"
	"github.com/boom-astro/babamul/internal/storage"
)

type alertKey struct {
	survey domain.Survey
	candid int64
}

// AlertStore is an in-memory implementation of storage.AlertStore.
type AlertStore struct {
	mu   sync.RWMutex
	data map[alertKey]*domain.ArchivedAlert
}

// NewAlertStore creates a new in-memory alert store.
func NewAlertStore() *AlertStore {
	return &AlertStore{
		data: make(map[alertKey]*domain.ArchivedAlert),
	}
}

// Insert adds a new alert. Returns ErrDuplicateKey if (survey, candid) exists.
func (s *AlertStore) Insert(_ context.Context, a *domain.ArchivedAlert) error {
	if a == nil || a.Survey == "" || a.ObjectID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := alertKey{a.Survey, a.Candid}
	if _, exists := s.data[k]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[k] = copyAlert(a)
	return nil
}

// GetByCandid retrieves an alert by survey and candid. Returns ErrNotFound if not exists.
func (s *AlertStore) GetByCandid(_ context.Context, survey domain.Survey, candid int64) (*domain.ArchivedAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.data[alertKey{survey, candid}]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyAlert(a), nil
}

// GetByObjectID retrieves all alerts of an object, ordered by jd ASC.
func (s *AlertStore) GetByObjectID(_ context.Context, survey domain.Survey, objectID string) ([]*domain.ArchivedAlert, error) {
	return s.filter(func(a *domain.ArchivedAlert) bool {
		return a.Survey == survey && a.ObjectID == objectID
	}), nil
}

// GetByJDRange retrieves alerts of a survey with jd within [start, end] (inclusive).
func (s *AlertStore) GetByJDRange(_ context.Context, survey domain.Survey, start, end float64) ([]*domain.ArchivedAlert, error) {
	return s.filter(func(a *domain.ArchivedAlert) bool {
		return a.Survey == survey && a.JD >= start && a.JD <= end
	}), nil
}

// Len returns the number of stored alerts.
func (s *AlertStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *AlertStore) filter(keep func(*domain.ArchivedAlert) bool) []*domain.ArchivedAlert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ArchivedAlert
	for _, a := range s.data {
		if keep(a) {
			result = append(result, copyAlert(a))
		}
	}

	// jd ASC, candid ASC for equal jd
	sort.Slice(result, func(i, j int) bool {
		if result[i].JD != result[j].JD {
			return result[i].JD < result[j].JD
		}
		return result[i].Candid < result[j].Candid
	})
	return result
}

func copyAlert(a *domain.ArchivedAlert) *domain.ArchivedAlert {
	c := *a
	if a.DRB != nil {
		drb := *a.DRB
		c.DRB = &drb
	}
	return &c
}

// Verify interface compliance at compile time.
var _ storage.AlertStore = (*AlertStore)(nil)
