package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/boom-astro/babamul/internal/domain"
	"github.com/boom-astro/babamul/internal/storage"
)

// newTestClient serves mux and returns an authenticated client with fast retries.
func newTestClient(t *testing.T, mux http.Handler, opts ...ClientOption) *Client {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	base := []ClientOption{
		WithToken("test-token"),
		WithRetryDelay(time.Millisecond),
		WithMaxDelay(2 * time.Millisecond),
		WithLogger(zerolog.Nop()),
	}
	return NewClient(server.URL, append(base, opts...)...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func ztfAlertJSON(objectID string, candid int64) map[string]any {
	return map[string]any{
		"candid":   candid,
		"objectId": objectID,
		"candidate": map[string]any{
			"jd":         2460000.5,
			"fid":        1,
			"pid":        12345,
			"diffmaglim": 20.5,
			"programid":  1,
			"candid":     candid,
			"isdiffpos":  true,
			"ra":         150.1,
			"dec":        2.2,
			"magpsf":     18.5,
			"sigmapsf":   0.05,
			"ranr":       150.1,
			"decnr":      2.2,
			"ndethist":   3,
			"ncovhist":   10,
			"nmtchps":    2,
			"drb":        0.97,
			"psfFlux":    100.0,
			"psfFluxErr": 5.0,
			"snr":        20.0,
			"band":       "g",
		},
		"properties": map[string]any{
			"rock":            false,
			"star":            false,
			"near_brightstar": false,
			"stationary":      true,
			"photstats":       map[string]any{},
		},
	}
}

func detectionJSON(jd float64, band string) map[string]any {
	return map[string]any{"jd": jd, "psfFlux": 100.0, "psfFluxErr": 5.0, "band": band, "ra": 1.0, "dec": 2.0}
}

// fakeCache is an in-process storage.CutoutCache.
type fakeCache struct {
	mu   sync.Mutex
	data map[int64]*domain.Cutouts
	puts int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[int64]*domain.Cutouts)}
}

func (f *fakeCache) GetCutouts(_ context.Context, _ domain.Survey, candid int64) (*domain.Cutouts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	co, ok := f.data[candid]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return co, nil
}

func (f *fakeCache) PutCutouts(_ context.Context, _ domain.Survey, c *domain.Cutouts) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[c.Candid] = c
	f.puts++
	return nil
}
