package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/boom-astro/babamul/internal/alert"
	"github.com/boom-astro/babamul/internal/domain"
	"github.com/boom-astro/babamul/internal/observability"
)

// Coordinate is a sky position in degrees.
type Coordinate struct {
	RA  float64
	Dec float64
}

// GetCrossMatchesBulk returns cross-matches keyed by object id. Ids are sent
// in batches of the configured size with at most concurrency batches in
// flight. Objects without counterparts are absent from the result.
//
// A failed batch is logged and its objects are left out. The call fails when
// every batch fails or when any batch is rejected for authentication.
func (c *Client) GetCrossMatchesBulk(ctx context.Context, survey domain.Survey, objectIDs []string, concurrency int) (map[string]*domain.CrossMatches, error) {
	if err := alert.ValidateConcurrency(concurrency); err != nil {
		return nil, err
	}

	batches := chunk(unique(objectIDs), c.batchSize)
	got, err := fanOut(ctx, c, "cross_matches_bulk", survey, batches, concurrency,
		func(ctx context.Context, ids []string) (map[string]*domain.CrossMatches, error) {
			return c.crossMatchesBatch(ctx, survey, ids)
		})
	if err != nil {
		return nil, err
	}
	observability.RecordCrossMatchesReturned(survey.String(), len(got))
	return got, nil
}

func (c *Client) crossMatchesBatch(ctx context.Context, survey domain.Survey, ids []string) (map[string]*domain.CrossMatches, error) {
	var out any
	err := c.do(ctx, call{
		op:     "cross_matches_batch",
		method: http.MethodPost,
		path:   surveyPath(survey, "cross-matches"),
		body:   map[string]any{"object_ids": ids},
	}, &out)
	if err != nil {
		return nil, err
	}

	m, err := keyed("cross_matches", payload(out))
	if err != nil {
		return nil, err
	}
	result := make(map[string]*domain.CrossMatches, len(m))
	for id, v := range m {
		cm, err := decodeCrossMatches("cross_matches."+id, v)
		if err != nil {
			return nil, err
		}
		if cm != nil {
			result[id] = cm
		}
	}
	return result, nil
}

// ConeSearchBulk runs one cone search per named target and returns the
// alerts keyed by target name. Targets are batched like GetCrossMatchesBulk.
func (c *Client) ConeSearchBulk(ctx context.Context, survey domain.Survey, targets map[string]Coordinate, radiusArcsec float64, concurrency int) (map[string][]alert.Alert, error) {
	if err := alert.ValidateConcurrency(concurrency); err != nil {
		return nil, err
	}
	if err := validateRadius(radiusArcsec); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(targets))
	for name, pos := range targets {
		if err := validateCone(pos.RA, pos.Dec, radiusArcsec); err != nil {
			return nil, fmt.Errorf("target %q: %w", name, err)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	return fanOut(ctx, c, "cone_search_bulk", survey, chunk(names, c.batchSize), concurrency,
		func(ctx context.Context, batch []string) (map[string][]alert.Alert, error) {
			coords := make(map[string][2]float64, len(batch))
			for _, name := range batch {
				coords[name] = [2]float64{targets[name].RA, targets[name].Dec}
			}
			return c.coneSearchBatch(ctx, survey, coords, radiusArcsec)
		})
}

func (c *Client) coneSearchBatch(ctx context.Context, survey domain.Survey, coords map[string][2]float64, radiusArcsec float64) (map[string][]alert.Alert, error) {
	var out any
	err := c.do(ctx, call{
		op:     "cone_search_batch",
		method: http.MethodPost,
		path:   surveyPath(survey, "cone-search"),
		body:   map[string]any{"coordinates": coords, "radius_arcsec": radiusArcsec},
	}, &out)
	if err != nil {
		return nil, err
	}

	m, err := keyed("cone_search", payload(out))
	if err != nil {
		return nil, err
	}
	result := make(map[string][]alert.Alert, len(m))
	for name, v := range m {
		list, err := payloadList("cone_search."+name, v)
		if err != nil {
			return nil, err
		}
		alerts, err := c.decodeAlerts(survey, "cone_search."+name, list)
		if err != nil {
			return nil, err
		}
		result[name] = alerts
	}
	return result, nil
}

// fanOut runs fetch for every batch with bounded concurrency and merges the results.
func fanOut[T any](ctx context.Context, c *Client, op string, survey domain.Survey, batches [][]string, concurrency int,
	fetch func(context.Context, []string) (map[string]T, error)) (map[string]T, error) {
	out := make(map[string]T)
	if len(batches) == 0 {
		return out, nil
	}

	var (
		mu     sync.Mutex
		failed []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, batch := range batches {
		g.Go(func() error {
			got, err := fetch(gctx, batch)
			observability.RecordBulkBatch(op, err)
			if err != nil {
				if errors.Is(err, domain.ErrAuthentication) {
					return err
				}
				c.logger.Warn().
					Str("op", op).
					Str("survey", survey.String()).
					Int("batch", i).
					Int("size", len(batch)).
					Err(err).
					Msg("bulk batch failed")
				mu.Lock()
				failed = append(failed, fmt.Errorf("batch %d: %w", i, err))
				mu.Unlock()
				return nil
			}

			mu.Lock()
			for k, v := range got {
				out[k] = v
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(failed) == len(batches) {
		return nil, errors.Join(failed...)
	}
	return out, nil
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func chunk(items []string, size int) [][]string {
	if size < 1 {
		size = 1
	}
	var out [][]string
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}
