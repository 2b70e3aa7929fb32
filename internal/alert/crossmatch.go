package alert

import (
	"context"
	"errors"
	"fmt"

	"github.com/boom-astro/babamul/internal/domain"
)

// Concurrency bounds for bulk fetches.
const (
	MinConcurrency = 1
	MaxConcurrency = 12
)

// ValidateConcurrency rejects values outside [MinConcurrency, MaxConcurrency].
func ValidateConcurrency(n int) error {
	if n < MinConcurrency || n > MaxConcurrency {
		return fmt.Errorf("%w: concurrency must be between %d and %d, got %d",
			domain.ErrConfiguration, MinConcurrency, MaxConcurrency, n)
	}
	return nil
}

// AttachCrossMatches fetches cross-matches for every alert that has none
// loaded yet, with one bulk request per survey.
//
// Nil alerts are skipped. Alerts that already hold cross-matches are left untouched. Alerts whose
// object is absent from the response stay unfetched. A failure for one
// survey does not prevent assignment for the other; all failures are
// returned joined.
func AttachCrossMatches(ctx context.Context, f Fetcher, alerts []Alert, concurrency int) error {
	if err := ValidateConcurrency(concurrency); err != nil {
		return err
	}

	partitions := make(map[domain.Survey][]*core)
	for _, a := range alerts {
		switch v := a.(type) {
		case *ZtfAlert:
			if v != nil {
				partitions[domain.SurveyZTF] = append(partitions[domain.SurveyZTF], v.base())
			}
		case *LsstAlert:
			if v != nil {
				partitions[domain.SurveyLSST] = append(partitions[domain.SurveyLSST], v.base())
			}
		}
	}

	var errs []error
	for _, survey := range []domain.Survey{domain.SurveyZTF, domain.SurveyLSST} {
		if err := attachPartition(ctx, f, survey, partitions[survey], concurrency); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func attachPartition(ctx context.Context, f Fetcher, survey domain.Survey, part []*core, concurrency int) error {
	var ids []string
	seen := make(map[string]struct{})
	for _, c := range part {
		if c.crossMatches.Fetched() {
			continue
		}
		if _, ok := seen[c.objectID]; ok {
			continue
		}
		seen[c.objectID] = struct{}{}
		ids = append(ids, c.objectID)
	}
	if len(ids) == 0 {
		return nil
	}

	got, err := f.GetCrossMatchesBulk(ctx, survey, ids, concurrency)
	if err != nil {
		return fmt.Errorf("attach %s cross-matches: %w", survey, err)
	}

	for _, c := range part {
		if c.crossMatches.Fetched() {
			continue
		}
		if cm, ok := got[c.objectID]; ok && cm != nil {
			c.crossMatches.Set(cm)
		}
	}
	return nil
}
